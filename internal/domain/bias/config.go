package bias

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// DefaultChunkSize is the number of inner iterations per chunk. Every chunk
// draws one seed, so it also fixes how many inputs share a seed.
const DefaultChunkSize = 256

// MaxChunks bounds the chunk count of one measurement; every chunk keeps a
// partial Stats slot until the merge.
const MaxChunks = 1 << 28

// ErrInvalidConfig is returned (wrapped) for unusable sampling settings.
var ErrInvalidConfig = errors.New("bias: invalid config")

// Config controls one measurement.
type Config struct {
	Samples   int // requested sample count, rounded up to whole chunks
	ChunkSize int // inner iterations per chunk; 0 means DefaultChunkSize
	Workers   int // concurrent chunks; 0 means GOMAXPROCS

	// Seed selects the random stream. Chunk i always draws from the stream
	// derived from (Seed, i), so results never depend on Workers.
	Seed uint64

	// Progress receives one tick per finished chunk. May be nil.
	Progress ports.Progress
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if c.Samples <= 0 {
		return fmt.Errorf("%w: samples must be positive, got %d", ErrInvalidConfig, c.Samples)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk size must not be negative, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	if n := c.Chunks(); n > MaxChunks {
		return fmt.Errorf("%w: %d samples need %d chunks, limit is %d", ErrInvalidConfig, c.Samples, n, MaxChunks)
	}
	return nil
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Progress == nil {
		c.Progress = ports.NoProgress{}
	}
	return c
}

// Chunks is the number of chunks Samples is split into.
func (c Config) Chunks() int {
	c = c.withDefaults()
	if c.Samples <= 0 {
		return 0
	}
	return (c.Samples-1)/c.ChunkSize + 1
}

// Total is the effective sample count: Samples rounded up to whole chunks.
func (c Config) Total() uint64 {
	c = c.withDefaults()
	return uint64(c.Chunks()) * uint64(c.ChunkSize)
}
