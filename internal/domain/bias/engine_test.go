package bias

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Reference hashes
// =============================================================================

func identity(x, _ uint32) uint32 { return x }

func xorSeed(x, seed uint32) uint32 { return x ^ seed }

// prospector is a well-mixed seeded hash; every input bit affects every
// output bit with probability close to one half.
func prospector(x, seed uint32) uint32 {
	n := x + seed*0x736caf6f
	n ^= n >> 17
	n *= 0xed5ad4bb
	n ^= n >> 11
	n *= 0xac4c1b51
	n ^= n >> 15
	n *= 0x31848bab
	n ^= n >> 14
	return n
}

// =============================================================================
// Config
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	for _, cfg := range []Config{
		{Samples: 0},
		{Samples: -5},
		{Samples: 10, ChunkSize: -1},
		{Samples: 10, Workers: -2},
		{Samples: math.MaxInt - 10, ChunkSize: 256},
		{Samples: MaxChunks + 1, ChunkSize: 1},
	} {
		err := cfg.Validate()
		assert.True(t, errors.Is(err, ErrInvalidConfig), "config %+v", cfg)
	}
	assert.NoError(t, Config{Samples: 1}.Validate())
	assert.NoError(t, Config{Samples: MaxChunks, ChunkSize: 1}.Validate())
}

func TestConfig_ChunksNeverOverflow(t *testing.T) {
	cfg := Config{Samples: math.MaxInt - 10, ChunkSize: 256}
	assert.Equal(t, (math.MaxInt-11)/256+1, cfg.Chunks())
	assert.Positive(t, cfg.Chunks())

	_, err := Measure(identity, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_RoundsUpToWholeChunks(t *testing.T) {
	cfg := Config{Samples: 1000, ChunkSize: 256}
	assert.Equal(t, 4, cfg.Chunks())
	assert.Equal(t, uint64(1024), cfg.Total())

	cfg = Config{Samples: 512}
	assert.Equal(t, 2, cfg.Chunks())
	assert.Equal(t, uint64(512), cfg.Total())
}

func TestMeasure_InvalidConfig(t *testing.T) {
	_, err := Measure(identity, Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

// =============================================================================
// Avalanche behaviour on degenerate hashes
// =============================================================================

func TestMeasure_IdentityAvalancheIsFullyBiased(t *testing.T) {
	// Flipping bit b flips exactly output bit b: the diagonal always flips
	// and every other pair never does. Both are maximal bias.
	st, err := Measure(identity, Config{Samples: 1 << 12, Seed: 1})
	require.NoError(t, err)
	for in := 0; in < Bits; in++ {
		for out := 0; out < Bits; out++ {
			assert.InDelta(t, 1.0, st.Avalanche[in][out], 1e-12, "[%d][%d]", in, out)
		}
	}
	assert.InDelta(t, 1.0, st.AverageBias(), 1e-12)
	assert.Equal(t, uint64(1<<12), st.Samples)
}

func TestMeasure_XorSeedMatchesIdentity(t *testing.T) {
	// The seed only offsets the input; it does not change which bits flip.
	a, err := Measure(identity, Config{Samples: 1 << 11, Seed: 9})
	require.NoError(t, err)
	b, err := Measure(xorSeed, Config{Samples: 1 << 11, Seed: 10})
	require.NoError(t, err)
	assert.Equal(t, a.Avalanche, b.Avalanche)
}

func TestMeasure_IdentityTreeUsesRowZero(t *testing.T) {
	// in^out cancels for the identity, so x is always bin 0.
	st, err := Measure(identity, Config{Samples: 1 << 12, Seed: 3})
	require.NoError(t, err)
	for x := 1; x < Bits; x++ {
		for y := 0; y < Bits; y++ {
			assert.Zero(t, st.Tree[x][y])
		}
	}
	// Row zero holds every accepted sample: about half of them.
	assert.InDelta(t, 0.5, st.TreeMean(), 0.05)
}

// =============================================================================
// Well-mixed hash
// =============================================================================

func TestMeasure_WellMixedHashHasLowBias(t *testing.T) {
	st, err := Measure(prospector, Config{Samples: 1 << 14, Seed: 77})
	require.NoError(t, err)

	// With 256 samples per chunk the per-cell estimate bottoms out near
	// E|Bin(256, 1/2) - 128| * 2 / 256 ≈ 0.05.
	avg := st.AverageBias()
	assert.Greater(t, avg, 0.03)
	assert.Less(t, avg, 0.08)
	assert.Less(t, st.MaxBias(), 0.3)

	assert.InDelta(t, 0.5, st.TreeMean(), 0.03)
	for in := 0; in < Bits; in++ {
		for out := 0; out < Bits; out++ {
			assert.GreaterOrEqual(t, st.Avalanche[in][out], 0.0)
			assert.LessOrEqual(t, st.Avalanche[in][out], 1.0)
		}
	}
}

// =============================================================================
// Reduction and scheduling
// =============================================================================

func TestMeasure_WorkerCountDoesNotChangeResult(t *testing.T) {
	base := Config{Samples: 1 << 12, ChunkSize: 64, Seed: 1234}

	serial := base
	serial.Workers = 1
	a, err := Measure(prospector, serial)
	require.NoError(t, err)

	parallel := base
	parallel.Workers = 8
	b, err := Measure(prospector, parallel)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestMeasure_SameSeedReplays(t *testing.T) {
	cfg := Config{Samples: 2048, Seed: 55}
	a, err := Measure(prospector, cfg)
	require.NoError(t, err)
	b, err := Measure(prospector, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	cfg.Seed = 56
	c, err := Measure(prospector, cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a.Avalanche, c.Avalanche)
}

func TestMeasure_ChunkingInvariantForDeterministicAvalanche(t *testing.T) {
	one, err := Measure(identity, Config{Samples: 1024, ChunkSize: 1024, Workers: 1})
	require.NoError(t, err)
	many, err := Measure(identity, Config{Samples: 1024, ChunkSize: 1, Workers: 4})
	require.NoError(t, err)
	assert.Equal(t, one.Avalanche, many.Avalanche)
	assert.Equal(t, one.Samples, many.Samples)
}

func TestStats_AddIsOrderIndependent(t *testing.T) {
	parts := make([]*Stats, 6)
	for i := range parts {
		parts[i] = measureChunk(prospector, chunkRand(8, i), 16)
	}

	var fwd, rev Stats
	for i := range parts {
		fwd.Add(parts[i])
		rev.Add(parts[len(parts)-1-i])
	}
	for i := 0; i < Bits; i++ {
		for j := 0; j < Bits; j++ {
			assert.InDelta(t, fwd.Avalanche[i][j], rev.Avalanche[i][j], 1e-9)
			assert.InDelta(t, fwd.Tree[i][j], rev.Tree[i][j], 1e-9)
		}
	}
}

// countingProgress counts ticks from concurrent chunks.
type countingProgress struct{ n atomic.Int64 }

func (c *countingProgress) Add(n int) { c.n.Add(int64(n)) }

func TestMeasure_ProgressTicksPerChunk(t *testing.T) {
	prog := &countingProgress{}
	_, err := Measure(identity, Config{Samples: 1000, ChunkSize: 100, Workers: 3, Progress: prog})
	require.NoError(t, err)
	assert.Equal(t, int64(10), prog.n.Load())
}

func TestMeasure_HashCalledConcurrentlyIsSafe(t *testing.T) {
	var calls atomic.Int64
	h := func(x, seed uint32) uint32 {
		calls.Add(1)
		return prospector(x, seed)
	}
	cfg := Config{Samples: 512, ChunkSize: 32, Workers: 4}
	_, err := Measure(h, cfg)
	require.NoError(t, err)
	// 1 + 32 avalanche calls and 2 tree calls per sample.
	assert.Equal(t, int64(512*35), calls.Load())
}

// =============================================================================
// Tree binning
// =============================================================================

func TestTreeBin(t *testing.T) {
	// reverse(d) >> 26 takes the low six bits of d, reversed. y is in range
	// only when bit 0 of in3^in4 is set.
	_, _, ok := treeBin(0, 0b10, 0, 0)
	assert.False(t, ok)

	x, y, ok := treeBin(0, 0b1, 0, 0b1)
	require.True(t, ok)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	// d = 0b000011: reversed top six bits = 0b110000 = 48 → y = 16.
	x, y, ok = treeBin(0, 0b11, 0, 0b10)
	require.True(t, ok)
	assert.Equal(t, 16, y)
	// in^out = 0b11 ^ 0b10 = 0b01 → 0b100000 = 32 → x masked to 0.
	assert.Equal(t, 0, x)
}
