// Package bias estimates how far a seeded 32-bit hash is from an ideal
// Owen scramble, by Monte Carlo sampling.
//
// Two statistics are gathered:
//
//   - avalanche bias: for a fixed seed, how often flipping input bit i flips
//     output bit j, reported as the distance from one half;
//   - tree-seeding bias: for pairs of inputs under a shared seed, how the
//     differences of inputs and outputs distribute over 32×32 bins of their
//     leading bits.
//
// Work is split into chunks that run on a bounded goroutine pool. Each chunk
// owns its random stream and its partial Stats; partials are merged in chunk
// order once all of them are done.
package bias

import (
	"math"
	"math/bits"
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"
)

// HashFunc is a candidate scramble: output = h(input, seed).
// It must be deterministic and safe for concurrent use.
type HashFunc func(input, seed uint32) uint32

// Measure runs cfg.Samples samples (rounded up to whole chunks) of both bias
// tests against h and returns the normalized statistics.
func Measure(h HashFunc, cfg Config) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	cfg = cfg.withDefaults()

	chunks := cfg.Chunks()
	partials := make([]*Stats, chunks)

	p := pool.New().WithMaxGoroutines(cfg.Workers)
	for i := 0; i < chunks; i++ {
		i := i
		p.Go(func() {
			partials[i] = measureChunk(h, chunkRand(cfg.Seed, i), cfg.ChunkSize)
			cfg.Progress.Add(1)
		})
	}
	p.Wait()

	var total Stats
	for _, part := range partials {
		total.Add(part)
	}
	total.Normalize(cfg.Total())
	return total, nil
}

// chunkRand returns the random stream of chunk i.
func chunkRand(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, splitmix64(seed^uint64(i)*0x9e3779b97f4a7c15)))
}

// measureChunk runs n samples under one avalanche seed. Avalanche cells are
// returned as absolute deviations from n/2; tree cells as raw hit counts.
func measureChunk(h HashFunc, rng *rand.Rand, n int) *Stats {
	var st Stats
	seed := rng.Uint32()

	for s := 0; s < n; s++ {
		in1 := rng.Uint32()
		out1 := h(in1, seed)

		for bitIn := 0; bitIn < Bits; bitIn++ {
			diff := out1 ^ h(in1^(1<<bitIn), seed)
			row := &st.Avalanche[bitIn]
			for diff != 0 {
				row[bits.TrailingZeros32(diff)]++
				diff &= diff - 1
			}
		}

		seed2 := rng.Uint32()
		in3 := rng.Uint32()
		out3 := h(in3, seed2)
		in4 := rng.Uint32()
		out4 := h(in4, seed2)
		if x, y, ok := treeBin(in3, in4, out3, out4); ok {
			st.Tree[x][y]++
		}
	}

	half := float64(n) / 2
	for i := range st.Avalanche {
		for j := range st.Avalanche[i] {
			st.Avalanche[i][j] = math.Abs(st.Avalanche[i][j] - half)
		}
	}
	return &st
}

// treeBin maps a pair of samples to its tree-seeding cell. x comes from the
// top six bits of reverse(in3^in4^out3^out4), y from the top six bits of
// reverse(in3^in4) less 32. Samples whose y falls outside [0, 32) are
// dropped; that loses about half the pairs and is accepted.
func treeBin(in3, in4, out3, out4 uint32) (x, y int, ok bool) {
	x = int(bits.Reverse32(in3^in4^out3^out4) >> 26)
	y = int(bits.Reverse32(in3^in4)>>26) - Bits
	if y < 0 || y >= Bits {
		return 0, 0, false
	}
	return x & (Bits - 1), y & (Bits - 1), true
}

// splitmix64 is the SplitMix64 finalizer, used to spread chunk indices
// across PCG stream selectors.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
