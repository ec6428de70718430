package scramble

import (
	"math"
	"math/bits"
	"math/rand/v2"
	"testing"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/mixing"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xda3e39cb94b95bdb))
}

// =============================================================================
// HashU32 / OwenReference
// =============================================================================

func TestHashU32_KnownValues(t *testing.T) {
	assert.Equal(t, uint32(0x00000000), HashU32(0, 0))
	assert.Equal(t, uint32(0x042741d6), HashU32(1, 0))
	assert.Equal(t, uint32(0x6b69e0ab), HashU32(0, 1))
	assert.Equal(t, uint32(0x82a7ae1e), HashU32(0xdeadbeef, 42))
}

func TestOwenReference_LowBitsOnlyDependOnLowerBits(t *testing.T) {
	rng := testRand(1)
	for i := 0; i < 200; i++ {
		x, seed := rng.Uint32(), rng.Uint32()
		bit := rng.IntN(32)
		diff := OwenReference(x, seed) ^ OwenReference(x^1<<bit, seed)
		// Bits below the flipped one never change; the flipped bit always does.
		assert.Zero(t, diff&(1<<bit-1), "x=%08x bit=%d", x, bit)
		assert.NotZero(t, diff&(1<<bit), "x=%08x bit=%d", x, bit)
	}
}

func TestOwenReference_BijectiveOnLowBits(t *testing.T) {
	// The low 16 output bits are a function of the low 16 input bits only,
	// and a nested scramble permutes them.
	seen := make(map[uint32]bool, 1<<16)
	for x := uint32(0); x < 1<<16; x++ {
		y := OwenReference(x, 0x5eed) & 0xffff
		require.False(t, seen[y], "collision at x=%d", x)
		seen[y] = true
	}
}

func TestOwenReference_AvalancheFollowsTarget(t *testing.T) {
	st, err := bias.Measure(OwenReference, bias.Config{Samples: 1 << 13, Seed: 4})
	require.NoError(t, err)

	// Bit 1 is a fixed function of bit 0 per seed: fully biased.
	assert.InDelta(t, 1.0, st.Avalanche[0][1], 1e-9)
	reduced := st.ReducedBias()
	assert.InDelta(t, search.OwenTarget[2], reduced[2], 0.2)
	// Higher input bits never reach lower output bits.
	assert.InDelta(t, 1.0, st.Avalanche[20][3], 1e-9)
}

// =============================================================================
// Presets
// =============================================================================

func TestLookup(t *testing.T) {
	p, err := Lookup("v5-opt")
	require.NoError(t, err)
	assert.Equal(t, "v5-opt", p.Name)

	_, err = Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestNames_Catalogue(t *testing.T) {
	assert.Equal(t, []string{"owen", "lk", "lk-rounds", "v3", "v4", "v4-opt", "v5", "v5-opt", "add-xor"}, Names())
	assert.Len(t, Presets(), len(Names()))
}

func TestPresets_BuildAndAreDeterministic(t *testing.T) {
	table := RandomTable(testRand(2), TableSize)
	for _, p := range Presets() {
		for _, rounds := range DefaultRounds {
			h, err := p.Hash(rounds, table)
			require.NoError(t, err, "%s/%d", p.Name, rounds)
			g, err := p.Hash(rounds, table)
			require.NoError(t, err)
			for _, x := range []uint32{0, 1, 0x80000000, 0xdeadbeef} {
				assert.Equal(t, h(x, 99), g(x, 99), "%s/%d", p.Name, rounds)
			}
		}
	}
}

func TestPreset_LKKnownValues(t *testing.T) {
	p, err := Lookup("lk")
	require.NoError(t, err)
	h, err := p.Hash(1, nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3707b665), h(1, 0))
	assert.Equal(t, uint32(0x1cdf2f3b), h(0x12345678, 7))
}

func TestPreset_OptimizedVariantsCapRounds(t *testing.T) {
	p, err := Lookup("v4-opt")
	require.NoError(t, err)
	assert.Equal(t, 3, p.Rounds(256))
	assert.Equal(t, 2, p.Rounds(2))

	three, err := p.Hash(3, nil)
	require.NoError(t, err)
	many, err := p.Hash(64, nil)
	require.NoError(t, err)
	assert.Equal(t, three(12345, 6), many(12345, 6))
}

func TestPreset_ShortTable(t *testing.T) {
	p, err := Lookup("v5")
	require.NoError(t, err)
	_, err = p.Hash(4, make([]uint32, 7))
	assert.ErrorIs(t, err, ErrShortTable)
	_, err = p.Hash(4, make([]uint32, 8))
	assert.NoError(t, err)

	_, err = p.Hash(-1, nil)
	assert.Error(t, err)
}

func TestPreset_AddXorCyclesTable(t *testing.T) {
	p, err := Lookup("add-xor")
	require.NoError(t, err)
	table := []uint32{3, 5}
	h, err := p.Hash(4, table)
	require.NoError(t, err)

	want := uint32(10) + HashU32(7, 0)
	for i := 0; i < 4; i++ {
		want += 3
		want ^= 5
	}
	assert.Equal(t, want, h(10, 7))
}

func TestPreset_V5RoundsImproveBias(t *testing.T) {
	p, err := Lookup("v5")
	require.NoError(t, err)
	table := RandomTable(testRand(3), TableSize)

	one, err := p.Hash(1, table)
	require.NoError(t, err)
	four, err := p.Hash(4, table)
	require.NoError(t, err)

	cfg := bias.Config{Samples: 1 << 12, Seed: 8}
	a, err := bias.Measure(one, cfg)
	require.NoError(t, err)
	b, err := bias.Measure(four, cfg)
	require.NoError(t, err)
	assert.Less(t, b.AverageBias(), a.AverageBias())
}

// =============================================================================
// PairStrategy
// =============================================================================

func TestPairStrategy_Generate(t *testing.T) {
	s := NewPairStrategy(testRand(5))
	p := s.Generate()
	assert.Equal(t, Pairs{0xfad85de6, 0xf6db595b, 0x17ebb038, 0xe100f46f, 0x09e4ac1a, 0xe1d8c1ff, p[6], p[7]}, p)
	assert.Zero(t, p[6]&1)
	assert.Equal(t, uint32(1), p[7]&1)
}

func TestPairStrategy_MutateFlipsOneHighBitOfTunedPair(t *testing.T) {
	s := NewPairStrategy(testRand(6))
	p := s.Generate()
	for i := 0; i < 500; i++ {
		q := s.Mutate(p)
		assert.Equal(t, p[:6], q[:6])
		d := (p[6] ^ q[6]) | (p[7] ^ q[7])
		assert.Equal(t, 1, bits.OnesCount32(d))
		assert.Zero(t, d&1, "bit 0 must not flip")
		p = q
	}
}

func TestPairStrategy_ExecuteIsPure(t *testing.T) {
	s := NewPairStrategy(testRand(7))
	p := s.Generate()
	assert.Equal(t, s.Execute(42, p, 9), s.Execute(42, p, 9))
	assert.NotEqual(t, s.Execute(42, p, 9), s.Execute(42, p, 10))
}

// =============================================================================
// SequenceStrategy
// =============================================================================

func TestSequenceStrategy_MutateCopies(t *testing.T) {
	s := NewSequenceStrategy(testRand(8), 6)
	seq := s.Generate()
	require.Len(t, seq, 6)
	orig := seq.Clone()

	for i := 0; i < 300; i++ {
		m := s.Mutate(seq)
		require.Len(t, m, 6)
		assert.Equal(t, orig, seq, "Mutate must not touch its input")

		changed := 0
		for j := range m {
			if m[j] != seq[j] {
				changed++
			}
		}
		assert.LessOrEqual(t, changed, 1)
	}
}

func TestSequenceStrategy_MutateKeepsShiftsNonZero(t *testing.T) {
	s := NewSequenceStrategy(testRand(9), 1)
	seq := mixing.Sequence{mixing.NewOp(mixing.ShlXor, mixing.Fixed(1))}
	for i := 0; i < 500; i++ {
		seq = s.Mutate(seq)
		op := seq[0]
		if (op.Kind == mixing.ShlXor || op.Kind == mixing.ShlAdd) && !op.Param.FromSeed {
			assert.NotZero(t, op.Param.Value)
		}
	}
}

func TestSequenceStrategy_ExecuteSeedsInput(t *testing.T) {
	s := NewSequenceStrategy(testRand(10), 3)
	assert.Equal(t, 5+HashU32(11, 0), s.Execute(5, nil, 11))
}

func TestSequenceHash_MatchesStrategy(t *testing.T) {
	s := NewSequenceStrategy(testRand(13), 4)
	seq := s.Generate()

	seeded := SequenceHash(seq, false)
	raw := SequenceHash(seq, true)
	for _, x := range []uint32{0, 7, 0xffffffff} {
		assert.Equal(t, s.Execute(x, seq, 21), seeded(x, 21))
		assert.Equal(t, seq.Execute(x, 21), raw(x, 21))
	}
}

// =============================================================================
// End to end
// =============================================================================

func TestOptimize_PairStrategyEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the bias engine for every candidate")
	}
	res, err := search.Optimize[Pairs](NewPairStrategy(testRand(11)), search.Options{
		Rounds:   5,
		Sampling: bias.Config{Samples: 1 << 14, Seed: 12},
	})
	require.NoError(t, err)

	require.Len(t, res.History, 5)
	for i := 1; i < len(res.History); i++ {
		assert.LessOrEqual(t, res.History[i], res.History[i-1])
	}
	assert.False(t, math.IsInf(res.Best.Score, 0))
	assert.False(t, math.IsNaN(res.Best.Score))
	// At 1<<14 samples the tree term alone has a noise floor near 15.
	assert.Less(t, res.Best.Score, 40.0)
	assert.Equal(t, 10, res.Scored)
}
