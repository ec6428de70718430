package search

import (
	"math"
	"testing"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Stub strategy and scripted objective
// =============================================================================

// counterStrategy hands out increasing ids from Generate and offsets them
// by 1000 in Mutate, so tests can tell where a winner came from.
type counterStrategy struct {
	next      int
	generated int
	mutated   int
}

func (s *counterStrategy) Generate() int {
	s.generated++
	id := 100 + s.next
	s.next++
	return id
}

func (s *counterStrategy) Mutate(p int) int {
	s.mutated++
	return p + 1000
}

func (s *counterStrategy) Execute(input uint32, p int, seed uint32) uint32 {
	return input ^ seed ^ uint32(p)
}

// scripted returns the given scores in call order.
func scripted(t *testing.T, scores ...float64) Objective {
	t.Helper()
	i := 0
	return ObjectiveFunc(func(*bias.Stats) float64 {
		require.Less(t, i, len(scores), "objective called more often than scripted")
		s := scores[i]
		i++
		return s
	})
}

func smallSampling() bias.Config {
	return bias.Config{Samples: 256, Workers: 2, Seed: 1}
}

// =============================================================================
// Selection loop
// =============================================================================

func TestOptimize_GreedyAcceptance(t *testing.T) {
	s := &counterStrategy{}
	var rounds []Round
	res, err := Optimize[int](s, Options{
		Rounds:         3,
		PopulationSize: 2,
		Sampling:       smallSampling(),
		Objective:      scripted(t, 5, 7, 6, 3, 9, 1),
		OnRound:        func(r Round) { rounds = append(rounds, r) },
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{5, 3, 1}, res.History)
	assert.Equal(t, 1.0, res.Best.Score)
	// Round 2, slot 1 is a fresh Generate: 2 initial + one per round.
	assert.Equal(t, 104, res.Best.Params)
	require.NotNil(t, res.Best.Stats)
	assert.Equal(t, uint64(256), res.Best.Stats.Samples)

	require.Len(t, rounds, 3)
	assert.Equal(t, []int{2, 1, 1}, []int{rounds[0].Accepted, rounds[1].Accepted, rounds[2].Accepted})
	assert.Equal(t, 2, rounds[2].Index)
	assert.Equal(t, 3, rounds[2].Rounds)
	assert.Equal(t, 3, s.mutated)
	assert.Equal(t, 5, s.generated)
}

func TestOptimize_EqualScoreIsRejected(t *testing.T) {
	s := &counterStrategy{}
	var accepted []int
	res, err := Optimize[int](s, Options{
		Rounds:         2,
		PopulationSize: 1,
		Sampling:       smallSampling(),
		Objective:      scripted(t, 4, 4),
		OnRound:        func(r Round) { accepted = append(accepted, r.Accepted) },
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, accepted)
	assert.Equal(t, 101, res.Best.Params)
	// A population of one never mutates.
	assert.Zero(t, s.mutated)
}

func TestOptimize_CallCountAndMonotoneHistory(t *testing.T) {
	calls := 0
	score := 100.0
	obj := ObjectiveFunc(func(*bias.Stats) float64 {
		calls++
		// Oscillates so that some proposals are worse than the incumbents.
		score += math.Pow(-1, float64(calls)) * float64(calls%7)
		return score
	})
	res, err := Optimize[int](&counterStrategy{}, Options{
		Rounds:         12,
		PopulationSize: 4,
		Sampling:       smallSampling(),
		Objective:      obj,
	})
	require.NoError(t, err)

	assert.Equal(t, 48, calls)
	assert.Equal(t, 48, res.Scored)
	require.Len(t, res.History, 12)
	for i := 1; i < len(res.History); i++ {
		assert.LessOrEqual(t, res.History[i], res.History[i-1], "round %d", i)
	}
	assert.Equal(t, res.History[len(res.History)-1], res.Best.Score)
}

func TestOptimize_ZeroRounds(t *testing.T) {
	s := &counterStrategy{}
	res, err := Optimize[int](s, Options{Sampling: smallSampling()})
	require.NoError(t, err)
	assert.Empty(t, res.History)
	assert.Zero(t, res.Scored)
	assert.True(t, math.IsInf(res.Best.Score, 1))
	assert.Equal(t, 100, res.Best.Params)
	assert.Equal(t, 2, s.generated)
}

func TestOptimize_InvalidOptions(t *testing.T) {
	for _, opts := range []Options{
		{Rounds: -1},
		{Rounds: 1, PopulationSize: -3},
		{Rounds: 1, Sampling: bias.Config{Samples: -1}},
		{Rounds: 1, Sampling: bias.Config{Samples: 10, Workers: -1}},
	} {
		_, err := Optimize[int](&counterStrategy{}, opts)
		assert.ErrorIs(t, err, ErrInvalidOptions, "options %+v", opts)
	}
}

// =============================================================================
// Sampling seeds
// =============================================================================

// mulStrategy scores a multiply-xorshift hash; P is unused.
type mulStrategy struct{}

func (mulStrategy) Generate() int    { return 0 }
func (mulStrategy) Mutate(p int) int { return p }
func (mulStrategy) Execute(x uint32, _ int, seed uint32) uint32 {
	x ^= seed
	x *= 0x9e3779b1
	return x ^ x>>15
}

func TestOptimize_EachScoringCallResamples(t *testing.T) {
	var seen []float64
	obj := ObjectiveFunc(func(st *bias.Stats) float64 {
		seen = append(seen, st.Avalanche[3][20])
		return 0
	})
	_, err := Optimize[int](mulStrategy{}, Options{
		Rounds:    3,
		Sampling:  smallSampling(),
		Objective: obj,
	})
	require.NoError(t, err)
	require.Len(t, seen, 6)

	distinct := map[float64]bool{}
	for _, v := range seen {
		distinct[v] = true
	}
	assert.Greater(t, len(distinct), 1, "identical proposals should see different samples")
}

func TestOptimize_ReplaysForSameSeed(t *testing.T) {
	run := func() []float64 {
		res, err := Optimize[int](mulStrategy{}, Options{Rounds: 4, Sampling: smallSampling()})
		require.NoError(t, err)
		return res.History
	}
	assert.Equal(t, run(), run())
}

// =============================================================================
// Objective
// =============================================================================

func TestTargetObjective_PerfectStatsScoreZero(t *testing.T) {
	var st bias.Stats
	for i := 0; i < bias.Bits; i++ {
		for j := 0; j < bias.Bits; j++ {
			st.Tree[i][j] = 0.5
			st.Avalanche[i][j] = OwenTarget[j]
		}
	}
	assert.InDelta(t, 0.0, TargetObjective{Curve: OwenTarget}.Score(&st), 1e-12)
}

func TestTargetObjective_TermsOnlyReadUpperTriangle(t *testing.T) {
	var st bias.Stats
	for i := 0; i < bias.Bits; i++ {
		for j := 0; j < bias.Bits; j++ {
			st.Tree[i][j] = 0.5
			st.Avalanche[i][j] = OwenTarget[j]
		}
	}
	// Diagonal and lower-triangle cells are ignored.
	st.Tree[5][5] = 9
	st.Tree[7][2] = 9
	st.Avalanche[4][4] = 9
	st.Avalanche[9][1] = 9
	assert.InDelta(t, 0.0, TreeTerm(&st), 1e-12)
	assert.InDelta(t, 0.0, AvalancheTerm(&st, &OwenTarget), 1e-12)

	st.Tree[2][7] = 1.5
	st.Avalanche[1][9] = OwenTarget[9] + 0.5
	assert.InDelta(t, 1.0, TreeTerm(&st), 1e-12)
	assert.InDelta(t, 0.25, AvalancheTerm(&st, &OwenTarget), 1e-12)
}

func TestOwenTarget_Shape(t *testing.T) {
	assert.Equal(t, 0.0, OwenTarget[0])
	assert.Equal(t, 1.0, OwenTarget[1])
	for k := 2; k < bias.Bits; k++ {
		assert.Less(t, OwenTarget[k], OwenTarget[k-1], "bit %d", k)
	}
}
