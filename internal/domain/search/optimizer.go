// Package search looks for hash parameters with low bias. It keeps a small
// population of candidates, refines the better half by mutation, re-seeds
// the worse half with fresh candidates, and only ever accepts a proposal that
// scores strictly better than the slot it would replace.
//
// Scores come from bias.Measure and are therefore noisy; greedy acceptance
// over many rounds tends to keep only improvements that survive resampling.
package search

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
)

// Strategy supplies the candidate space. P is opaque to the optimizer.
//
// Generate and Mutate are only called from the optimizer goroutine.
// Execute is called concurrently by the measurement engine and must be pure.
type Strategy[P any] interface {
	Generate() P
	Mutate(p P) P
	Execute(input uint32, p P, seed uint32) uint32
}

// DefaultScoringSamples is the per-candidate sample count. Reporting runs
// use far more; scoring trades precision for rounds.
const DefaultScoringSamples = 1 << 14

// ErrInvalidOptions is returned (wrapped) for unusable optimizer settings.
var ErrInvalidOptions = errors.New("search: invalid options")

// Options configures Optimize.
type Options struct {
	Rounds         int // exact number of rounds; no early exit
	PopulationSize int // 0 means 2

	// Sampling is used for every scoring call. Its Seed is the base of the
	// per-call seeds, so a run replays exactly for the same strategy state.
	// Samples 0 means DefaultScoringSamples.
	Sampling bias.Config

	// Objective scores measurements. nil means TargetObjective{OwenTarget}.
	Objective Objective

	// OnRound is called after every round. May be nil.
	OnRound func(Round)
}

// Round reports the state after one round.
type Round struct {
	Index    int     // zero-based
	Rounds   int     // total rounds
	Best     float64 // best score in the population
	Accepted int     // proposals accepted this round
}

// Candidate is one member of the population.
type Candidate[P any] struct {
	Params P
	Score  float64
	Stats  *bias.Stats
}

// Result is the outcome of Optimize.
type Result[P any] struct {
	Best    Candidate[P]
	History []float64 // best score after each round; never increases
	Scored  int       // number of scoring calls
}

func (o Options) withDefaults() Options {
	if o.PopulationSize == 0 {
		o.PopulationSize = 2
	}
	if o.Sampling.Samples == 0 {
		o.Sampling.Samples = DefaultScoringSamples
	}
	if o.Objective == nil {
		o.Objective = TargetObjective{Curve: OwenTarget}
	}
	return o
}

// Validate reports the first unusable setting.
func (o Options) Validate() error {
	o = o.withDefaults()
	if o.Rounds < 0 {
		return fmt.Errorf("%w: rounds must not be negative, got %d", ErrInvalidOptions, o.Rounds)
	}
	if o.PopulationSize < 1 {
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidOptions, o.PopulationSize)
	}
	if err := o.Sampling.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return nil
}

// Optimize runs the population search and returns the best candidate found.
// With zero rounds the best candidate is an unscored Generate() result.
func Optimize[P any](s Strategy[P], opts Options) (Result[P], error) {
	if err := opts.Validate(); err != nil {
		return Result[P]{}, err
	}
	opts = opts.withDefaults()

	pop := make([]Candidate[P], opts.PopulationSize)
	for i := range pop {
		pop[i] = Candidate[P]{Params: s.Generate(), Score: math.Inf(1), Stats: &bias.Stats{}}
	}

	res := Result[P]{History: make([]float64, 0, opts.Rounds)}
	half := opts.PopulationSize / 2

	for round := 0; round < opts.Rounds; round++ {
		slices.SortFunc(pop, func(a, b Candidate[P]) int { return cmp.Compare(a.Score, b.Score) })

		accepted := 0
		for i := range pop {
			var proposal P
			if i < half {
				proposal = s.Mutate(pop[i].Params)
			} else {
				proposal = s.Generate()
			}

			score, st, err := scoreCandidate(s, proposal, opts, res.Scored)
			if err != nil {
				return res, err
			}
			res.Scored++

			if score < pop[i].Score {
				pop[i] = Candidate[P]{Params: proposal, Score: score, Stats: st}
				accepted++
			}
		}

		best := bestOf(pop)
		res.History = append(res.History, best.Score)
		if opts.OnRound != nil {
			opts.OnRound(Round{Index: round, Rounds: opts.Rounds, Best: best.Score, Accepted: accepted})
		}
	}

	res.Best = bestOf(pop)
	return res, nil
}

// scoreCandidate measures one proposal. Call n samples with its own seed.
func scoreCandidate[P any](s Strategy[P], p P, opts Options, n int) (float64, *bias.Stats, error) {
	cfg := opts.Sampling
	cfg.Seed = opts.Sampling.Seed + uint64(n)*0x9e3779b97f4a7c15
	st, err := bias.Measure(func(input, seed uint32) uint32 {
		return s.Execute(input, p, seed)
	}, cfg)
	if err != nil {
		return 0, nil, err
	}
	return opts.Objective.Score(&st), &st, nil
}

func bestOf[P any](pop []Candidate[P]) Candidate[P] {
	best := pop[0]
	for _, c := range pop[1:] {
		if c.Score < best.Score {
			best = c
		}
	}
	return best
}
