package app

import (
	"fmt"
	"log/slog"

	"github.com/gkoulin/owen-hash-experiments/internal/adapters/plot"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/mixing"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/scramble"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/search"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// Search strategies accepted by RunOptimize.
const (
	StrategyPair     = "pair"
	StrategySequence = "sequence"
)

// OptimizeRequest configures one optimizer run. Zero fields take their value
// from Config.
type OptimizeRequest struct {
	Strategy   string // StrategyPair (default) or StrategySequence
	Rounds     int
	Population int
	Length     int // op count for StrategySequence
	Samples    int // samples per scoring call
	Plot       bool
}

// OptimizeResult is the best candidate of a run.
type OptimizeResult struct {
	Strategy string
	Seed     uint64

	Pairs    scramble.Pairs  // set for StrategyPair
	Sequence mixing.Sequence // set for StrategySequence
	Params   []string        // archived text form of the parameters

	Score   float64
	Stats   bias.Stats
	History []float64
	Scored  int
	RunID   uint64
	Plot    string // path of the score-history plot, if written
}

// RunOptimize searches for the parameters of the requested strategy that
// score lowest, archives the winner and optionally plots the score history.
func (a *App) RunOptimize(req OptimizeRequest) (*OptimizeResult, error) {
	req = a.optimizeDefaults(req)
	if req.Rounds <= 0 {
		// An unscored candidate has an infinite score, which the archive can't hold.
		return nil, fmt.Errorf("%w: rounds must be positive, got %d", search.ErrInvalidOptions, req.Rounds)
	}
	seed := a.runSeed()
	rng := newRand(seed)
	opts := search.Options{
		Rounds:         req.Rounds,
		PopulationSize: req.Population,
		Sampling:       a.Config.Sampling(req.Samples, seed),
		Objective:      defaultObjective,
	}

	log := a.Log.With(slog.String("component", "optimize"), slog.String("strategy", req.Strategy))
	log.Info("search started",
		slog.Uint64("seed", seed),
		slog.Int("rounds", req.Rounds),
		slog.Int("population", req.Population),
		slog.Int("samples", req.Samples),
	)

	res := &OptimizeResult{Strategy: req.Strategy, Seed: seed}
	switch req.Strategy {
	case StrategyPair:
		best, err := runSearch[scramble.Pairs](a, scramble.NewPairStrategy(rng), opts, res)
		if err != nil {
			return nil, err
		}
		res.Pairs = best
		res.Params = make([]string, len(best))
		for i, p := range best {
			res.Params[i] = fmt.Sprintf("0x%08x", p)
		}
	case StrategySequence:
		best, err := runSearch[mixing.Sequence](a, scramble.NewSequenceStrategy(rng, req.Length), opts, res)
		if err != nil {
			return nil, err
		}
		res.Sequence = best
		res.Params = make([]string, len(best))
		for i, op := range best {
			res.Params[i] = op.String()
		}
	default:
		return nil, fmt.Errorf("unknown strategy %q (want %s or %s)", req.Strategy, StrategyPair, StrategySequence)
	}

	id, err := a.Store.SaveRun(&ports.RunRecord{
		Kind:        ports.KindOptimize,
		Label:       req.Strategy,
		Seed:        seed,
		Rounds:      req.Rounds,
		Samples:     res.Stats.Samples,
		Score:       res.Score,
		AverageBias: res.Stats.AverageBias(),
		Params:      res.Params,
		History:     res.History,
		Matrices:    toMatrices(&res.Stats),
	})
	if err != nil {
		return res, fmt.Errorf("archive optimize run: %w", err)
	}
	res.RunID = id

	if req.Plot && len(res.History) > 0 {
		res.Plot = a.Paths.PlotPath(id)
		title := fmt.Sprintf("%s search, run %d", req.Strategy, id)
		if err := plot.WriteHistory(res.Plot, title, res.History); err != nil {
			return res, err
		}
	}

	log.Info("search finished",
		slog.Float64("score", res.Score),
		slog.Float64("average_bias", res.Stats.AverageBias()),
		slog.Uint64("run", id),
	)
	return res, nil
}

func (a *App) optimizeDefaults(req OptimizeRequest) OptimizeRequest {
	if req.Strategy == "" {
		req.Strategy = StrategyPair
	}
	if req.Rounds == 0 {
		req.Rounds = a.Config.OptRounds
	}
	if req.Population == 0 {
		req.Population = a.Config.Population
	}
	if req.Length == 0 {
		req.Length = a.Config.SeqLength
	}
	if req.Samples == 0 {
		req.Samples = a.Config.ScoringSamples
	}
	return req
}

// runSearch drives search.Optimize with a progress bar over rounds and
// copies the strategy-independent parts of the result into res.
func runSearch[P any](a *App, s search.Strategy[P], opts search.Options, res *OptimizeResult) (P, error) {
	bar, done := a.Progress.Start("search", opts.Rounds)
	defer done()
	opts.OnRound = func(r search.Round) {
		bar.Add(1)
		if r.Accepted > 0 {
			a.Log.Debug("round improved",
				slog.Int("round", r.Index),
				slog.Float64("best", r.Best),
				slog.Int("accepted", r.Accepted),
			)
		}
	}

	out, err := search.Optimize(s, opts)
	if err != nil {
		var zero P
		return zero, err
	}
	res.Score = out.Best.Score
	res.History = out.History
	res.Scored = out.Scored
	if out.Best.Stats != nil {
		res.Stats = *out.Best.Stats
	}
	return out.Best.Params, nil
}
