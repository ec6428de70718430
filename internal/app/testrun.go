package app

import (
	"fmt"
	"log/slog"

	"github.com/gkoulin/owen-hash-experiments/internal/adapters/png"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/scramble"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// TestRequest selects a preset and the round counts to measure it at.
type TestRequest struct {
	Preset  string // "" means Config.Preset
	Rounds  []int  // nil means Config.Rounds
	Samples int    // 0 means Config.Samples
	Images  bool   // write one bias image per round count

	// OnResult is called as soon as each round count is measured. May be nil.
	OnResult func(TestResult)
}

// TestResult is the measurement of a preset at one round count.
type TestResult struct {
	Rounds  int // as requested
	Applied int // after the preset's cap; 0 for presets without rounds
	Stats   bias.Stats
	Score   float64
	Image   string // path of the bias image, if written
	RunID   uint64
}

// TestReport is the outcome of RunTest.
type TestReport struct {
	Preset  scramble.Preset
	Seed    uint64
	Table   []uint32 // the constant table the presets draw from
	Results []TestResult
}

// RunTest measures a preset at each requested round count and archives
// every measurement. Round counts that the preset caps to an already
// measured count are skipped.
func (a *App) RunTest(req TestRequest) (*TestReport, error) {
	name := req.Preset
	if name == "" {
		name = a.Config.Preset
	}
	preset, err := scramble.Lookup(name)
	if err != nil {
		return nil, err
	}
	rounds := req.Rounds
	if len(rounds) == 0 {
		rounds = a.Config.Rounds
	}
	samples := req.Samples
	if samples == 0 {
		samples = a.Config.Samples
	}

	seed := a.runSeed()
	report := &TestReport{
		Preset: preset,
		Seed:   seed,
		Table:  scramble.RandomTable(newRand(seed), scramble.TableSize),
	}
	log := a.Log.With(slog.String("component", "test"), slog.String("preset", preset.Name))
	log.Info("test started", slog.Uint64("seed", seed), slog.Int("samples", samples))

	measured := make(map[int]bool, len(rounds))
	for _, r := range rounds {
		applied := preset.Rounds(r)
		if measured[applied] {
			log.Debug("skipping capped round count", slog.Int("rounds", r), slog.Int("applied", applied))
			continue
		}
		measured[applied] = true

		h, err := preset.Hash(r, report.Table)
		if err != nil {
			return report, err
		}
		st, err := a.measure(fmt.Sprintf("%s r=%d", preset.Name, r), h, a.Config.Sampling(samples, seed))
		if err != nil {
			return report, err
		}

		res := TestResult{
			Rounds:  r,
			Applied: applied,
			Stats:   st,
			Score:   defaultObjective.Score(&st),
		}
		if req.Images {
			res.Image = a.Paths.ImagePath(preset.Name, r)
			if err := png.SaveBiasImage(res.Image, &st); err != nil {
				return report, err
			}
		}

		res.RunID, err = a.Store.SaveRun(&ports.RunRecord{
			Kind:        ports.KindTest,
			Label:       preset.Name,
			Seed:        seed,
			Rounds:      r,
			Samples:     st.Samples,
			Score:       res.Score,
			AverageBias: st.AverageBias(),
			Matrices:    toMatrices(&st),
		})
		if err != nil {
			return report, fmt.Errorf("archive test run: %w", err)
		}
		log.Info("rounds measured",
			slog.Int("rounds", r),
			slog.Float64("average_bias", st.AverageBias()),
			slog.Uint64("run", res.RunID),
		)

		report.Results = append(report.Results, res)
		if req.OnResult != nil {
			req.OnResult(res)
		}
	}
	return report, nil
}

// imageName is the bias image file name of a test run.
func imageName(preset string, rounds int) string {
	return fmt.Sprintf("%s_r%04d.png", preset, rounds)
}
