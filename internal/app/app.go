// Package app wires the bias engine, the optimizer and the adapters together.
// It is the single place that knows about paths, configuration, the run
// archive and progress reporting; the cobra commands only parse flags and
// print what App returns.
package app

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gkoulin/owen-hash-experiments/internal/adapters/bbolt"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/search"
	"github.com/gkoulin/owen-hash-experiments/internal/logging"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// App is the top-level container wiring all components together.
type App struct {
	ProjectRoot string
	Paths       *Paths
	Config      Config

	Store    ports.RunStore
	Log      *slog.Logger
	Progress ports.ProgressFactory

	mu       sync.Mutex   // serializes measurements started by the watcher
	store    *bbolt.Store // concrete store, closed by Close
	closeLog func() error
	now      func() time.Time
}

// Options holds initialization parameters for the App.
type Options struct {
	ProjectRoot string
	Config      Config

	// Logger overrides the file logger at Paths.Log.
	Logger *slog.Logger

	// Progress renders measurement progress. nil means no progress output.
	Progress ports.ProgressFactory
}

// New creates the .owenhash/ directories, opens the run archive and the
// logger. The caller must Close the App.
func New(opts Options) (*App, error) {
	if opts.ProjectRoot == "" {
		return nil, fmt.Errorf("project root required")
	}
	paths := NewPaths(opts.ProjectRoot)
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("create %s: %w", paths.Root, err)
	}

	log, closeLog := opts.Logger, func() error { return nil }
	if log == nil {
		var err error
		log, closeLog, err = logging.New(logging.Config{Level: opts.Config.LogLevel, Output: paths.Log})
		if err != nil {
			return nil, err
		}
	}

	store, err := bbolt.NewStore(paths.DB)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("open store: %w", err)
	}

	progress := opts.Progress
	if progress == nil {
		progress = ports.NoProgress{}
	}

	return &App{
		ProjectRoot: opts.ProjectRoot,
		Paths:       paths,
		Config:      opts.Config,
		Store:       store,
		Log:         log,
		Progress:    progress,
		store:       store,
		closeLog:    closeLog,
		now:         time.Now,
	}, nil
}

// Close releases the archive and the log file.
func (a *App) Close() error {
	err := a.store.Close()
	if cerr := a.closeLog(); err == nil {
		err = cerr
	}
	return err
}

// runSeed is the configured seed, or a fresh one when the config leaves it 0.
func (a *App) runSeed() uint64 {
	if a.Config.Seed != 0 {
		return a.Config.Seed
	}
	return uint64(a.now().UnixNano())
}

// newRand returns the generator for tables and search proposals.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x853c49e6748fea9b))
}

// measure runs the engine on h with a progress bar labelled label.
func (a *App) measure(label string, h bias.HashFunc, cfg bias.Config) (bias.Stats, error) {
	bar, done := a.Progress.Start(label, cfg.Chunks())
	defer done()
	cfg.Progress = bar

	start := a.now()
	st, err := bias.Measure(h, cfg)
	if err != nil {
		return st, err
	}
	a.Log.Debug("measured",
		slog.String("label", label),
		slog.Uint64("samples", st.Samples),
		slog.Float64("average_bias", st.AverageBias()),
		slog.Duration("elapsed", a.now().Sub(start)),
	)
	return st, nil
}

// toMatrices converts engine output to its archived form.
func toMatrices(st *bias.Stats) *ports.BiasMatrices {
	if st == nil {
		return nil
	}
	return &ports.BiasMatrices{Avalanche: st.Avalanche, Tree: st.Tree}
}

// StatsOf rebuilds engine stats from an archived run. The second result is
// false when the run was stored without matrices.
func StatsOf(rec *ports.RunRecord) (bias.Stats, bool) {
	if rec == nil || rec.Matrices == nil {
		return bias.Stats{}, false
	}
	return bias.Stats{
		Avalanche: rec.Matrices.Avalanche,
		Tree:      rec.Matrices.Tree,
		Samples:   rec.Samples,
	}, true
}

// defaultObjective scores every measurement the app reports.
var defaultObjective search.Objective = search.TargetObjective{Curve: search.OwenTarget}
