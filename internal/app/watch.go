package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	fsw "github.com/gkoulin/owen-hash-experiments/internal/adapters/fsnotify"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// WatchRequest configures Watch.
type WatchRequest struct {
	Dir     string
	Raw     bool
	Samples int

	// Watcher overrides the fsnotify watcher. It is stopped when Watch returns.
	Watcher ports.Watcher

	// OnResult receives every evaluation, successful or not. It is called
	// from the watcher's goroutines; calls never overlap.
	OnResult func(*EvalResult, error)
}

// Watch evaluates every op file created or rewritten under req.Dir until ctx
// is done. Evaluation errors are reported through OnResult and the log;
// they never stop the watch.
func (a *App) Watch(ctx context.Context, req WatchRequest) error {
	info, err := os.Stat(req.Dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", req.Dir)
	}

	w := req.Watcher
	if w == nil {
		fw, err := fsw.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		w = fw
	}
	defer w.Stop()

	log := a.Log.With(slog.String("component", "watch"))
	var resultMu sync.Mutex
	onChange := func(path string) {
		if ctx.Err() != nil {
			return
		}
		log.Debug("op file changed", slog.String("file", path))
		res, err := a.Evaluate(EvalRequest{Path: path, Raw: req.Raw, Samples: req.Samples})
		if err != nil {
			log.Warn("evaluation failed", slog.String("file", path), slog.Any("err", err))
		}
		if req.OnResult != nil {
			resultMu.Lock()
			req.OnResult(res, err)
			resultMu.Unlock()
		}
	}
	if err := w.Watch(req.Dir, onChange); err != nil {
		return fmt.Errorf("watch %s: %w", req.Dir, err)
	}
	log.Info("watching", slog.String("dir", req.Dir))

	<-ctx.Done()
	log.Info("watch stopped", slog.String("dir", req.Dir))
	return nil
}
