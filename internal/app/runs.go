package app

import (
	"errors"
	"fmt"

	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// ErrRunNotFound is returned by ShowRun for IDs the archive doesn't hold.
var ErrRunNotFound = errors.New("run not found")

// ListRuns returns up to limit archived runs, newest first, without matrices.
func (a *App) ListRuns(limit int) ([]*ports.RunRecord, error) {
	return a.Store.ListRuns(limit)
}

// ShowRun loads one archived run with its matrices.
func (a *App) ShowRun(id uint64) (*ports.RunRecord, error) {
	rec, err := a.Store.LoadRun(id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	return rec, nil
}

// DeleteRun removes a run and any plot written for it.
func (a *App) DeleteRun(id uint64) error {
	if err := a.Store.DeleteRun(id); err != nil {
		return err
	}
	return removeIfExists(a.Paths.PlotPath(id))
}

// plotName is the score-history plot file name of an optimize run.
func plotName(id uint64) string {
	return fmt.Sprintf("run_%06d.png", id)
}
