package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/mixing"
	"github.com/gkoulin/owen-hash-experiments/internal/domain/scramble"
	"github.com/gkoulin/owen-hash-experiments/internal/ports"
)

// ErrEmptySequence is returned for op files that contain no ops.
var ErrEmptySequence = errors.New("op file contains no ops")

// EvalRequest names an op-sequence file to measure.
type EvalRequest struct {
	Path    string
	Raw     bool // run the ops on the input as written, without the hashed-seed offset
	Samples int  // 0 means Config.Samples
}

// EvalResult is the measurement of one op-sequence file.
type EvalResult struct {
	Path     string
	Sequence mixing.Sequence
	Stats    bias.Stats
	Score    float64
	RunID    uint64
}

// LoadSequence reads an op-sequence file. Files ending in .json hold a JSON
// array of op strings; anything else is the text form read by
// mixing.ParseSequence.
func LoadSequence(path string) (mixing.Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seq mixing.Sequence
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &seq); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		seq, err = mixing.ParseSequence(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if len(seq) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptySequence)
	}
	return seq, nil
}

// Evaluate measures the op sequence in req.Path and archives the result.
// Concurrent calls are serialized so watcher-triggered measurements never
// compete for cores.
func (a *App) Evaluate(req EvalRequest) (*EvalResult, error) {
	seq, err := LoadSequence(req.Path)
	if err != nil {
		return nil, err
	}
	samples := req.Samples
	if samples == 0 {
		samples = a.Config.Samples
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	seed := a.runSeed()
	label := filepath.Base(req.Path)
	st, err := a.measure(label, scramble.SequenceHash(seq, req.Raw), a.Config.Sampling(samples, seed))
	if err != nil {
		return nil, err
	}

	res := &EvalResult{
		Path:     req.Path,
		Sequence: seq,
		Stats:    st,
		Score:    defaultObjective.Score(&st),
	}
	params := make([]string, len(seq))
	for i, op := range seq {
		params[i] = op.String()
	}
	res.RunID, err = a.Store.SaveRun(&ports.RunRecord{
		Kind:        ports.KindEval,
		Label:       req.Path,
		Seed:        seed,
		Rounds:      len(seq),
		Samples:     st.Samples,
		Score:       res.Score,
		AverageBias: st.AverageBias(),
		Params:      params,
		Matrices:    toMatrices(&st),
	})
	if err != nil {
		return res, fmt.Errorf("archive eval run: %w", err)
	}

	a.Log.Info("sequence evaluated",
		slog.String("component", "eval"),
		slog.String("file", req.Path),
		slog.Int("ops", len(seq)),
		slog.Float64("score", res.Score),
		slog.Uint64("run", res.RunID),
	)
	return res, nil
}
