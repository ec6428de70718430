// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "time"

// RunStore archives finished measurement and optimization runs.
// The backing store (bbolt) keeps one record per run; concurrent reads are
// safe and writes are serialized by the adapter.
//
// Crash safety: SaveRun must be transactional. A crash mid-write must not
// corrupt previously committed runs.
//
// The archive holds results only. Search state is never resumed from it.
type RunStore interface {
	// SaveRun persists a run and assigns rec.ID when it is zero.
	// Returns the ID the run was stored under.
	SaveRun(rec *RunRecord) (uint64, error)

	// LoadRun retrieves one run.
	// Returns nil, nil if no run with that ID exists.
	LoadRun(id uint64) (*RunRecord, error)

	// ListRuns returns up to limit runs, newest first. limit <= 0 means all.
	// Bias matrices are not loaded; use LoadRun for those.
	ListRuns(limit int) ([]*RunRecord, error)

	// DeleteRun removes a run.
	// Idempotent: deleting a nonexistent run is not an error.
	DeleteRun(id uint64) error
}

// Run kinds.
const (
	KindTest     = "test"
	KindOptimize = "optimize"
	KindEval     = "eval"
)

// RunRecord is one archived run.
type RunRecord struct {
	ID        uint64    `json:"id"`
	Kind      string    `json:"kind"`  // KindTest, KindOptimize or KindEval
	Label     string    `json:"label"` // preset, strategy or source file
	CreatedAt time.Time `json:"created_at"`
	Seed      uint64    `json:"seed"`   // sampling seed, for replay
	Rounds    int       `json:"rounds"` // hash rounds (test) or search rounds (optimize)
	Samples   uint64    `json:"samples"`

	Score       float64   `json:"score"`        // objective score; 0 when not scored
	AverageBias float64   `json:"average_bias"` // mean avalanche bias above the diagonal
	Params      []string  `json:"params,omitempty"`
	History     []float64 `json:"history,omitempty"` // best score per search round

	// Bias matrices, [bit_in][bit_out] and [x_bin][y_bin]. Nil in ListRuns results.
	Matrices *BiasMatrices `json:"-"`
}

// BiasMatrices is the stored form of a bias measurement.
type BiasMatrices struct {
	Avalanche [32][32]float64
	Tree      [32][32]float64
}
