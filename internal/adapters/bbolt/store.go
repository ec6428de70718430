// Package bbolt implements ports.RunStore using bbolt (embedded B+ tree).
// The "runs" bucket holds one JSON record per run keyed by its big-endian ID;
// the "matrices" bucket holds the bias matrices under the same key in a
// compact binary form. Writes are transactional: a crash mid-write cannot
// corrupt previously committed runs.
package bbolt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gkoulin/owen-hash-experiments/internal/ports"
	bolt "go.etcd.io/bbolt"
)

// Bucket keys
var (
	bucketRuns     = []byte("runs")
	bucketMatrices = []byte("matrices")
)

// Store implements ports.RunStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.RunStore = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMatrices)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists a run. A zero ID is replaced with the next bucket
// sequence number; a non-zero ID overwrites that run.
func (s *Store) SaveRun(rec *ports.RunRecord) (uint64, error) {
	if rec == nil {
		return 0, fmt.Errorf("nil run record")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		if rec.ID == 0 {
			id, err := runs.NextSequence()
			if err != nil {
				return err
			}
			rec.ID = id
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		key := runKey(rec.ID)
		if err := runs.Put(key, data); err != nil {
			return err
		}

		mb := tx.Bucket(bucketMatrices)
		if rec.Matrices == nil {
			return mb.Delete(key)
		}
		return mb.Put(key, encodeMatrices(rec.Matrices))
	})
	if err != nil {
		return 0, err
	}
	return rec.ID, nil
}

// LoadRun retrieves a run together with its matrices.
// Returns nil, nil if no run with that ID exists.
func (s *Store) LoadRun(id uint64) (*ports.RunRecord, error) {
	var data, blob []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		key := runKey(id)
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := tx.Bucket(bucketRuns).Get(key); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		if v := tx.Bucket(bucketMatrices).Get(key); v != nil {
			blob = make([]byte, len(v))
			copy(blob, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var rec ports.RunRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal run %d: %w", id, err)
	}
	if blob != nil {
		m, err := decodeMatrices(blob)
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", id, err)
		}
		rec.Matrices = m
	}
	return &rec, nil
}

// ListRuns returns up to limit runs, newest first, without matrices.
func (s *Store) ListRuns(limit int) ([]*ports.RunRecord, error) {
	var out []*ports.RunRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec ports.RunRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal run %x: %w", k, err)
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRun removes a run and its matrices.
// Idempotent: deleting a nonexistent run is not an error.
func (s *Store) DeleteRun(id uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := runKey(id)
		if err := tx.Bucket(bucketRuns).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(bucketMatrices).Delete(key)
	})
}
