// Package store persists finished optimization runs and their per-generation
// traces.
package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// Store defines the interface for run persistence.
// Implementations must be safe for concurrent use.
//
// Error handling conventions:
//   - Return a *NotFoundError if the run doesn't exist (for Load/Delete)
//   - Return a *ValidationError for records that fail Validate
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveRun persists a run record, overwriting any record with the same ID.
	SaveRun(ctx context.Context, run *RunRecord) error

	// LoadRun retrieves the full record of a run.
	LoadRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns metadata for all stored runs, oldest first.
	ListRuns(ctx context.Context) ([]RunInfo, error)

	// DeleteRun removes a run and its associated artifacts.
	DeleteRun(ctx context.Context, id string) error
}

// Store kinds accepted by NewStore.
const (
	KindFS     = "fs"
	KindSQLite = "sqlite"
)

// NewStore opens a store of the given kind rooted at dir. The SQLite backend
// keeps its database in <dir>/runs.db.
func NewStore(ctx context.Context, kind, dir string) (Store, error) {
	switch kind {
	case "", KindFS:
		return NewFSStore(dir)
	case KindSQLite:
		s := NewSQLiteStore(filepath.Join(dir, "runs.db"))
		if err := s.Init(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes stores that hold resources.
func CloseIfSupported(s Store) error {
	closer, ok := s.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}

// ErrNotFound matches any *NotFoundError with errors.Is.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
