// Package store persists scan runs in SQLite.
package store

import (
	"context"
	"errors"

	"github.com/nhle/dupmail/internal/model"
)

// ErrNotFound is returned when no run matches an id.
var ErrNotFound = errors.New("run not found")

// RunFilter controls filtering and pagination for run queries.
type RunFilter struct {
	SourceName *string
	Limit      int
	Offset     int
}

// Store defines the persistence interface for scan runs.
type Store interface {
	// SaveRun inserts a run with its groups and skips. An empty ID is
	// replaced by a new UUID, written back into run.
	SaveRun(ctx context.Context, run *model.Run) error

	// GetRuns lists runs newest first, without groups or skips.
	GetRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// GetRun loads one run, groups and skips included. id may be a
	// unique prefix of the full id.
	GetRun(ctx context.Context, id string) (*model.Run, error)

	DeleteRun(ctx context.Context, id string) error

	Close() error
}
