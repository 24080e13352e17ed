// Package store provides the run ledger interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/ideas-catalog/internal/model"
)

// StartParams holds parameters for opening a run.
type StartParams struct {
	Command string
	Catalog string
}

// FinishParams holds the totals a run is closed with.
type FinishParams struct {
	ID      string
	Visited int
	Updated int
	Skipped int
}

// ListParams holds parameters for listing runs.
type ListParams struct {
	Command string
	Limit   int
}

// Store defines the run ledger interface.
type Store interface {
	// StartRun opens a run and returns it with a fresh id.
	StartRun(ctx context.Context, p StartParams) (*model.Run, error)

	// RecordEvents appends events to a run, numbering them after any
	// events already recorded.
	RecordEvents(ctx context.Context, runID string, events []model.Event) error

	// FinishRun stamps the finish time and totals.
	FinishRun(ctx context.Context, p FinishParams) error

	// GetRun returns a run by id. An empty id selects the latest run.
	GetRun(ctx context.Context, id string) (*model.Run, error)

	// ListRuns lists runs, newest first.
	ListRuns(ctx context.Context, p ListParams) ([]model.Run, error)

	// Close closes the store.
	Close() error
}
