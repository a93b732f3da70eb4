// Package store defines storage interfaces for price paths and run summaries
// and implements them over CSV, Parquet, and SQLite.
package store

import (
	"context"
	"errors"

	"cppi/internal/domain"
)

// ErrNotFound is returned when a requested path set or summary does not exist.
var ErrNotFound = errors.New("not found")

// PathStore persists and retrieves named sets of price paths.
type PathStore interface {
	// WritePaths persists paths under name, replacing any existing set.
	WritePaths(ctx context.Context, name string, paths *domain.Paths) error

	// ReadPaths returns the path set stored under name.
	ReadPaths(ctx context.Context, name string) (*domain.Paths, error)
}

// SummaryStore persists and retrieves rebased run summaries.
type SummaryStore interface {
	// SaveSummary persists a summary keyed by its realization ID.
	SaveSummary(ctx context.Context, summary domain.Summary) error

	// LoadSummary retrieves a single summary by realization ID.
	LoadSummary(ctx context.Context, id string) (domain.Summary, error)

	// ListSummaries returns the realization IDs saved for a strategy, oldest
	// first. An empty strategy lists every summary.
	ListSummaries(ctx context.Context, strategy string) ([]string, error)
}
