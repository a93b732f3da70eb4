package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"cppi/internal/analytics"
	"cppi/internal/domain"
	"cppi/internal/execution"
	"cppi/internal/feed"
	"cppi/internal/strategy"
)

// RunPaths backtests one fresh strategy per selected column of paths, using
// at most workers goroutines (workers <= 0 means one per column). Each run
// gets a private engine and collector; the collectors are merged in column
// order once every run has finished. A failed run does not stop its
// siblings: the returned collector holds every successful run and the error
// joins the failures.
func RunPaths(
	ctx context.Context,
	paths *domain.Paths,
	columns []int,
	newStrategy strategy.Factory,
	workers int,
	logger *slog.Logger,
) (*analytics.Collector, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(columns) == 0 {
		columns = make([]int, paths.Columns())
		for i := range columns {
			columns[i] = i
		}
	}

	collectors := make([]*analytics.Collector, len(columns))
	errs := make([]error, len(columns))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, col := range columns {
		g.Go(func() error {
			collector := analytics.NewCollector()
			collectors[i] = collector
			errs[i] = runPath(ctx, paths, col, newStrategy, collector, logger)
			return nil
		})
	}
	_ = g.Wait()

	merged := analytics.NewCollector()
	merged.Merge(collectors...)
	return merged, errors.Join(errs...)
}

func runPath(
	ctx context.Context,
	paths *domain.Paths,
	column int,
	newStrategy strategy.Factory,
	collector *analytics.Collector,
	logger *slog.Logger,
) error {
	s, err := newStrategy()
	if err != nil {
		return fmt.Errorf("building strategy for column %d: %w", column, err)
	}
	source := feed.NewReplay(paths, column)
	adapter := execution.NewAdapter(s, nil)
	return NewEngine(source, adapter, collector, logger).Run(ctx)
}
