package engine

import (
	"context"
	"fmt"
	"log/slog"

	"cppi/internal/analytics"
	"cppi/internal/store"
	"cppi/internal/strategy"
)

// Backtester replays stored price paths through a registered strategy.
type Backtester struct {
	store    store.PathStore
	registry *strategy.Registry
	workers  int
	logger   *slog.Logger
}

// NewBacktester creates a Backtester that reads paths from the given store
// and looks up strategies in the provided registry.
func NewBacktester(pathStore store.PathStore, registry *strategy.Registry, workers int, logger *slog.Logger) *Backtester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backtester{
		store:    pathStore,
		registry: registry,
		workers:  workers,
		logger:   logger,
	}
}

// Run backtests strategyName on the selected columns of the stored path set
// name. An empty columns slice runs every column.
func (bt *Backtester) Run(ctx context.Context, strategyName, name string, columns []int) (*analytics.Collector, error) {
	factory, ok := bt.registry.Get(strategyName)
	if !ok {
		return nil, fmt.Errorf("strategy %q is not registered (have %v)", strategyName, bt.registry.List())
	}

	paths, err := bt.store.ReadPaths(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("reading paths %s: %w", name, err)
	}
	for _, c := range columns {
		if c < 0 || c >= paths.Columns() {
			return nil, fmt.Errorf("column %d out of range for %s (%d columns)", c, name, paths.Columns())
		}
	}

	bt.logger.Info("backtest starting",
		"strategy", strategyName,
		"paths", name,
		"rows", paths.Len(),
		"columns", len(columns),
	)
	return RunPaths(ctx, paths, columns, factory, bt.workers, bt.logger)
}
