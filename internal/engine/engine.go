// Package engine wires a price source, an execution adapter, a strategy, and
// an analytics collector together and drives backtest runs.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cppi/internal/analytics"
	"cppi/internal/execution"
	"cppi/internal/feed"
	"cppi/internal/metrics"
)

// Engine runs one complete, synchronous backtest along a single price path.
type Engine struct {
	source    feed.Source
	adapter   *execution.Adapter
	analytics *analytics.Collector
	logger    *slog.Logger

	initialized bool
	started     bool
}

// NewEngine creates a new Engine wired with the given dependencies. A nil
// logger uses slog.Default().
func NewEngine(
	source feed.Source,
	adapter *execution.Adapter,
	collector *analytics.Collector,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:    source,
		adapter:   adapter,
		analytics: collector,
		logger:    logger,
	}
}

// Initialize binds the adapter to the source, hooks analytics and metrics up
// to the strategy, and prepares the source. No tick is produced.
func (e *Engine) Initialize(ctx context.Context) error {
	e.adapter.Bind(e.source)

	s := e.adapter.Strategy()
	e.analytics.Initialize(s)
	s.Subscribe(metrics.NewObserver(e.source.Name()))

	if err := e.source.Prepare(ctx); err != nil {
		return fmt.Errorf("preparing source %s: %w", e.source.Name(), err)
	}
	e.initialized = true
	e.logger.Debug("engine initialized", "path", e.source.Name(), "strategy", s.Name())
	return nil
}

// Start replays the whole path and then collects the realization. A failed
// replay is returned without collecting; the strategy keeps whatever it
// recorded up to the failure. An Engine runs once: a second Start fails.
func (e *Engine) Start(ctx context.Context) error {
	if !e.initialized {
		return fmt.Errorf("engine for %s started before Initialize", e.source.Name())
	}
	if e.started {
		return fmt.Errorf("engine for %s already started", e.source.Name())
	}
	e.started = true
	name := e.adapter.Strategy().Name()
	path := e.source.Name()

	started := time.Now()
	err := e.source.Start(ctx)
	metrics.RunDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues(name, metrics.StatusFailed).Inc()
		e.logger.Error("backtest failed", "path", path, "strategy", name, "error", err)
		return fmt.Errorf("running %s on %s: %w", name, path, err)
	}

	r, err := analytics.NewRealization(ctx, e.adapter, path)
	if err != nil {
		metrics.RunsTotal.WithLabelValues(name, metrics.StatusFailed).Inc()
		return err
	}
	e.analytics.Collect(r)
	metrics.RunsTotal.WithLabelValues(name, metrics.StatusOK).Inc()

	e.logger.Info("backtest ended", "path", path, "strategy", name, "ticks", r.Ticks, "realization", r.ID)
	return nil
}

// Run initializes and starts the engine.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Initialize(ctx); err != nil {
		return err
	}
	return e.Start(ctx)
}

// Stop asks the source to stop before its next tick.
func (e *Engine) Stop() {
	e.source.Stop()
}
