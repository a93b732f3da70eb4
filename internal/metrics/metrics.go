// Package metrics provides Prometheus instrumentation for backtest runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cppi/internal/strategy"
)

var (
	// RunsTotal counts finished runs, partitioned by outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cppi_runs_total",
		Help: "Total number of backtest runs finished",
	}, []string{"strategy", "status"})

	// RunDuration tracks wall-clock time spent replaying one path.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cppi_run_duration_seconds",
		Help:    "Wall-clock duration of one backtest run in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})

	// TicksTotal counts ticks processed by strategies.
	TicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cppi_ticks_total",
		Help: "Total number of ticks processed by strategies",
	}, []string{"strategy"})

	// ResetsTotal counts floor resets.
	ResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cppi_floor_resets_total",
		Help: "Total number of protected floor resets",
	}, []string{"strategy"})

	// PortfolioValue is the latest total value, per path.
	PortfolioValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cppi_portfolio_value",
		Help: "Latest marked-to-market portfolio value",
	}, []string{"strategy", "path"})

	// ProtectedValue is the latest protected floor, per path.
	ProtectedValue = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cppi_protected_value",
		Help: "Latest protected floor value",
	}, []string{"strategy", "path"})
)

// Run outcomes for RunsTotal.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Compile-time interface check.
var _ strategy.Observer = (*Observer)(nil)

// Observer records per-tick strategy metrics for one path.
type Observer struct {
	path string
}

// NewObserver creates an Observer labelling gauges with path.
func NewObserver(path string) *Observer {
	return &Observer{path: path}
}

// OnNotify updates tick counters and, for strategies that report a
// valuation, the value gauges.
func (o *Observer) OnNotify(s strategy.Strategy) error {
	name := s.Name()
	TicksTotal.WithLabelValues(name).Inc()

	v, ok := s.(strategy.Valuer)
	if !ok {
		return nil
	}
	val, ok := v.Valuation()
	if !ok {
		return nil
	}
	if val.Reset {
		ResetsTotal.WithLabelValues(name).Inc()
	}
	PortfolioValue.WithLabelValues(name, o.path).Set(val.Total)
	ProtectedValue.WithLabelValues(name, o.path).Set(val.Protected)
	return nil
}
