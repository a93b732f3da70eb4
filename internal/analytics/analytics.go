// Package analytics gathers completed runs and turns them into comparable,
// rebased series.
package analytics

import (
	"fmt"
	"math"
	"time"

	"cppi/internal/domain"
	"cppi/internal/portfolio"
	"cppi/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Observer = (*Collector)(nil)

// Collector keeps an ordered, append-only list of realizations. It is not
// safe for concurrent use: give each worker its own Collector and Merge them
// once the workers are done.
type Collector struct {
	realizations []Realization
	observed     int
}

// NewCollector creates an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Initialize subscribes the collector to s's strategy-level events.
func (c *Collector) Initialize(s strategy.Strategy) {
	s.Subscribe(c)
}

// OnNotify counts strategy ticks observed across all runs.
func (c *Collector) OnNotify(_ strategy.Strategy) error {
	c.observed++
	return nil
}

// Observed returns the number of strategy ticks seen through OnNotify.
func (c *Collector) Observed() int {
	return c.observed
}

// Collect appends r.
func (c *Collector) Collect(r Realization) {
	c.realizations = append(c.realizations, r)
}

// Merge appends the realizations of others, in order.
func (c *Collector) Merge(others ...*Collector) {
	for _, o := range others {
		if o == nil {
			continue
		}
		c.realizations = append(c.realizations, o.realizations...)
		c.observed += o.observed
	}
}

// Realizations returns the collected runs in collection order.
func (c *Collector) Realizations() []Realization {
	out := make([]Realization, len(c.realizations))
	copy(out, c.realizations)
	return out
}

// Len returns the number of collected runs.
func (c *Collector) Len() int {
	return len(c.realizations)
}

// SummarizeAll summarizes every collected run.
func (c *Collector) SummarizeAll() ([]domain.Summary, error) {
	out := make([]domain.Summary, 0, len(c.realizations))
	for _, r := range c.realizations {
		s, err := Summarize(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Summarize rebases the run's total value (CPPI), protected value
// (Protection), and asset price (Underlying) by their values at the first
// timestamp, so every column starts at 1.0. A column whose first value is
// zero cannot be rebased and is reported as NaN throughout; the other columns
// are unaffected. A column with no value at the first timestamp fails with
// ErrAnalyticsFailed.
func Summarize(r Realization) (domain.Summary, error) {
	p := r.Portfolio()
	summary := domain.Summary{
		RealizationID: r.ID,
		Strategy:      r.Strategy,
		Path:          r.Path,
	}

	points := p.TotalValue.Points()
	if len(points) == 0 {
		return summary, nil
	}
	first := points[0].Time

	cppiBase, err := base(&p.TotalValue, first, "CPPI")
	if err != nil {
		return summary, err
	}
	protBase, err := base(&p.ProtectedValue, first, "Protection")
	if err != nil {
		return summary, err
	}
	underBase, err := base(&p.AssetPrice, first, "Underlying")
	if err != nil {
		return summary, err
	}

	summary.Rows = make([]domain.SummaryRow, 0, len(points))
	for _, pt := range points {
		prot, ok := p.ProtectedValue.At(pt.Time)
		if !ok {
			return summary, fmt.Errorf("%w: no protected value at %s", domain.ErrAnalyticsFailed, pt.Time)
		}
		under, ok := p.AssetPrice.At(pt.Time)
		if !ok {
			return summary, fmt.Errorf("%w: no asset price at %s", domain.ErrAnalyticsFailed, pt.Time)
		}
		summary.Rows = append(summary.Rows, domain.SummaryRow{
			Time:       pt.Time,
			CPPI:       pt.Value / cppiBase,
			Protection: prot / protBase,
			Underlying: under / underBase,
		})
	}
	return summary, nil
}

func base(s *portfolio.Series, first time.Time, column string) (float64, error) {
	v, ok := s.At(first)
	if !ok {
		return 0, fmt.Errorf("%w: %s has no value at %s", domain.ErrAnalyticsFailed, column, first)
	}
	if v == 0 {
		return math.NaN(), nil
	}
	return v, nil
}
