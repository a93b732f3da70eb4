// Package builtins provides built-in strategy implementations that ship with
// the backtester.
package builtins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"cppi/internal/clock"
	"cppi/internal/feed"
	"cppi/internal/portfolio"
	"cppi/internal/pubsub"
	"cppi/internal/strategy"
	"cppi/internal/util"
)

// Compile-time interface checks.
var (
	_ strategy.Strategy        = (*CPPI)(nil)
	_ strategy.PortfolioHolder = (*CPPI)(nil)
	_ strategy.Valuer          = (*CPPI)(nil)
)

const (
	// CPPIName is the registry name of the CPPI strategy.
	CPPIName = "cppi"

	// RiskFreeRate is the annual rate accrued by the bond leg.
	RiskFreeRate = 0.05

	// DefaultInitialValue is used when Params.InitialValue is zero.
	DefaultInitialValue = 1.0

	shareScale int32 = 6
)

// ErrInvalidParams is returned for parameters that cannot define a strategy.
var ErrInvalidParams = errors.New("invalid cppi parameters")

// Params configures a CPPI strategy.
//
// A zero Multiplier or InitialValue means the field is unset and takes its
// default. A negative value is an explicit setting and is clamped to 0, so
// Multiplier -2 yields an all-bond strategy and InitialValue -1 a strategy
// with nothing to invest.
type Params struct {
	// Floor is the protected fraction of total value, in [0, 1]. Negative
	// values clamp to 0.
	Floor float64
	// Multiplier scales the cushion into risky exposure. Zero means
	// 1/(1-Floor); negative clamps to 0.
	Multiplier float64
	// InitialValue is the starting total value. Zero means 1.0; negative
	// clamps to 0.
	InitialValue float64
	// ResetInterval is the time between floor resets. Zero or negative
	// means the floor is only set once, at the first tick.
	ResetInterval time.Duration
	// Verbose logs every tick at info level instead of debug.
	Verbose bool
}

// normalize clamps and fills defaults.
func (p Params) normalize() (Params, error) {
	if math.IsNaN(p.Floor) || math.IsNaN(p.Multiplier) || math.IsNaN(p.InitialValue) {
		return p, fmt.Errorf("%w: NaN parameter", ErrInvalidParams)
	}
	p.Floor = math.Max(0, p.Floor)
	if p.Floor > 1 {
		return p, fmt.Errorf("%w: floor %v exceeds 1", ErrInvalidParams, p.Floor)
	}

	switch {
	case p.Multiplier == 0:
		if p.Floor >= 1 {
			return p, fmt.Errorf("%w: floor of 1 needs an explicit multiplier", ErrInvalidParams)
		}
		p.Multiplier = 1 / (1 - p.Floor)
	case p.Multiplier < 0:
		p.Multiplier = 0
	}

	switch {
	case p.InitialValue == 0:
		p.InitialValue = DefaultInitialValue
	case p.InitialValue < 0:
		p.InitialValue = 0
	}
	return p, nil
}

// Decision is the outcome of one CPPI update.
type Decision struct {
	Time         time.Time
	Price        float64
	Delta        float64 // year fraction since the previous tick
	Interest     float64
	ExposureMark float64
	Total        float64
	Reset        bool
	Protected    float64
	Target       float64
	Shares       float64
	Bond         float64
}

// CPPI implements Constant Proportion Portfolio Insurance. On every tick it
// marks the risky leg to market, accrues bond interest, and rebalances so
// that the risky exposure is the cushion above the protected floor times the
// multiplier. The floor is re-anchored to a fraction of total value at every
// reset.
type CPPI struct {
	params Params
	logger *slog.Logger

	clock      *clock.Clock
	lastUpdate time.Time
	history    *portfolio.Portfolio
	last       Decision
	observers  pubsub.Topic[strategy.Strategy]
}

// NewCPPI creates a CPPI strategy. A nil logger uses slog.Default().
func NewCPPI(params Params, logger *slog.Logger) (*CPPI, error) {
	p, err := params.normalize()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CPPI{
		params:  p,
		logger:  logger.With("strategy", CPPIName),
		clock:   clock.New(),
		history: portfolio.New(),
	}, nil
}

// Name returns "cppi".
func (c *CPPI) Name() string {
	return CPPIName
}

// Params returns the normalized parameters.
func (c *CPPI) Params() Params {
	return c.params
}

// Portfolio returns the live track record. Callers must not modify it.
func (c *CPPI) Portfolio() *portfolio.Portfolio {
	return c.history
}

// Valuation returns the state after the latest tick.
func (c *CPPI) Valuation() (strategy.Valuation, bool) {
	if !c.history.Started() {
		return strategy.Valuation{}, false
	}
	d := c.last
	return strategy.Valuation{
		Time:      d.Time,
		Price:     d.Price,
		Total:     d.Total,
		Protected: d.Protected,
		Exposure:  d.Target,
		Bond:      d.Bond,
		Reset:     d.Reset,
	}, true
}

// LastDecision returns the outcome of the latest tick.
func (c *CPPI) LastDecision() (Decision, bool) {
	return c.last, c.history.Started()
}

// OnNotify prices the tick at its mid and updates the portfolio, then
// notifies strategy observers.
func (c *CPPI) OnNotify(source feed.Source) error {
	ts, err := source.Time()
	if err != nil {
		return err
	}
	if _, err := c.Update(source.Tick().Mid(), ts); err != nil {
		return err
	}
	return c.Notify()
}

// Update rebalances the portfolio at price and time ts. price must be
// positive. A ts that is not after the previous tick fails with a
// domain.CausalityError and leaves the portfolio untouched.
func (c *CPPI) Update(price float64, ts time.Time) (Decision, error) {
	if err := c.clock.Advance(ts); err != nil {
		return Decision{}, fmt.Errorf("cppi update: %w", err)
	}

	bondPrev := c.params.InitialValue
	sharesPrev := 0.0
	if p, ok := c.history.RiskFreeBond.Last(); ok {
		bondPrev = p.Value
	}
	if p, ok := c.history.SharesOwned.Last(); ok {
		sharesPrev = p.Value
	}
	if !c.history.Started() {
		c.lastUpdate = ts
	}

	d := Decision{Time: ts, Price: price}
	d.Delta = util.YearFraction(c.lastUpdate, ts)
	c.lastUpdate = ts

	d.Interest = bondPrev * RiskFreeRate * d.Delta
	d.ExposureMark = sharesPrev * price
	d.Total = d.ExposureMark + bondPrev + d.Interest

	d.Reset = c.isReset(ts)
	if d.Reset {
		d.Protected = c.params.Floor * d.Total
		d.Target = (d.Total - d.Protected) * c.params.Multiplier
	} else {
		prev, _ := c.history.ProtectedValue.Last()
		d.Protected = prev.Value
		d.Target = math.Max(0, d.Total-d.Protected) * c.params.Multiplier
	}
	d.Target = clamp(d.Target, 0, math.Max(0, d.Total))

	d.Shares = roundShares(d.Target / price)
	d.Bond = math.Max(0, d.Total-d.Target)

	if err := c.record(d); err != nil {
		return Decision{}, err
	}
	c.last = d

	level := slog.LevelDebug
	if c.params.Verbose {
		level = slog.LevelInfo
	}
	c.logger.Log(context.Background(), level, "cppi tick",
		"time", ts,
		"price", price,
		"total", d.Total,
		"protected", d.Protected,
		"exposure", d.Target,
		"shares", d.Shares,
		"bond", d.Bond,
		"reset", d.Reset,
	)
	return d, nil
}

// isReset reports whether ts re-anchors the floor. The first tick always
// does; afterwards a tick exactly on the interval boundary counts.
func (c *CPPI) isReset(ts time.Time) bool {
	last, ok := c.history.LastReset()
	if !ok || c.history.ProtectedValue.Len() == 0 {
		return true
	}
	if c.params.ResetInterval <= 0 {
		return false
	}
	return !ts.Before(last.Time.Add(c.params.ResetInterval))
}

type entry struct {
	series *portfolio.Series
	value  float64
}

func (c *CPPI) record(d Decision) error {
	h := c.history
	entries := []entry{
		{&h.RiskyExposure, d.ExposureMark},
		{&h.TotalValue, d.Total},
		{&h.AssetPrice, d.Price},
		{&h.ProtectedValue, d.Protected},
		{&h.SharesOwned, d.Shares},
		{&h.RiskFreeBond, d.Bond},
	}
	if d.Reset {
		entries = append(entries, entry{&h.ResetPrice, d.Price})
	}
	for _, e := range entries {
		if err := e.series.Append(d.Time, e.value); err != nil {
			return fmt.Errorf("cppi record: %w", err)
		}
	}
	return nil
}

// Subscribe registers an observer for per-tick strategy events.
func (c *CPPI) Subscribe(o strategy.Observer) {
	c.observers.Subscribe(o)
}

// Unsubscribe removes an observer.
func (c *CPPI) Unsubscribe(o strategy.Observer) {
	c.observers.Unsubscribe(o)
}

// Notify calls every observer with the strategy.
func (c *CPPI) Notify() error {
	return c.observers.Notify(c)
}

func roundShares(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(shareScale).InexactFloat64()
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
