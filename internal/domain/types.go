// Package domain holds the core value types shared across the backtester:
// market ticks, orders, input price paths, and rebased run summaries.
package domain

import (
	"strconv"
	"time"
)

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Tick is a single timestamped market observation.
type Tick struct {
	Time      time.Time
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

// Mid returns the midpoint of the bid and ask prices.
func (t Tick) Mid() float64 {
	return 0.5 * (t.Bid + t.Ask)
}

// Paths is an ordered table of alternative instrument paths sharing one time
// column. Values[c][i] is the value of column c at Times[i].
type Paths struct {
	Times  []time.Time
	Names  []string
	Values [][]float64
}

// Len returns the number of rows.
func (p *Paths) Len() int {
	return len(p.Times)
}

// Columns returns the number of value columns.
func (p *Paths) Columns() int {
	return len(p.Values)
}

// Column returns the values of column i, or false if i is out of range.
func (p *Paths) Column(i int) ([]float64, bool) {
	if i < 0 || i >= len(p.Values) {
		return nil, false
	}
	return p.Values[i], true
}

// ColumnName returns the name of column i. Unnamed columns are reported by
// their index.
func (p *Paths) ColumnName(i int) string {
	if i >= 0 && i < len(p.Names) && p.Names[i] != "" {
		return p.Names[i]
	}
	return strconv.Itoa(i)
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus describes how far an order has progressed.
type OrderStatus string

const (
	// OrderStatusIntent marks an order that was routed but never filled.
	// Fills, slippage, and partial execution are not modelled.
	OrderStatusIntent    OrderStatus = "intent"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is a request to trade a quantity of the risky asset.
type Order struct {
	ID             string
	Side           OrderSide
	Qty            float64
	Price          float64
	Status         OrderStatus
	FilledQty      float64
	FilledAvgPrice float64
	CreatedAt      time.Time
}

// IsZero reports whether the order is the empty order returned for no-op trades.
func (o Order) IsZero() bool {
	return o.Side == "" && o.Qty == 0
}

// ---------------------------------------------------------------------------
// Run summaries
// ---------------------------------------------------------------------------

// SummaryRow is one timestamp of a rebased run summary.
type SummaryRow struct {
	Time       time.Time
	CPPI       float64
	Protection float64
	Underlying float64
}

// Summary is the comparable, rebased view of one completed run. Every column
// starts at 1.0.
type Summary struct {
	RealizationID string
	Strategy      string
	Path          string
	Rows          []SummaryRow
}

// Last returns the final row, or false when the summary is empty.
func (s Summary) Last() (SummaryRow, bool) {
	if len(s.Rows) == 0 {
		return SummaryRow{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}
