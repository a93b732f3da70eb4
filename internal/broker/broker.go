// Package broker defines the order-routing interface used by the execution
// adapter and provides a simulated implementation for backtesting.
package broker

import (
	"context"

	"cppi/internal/domain"
)

// Broker routes orders for the risky asset.
type Broker interface {
	// Name returns the broker identifier (e.g. "simulator").
	Name() string

	// Buy enters a buy order for qty units at price. A zero price means
	// "at market".
	Buy(ctx context.Context, qty, price float64) (domain.Order, error)

	// Sell enters a sell order for qty units at price. qty is positive.
	Sell(ctx context.Context, qty, price float64) (domain.Order, error)

	// Orders returns every order routed so far, oldest first.
	Orders(ctx context.Context) ([]domain.Order, error)
}
