package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cppi/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker records orders in memory and returns them as intents. It
// does not model fills, slippage, or partial execution: every order comes
// back with domain.OrderStatusIntent and zero filled quantity.
type SimulatorBroker struct {
	orders []domain.Order
	now    func() time.Time
}

// NewSimulatorBroker creates a SimulatorBroker with an empty order log.
func NewSimulatorBroker() *SimulatorBroker {
	return &SimulatorBroker{now: time.Now}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// Buy records a buy intent.
func (b *SimulatorBroker) Buy(_ context.Context, qty, price float64) (domain.Order, error) {
	return b.submit(domain.OrderSideBuy, qty, price)
}

// Sell records a sell intent.
func (b *SimulatorBroker) Sell(_ context.Context, qty, price float64) (domain.Order, error) {
	return b.submit(domain.OrderSideSell, qty, price)
}

// Orders returns a copy of the order log.
func (b *SimulatorBroker) Orders(_ context.Context) ([]domain.Order, error) {
	out := make([]domain.Order, len(b.orders))
	copy(out, b.orders)
	return out, nil
}

func (b *SimulatorBroker) submit(side domain.OrderSide, qty, price float64) (domain.Order, error) {
	if qty <= 0 {
		return domain.Order{}, fmt.Errorf("%w: %s quantity must be positive, got %v", domain.ErrExecutionFailed, side, qty)
	}
	order := domain.Order{
		ID:        uuid.NewString(),
		Side:      side,
		Qty:       qty,
		Price:     price,
		Status:    domain.OrderStatusIntent,
		CreatedAt: b.now(),
	}
	b.orders = append(b.orders, order)
	return order, nil
}
