// Package execution binds a strategy to a price source and routes the
// strategy's orders to a broker.
package execution

import (
	"context"
	"math"

	"cppi/internal/broker"
	"cppi/internal/domain"
	"cppi/internal/feed"
	"cppi/internal/strategy"
)

// Compile-time interface check.
var _ feed.Subscriber = (*Adapter)(nil)

// Adapter sits between a price source and a strategy. It keeps the source's
// subscriber list separate from the strategy's own observers.
type Adapter struct {
	strategy strategy.Strategy
	broker   broker.Broker
}

// NewAdapter wraps s. A nil broker defaults to a SimulatorBroker.
func NewAdapter(s strategy.Strategy, b broker.Broker) *Adapter {
	if b == nil {
		b = broker.NewSimulatorBroker()
	}
	return &Adapter{strategy: s, broker: b}
}

// Bind subscribes the adapter to source.
func (a *Adapter) Bind(source feed.Source) {
	source.Subscribe(a)
}

// Unbind removes the adapter from source.
func (a *Adapter) Unbind(source feed.Source) {
	source.Unsubscribe(a)
}

// OnNotify forwards the tick unchanged to the strategy.
func (a *Adapter) OnNotify(source feed.Source) error {
	return a.strategy.OnNotify(source)
}

// Trade routes a signed quantity: positive buys, negative sells, zero does
// nothing and returns the zero Order.
func (a *Adapter) Trade(ctx context.Context, qty, price float64) (domain.Order, error) {
	switch {
	case qty > 0:
		return a.broker.Buy(ctx, qty, price)
	case qty < 0:
		return a.broker.Sell(ctx, math.Abs(qty), price)
	default:
		return domain.Order{}, nil
	}
}

// Strategy returns the wrapped strategy.
func (a *Adapter) Strategy() strategy.Strategy {
	return a.strategy
}

// Broker returns the order router.
func (a *Adapter) Broker() broker.Broker {
	return a.broker
}
