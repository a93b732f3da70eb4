// Package strategy defines the Strategy interface for tick-driven trading
// strategies and provides a Registry for building them by name.
package strategy

import (
	"fmt"
	"sort"
	"time"

	"cppi/internal/feed"
	"cppi/internal/portfolio"
	"cppi/internal/pubsub"
)

// Observer receives strategy-level events, independent of the price source's
// subscribers.
type Observer = pubsub.Subscriber[Strategy]

// Strategy is the interface that all trading strategies must implement.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// OnNotify is called once per tick. It reads the current market state
	// from source and advances the strategy's internal state.
	OnNotify(source feed.Source) error

	// Subscribe registers an observer for strategy-level events.
	Subscribe(o Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(o Observer)

	// Notify calls every observer with the strategy.
	Notify() error
}

// PortfolioHolder is implemented by strategies that keep a portfolio track
// record.
type PortfolioHolder interface {
	Portfolio() *portfolio.Portfolio
}

// Valuation is a strategy's most recent marked-to-market state.
type Valuation struct {
	Time      time.Time
	Price     float64
	Total     float64
	Protected float64
	Exposure  float64
	Bond      float64
	Reset     bool
}

// Valuer is implemented by strategies that can report their latest valuation.
type Valuer interface {
	Valuation() (Valuation, bool)
}

// Factory builds a fresh strategy instance. Each run needs its own instance.
type Factory func() (Strategy, error)

// Registry holds named strategy factories for lookup and enumeration.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name, replacing any previous entry.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Get retrieves a factory by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// New builds a strategy instance by name.
func (r *Registry) New(name string) (Strategy, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("strategy %q is not registered", name)
	}
	return f()
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
