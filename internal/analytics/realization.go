package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cppi/internal/broker"
	"cppi/internal/domain"
	"cppi/internal/portfolio"
	"cppi/internal/strategy"
)

// Realization is the recorded state of one completed run. It is a sample of
// the strategy's behaviour along one price path and is never modified after
// creation.
type Realization struct {
	ID          string
	Strategy    string
	Path        string
	Ticks       int
	CompletedAt time.Time

	portfolio *portfolio.Portfolio
	orders    []domain.Order
}

// Portfolio returns a copy of the run's track record.
func (r Realization) Portfolio() *portfolio.Portfolio {
	if r.portfolio == nil {
		return portfolio.New()
	}
	return r.portfolio.Clone()
}

// Orders returns a copy of the orders routed during the run.
func (r Realization) Orders() []domain.Order {
	out := make([]domain.Order, len(r.orders))
	copy(out, r.orders)
	return out
}

// Source is what a realization is captured from: the execution adapter of a
// finished run.
type Source interface {
	Strategy() strategy.Strategy
	Broker() broker.Broker
}

// NewRealization snapshots the strategy and order log behind src. The
// strategy must keep a portfolio track record.
func NewRealization(ctx context.Context, src Source, path string) (Realization, error) {
	s := src.Strategy()
	holder, ok := s.(strategy.PortfolioHolder)
	if !ok {
		return Realization{}, fmt.Errorf("%w: strategy %s keeps no portfolio", domain.ErrAnalyticsFailed, s.Name())
	}

	var orders []domain.Order
	if b := src.Broker(); b != nil {
		var err error
		if orders, err = b.Orders(ctx); err != nil {
			return Realization{}, fmt.Errorf("%w: reading orders from %s: %v", domain.ErrAnalyticsFailed, b.Name(), err)
		}
	}

	snapshot := holder.Portfolio().Clone()
	return Realization{
		ID:          uuid.NewString(),
		Strategy:    s.Name(),
		Path:        path,
		Ticks:       snapshot.TotalValue.Len(),
		CompletedAt: time.Now().UTC(),
		portfolio:   snapshot,
		orders:      orders,
	}, nil
}
