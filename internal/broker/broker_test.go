package broker

import (
	"context"
	"errors"
	"testing"

	"cppi/internal/domain"
)

func TestSimulatorBrokerName(t *testing.T) {
	b := NewSimulatorBroker()
	if got := b.Name(); got != "simulator" {
		t.Errorf("SimulatorBroker.Name() = %q, want %q", got, "simulator")
	}
}

func TestSimulatorBrokerRecordsIntents(t *testing.T) {
	b := NewSimulatorBroker()
	ctx := context.Background()

	buy, err := b.Buy(ctx, 10, 100)
	if err != nil {
		t.Fatalf("Buy: %v", err)
	}
	if buy.Side != domain.OrderSideBuy || buy.Status != domain.OrderStatusIntent || buy.ID == "" {
		t.Errorf("Buy order = %+v", buy)
	}
	if buy.FilledQty != 0 {
		t.Errorf("FilledQty = %v, want 0", buy.FilledQty)
	}

	if _, err := b.Sell(ctx, 4, 101); err != nil {
		t.Fatalf("Sell: %v", err)
	}

	orders, err := b.Orders(ctx)
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(orders) != 2 || orders[1].Side != domain.OrderSideSell || orders[1].Qty != 4 {
		t.Errorf("Orders = %+v", orders)
	}
	if orders[0].ID == orders[1].ID {
		t.Error("orders share an ID")
	}
}

func TestSimulatorBrokerRejectsNonPositiveQty(t *testing.T) {
	b := NewSimulatorBroker()
	for _, qty := range []float64{0, -1} {
		if _, err := b.Buy(context.Background(), qty, 100); !errors.Is(err, domain.ErrExecutionFailed) {
			t.Errorf("Buy(%v) error = %v, want ErrExecutionFailed", qty, err)
		}
	}
	orders, _ := b.Orders(context.Background())
	if len(orders) != 0 {
		t.Errorf("rejected orders were recorded: %+v", orders)
	}
}
