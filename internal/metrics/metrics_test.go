package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cppi/internal/strategy"
	"cppi/internal/strategy/builtins"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	return string(body)
}

func TestObserverRecordsValuation(t *testing.T) {
	s, err := builtins.NewCPPI(builtins.Params{Floor: 0.8, InitialValue: 100}, nil)
	if err != nil {
		t.Fatalf("NewCPPI: %v", err)
	}
	obs := NewObserver("metrics-test-path")
	s.Subscribe(obs)

	if _, err := s.Update(10, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Notify(); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	body := scrape(t)
	for _, want := range []string{
		`cppi_portfolio_value{path="metrics-test-path",strategy="cppi"} 100`,
		`cppi_protected_value{path="metrics-test-path",strategy="cppi"} 80`,
		`cppi_ticks_total{strategy="cppi"}`,
		`cppi_floor_resets_total{strategy="cppi"}`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

type plainStrategy struct{ strategy.Strategy }

func (plainStrategy) Name() string { return "plain" }

func TestObserverWithoutValuation(t *testing.T) {
	if err := NewObserver("p").OnNotify(plainStrategy{}); err != nil {
		t.Fatalf("OnNotify: %v", err)
	}
	if !strings.Contains(scrape(t), `cppi_ticks_total{strategy="plain"} 1`) {
		t.Error("tick counter not incremented for a strategy without valuation")
	}
}
