package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"cppi/internal/analytics"
	"cppi/internal/domain"
	"cppi/internal/execution"
	"cppi/internal/feed"
	"cppi/internal/store"
	"cppi/internal/strategy"
	"cppi/internal/strategy/builtins"
)

func testPaths(rows int) *domain.Paths {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &domain.Paths{
		Names:  []string{"flat", "up", "down"},
		Values: make([][]float64, 3),
	}
	for i := 0; i < rows; i++ {
		p.Times = append(p.Times, t0.AddDate(0, 0, i))
		p.Values[0] = append(p.Values[0], 100)
		p.Values[1] = append(p.Values[1], 100+float64(i))
		p.Values[2] = append(p.Values[2], 100-float64(i))
	}
	return p
}

func cppiFactory(params builtins.Params) strategy.Factory {
	return func() (strategy.Strategy, error) {
		return builtins.NewCPPI(params, nil)
	}
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(nil, nil, nil, nil)
	if e == nil {
		t.Fatal("NewEngine returned nil")
	}
}

func TestEngineRun(t *testing.T) {
	s, err := builtins.NewCPPI(builtins.Params{Floor: 0.8, ResetInterval: 7 * 24 * time.Hour}, nil)
	if err != nil {
		t.Fatalf("NewCPPI: %v", err)
	}
	collector := analytics.NewCollector()
	e := NewEngine(feed.NewReplay(testPaths(30), 1), execution.NewAdapter(s, nil), collector, nil)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if collector.Len() != 1 {
		t.Fatalf("collector holds %d realizations, want 1", collector.Len())
	}
	r := collector.Realizations()[0]
	if r.Path != "up" || r.Ticks != 30 {
		t.Errorf("realization = %+v", r)
	}
	if collector.Observed() != 30 {
		t.Errorf("collector observed %d ticks, want 30", collector.Observed())
	}

	summary, err := analytics.Summarize(r)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	last, _ := summary.Last()
	if last.CPPI <= 1 {
		t.Errorf("CPPI on a rising path ended at %v, want above 1", last.CPPI)
	}
}

func TestEngineInitializeDoesNotTick(t *testing.T) {
	s, _ := builtins.NewCPPI(builtins.Params{Floor: 0.8}, nil)
	collector := analytics.NewCollector()
	e := NewEngine(feed.NewReplay(testPaths(5), 0), execution.NewAdapter(s, nil), collector, nil)

	if err := e.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.Portfolio().Started() || collector.Len() != 0 {
		t.Error("Initialize produced ticks or realizations")
	}
}

func TestEngineStartBeforeInitialize(t *testing.T) {
	s, _ := builtins.NewCPPI(builtins.Params{Floor: 0.8}, nil)
	e := NewEngine(feed.NewReplay(testPaths(5), 0), execution.NewAdapter(s, nil), analytics.NewCollector(), nil)
	if err := e.Start(context.Background()); err == nil {
		t.Error("Start before Initialize succeeded")
	}
}

func TestEngineStartTwice(t *testing.T) {
	s, _ := builtins.NewCPPI(builtins.Params{Floor: 0.8}, nil)
	collector := analytics.NewCollector()
	e := NewEngine(feed.NewReplay(testPaths(5), 0), execution.NewAdapter(s, nil), collector, nil)

	if err := e.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := e.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}
	if collector.Len() != 1 {
		t.Errorf("collector holds %d realizations, want 1", collector.Len())
	}
}

func TestEngineFailureKeepsPartialHistory(t *testing.T) {
	paths := testPaths(6)
	paths.Times[4] = paths.Times[2]

	s, _ := builtins.NewCPPI(builtins.Params{Floor: 0.8}, nil)
	collector := analytics.NewCollector()
	e := NewEngine(feed.NewReplay(paths, 0), execution.NewAdapter(s, nil), collector, nil)

	err := e.Run(context.Background())
	if !errors.Is(err, domain.ErrCausality) {
		t.Fatalf("Run error = %v, want ErrCausality", err)
	}
	if collector.Len() != 0 {
		t.Error("failed run was collected")
	}
	if got := s.Portfolio().TotalValue.Len(); got != 4 {
		t.Errorf("strategy kept %d ticks, want 4", got)
	}
}

func TestRunPaths(t *testing.T) {
	collector, err := RunPaths(context.Background(), testPaths(20), nil, cppiFactory(builtins.Params{Floor: 0.8}), 2, nil)
	if err != nil {
		t.Fatalf("RunPaths: %v", err)
	}
	if collector.Len() != 3 {
		t.Fatalf("collector holds %d realizations, want 3", collector.Len())
	}
	for i, want := range []string{"flat", "up", "down"} {
		if got := collector.Realizations()[i].Path; got != want {
			t.Errorf("realization %d path = %q, want %q", i, got, want)
		}
	}
}

func TestRunPathsIsolatesFailures(t *testing.T) {
	paths := testPaths(10)
	paths.Values[1] = paths.Values[1][:5]

	collector, err := RunPaths(context.Background(), paths, []int{0, 1, 2}, cppiFactory(builtins.Params{Floor: 0.8}), 0, nil)
	if err == nil {
		t.Fatal("RunPaths succeeded with a malformed column")
	}
	if collector.Len() != 2 {
		t.Fatalf("collector holds %d realizations, want 2", collector.Len())
	}
	rs := collector.Realizations()
	if rs[0].Path != "flat" || rs[1].Path != "down" {
		t.Errorf("paths = %s, %s; want flat, down", rs[0].Path, rs[1].Path)
	}
}

func TestRunPathsFactoryError(t *testing.T) {
	boom := errors.New("boom")
	factory := func() (strategy.Strategy, error) { return nil, boom }
	_, err := RunPaths(context.Background(), testPaths(3), []int{0}, factory, 1, nil)
	if !errors.Is(err, boom) {
		t.Errorf("RunPaths error = %v, want boom", err)
	}
}

func TestBacktester(t *testing.T) {
	ctx := context.Background()
	ps := store.NewCSVStore(t.TempDir())
	if err := ps.WritePaths(ctx, "sample", testPaths(15)); err != nil {
		t.Fatalf("WritePaths: %v", err)
	}

	registry := strategy.NewRegistry()
	builtins.Register(registry, builtins.Params{Floor: 0.8}, nil)
	bt := NewBacktester(ps, registry, 2, nil)

	collector, err := bt.Run(ctx, builtins.CPPIName, "sample", []int{2})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if collector.Len() != 1 || collector.Realizations()[0].Path != "down" {
		t.Errorf("realizations = %+v", collector.Realizations())
	}

	if _, err := bt.Run(ctx, "missing", "sample", nil); err == nil {
		t.Error("Run with unknown strategy succeeded")
	}
	if _, err := bt.Run(ctx, builtins.CPPIName, "sample", []int{3}); err == nil {
		t.Error("Run with out-of-range column succeeded")
	}
	if _, err := bt.Run(ctx, builtins.CPPIName, "nope", nil); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Run with missing paths error = %v, want ErrNotFound", err)
	}
}
