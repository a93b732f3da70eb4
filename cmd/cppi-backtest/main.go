package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cppi/internal/analytics"
	"cppi/internal/api"
	"cppi/internal/config"
	"cppi/internal/domain"
	"cppi/internal/engine"
	"cppi/internal/store"
	"cppi/internal/strategy"
	"cppi/internal/strategy/builtins"
	"cppi/internal/util"
)

func main() {
	cfgPath := "config/cppi.yaml"
	if p := os.Getenv("CPPI_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.ValidateFeed(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	params, err := cfg.Strategy.Params()
	if err != nil {
		log.Fatalf("invalid strategy config: %v", err)
	}
	registry := strategy.NewRegistry()
	builtins.Register(registry, params, logger)

	var paths store.PathStore
	switch cfg.Feed.Format {
	case config.FormatParquet:
		paths = store.NewParquetStore(cfg.FeedDir())
	default:
		paths = store.NewCSVStore(cfg.FeedDir())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Run.MetricsAddr != "" {
		srv := api.NewServer(cfg.Run.MetricsAddr, nil, logger)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	bt := engine.NewBacktester(paths, registry, cfg.Run.Workers, logger)
	collector, runErr := bt.Run(ctx, cfg.Strategy.Name, cfg.Feed.Name, cfg.Feed.Columns)
	if collector == nil {
		log.Fatalf("backtest error: %v", runErr)
	}
	if runErr != nil {
		logger.Error("some paths failed", "error", runErr)
	}

	summaries, err := summarize(collector, logger)
	if err != nil {
		log.Fatalf("summarizing runs: %v", err)
	}
	printSummaries(summaries)

	if cfg.Run.SaveSummaries {
		if err := save(ctx, cfg, summaries); err != nil {
			log.Fatalf("saving summaries: %v", err)
		}
		logger.Info("summaries saved", "count", len(summaries))
	}

	if runErr != nil {
		os.Exit(1)
	}
}

// summarize rebases every collected run, skipping runs that cannot be
// rebased (for example a zero floor) with a warning.
func summarize(c *analytics.Collector, logger *slog.Logger) ([]domain.Summary, error) {
	var out []domain.Summary
	for _, r := range c.Realizations() {
		s, err := analytics.Summarize(r)
		if errors.Is(err, domain.ErrAnalyticsFailed) {
			logger.Warn("skipping summary", "path", r.Path, "realization", r.ID, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func printSummaries(summaries []domain.Summary) {
	fmt.Printf("%-16s %8s %12s %12s %12s\n", "PATH", "ROWS", "CPPI", "PROTECTION", "UNDERLYING")
	for _, s := range summaries {
		last, ok := s.Last()
		if !ok {
			continue
		}
		fmt.Printf("%-16s %8d %12.6f %12.6f %12.6f\n", s.Path, len(s.Rows), last.CPPI, last.Protection, last.Underlying)
	}
}

func save(ctx context.Context, cfg *config.Config, summaries []domain.Summary) error {
	stores := []store.SummaryStore{store.NewParquetStore(cfg.Storage.DataDir)}
	if cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", cfg.Storage.SQLitePath, err)
		}
		defer db.Close()
		stores = append(stores, db)
	}

	for _, s := range summaries {
		for _, st := range stores {
			if err := st.SaveSummary(ctx, s); err != nil {
				return err
			}
		}
	}
	return nil
}
