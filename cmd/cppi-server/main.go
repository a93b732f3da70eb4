package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cppi/internal/api"
	"cppi/internal/config"
	"cppi/internal/store"
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

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	var summaries store.SummaryStore = store.NewParquetStore(cfg.Storage.DataDir)
	if cfg.Storage.SQLitePath != "" {
		db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open %s: %v", cfg.Storage.SQLitePath, err)
		}
		defer db.Close()
		summaries = db
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := api.NewServer(cfg.Server.Addr, summaries, logger).ListenAndServe(ctx); err != nil {
		log.Fatalf("api server error: %v", err)
	}
}
