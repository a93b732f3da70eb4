package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cppi/internal/config"
	"cppi/internal/store"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cppi-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version                    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  convert <csv-dir> <name>   Copy a CSV path set into the Parquet store\n")
		fmt.Fprintf(os.Stderr, "  summaries [strategy]       List saved run summaries\n")
		fmt.Fprintf(os.Stderr, "  show <id>                  Print one saved run summary\n")
		fmt.Fprintf(os.Stderr, "\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	if os.Args[1] == "version" {
		fmt.Printf("cppi-cli %s\n", version)
		return
	}

	cfgPath := "config/cppi.yaml"
	if p := os.Getenv("CPPI_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	args := os.Args[2:]

	switch os.Args[1] {
	case "convert":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(1)
		}
		if err := convert(ctx, args[0], args[1], cfg.Storage.DataDir); err != nil {
			log.Fatalf("convert: %v", err)
		}

	case "summaries":
		strategy := ""
		if len(args) > 0 {
			strategy = args[0]
		}
		if err := listSummaries(ctx, cfg, strategy); err != nil {
			log.Fatalf("summaries: %v", err)
		}

	case "show":
		if len(args) != 1 {
			flag.Usage()
			os.Exit(1)
		}
		if err := showSummary(ctx, cfg, args[0]); err != nil {
			log.Fatalf("show: %v", err)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func convert(ctx context.Context, csvDir, name, dataDir string) error {
	paths, err := store.NewCSVStore(csvDir).ReadPaths(ctx, name)
	if err != nil {
		return err
	}
	if err := store.NewParquetStore(dataDir).WritePaths(ctx, name, paths); err != nil {
		return err
	}
	fmt.Printf("wrote %d rows x %d paths to %s\n", paths.Len(), paths.Columns(), dataDir)
	return nil
}

func openSummaries(cfg *config.Config) (store.SummaryStore, func(), error) {
	if cfg.Storage.SQLitePath == "" {
		return store.NewParquetStore(cfg.Storage.DataDir), func() {}, nil
	}
	db, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { db.Close() }, nil
}

func listSummaries(ctx context.Context, cfg *config.Config, strategy string) error {
	st, closeFn, err := openSummaries(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	ids, err := st.ListSummaries(ctx, strategy)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

func showSummary(ctx context.Context, cfg *config.Config, id string) error {
	st, closeFn, err := openSummaries(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	s, err := st.LoadSummary(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s  strategy=%s path=%s rows=%d\n", s.RealizationID, s.Strategy, s.Path, len(s.Rows))
	fmt.Printf("%-25s %12s %12s %12s\n", "TIME", "CPPI", "PROTECTION", "UNDERLYING")
	for _, r := range s.Rows {
		fmt.Printf("%-25s %12.6f %12.6f %12.6f\n", r.Time.Format("2006-01-02T15:04:05Z07:00"), r.CPPI, r.Protection, r.Underlying)
	}
	return nil
}
