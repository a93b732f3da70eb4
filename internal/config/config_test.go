package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cppi.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/tmp/cppi/data"
  sqlite_path: "/tmp/cppi/cppi.db"
logging:
  level: "debug"
  format: "text"
feed:
  format: "parquet"
  name: "gbm"
  columns: [0, 2]
strategy:
  floor: 0.8
  multiplier: 4
  initial_value: 100000
  reset_interval: "10d"
  verbose: true
run:
  workers: 4
  save_summaries: true
`)
	t.Setenv("CPPI_DATA_DIR", "")
	t.Setenv("CPPI_SQLITE_PATH", "")
	t.Setenv("CPPI_FEED_PATH", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Storage.DataDir != "/tmp/cppi/data" {
		t.Errorf("Storage.DataDir = %q, want /tmp/cppi/data", cfg.Storage.DataDir)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want text", cfg.Logging.Format)
	}
	if cfg.Feed.Format != FormatParquet || cfg.Feed.Name != "gbm" {
		t.Errorf("Feed = %+v", cfg.Feed)
	}
	if len(cfg.Feed.Columns) != 2 || cfg.Feed.Columns[1] != 2 {
		t.Errorf("Feed.Columns = %v, want [0 2]", cfg.Feed.Columns)
	}
	if cfg.FeedDir() != "/tmp/cppi/data" {
		t.Errorf("FeedDir() = %q, want data dir", cfg.FeedDir())
	}
	if cfg.Run.Workers != 4 || !cfg.Run.SaveSummaries {
		t.Errorf("Run = %+v", cfg.Run)
	}

	params, err := cfg.Strategy.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if params.Floor != 0.8 || params.Multiplier != 4 || params.InitialValue != 100000 {
		t.Errorf("Params = %+v", params)
	}
	if params.ResetInterval != 240*time.Hour {
		t.Errorf("ResetInterval = %v, want 240h", params.ResetInterval)
	}
	if !params.Verbose {
		t.Error("Verbose = false, want true")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "feed:\n  name: sample\n")
	t.Setenv("CPPI_DATA_DIR", "")
	t.Setenv("CPPI_SERVER_ADDR", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Storage.DataDir != "data" {
		t.Errorf("Storage.DataDir = %q, want data", cfg.Storage.DataDir)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v, want info/json", cfg.Logging)
	}
	if cfg.Feed.Format != FormatCSV {
		t.Errorf("Feed.Format = %q, want csv", cfg.Feed.Format)
	}
	if cfg.Strategy.Name != "cppi" {
		t.Errorf("Strategy.Name = %q, want cppi", cfg.Strategy.Name)
	}
	params, err := cfg.Strategy.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if params.ResetInterval != 0 {
		t.Errorf("ResetInterval = %v, want 0", params.ResetInterval)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
storage:
  data_dir: "/original"
feed:
  name: sample
logging:
  level: info
`)
	t.Setenv("CPPI_DATA_DIR", "/override")
	t.Setenv("CPPI_SQLITE_PATH", "/override/cppi.db")
	t.Setenv("CPPI_FEED_PATH", "/feeds")
	t.Setenv("CPPI_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Storage.DataDir != "/override" {
		t.Errorf("Storage.DataDir = %q, want /override", cfg.Storage.DataDir)
	}
	if cfg.Storage.SQLitePath != "/override/cppi.db" {
		t.Errorf("Storage.SQLitePath = %q, want /override/cppi.db", cfg.Storage.SQLitePath)
	}
	if cfg.FeedDir() != "/feeds" {
		t.Errorf("FeedDir() = %q, want /feeds", cfg.FeedDir())
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q, want 127.0.0.1:9000", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, `
feed:
  format: "xml"
  columns: [-1]
strategy:
  floor: 1.5
  reset_interval: "soon"
run:
  workers: -2
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load succeeded, want validation error")
	}
	for _, want := range []string{"feed.format", "negative index", "run.workers", "reset_interval"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestLoadWithoutFeed(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("CPPI_SERVER_ADDR", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	err = cfg.ValidateFeed()
	if err == nil || !strings.Contains(err.Error(), "feed.name") {
		t.Errorf("ValidateFeed error = %v, want feed.name", err)
	}

	cfg.Feed.Name = "sample"
	if err := cfg.ValidateFeed(); err != nil {
		t.Errorf("ValidateFeed with a name: %v", err)
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"", 0, true},
		{"10d", 240 * time.Hour, true},
		{"36h", 36 * time.Hour, true},
		{"1.5d", 0, false},
		{"later", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseInterval(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseInterval(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load of missing file succeeded, want error")
	}
}
