// Package config loads the backtester configuration from YAML with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"cppi/internal/strategy/builtins"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the backtester.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
	Feed     Feed     `yaml:"feed"`
	Strategy Strategy `yaml:"strategy"`
	Run      Run      `yaml:"run"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Server holds network listener configuration for the results API.
type Server struct {
	Addr string `yaml:"addr"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Feed selects the price paths to replay.
type Feed struct {
	// Path is the directory holding the path files. Empty means
	// Storage.DataDir.
	Path string `yaml:"path"`
	// Format is "csv" (<path>/<name>.csv) or "parquet"
	// (<path>/paths/<name>.parquet).
	Format string `yaml:"format"`
	// Name of the path set.
	Name string `yaml:"name"`
	// Columns to replay, by index. Empty replays every column.
	Columns []int `yaml:"columns"`
}

// Strategy holds CPPI parameters.
type Strategy struct {
	Name         string  `yaml:"name"`
	Floor        float64 `yaml:"floor"`
	Multiplier   float64 `yaml:"multiplier"`
	InitialValue float64 `yaml:"initial_value"`
	// ResetInterval is a Go duration ("720h") or a whole number of days
	// ("10d"). Empty means the floor is never reset after the first tick.
	ResetInterval string `yaml:"reset_interval"`
	Verbose       bool   `yaml:"verbose"`
}

// Run controls how a backtest executes.
type Run struct {
	Workers       int    `yaml:"workers"`
	SaveSummaries bool   `yaml:"save_summaries"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// Feed formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, applies defaults and environment variable overrides, and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}

	cfg.applyDefaults()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Feed.Format == "" {
		c.Feed.Format = FormatCSV
	}
	if c.Strategy.Name == "" {
		c.Strategy.Name = builtins.CPPIName
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CPPI_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}

	if v := os.Getenv("CPPI_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("CPPI_FEED_PATH"); v != "" {
		cfg.Feed.Path = v
	}

	if v := os.Getenv("CPPI_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the settings every command shares. Load calls it; commands
// that replay a feed also call ValidateFeed.
func (c *Config) Validate() error {
	var errs []error
	switch c.Feed.Format {
	case FormatCSV, FormatParquet:
	default:
		errs = append(errs, fmt.Errorf("feed.format %q must be %s or %s", c.Feed.Format, FormatCSV, FormatParquet))
	}
	for _, col := range c.Feed.Columns {
		if col < 0 {
			errs = append(errs, fmt.Errorf("feed.columns contains negative index %d", col))
		}
	}
	if c.Run.Workers < 0 {
		errs = append(errs, fmt.Errorf("run.workers must not be negative, got %d", c.Run.Workers))
	}
	if _, err := c.Strategy.Params(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateFeed checks that the configuration names a feed to replay.
func (c *Config) ValidateFeed() error {
	if c.Feed.Name == "" {
		return errors.New("feed.name is required")
	}
	return nil
}

// FeedDir returns the directory path files are read from.
func (c *Config) FeedDir() string {
	if c.Feed.Path != "" {
		return c.Feed.Path
	}
	return c.Storage.DataDir
}

// Params converts the strategy section to CPPI parameters. Defaults for zero
// fields are filled in by the strategy itself.
func (s Strategy) Params() (builtins.Params, error) {
	interval, err := ParseInterval(s.ResetInterval)
	if err != nil {
		return builtins.Params{}, fmt.Errorf("strategy.reset_interval: %w", err)
	}
	if s.Floor < 0 || s.Floor > 1 {
		return builtins.Params{}, fmt.Errorf("strategy.floor %v must be within [0, 1]", s.Floor)
	}
	return builtins.Params{
		Floor:         s.Floor,
		Multiplier:    s.Multiplier,
		InitialValue:  s.InitialValue,
		ResetInterval: interval,
		Verbose:       s.Verbose,
	}, nil
}

// ParseInterval parses a Go duration or a whole number of days with a "d"
// suffix. The empty string yields zero.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
