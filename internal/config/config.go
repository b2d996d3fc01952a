// Package config reads finla settings from an INI-style file, then applies
// FINLA_* environment overrides. Command-line flags in cmd/* are applied last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/gcfg.v1"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full configuration. Variable names in the file use dashes,
// e.g. "shutdown-timeout" for Shutdown_Timeout.
type Config struct {
	Server struct {
		Addr             string
		Cors_Origin      string
		Shutdown_Timeout int // seconds
	}

	Storage struct {
		Driver string // sqlite or memory
		Path   string
		State  string // where the engagement state lives: sqlite, memory or redis
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		Key      string
	}

	Export struct {
		Workers    int
		Queue_Size int

		BigQuery_Project string
		BigQuery_Dataset string
		BigQuery_Table   string

		GCS_Bucket string

		Notion_Token    string
		Notion_Database string
	}

	Log struct {
		Level  string
		Format string
	}
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Server.Addr = ":8080"
	cfg.Server.Cors_Origin = "*"
	cfg.Server.Shutdown_Timeout = 10
	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.Path = "data/finla.db"
	cfg.Storage.State = DriverSQLite
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Key = "finla:engagement_state"
	cfg.Export.Workers = 2
	cfg.Export.Queue_Size = 16
	cfg.Export.BigQuery_Dataset = "finla"
	cfg.Export.BigQuery_Table = "transactions"
	cfg.Log.Level = "info"
	cfg.Log.Format = "console"
	return cfg
}

// Load returns Default overlaid with filename, when given, and with the
// process environment. The result is validated.
func Load(filename string) (Config, error) {
	cfg := Default()
	if filename != "" {
		if err := gcfg.ReadFileInto(&cfg, filename); err != nil {
			return cfg, fmt.Errorf("Load: %s: %w", filename, err)
		}
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, fmt.Errorf("Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

// ReadString parses configuration text over Default. Environment
// variables are not consulted.
func ReadString(text string) (Config, error) {
	cfg := Default()
	if err := gcfg.ReadStringInto(&cfg, text); err != nil {
		return cfg, fmt.Errorf("ReadString: %w", err)
	}
	return cfg, nil
}

type binding struct {
	key string
	set func(cfg *Config, v string) error
}

func str(get func(cfg *Config) *string) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		*get(cfg) = v
		return nil
	}
}

func integer(get func(cfg *Config) *int) func(*Config, string) error {
	return func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*get(cfg) = n
		return nil
	}
}

var envBindings = []binding{
	{"FINLA_SERVER_ADDR", str(func(c *Config) *string { return &c.Server.Addr })},
	{"FINLA_CORS_ORIGIN", str(func(c *Config) *string { return &c.Server.Cors_Origin })},
	{"FINLA_STORAGE_DRIVER", str(func(c *Config) *string { return &c.Storage.Driver })},
	{"FINLA_STORAGE_PATH", str(func(c *Config) *string { return &c.Storage.Path })},
	{"FINLA_STATE_STORE", str(func(c *Config) *string { return &c.Storage.State })},
	{"FINLA_REDIS_ADDR", str(func(c *Config) *string { return &c.Redis.Addr })},
	{"FINLA_REDIS_PASSWORD", str(func(c *Config) *string { return &c.Redis.Password })},
	{"FINLA_REDIS_DB", integer(func(c *Config) *int { return &c.Redis.DB })},
	{"FINLA_EXPORT_WORKERS", integer(func(c *Config) *int { return &c.Export.Workers })},
	{"FINLA_BIGQUERY_PROJECT", str(func(c *Config) *string { return &c.Export.BigQuery_Project })},
	{"FINLA_BIGQUERY_DATASET", str(func(c *Config) *string { return &c.Export.BigQuery_Dataset })},
	{"GCS_BUCKET", str(func(c *Config) *string { return &c.Export.GCS_Bucket })},
	{"FINLA_GCS_BUCKET", str(func(c *Config) *string { return &c.Export.GCS_Bucket })},
	{"NOTION_TOKEN", str(func(c *Config) *string { return &c.Export.Notion_Token })},
	{"FINLA_NOTION_DATABASE", str(func(c *Config) *string { return &c.Export.Notion_Database })},
	{"FINLA_LOG_LEVEL", str(func(c *Config) *string { return &c.Log.Level })},
	{"FINLA_LOG_FORMAT", str(func(c *Config) *string { return &c.Log.Format })},
}

// ApplyEnv overrides cfg from the environment. Empty values are ignored.
// Later bindings win, so FINLA_GCS_BUCKET beats GCS_BUCKET.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, b := range envBindings {
		v, ok := lookup(b.key)
		if !ok || v == "" {
			continue
		}
		if err := b.set(cfg, v); err != nil {
			return fmt.Errorf("ApplyEnv: %s: %w", b.key, err)
		}
	}
	return nil
}

// Validate checks driver names and numeric ranges.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("storage driver %q: %w", c.Storage.Driver, ErrInvalid)
	}
	switch c.Storage.State {
	case DriverSQLite, DriverMemory, DriverRedis:
	default:
		return fmt.Errorf("state store %q: %w", c.Storage.State, ErrInvalid)
	}
	if c.Storage.State == DriverSQLite && c.Storage.Driver != DriverSQLite {
		return fmt.Errorf("state store sqlite needs the sqlite storage driver: %w", ErrInvalid)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.Path == "" {
		return fmt.Errorf("storage path is empty: %w", ErrInvalid)
	}
	if c.Export.Workers < 1 || c.Export.Queue_Size < 1 {
		return fmt.Errorf("export workers and queue size must be positive: %w", ErrInvalid)
	}
	if c.Server.Shutdown_Timeout < 0 {
		return fmt.Errorf("shutdown timeout is negative: %w", ErrInvalid)
	}
	return nil
}

// ShutdownTimeout returns the server shutdown grace period.
func (c Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.Shutdown_Timeout) * time.Second
}
