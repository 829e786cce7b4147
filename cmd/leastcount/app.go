package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/lox/leastcount/internal/config"
	"github.com/lox/leastcount/internal/store"
	"github.com/lox/leastcount/internal/store/filestore"
	"github.com/lox/leastcount/internal/store/redisstore"
	"github.com/lox/leastcount/internal/store/sqlitestore"
)

// Globals are flags shared by every command.
type Globals struct {
	Config   string `short:"c" type:"path" help:"Path to HCL configuration file (default: user config dir)"`
	Storage  string `help:"Storage driver: file, sqlite or redis (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
}

// load reads the configuration and applies flag overrides.
func (g *Globals) load() (*config.Config, error) {
	path := g.Config
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.Storage != "" {
		cfg.Storage.Driver = g.Storage
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds a logger writing to w at the configured level.
func newLogger(cfg *config.Config, w io.Writer, prefix string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           cfg.LogLevel(),
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          prefix,
	})
}

// openLogFile opens the file the interactive UI logs to, so log lines do not
// draw over the alt screen.
func openLogFile(cfg *config.Config) (*os.File, error) {
	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(cfg.Storage.Dir, "leastcount.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// openStore opens the configured primary store behind the local file store.
// The file driver has no primary.
func openStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (*store.Fallback, error) {
	local, err := filestore.Open(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}

	var primary store.Store
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := sqlitestore.Open(cfg.SQLitePath())
		if err != nil {
			_ = local.Close()
			return nil, err
		}
		primary = db
	case config.DriverRedis:
		rdb, err := redisstore.Connect(redisstore.Options{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Prefix:   cfg.Storage.RedisPrefix,
		})
		if err != nil {
			_ = local.Close()
			return nil, err
		}
		if err := rdb.Ping(ctx); err != nil {
			logger.Warn("Redis unavailable, saves will queue locally", "error", err)
		}
		primary = rdb
	}

	logger.Debug("Store opened", "driver", cfg.Storage.Driver, "dir", cfg.Storage.Dir)
	return store.NewFallback(primary, local, logger), nil
}
