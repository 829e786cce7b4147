// Package config loads leastcount settings from an HCL file, then applies
// LEASTCOUNT_* environment overrides.
//
//	game {
//	  elimination_threshold = 100
//	  max_round_score       = 50
//	  players               = ["Asha", "Ravi", "Meera", "Kiran"]
//	}
//
//	storage {
//	  driver = "sqlite"
//	  dir    = "~/.config/leastcount"
//	}
//
//	log {
//	  level = "info"
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/leastcount/internal/game"
)

// Threshold bounds offered to players.
const (
	MinEliminationThreshold = 50
	MaxEliminationThreshold = 500
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config is the resolved application configuration.
type Config struct {
	Game    GameSettings
	Storage StorageSettings
	Log     LogSettings
}

// GameSettings are the scoring rules.
type GameSettings struct {
	EliminationThreshold int      `env:"LEASTCOUNT_ELIMINATION_THRESHOLD"`
	MaxRoundScore        int      `env:"LEASTCOUNT_MAX_ROUND_SCORE"` // 0 = no cap
	UndoLimit            int      `env:"LEASTCOUNT_UNDO_LIMIT"`
	Players              []string `env:"LEASTCOUNT_PLAYERS" envSeparator:","`
}

// StorageSettings select where sessions are kept. The file store in Dir is
// always used as the local fallback.
type StorageSettings struct {
	Driver        string `env:"LEASTCOUNT_STORAGE_DRIVER"`
	Dir           string `env:"LEASTCOUNT_STORAGE_DIR"`
	SQLitePath    string `env:"LEASTCOUNT_SQLITE_PATH"`
	RedisAddr     string `env:"LEASTCOUNT_REDIS_ADDR"`
	RedisPassword string `env:"LEASTCOUNT_REDIS_PASSWORD"`
	RedisDB       int    `env:"LEASTCOUNT_REDIS_DB"`
	RedisPrefix   string `env:"LEASTCOUNT_REDIS_PREFIX"`
}

// LogSettings configure the logger.
type LogSettings struct {
	Level string `env:"LEASTCOUNT_LOG_LEVEL"`
	File  string `env:"LEASTCOUNT_LOG_FILE"`
}

// fileConfig mirrors Config with optional fields so absent settings keep
// their defaults.
type fileConfig struct {
	Game    *gameBlock    `hcl:"game,block"`
	Storage *storageBlock `hcl:"storage,block"`
	Log     *logBlock     `hcl:"log,block"`
}

type gameBlock struct {
	EliminationThreshold *int     `hcl:"elimination_threshold,optional"`
	MaxRoundScore        *int     `hcl:"max_round_score,optional"`
	UndoLimit            *int     `hcl:"undo_limit,optional"`
	Players              []string `hcl:"players,optional"`
}

type storageBlock struct {
	Driver        *string `hcl:"driver,optional"`
	Dir           *string `hcl:"dir,optional"`
	SQLitePath    *string `hcl:"sqlite_path,optional"`
	RedisAddr     *string `hcl:"redis_addr,optional"`
	RedisPassword *string `hcl:"redis_password,optional"`
	RedisDB       *int    `hcl:"redis_db,optional"`
	RedisPrefix   *string `hcl:"redis_prefix,optional"`
}

type logBlock struct {
	Level *string `hcl:"level,optional"`
	File  *string `hcl:"file,optional"`
}

// DefaultConfig returns the settings used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	rules := game.DefaultConfig()
	return &Config{
		Game: GameSettings{
			EliminationThreshold: rules.EliminationThreshold,
			MaxRoundScore:        rules.MaxRoundScore,
			UndoLimit:            rules.UndoLimit,
			Players:              rules.DefaultPlayers,
		},
		Storage: StorageSettings{
			Driver: DriverFile,
			Dir:    DefaultDataDir(),
		},
		Log: LogSettings{
			Level: "info",
		},
	}
}

// DefaultDataDir is the per-user directory for local data.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "leastcount")
	}
	return ".leastcount"
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return filepath.Join(DefaultDataDir(), "leastcount.hcl")
}

// Load reads filename (a missing file means defaults) and applies
// environment overrides. The result is not validated.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(filename); err == nil {
		if err := cfg.loadFile(filename); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Storage.SQLitePath = expandHome(cfg.Storage.SQLitePath)
	return cfg, nil
}

func (c *Config) loadFile(filename string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if g := fc.Game; g != nil {
		setInt(&c.Game.EliminationThreshold, g.EliminationThreshold)
		setInt(&c.Game.MaxRoundScore, g.MaxRoundScore)
		setInt(&c.Game.UndoLimit, g.UndoLimit)
		if g.Players != nil {
			c.Game.Players = g.Players
		}
	}
	if s := fc.Storage; s != nil {
		setString(&c.Storage.Driver, s.Driver)
		setString(&c.Storage.Dir, s.Dir)
		setString(&c.Storage.SQLitePath, s.SQLitePath)
		setString(&c.Storage.RedisAddr, s.RedisAddr)
		setString(&c.Storage.RedisPassword, s.RedisPassword)
		setInt(&c.Storage.RedisDB, s.RedisDB)
		setString(&c.Storage.RedisPrefix, s.RedisPrefix)
	}
	if l := fc.Log; l != nil {
		setString(&c.Log.Level, l.Level)
		setString(&c.Log.File, l.File)
	}
	return nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	g := c.Game
	if g.EliminationThreshold < MinEliminationThreshold || g.EliminationThreshold > MaxEliminationThreshold {
		return fmt.Errorf("elimination threshold must be between %d and %d, got %d",
			MinEliminationThreshold, MaxEliminationThreshold, g.EliminationThreshold)
	}
	if g.MaxRoundScore < 0 {
		return fmt.Errorf("max round score must not be negative, got %d", g.MaxRoundScore)
	}
	if g.UndoLimit < 1 {
		return fmt.Errorf("undo limit must be at least 1, got %d", g.UndoLimit)
	}
	if len(g.Players) < game.DefaultMinPlayers {
		return fmt.Errorf("at least %d players must be configured", game.DefaultMinPlayers)
	}
	for i, name := range g.Players {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("player %d has an empty name", i+1)
		}
	}

	switch c.Storage.Driver {
	case DriverFile, DriverSQLite:
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis storage requires redis_addr")
		}
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Dir) == "" {
		return fmt.Errorf("storage dir is required")
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return nil
}

// GameConfig returns the engine rules described by the settings.
func (c *Config) GameConfig() game.Config {
	rules := game.DefaultConfig()
	rules.EliminationThreshold = c.Game.EliminationThreshold
	rules.MaxRoundScore = c.Game.MaxRoundScore
	rules.UndoLimit = c.Game.UndoLimit
	rules.DefaultPlayers = c.Game.Players
	return rules
}

// SQLitePath returns the database path, defaulting to a file in Dir.
func (c *Config) SQLitePath() string {
	if c.Storage.SQLitePath != "" {
		return c.Storage.SQLitePath
	}
	return filepath.Join(c.Storage.Dir, "leastcount.db")
}

// LogLevel returns the parsed log level, defaulting to info.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}
