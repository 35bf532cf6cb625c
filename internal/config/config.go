// Package config loads kpalette defaults from a JSON file and the environment.
//
// Precedence, lowest to highest: built-in defaults, config file, environment, command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmylchreest/kpalette/internal/colour"
	"github.com/jmylchreest/kpalette/internal/seed"
)

// Environment variables that override file values.
const (
	EnvClusters = "KPALETTE_CLUSTERS"
	EnvSpace    = "KPALETTE_SPACE"
	EnvSeed     = "KPALETTE_SEED"
	EnvCatalog  = "KPALETTE_CATALOG"
	EnvConfig   = "KPALETTE_CONFIG"
)

// Config holds the user-adjustable defaults.
type Config struct {
	Clusters      int    `json:"clusters"`
	Space         string `json:"space"`
	SeedMode      string `json:"seed_mode"`
	Seed          int64  `json:"seed"`
	MaxIterations int    `json:"max_iterations"`
	MaxDimension  int    `json:"max_dimension"`
	BarHeight     int    `json:"bar_height"`
	ProgressStep  int    `json:"progress_step"`
	Catalog       string `json:"catalog,omitempty"`
	CacheDir      string `json:"cache_dir,omitempty"`
}

// Default returns the built-in defaults.
func Default() Config {
	s := seed.Default()
	return Config{
		Clusters:      5,
		Space:         string(colour.SpaceRGB),
		SeedMode:      string(s.Mode),
		Seed:          s.Value,
		MaxIterations: colour.DefaultMaxIterations,
		BarHeight:     colour.DefaultBarHeight,
		ProgressStep:  colour.DefaultProgressStep,
	}
}

// Path returns the config file location: $KPALETTE_CONFIG, else <user config dir>/kpalette/config.json.
func Path() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "kpalette", "config.json"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 - Config path chosen by the user
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from KPALETTE_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvClusters); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvClusters, err)
		}
		c.Clusters = n
	}
	if v := os.Getenv(EnvSpace); v != "" {
		c.Space = v
	}
	if v := os.Getenv(EnvSeed); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvSeed, err)
		}
		c.Seed = n
		c.SeedMode = string(seed.ModeManual)
	}
	if v := os.Getenv(EnvCatalog); v != "" {
		c.Catalog = v
	}
	return nil
}

// Validate checks that every value is usable.
func (c Config) Validate() error {
	if c.Clusters < 1 {
		return fmt.Errorf("%w: clusters must be at least 1, got %d", colour.ErrInvalidClusterCount, c.Clusters)
	}
	if _, err := colour.ParseSpace(c.Space); err != nil {
		return err
	}
	if _, err := seed.ParseMode(c.SeedMode); err != nil {
		return err
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be at least 1, got %d", c.MaxIterations)
	}
	if c.MaxDimension < 0 {
		return fmt.Errorf("max_dimension cannot be negative, got %d", c.MaxDimension)
	}
	if c.BarHeight < 1 {
		return fmt.Errorf("bar_height must be at least 1, got %d", c.BarHeight)
	}
	if c.ProgressStep < 1 {
		return fmt.Errorf("progress_step must be at least 1, got %d", c.ProgressStep)
	}
	return nil
}

// Save writes c to path as indented JSON, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { // #nosec G301 - Config directory needs standard permissions
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { // #nosec G306 - Config is not secret
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// DefaultCatalogPath returns <user data dir>/kpalette/catalog.db.
func DefaultCatalogPath() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "kpalette", "catalog.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "kpalette", "catalog.db"), nil
}
