package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/Project-Sylos/Arbor/internal/types"
)

// DefaultConfig returns the default configuration
func DefaultConfig() types.Config {
	return types.Config{
		Store: types.StoreConfig{
			Driver: types.DriverDuckDB,
			DBPath: "./arbor.db",
		},
		API: types.APIConfig{
			Host: "localhost",
			Port: 8086,
		},
		Tree: types.TreeKeys{
			WeightKey: types.DefaultWeightKey,
			ParentKey: types.DefaultParentKey,
		},
		Collections: map[string]types.TreeKeys{},
		Seed: types.SeedConfig{
			MaxDepth:    3,
			Roots:       5,
			MinChildren: 0,
			MaxChildren: 4,
			Seed:        42,
		},
		Log: types.LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file. Fields missing
// from the file keep their default values.
func LoadFromFile(configPath string) (*types.Config, error) {
	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Normalize fills empty values with defaults and makes the DB path absolute
func Normalize(cfg *types.Config) error {
	defaults := DefaultConfig()

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = defaults.Store.Driver
	}
	if cfg.Store.DBPath == "" {
		cfg.Store.DBPath = defaults.Store.DBPath
	}
	if cfg.Store.DBPath != ":memory:" && !filepath.IsAbs(cfg.Store.DBPath) {
		absPath, err := filepath.Abs(cfg.Store.DBPath)
		if err != nil {
			return fmt.Errorf("failed to resolve DB path: %w", err)
		}
		cfg.Store.DBPath = absPath
	}

	if cfg.API.Host == "" {
		cfg.API.Host = defaults.API.Host
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = defaults.API.Port
	}

	if cfg.Tree.WeightKey == "" {
		cfg.Tree.WeightKey = types.DefaultWeightKey
	}
	if cfg.Tree.ParentKey == "" {
		cfg.Tree.ParentKey = types.DefaultParentKey
	}
	if cfg.Collections == nil {
		cfg.Collections = map[string]types.TreeKeys{}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Log.Format
	}
	return nil
}

// Validate checks that the configuration parameters are valid
func Validate(cfg *types.Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}

	switch cfg.Store.Driver {
	case types.DriverDuckDB, types.DriverSQLite:
	default:
		return fmt.Errorf("store driver must be %q or %q, got %q", types.DriverDuckDB, types.DriverSQLite, cfg.Store.Driver)
	}

	if cfg.API.Port < 1 || cfg.API.Port > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535, got %d", cfg.API.Port)
	}

	if cfg.Tree.WeightKey == cfg.Tree.ParentKey {
		return fmt.Errorf("weight_key and parent_key must differ, both are %q", cfg.Tree.WeightKey)
	}
	for name := range cfg.Collections {
		if name == "" {
			return fmt.Errorf("collection name cannot be empty")
		}
		resolved := cfg.KeysFor(name)
		if resolved.WeightKey == resolved.ParentKey {
			return fmt.Errorf("collection %s: weight_key and parent_key must differ, both are %q", name, resolved.WeightKey)
		}
	}

	if cfg.Seed.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", cfg.Seed.MaxDepth)
	}
	if cfg.Seed.Roots < 0 {
		return fmt.Errorf("roots must be non-negative, got %d", cfg.Seed.Roots)
	}
	if cfg.Seed.MinChildren < 0 {
		return fmt.Errorf("min_children must be non-negative, got %d", cfg.Seed.MinChildren)
	}
	if cfg.Seed.MaxChildren < cfg.Seed.MinChildren {
		return fmt.Errorf("max_children (%d) must be >= min_children (%d)", cfg.Seed.MaxChildren, cfg.Seed.MinChildren)
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log format must be text or json, got %q", cfg.Log.Format)
	}

	return nil
}

// SaveToFile saves configuration as JSON or YAML depending on the extension
func SaveToFile(cfg *types.Config, configPath string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(configPath)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
