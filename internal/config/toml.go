// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/abhinavpachauri/igcse-estimator/internal/tier"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Parse     ParseConfig           `toml:"parse"`
	Estimate  EstimateConfig        `toml:"estimate"`
	Store     StoreConfig           `toml:"store"`
	Serve     ServeConfig           `toml:"serve"`
	Tiers     map[string]TierConfig `toml:"tiers"`
	Preferred map[string]string     `toml:"preferred"`
}

// ParseConfig maps batch parsing settings.
type ParseConfig struct {
	RawDir  *string `toml:"raw-dir"`
	OutDir  *string `toml:"out-dir"`
	Workers *int    `toml:"workers"`
}

// EstimateConfig maps estimation settings.
type EstimateConfig struct {
	Season *string `toml:"season"`
	Window *int    `toml:"window"`
}

// StoreConfig selects the database.
type StoreConfig struct {
	Driver *string `toml:"driver"`
	DSN    *string `toml:"dsn"`
}

// ServeConfig maps HTTP API settings.
type ServeConfig struct {
	Addr    *string  `toml:"addr"`
	Origins []string `toml:"origins"`
}

// TierConfig lists the option prefixes of a tiered syllabus.
type TierConfig struct {
	Core     []string `toml:"core"`
	Extended []string `toml:"extended"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// TierRules returns the built-in tier configuration with the file's overrides applied.
func (c FileConfig) TierRules() (tier.Config, error) {
	tiered := make(map[string]tier.Prefixes, len(c.Tiers))
	for code, t := range c.Tiers {
		if len(t.Core) == 0 && len(t.Extended) == 0 {
			return tier.Config{}, fmt.Errorf("tiers.%s: core or extended prefixes are required", code)
		}
		tiered[code] = tier.Prefixes{Core: t.Core, Extended: t.Extended}
	}
	return tier.Default().Merge(tiered, c.Preferred), nil
}
