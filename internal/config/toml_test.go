package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Parse.Workers != nil || cfg.Store.Driver != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `[parse]
raw-dir = "data/raw"
workers = 8

[estimate]
season = "MJ"
window = 3

[store]
driver = "postgres"
dsn = "postgres://localhost/igcse"

[serve]
addr = ":9090"
origins = ["http://localhost:3000"]

[tiers.0654]
core = ["F"]
extended = ["B"]

[preferred]
"0500" = "A"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Parse.RawDir == nil || *cfg.Parse.RawDir != "data/raw" || cfg.Parse.OutDir != nil {
		t.Fatalf("unexpected parse section: %+v", cfg.Parse)
	}
	if cfg.Parse.Workers == nil || *cfg.Parse.Workers != 8 {
		t.Fatalf("expected 8 workers")
	}
	if cfg.Estimate.Window == nil || *cfg.Estimate.Window != 3 || *cfg.Estimate.Season != "MJ" {
		t.Fatalf("unexpected estimate section: %+v", cfg.Estimate)
	}
	if *cfg.Store.Driver != "postgres" || len(cfg.Serve.Origins) != 1 {
		t.Fatalf("unexpected store/serve sections: %+v %+v", cfg.Store, cfg.Serve)
	}

	rules, err := cfg.TierRules()
	if err != nil {
		t.Fatalf("TierRules: %v", err)
	}
	if !rules.IsTiered("0654") || !rules.IsTiered("0580") {
		t.Fatalf("expected built-in and configured tiered syllabuses")
	}
	if rules.Preferred["0500"] != "A" {
		t.Fatalf("expected preferred override, got %q", rules.Preferred["0500"])
	}
}

func TestTierRulesRejectsEmptyPrefixes(t *testing.T) {
	cfg := FileConfig{Tiers: map[string]TierConfig{"0654": {}}}
	if _, err := cfg.TierRules(); err == nil || !strings.Contains(err.Error(), "tiers.0654") {
		t.Fatalf("expected tiers.0654 error, got %v", err)
	}
}

func TestDefaultPathsUseXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "igcse", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "igcse", "igcse.db") {
		t.Fatalf("unexpected db path %q", got)
	}
	if got := DefaultParsedDir(); got != filepath.Join("/data", "igcse", "parsed") {
		t.Fatalf("unexpected parsed dir %q", got)
	}
}
