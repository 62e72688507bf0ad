// Package main provides the CLI entrypoint for igcse.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/config"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/store"
)

const (
	defaultRawDir  = "raw"
	defaultWorkers = 0
	defaultSeason  = "FM"
	defaultWindow  = aggregate.DefaultWindow
	defaultAddr    = ":8080"
	defaultDriver  = "sqlite"
)

var (
	rootConfigPath string
	rootDBPath     string
	rootLogJSON    bool
	rootVerbose    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "igcse",
		Short:         "IGCSE grade threshold parser and grade estimator",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(newLogger(cmd.ErrOrStderr(), rootLogJSON, rootVerbose))
		},
	}

	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", config.DefaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", config.DefaultDBPath(), "SQLite database path")
	rootCmd.PersistentFlags().BoolVar(&rootLogJSON, "log-json", false, "log as JSON")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newSampleCmd())
	rootCmd.AddCommand(newThresholdsCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newEstimateCmd())
	rootCmd.AddCommand(newReverseCmd())
	rootCmd.AddCommand(newUmsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newLogger(w io.Writer, asJSON, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(rootConfigPath)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// openStore opens the configured database. --db wins over [store] dsn for SQLite.
func openStore(ctx context.Context, cmd *cobra.Command, fileCfg config.FileConfig) (*store.Store, error) {
	driverName := defaultDriver
	if fileCfg.Store.Driver != nil {
		driverName = *fileCfg.Store.Driver
	}
	driver, err := store.ParseDriver(driverName)
	if err != nil {
		return nil, fmt.Errorf("store.driver: %w", err)
	}

	if driver == store.DriverPostgres {
		if fileCfg.Store.DSN == nil || strings.TrimSpace(*fileCfg.Store.DSN) == "" {
			return nil, fmt.Errorf("store.dsn is required for the postgres driver")
		}
		st, err := store.OpenDriver(ctx, driver, *fileCfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, nil
	}

	path := rootDBPath
	applyStringConfig(cmd, "db", &path, fileCfg.Store.DSN)
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := rootConfigPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringsConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if len(value) == 0 {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# igcse configuration
# Uncomment a value to enable it. CLI flags override config values.

[parse]
# raw-dir = %q            # Root of the raw threshold documents
# out-dir = %q            # Where thresholds.json and components.json are written
# workers = %d             # Concurrent documents (0 uses every CPU)

[estimate]
# season = %q             # FM, MJ or ON
# window = %d              # Number of recent series to average

[store]
# driver = %q         # sqlite or postgres
# dsn = ""                 # SQLite path or postgres connection string

[serve]
# addr = %q
# origins = ["http://localhost:5173"]

# Option prefixes of tiered syllabuses. Built-in entries are replaced per code.
# [tiers.0580]
# core = ["A"]
# extended = ["B"]

# Preferred option prefix of untiered syllabuses.
# [preferred]
# 0500 = "B"
`,
		defaultRawDir,
		config.DefaultParsedDir(),
		defaultWorkers,
		defaultSeason,
		defaultWindow,
		defaultDriver,
		defaultAddr,
	)
}

func validateConfig(q model.ThresholdQuery) error {
	if q.Window <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	return nil
}

func parseSeasonFlag(s string) (model.Season, error) {
	season, err := model.ParseSeason(s)
	if err != nil {
		return "", fmt.Errorf("--season: %w", err)
	}
	return season, nil
}

func parseTierFlag(s string) (model.Tier, error) {
	t, err := model.ParseTier(s)
	if err != nil {
		return model.TierNone, fmt.Errorf("--tier: %w", err)
	}
	return t, nil
}

// thresholdQuery builds a query from shared --tier/--season/--window flags and [estimate].
func thresholdQuery(cmd *cobra.Command, fileCfg config.FileConfig, code, tierFlag string, season *string, window *int) (model.ThresholdQuery, error) {
	applyStringConfig(cmd, "season", season, fileCfg.Estimate.Season)
	applyIntConfig(cmd, "window", window, fileCfg.Estimate.Window)

	t, err := parseTierFlag(tierFlag)
	if err != nil {
		return model.ThresholdQuery{}, err
	}
	s, err := parseSeasonFlag(*season)
	if err != nil {
		return model.ThresholdQuery{}, err
	}
	q := model.ThresholdQuery{SubjectCode: strings.TrimSpace(code), Tier: t, Season: s, Window: *window}
	if err := validateConfig(q); err != nil {
		return model.ThresholdQuery{}, err
	}
	return q, nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
