package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhinavpachauri/igcse-estimator/internal/batch"
	"github.com/abhinavpachauri/igcse-estimator/internal/catalog"
	"github.com/abhinavpachauri/igcse-estimator/internal/config"
	"github.com/abhinavpachauri/igcse-estimator/internal/generator"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/seed"
)

const (
	defaultSampleYears = 3
	defaultSampleYear  = 2024
	defaultSampleSeed  = 1
)

var (
	parseRawDir  string
	parseOutDir  string
	parseWorkers int

	seedSubjectsDir string
	seedParsedDir   string

	sampleOutDir string
	sampleYear   int
	sampleYears  int
	sampleSeed   int64
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a tree of raw threshold documents",
		Args:  cobra.NoArgs,
		RunE:  runParseCmd,
	}
	cmd.Flags().StringVar(&parseRawDir, "raw", defaultRawDir, "raw document root ({year}, mj/{year}, on/{year})")
	cmd.Flags().StringVar(&parseOutDir, "out", config.DefaultParsedDir(), "output directory")
	cmd.Flags().IntVar(&parseWorkers, "workers", defaultWorkers, "concurrent documents (0 uses every CPU)")
	return cmd
}

func runParseCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "raw", &parseRawDir, fileCfg.Parse.RawDir)
	applyStringConfig(cmd, "out", &parseOutDir, fileCfg.Parse.OutDir)
	applyIntConfig(cmd, "workers", &parseWorkers, fileCfg.Parse.Workers)
	if parseWorkers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	tiers, err := fileCfg.TierRules()
	if err != nil {
		return fmt.Errorf("invalid tier config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := batch.Run(ctx, parseRawDir, batch.Options{Workers: parseWorkers, Tiers: tiers, Logger: slog.Default()})
	if err != nil {
		return err
	}
	if err := batch.WriteOutput(parseOutDir, out); err != nil {
		return err
	}

	sum := batch.Summarize(out)
	w := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(w, "Documents: %d parsed, %d skipped, %d failed (of %d)\n", sum.Parsed, sum.Skipped, sum.Failed, sum.Documents); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	seasons := make([]string, 0, len(model.Seasons()))
	for _, s := range model.Seasons() {
		seasons = append(seasons, fmt.Sprintf("%s=%d", s, sum.BySeason[s]))
	}
	if _, err := fmt.Fprintf(w, "Thresholds: %d (%s), components: %d\n", sum.Thresholds, strings.Join(seasons, " "), sum.Components); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if sum.Violations > 0 {
		logErrf("%d thresholds broke grade ordering and were left out\n", sum.Violations)
	}
	if _, err := fmt.Fprintf(w, "Wrote %s\n", parseOutDir); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the subject catalogue and parsed thresholds into the database",
		Args:  cobra.NoArgs,
		RunE:  runSeedCmd,
	}
	cmd.Flags().StringVar(&seedSubjectsDir, "subjects", config.DefaultSubjectsDir(), "directory of subject JSON files")
	cmd.Flags().StringVar(&seedParsedDir, "parsed", config.DefaultParsedDir(), "directory written by parse")
	return cmd
}

func runSeedCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "parsed", &seedParsedDir, fileCfg.Parse.OutDir)

	subjects, err := catalog.LoadSubjects(seedSubjectsDir)
	if err != nil {
		return fmt.Errorf("failed to load subjects: %w", err)
	}
	thresholds, err := batch.ReadThresholds(seedParsedDir)
	if err != nil {
		if os.IsNotExist(err) {
			logErrf("No parser output in %s. Run: igcse parse --out %s\n", seedParsedDir, seedParsedDir)
		}
		return fmt.Errorf("failed to read thresholds: %w", err)
	}
	components, err := batch.ReadComponents(seedParsedDir)
	if err != nil {
		return fmt.Errorf("failed to read components: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := openStore(ctx, cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	report, err := seed.New(st, slog.Default()).Run(ctx, subjects, thresholds, components)
	if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "Subjects: %d (%d papers), thresholds: %d seeded, %d skipped, max marks: %d updated\n",
		report.Subjects, report.Papers, report.Thresholds, report.Skipped, report.MaxMarks); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}
	return err
}

func newSampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a synthetic raw document tree",
		Args:  cobra.NoArgs,
		RunE:  runSampleCmd,
	}
	cmd.Flags().StringVar(&sampleOutDir, "out", defaultRawDir, "raw document root to write")
	cmd.Flags().IntVar(&sampleYear, "year", defaultSampleYear, "most recent year")
	cmd.Flags().IntVar(&sampleYears, "years", defaultSampleYears, "number of years")
	cmd.Flags().Int64Var(&sampleSeed, "seed", defaultSampleSeed, "random seed")
	return cmd
}

func runSampleCmd(cmd *cobra.Command, _ []string) error {
	if sampleYears <= 0 {
		return fmt.Errorf("--years must be > 0")
	}
	docs := sampleDocuments(generator.New(sampleSeed), sampleYear, sampleYears)
	for _, d := range docs {
		path := batch.SourcePath(sampleOutDir, d.Season, d.Year, d.SyllabusCode, batch.KindText)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create sample dir: %w", err)
		}
		if err := os.WriteFile(path, []byte(generator.Render(d)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d documents to %s\n", len(docs), sampleOutDir); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// sampleDocuments covers the catalogue subjects for the FM and MJ series of each year.
func sampleDocuments(gen *generator.Generator, last, years int) []generator.Document {
	var docs []generator.Document
	for year := last - years + 1; year <= last; year++ {
		format := generator.FormatColumn
		if year%2 == 1 {
			format = generator.FormatProse
		}
		for _, season := range []model.Season{model.SeasonFM, model.SeasonMJ} {
			docs = append(docs,
				gen.Tiered("0580", season, year, format, []string{"AX", "AY"}, []string{"BX", "BY"}),
				gen.Tiered("0625", season, year, format, []string{"FY", "GY"}, []string{"BY", "CY"}),
				gen.Untiered("0500", season, year, 6, format, []string{"AY", "BY"}),
				gen.Untiered("0606", season, year, 6, format, []string{"AX", "AY"}),
			)
		}
	}
	return docs
}
