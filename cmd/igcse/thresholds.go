package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abhinavpachauri/igcse-estimator/internal/export"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/stats"
	"github.com/abhinavpachauri/igcse-estimator/internal/statsui"
	"github.com/abhinavpachauri/igcse-estimator/internal/store"
)

const (
	defaultSmooth    = 1
	defaultSpreadTop = 3
)

var (
	thresholdsTier   string
	thresholdsSeason string
	thresholdsWindow int
	thresholdsPlot   bool
	thresholdsSmooth int

	browseTier   string
	browseSeason string
	browseWindow int

	exportTier   string
	exportSeason string
	exportWindow int
	exportOut    string
)

func addQueryFlags(cmd *cobra.Command, tier, season *string, window *int) {
	cmd.Flags().StringVar(tier, "tier", "", "tier (core, extended; empty for untiered subjects)")
	cmd.Flags().StringVar(season, "season", defaultSeason, "season (FM, MJ, ON)")
	cmd.Flags().IntVar(window, "window", defaultWindow, "number of recent series to average")
}

func newThresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds <code>",
		Short: "Show averaged grade thresholds of a subject",
		Args:  cobra.ExactArgs(1),
		RunE:  runThresholdsCmd,
	}
	addQueryFlags(cmd, &thresholdsTier, &thresholdsSeason, &thresholdsWindow)
	cmd.Flags().BoolVar(&thresholdsPlot, "plot", false, "plot boundary curves")
	cmd.Flags().IntVar(&thresholdsSmooth, "smooth", defaultSmooth, "moving average window for curves")
	return cmd
}

func runThresholdsCmd(cmd *cobra.Command, args []string) error {
	if thresholdsSmooth <= 0 {
		return fmt.Errorf("--smooth must be > 0")
	}
	report, err := loadReport(cmd, args[0], thresholdsTier, &thresholdsSeason, &thresholdsWindow)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if err := stats.RenderSummary(w, report); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if ranked := stats.RankBySpread(report.Summaries, defaultSpreadTop); len(ranked) > 0 {
		line := "Least stable:"
		for _, s := range ranked {
			line += fmt.Sprintf(" %s (%.1f)", s.Grade, stats.Spread(s))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := stats.RenderYearMatrix(w, report.History); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if thresholdsPlot {
		if err := stats.RenderCurves(w, report.History, thresholdsSmooth); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [code]",
		Short: "Browse grade thresholds interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBrowseCmd,
	}
	addQueryFlags(cmd, &browseTier, &browseSeason, &browseWindow)
	return cmd
}

func runBrowseCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	code := ""
	if len(args) > 0 {
		code = args[0]
	}
	q, err := thresholdQuery(cmd, fileCfg, code, browseTier, &browseSeason, &browseWindow)
	if err != nil {
		return err
	}

	st, err := openStore(context.Background(), cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	load := func(ctx context.Context, q model.ThresholdQuery) (stats.Report, error) {
		return stats.BuildReport(ctx, st, q)
	}
	program := tea.NewProgram(statsui.NewModel(load, q), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run threshold browser: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <code>",
		Short: "Write grade thresholds of a subject to an XLSX workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportCmd,
	}
	addQueryFlags(cmd, &exportTier, &exportSeason, &exportWindow)
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: <code>-thresholds.xlsx)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, args []string) error {
	report, err := loadReport(cmd, args[0], exportTier, &exportSeason, &exportWindow)
	if err != nil {
		return err
	}
	path := exportOut
	if path == "" {
		path = report.Subject.SyllabusCode + "-thresholds.xlsx"
	}
	if err := export.WriteFile(path, report); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// loadReport opens the store and builds the report of one subject.
func loadReport(cmd *cobra.Command, code, tierFlag string, season *string, window *int) (stats.Report, error) {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return stats.Report{}, err
	}
	q, err := thresholdQuery(cmd, fileCfg, code, tierFlag, season, window)
	if err != nil {
		return stats.Report{}, err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cmd, fileCfg)
	if err != nil {
		return stats.Report{}, err
	}
	defer closeStore(st)

	report, err := stats.BuildReport(ctx, st, q)
	if err != nil {
		if isNotFound(err) {
			logErrf("Subject %s is not in the database. Run: igcse seed\n", q.SubjectCode)
		}
		return stats.Report{}, fmt.Errorf("failed to load thresholds: %w", err)
	}
	return report, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
