package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/batch"
	"github.com/abhinavpachauri/igcse-estimator/internal/config"
	"github.com/abhinavpachauri/igcse-estimator/internal/estimate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/stats"
	"github.com/abhinavpachauri/igcse-estimator/internal/tui"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

var (
	estimateInput       string
	estimateFormat      string
	estimateParsed      string
	estimateInteractive string
	estimateTier        string
	estimateSeason      string
	estimateWindow      int

	reverseTarget  float64
	reverseCurrent float64
	reverseWeight  float64
	reverseMax     int
	reverseSubject string
	reverseGrade   string
	reverseTier    string
	reverseSeason  string
	reverseWindow  int

	umsTable string
	umsRaw   int
)

func newEstimateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate grades from paper marks",
		Args:  cobra.NoArgs,
		RunE:  runEstimateCmd,
	}
	cmd.Flags().StringVarP(&estimateInput, "input", "i", "-", "estimate request JSON file (- for stdin)")
	cmd.Flags().StringVar(&estimateFormat, "format", formatTable, "output format (json, table)")
	cmd.Flags().StringVar(&estimateParsed, "parsed", "", "estimate from a parse output directory instead of the database")
	cmd.Flags().StringVar(&estimateInteractive, "interactive", "", "enter marks for a subject code interactively")
	addQueryFlags(cmd, &estimateTier, &estimateSeason, &estimateWindow)
	return cmd
}

func runEstimateCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	q, err := thresholdQuery(cmd, fileCfg, estimateInteractive, estimateTier, &estimateSeason, &estimateWindow)
	if err != nil {
		return err
	}
	if estimateFormat != formatJSON && estimateFormat != formatTable {
		return fmt.Errorf("--format must be %s or %s", formatJSON, formatTable)
	}
	ctx := context.Background()

	if q.SubjectCode != "" {
		return runInteractiveEstimate(ctx, cmd, fileCfg, q)
	}

	req, err := readEstimateRequest(estimateInput)
	if err != nil {
		return err
	}

	var (
		subjects estimate.SubjectResolver
		repo     aggregate.Repository
	)
	if estimateParsed != "" {
		thresholds, err := batch.ReadThresholds(estimateParsed)
		if err != nil {
			return fmt.Errorf("failed to read thresholds: %w", err)
		}
		mem, err := aggregate.FromParsed(ctx, thresholds)
		if err != nil {
			return err
		}
		subjects, repo = mem, mem
	} else {
		st, err := openStore(ctx, cmd, fileCfg)
		if err != nil {
			return err
		}
		defer closeStore(st)
		subjects, repo = st, st
	}

	est := estimate.New(subjects, aggregate.New(repo, q.Window),
		estimate.WithSeason(q.Season),
		estimate.WithLogger(slog.Default()),
	)
	res, err := est.Estimate(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to estimate: %w", err)
	}
	return writeEstimate(cmd.OutOrStdout(), estimateFormat, res)
}

func readEstimateRequest(path string) (model.EstimateRequest, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.EstimateRequest{}, fmt.Errorf("failed to open input: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}
	var req model.EstimateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return model.EstimateRequest{}, fmt.Errorf("failed to decode estimate request: %w", err)
	}
	if len(req.Entries) == 0 {
		return model.EstimateRequest{}, fmt.Errorf("estimate request has no entries")
	}
	return req, nil
}

func writeEstimate(w io.Writer, format string, res model.EstimateResult) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if err := stats.RenderEstimate(w, res); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runInteractiveEstimate(ctx context.Context, cmd *cobra.Command, fileCfg config.FileConfig, q model.ThresholdQuery) error {
	st, err := openStore(ctx, cmd, fileCfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	subject, err := st.SubjectByCode(ctx, q.SubjectCode)
	if err != nil {
		if isNotFound(err) {
			logErrf("Subject %s is not in the database. Run: igcse seed\n", q.SubjectCode)
		}
		return fmt.Errorf("failed to load subject: %w", err)
	}
	if subject.HasTiers && q.Tier == model.TierNone {
		return fmt.Errorf("--tier is required for %s (core or extended)", subject.SyllabusCode)
	}
	if !subject.HasTiers {
		q.Tier = model.TierNone
	}
	summaries, err := aggregate.New(st, q.Window).Averages(ctx, subject.ID, q.Tier, q.Season)
	if err != nil {
		return fmt.Errorf("failed to load thresholds: %w", err)
	}

	m := tui.NewModel(subject, q.Tier, q.Season, summaries)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("failed to run mark entry: %w", err)
	}
	if !m.Confirmed() {
		return nil
	}
	res := model.EstimateResult{
		Entries:      []model.SubjectEstimateResult{m.Result()},
		CalculatedAt: time.Now().UTC(),
	}
	return writeEstimate(cmd.OutOrStdout(), estimateFormat, res)
}

func newReverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverse",
		Short: "Compute the mark needed on an outstanding paper",
		Args:  cobra.NoArgs,
		RunE:  runReverseCmd,
	}
	cmd.Flags().Float64Var(&reverseTarget, "target", 0, "target overall percentage")
	cmd.Flags().Float64Var(&reverseCurrent, "current", 0, "weighted percentage already secured")
	cmd.Flags().Float64Var(&reverseWeight, "weight", 0, "weight of the outstanding paper in percentage points")
	cmd.Flags().IntVar(&reverseMax, "max", 0, "max raw mark of the outstanding paper")
	cmd.Flags().StringVar(&reverseSubject, "subject", "", "resolve --target from the averaged boundary of this subject")
	cmd.Flags().StringVar(&reverseGrade, "grade", "", "grade whose averaged boundary is the target (with --subject)")
	addQueryFlags(cmd, &reverseTier, &reverseSeason, &reverseWindow)
	return cmd
}

func runReverseCmd(cmd *cobra.Command, _ []string) error {
	if reverseSubject != "" {
		if cmd.Flags().Changed("target") {
			return fmt.Errorf("--target and --subject are mutually exclusive")
		}
		target, err := resolveTarget(cmd)
		if err != nil {
			return err
		}
		reverseTarget = target
	} else if !cmd.Flags().Changed("target") {
		return fmt.Errorf("--target or --subject with --grade is required")
	}

	res, err := estimate.Reverse(model.ReverseRequest{
		TargetGradePct:     reverseTarget,
		CurrentWeightedPct: reverseCurrent,
		TargetPaperWeight:  reverseWeight,
		TargetPaperMaxMark: reverseMax,
	})
	if err != nil {
		return fmt.Errorf("--weight and --max: %w", err)
	}
	verdict := "achievable"
	if !res.Achievable {
		verdict = "not achievable"
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Target %.1f%%: need %d/%d (%.1f%%), %s\n",
		reverseTarget, res.NeededRaw, reverseMax, res.NeededPct, verdict); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// resolveTarget returns the averaged boundary of --grade for --subject.
func resolveTarget(cmd *cobra.Command) (float64, error) {
	grade, err := model.ParseGrade(strings.TrimSpace(reverseGrade))
	if err != nil {
		return 0, fmt.Errorf("--grade: %w", err)
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return 0, err
	}
	q, err := thresholdQuery(cmd, fileCfg, reverseSubject, reverseTier, &reverseSeason, &reverseWindow)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()
	st, err := openStore(ctx, cmd, fileCfg)
	if err != nil {
		return 0, err
	}
	defer closeStore(st)

	id, err := st.SubjectID(ctx, q.SubjectCode)
	if err != nil {
		return 0, fmt.Errorf("failed to load subject: %w", err)
	}
	summaries, err := aggregate.New(st, q.Window).Averages(ctx, id, q.Tier, q.Season)
	if err != nil {
		return 0, fmt.Errorf("failed to load thresholds: %w", err)
	}
	for _, s := range summaries {
		if s.Grade == grade {
			return s.AveragedPct, nil
		}
	}
	return 0, fmt.Errorf("no %s boundary for %s (%s, %s)", grade, q.SubjectCode, q.Tier.Label(), q.Season)
}

func newUmsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ums",
		Short: "Convert a raw mark with a UMS conversion table",
		Args:  cobra.NoArgs,
		RunE:  runUmsCmd,
	}
	cmd.Flags().StringVar(&umsTable, "table", "", "JSON array of {raw_mark, ums_mark} points")
	cmd.Flags().IntVar(&umsRaw, "raw", 0, "raw mark to convert")
	return cmd
}

func runUmsCmd(cmd *cobra.Command, _ []string) error {
	if umsTable == "" {
		return fmt.Errorf("--table is required")
	}
	data, err := os.ReadFile(umsTable)
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	var table []model.UmsConversionPoint
	if err := json.Unmarshal(data, &table); err != nil {
		return fmt.Errorf("failed to decode table: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), estimate.ConvertRawToUms(umsRaw, table)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
