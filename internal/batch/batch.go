package batch

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/parser"
	"github.com/abhinavpachauri/igcse-estimator/internal/tier"
)

// Options configures a batch run.
type Options struct {
	// Workers bounds concurrent documents. Zero uses GOMAXPROCS.
	Workers int
	Tiers   tier.Config
	Logger  *slog.Logger
}

// Status is the outcome of one document.
type Status int

// Statuses.
const (
	StatusParsed Status = iota
	StatusSkipped
	StatusFailed
)

// DocumentReport is the outcome of one document.
type DocumentReport struct {
	Source Source
	Status Status
	Result parser.Result
	Err    error
}

// Output is the flattened result of a batch, in scan order.
type Output struct {
	Thresholds []model.ParsedThreshold
	Components []model.ParsedComponent
	Documents  []DocumentReport
}

// Summary counts documents and rows.
type Summary struct {
	Documents  int
	Parsed     int
	Skipped    int
	Failed     int
	Violations int
	Rejected   int
	Thresholds int
	Components int
	BySeason   map[model.Season]int
}

// Run scans root and parses every document. A document that cannot be read or parsed is
// logged and reported without stopping the others. Only a failed scan or a cancelled
// context returns an error.
func Run(ctx context.Context, root string, opts Options) (Output, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tiers.Tiered == nil {
		opts.Tiers = tier.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sources, err := Scan(root)
	if err != nil {
		return Output{}, err
	}
	logger.Info("parse.scan", "root", root, "documents", len(sources), "workers", workers)

	reports := make([]DocumentReport, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			reports[i] = parseSource(src, opts.Tiers)
			logReport(logger, reports[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	out := Output{Documents: reports}
	for _, r := range reports {
		out.Thresholds = append(out.Thresholds, r.Result.Thresholds...)
		out.Components = append(out.Components, r.Result.Components...)
	}
	return out, nil
}

func parseSource(src Source, cfg tier.Config) DocumentReport {
	report := DocumentReport{Source: src}
	text, err := ReadText(src)
	if err != nil {
		report.Status = StatusFailed
		report.Err = err
		return report
	}
	report.Result = parser.Parse(parser.Document{
		Path:         src.Path,
		SyllabusCode: src.SyllabusCode,
		Season:       src.Season,
		Year:         src.Year,
		Text:         text,
	}, cfg)
	switch {
	case report.Result.Skip != nil:
		report.Status = StatusSkipped
		report.Err = report.Result.Skip
	case len(report.Result.Thresholds) == 0:
		report.Status = StatusFailed
		report.Err = fmt.Errorf("%s: every threshold failed validation", src.Path)
	default:
		report.Status = StatusParsed
	}
	return report
}

func logReport(logger *slog.Logger, r DocumentReport) {
	attrs := []any{
		"code", r.Source.SyllabusCode,
		"season", r.Source.Season,
		"year", r.Source.Year,
	}
	for _, v := range r.Result.Violations {
		logger.Error("parse.document", append(attrs, "kind", "invariant", "err", v)...)
	}
	switch r.Status {
	case StatusParsed:
		tiers := make([]string, 0, len(r.Result.Thresholds))
		marks := make([]string, 0, len(r.Result.Thresholds))
		for _, t := range r.Result.Thresholds {
			tiers = append(tiers, t.Tier.Label())
			marks = append(marks, strconv.Itoa(t.MaxMark))
		}
		logger.Info("parse.document", append(attrs,
			"status", "✓",
			"tiers", strings.Join(tiers, "+"),
			"max", strings.Join(marks, "/"),
			"rejected_lines", r.Result.RejectedLines,
		)...)
	case StatusSkipped:
		logger.Warn("parse.document", append(attrs, "status", "⚠", "path", r.Source.Path, "reason", r.Result.Skip.Reason)...)
	case StatusFailed:
		logger.Error("parse.document", append(attrs, "status", "✗", "path", r.Source.Path, "err", r.Err)...)
	}
}

// Summarize counts the outcome of a batch.
func Summarize(out Output) Summary {
	s := Summary{
		Documents:  len(out.Documents),
		Thresholds: len(out.Thresholds),
		Components: len(out.Components),
		BySeason:   map[model.Season]int{},
	}
	for _, d := range out.Documents {
		switch d.Status {
		case StatusParsed:
			s.Parsed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		s.Violations += len(d.Result.Violations)
		s.Rejected += d.Result.RejectedLines
	}
	for _, t := range out.Thresholds {
		s.BySeason[t.Season]++
	}
	return s
}
