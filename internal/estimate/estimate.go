// Package estimate predicts grades from raw paper marks and historical boundaries.
package estimate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// DefaultSeason is used when a request names no season.
const DefaultSeason = model.SeasonFM

// SubjectResolver maps a syllabus code to a stored subject id.
type SubjectResolver interface {
	SubjectID(ctx context.Context, code string) (int64, error)
}

// Averager returns historical summaries for a subject.
type Averager interface {
	Averages(ctx context.Context, subjectID int64, tier model.Tier, season model.Season) ([]model.GradeThresholdSummary, error)
}

// Estimator estimates the grades of a request.
type Estimator struct {
	subjects SubjectResolver
	averages Averager
	season   model.Season
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSeason sets the season used when a request names none.
func WithSeason(season model.Season) Option {
	return func(e *Estimator) {
		if season != "" {
			e.season = season
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Estimator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// New returns an Estimator reading summaries from averages.
func New(subjects SubjectResolver, averages Averager, opts ...Option) *Estimator {
	e := &Estimator{
		subjects: subjects,
		averages: averages,
		season:   DefaultSeason,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Estimate runs every entry of the request concurrently. Results keep request order.
// The first failing entry cancels the rest and its error is returned.
func (e *Estimator) Estimate(ctx context.Context, req model.EstimateRequest) (model.EstimateResult, error) {
	season := req.Season
	if season == "" {
		season = e.season
	}
	results := make([]model.SubjectEstimateResult, len(req.Entries))
	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range req.Entries {
		g.Go(func() error {
			res, err := e.Subject(gctx, entry, season)
			if err != nil {
				return fmt.Errorf("estimate %s: %w", entry.SubjectCode, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.EstimateResult{}, err
	}
	return model.EstimateResult{Entries: results, CalculatedAt: e.now().UTC()}, nil
}

// Subject estimates one subject.
func (e *Estimator) Subject(ctx context.Context, entry model.SubjectEstimateInput, season model.Season) (model.SubjectEstimateResult, error) {
	subjectID, err := e.subjects.SubjectID(ctx, entry.SubjectCode)
	if err != nil {
		return model.SubjectEstimateResult{}, err
	}
	total, missing := WeightedTotal(entry.PaperMarks)
	summaries, err := e.averages.Averages(ctx, subjectID, entry.TierSelected, season)
	if err != nil {
		return model.SubjectEstimateResult{}, err
	}
	grade := PickGrade(summaries, total)
	e.logger.Debug("estimate.subject",
		"code", entry.SubjectCode,
		"tier", entry.TierSelected.Label(),
		"season", season,
		"total_pct", aggregate.Round1(total),
		"grade", gradeLabel(grade),
		"missing_papers", missing,
	)
	return model.SubjectEstimateResult{
		SubjectID:        entry.SubjectID,
		SubjectCode:      entry.SubjectCode,
		SubjectName:      entry.SubjectName,
		TierSelected:     entry.TierSelected,
		WeightedTotalPct: aggregate.Round1(total),
		EstimatedGrade:   grade,
		Thresholds:       summaries,
		MissingPapers:    missing,
	}, nil
}

// WeightedTotal combines paper marks into a percentage. Papers without a mark or with a
// non-positive max are left out, and the remaining weight is scaled up to 100.
// missing reports whether any paper has no mark yet.
func WeightedTotal(marks []model.PaperMarkEntry) (total float64, missing bool) {
	weight := 0.0
	for _, pm := range marks {
		if !pm.Entered() {
			missing = true
			continue
		}
		if pm.MaxRawMark <= 0 {
			continue
		}
		fraction := float64(pm.RawMark) / float64(pm.MaxRawMark)
		if fraction > 1 {
			fraction = 1
		}
		total += fraction * pm.WeightPercentage
		weight += pm.WeightPercentage
	}
	if weight > 0 && weight < 100 {
		total = total / weight * 100
	}
	return total, missing
}

// PickGrade returns the best grade whose averaged boundary is at or below total,
// or nil when total is below every boundary.
func PickGrade(summaries []model.GradeThresholdSummary, total float64) *model.Grade {
	byGrade := make(map[model.Grade]float64, len(summaries))
	for _, s := range summaries {
		byGrade[s.Grade] = s.AveragedPct
	}
	for _, g := range model.AllGrades() {
		pct, ok := byGrade[g]
		if ok && total >= pct {
			grade := g
			return &grade
		}
	}
	return nil
}

func gradeLabel(g *model.Grade) string {
	if g == nil {
		return "U"
	}
	return g.String()
}
