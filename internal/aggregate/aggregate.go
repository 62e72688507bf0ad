// Package aggregate turns stored grade boundaries into per-grade percentage summaries.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// DefaultWindow is the number of most recent series averaged when no window is given.
const DefaultWindow = 5

// Repository is the storage contract the aggregator reads from and the seeder writes to.
type Repository interface {
	// RecentSeries returns at most n series of the season, most recent year first.
	RecentSeries(ctx context.Context, season model.Season, n int) ([]model.Series, error)
	// Thresholds returns the boundaries of one subject and tier within the given series.
	Thresholds(ctx context.Context, subjectID int64, tier model.Tier, seriesIDs []int64) ([]model.ThresholdRow, error)
	// UpsertThresholds inserts or replaces rows keyed by (subject, series, tier, grade).
	UpsertThresholds(ctx context.Context, rows []model.ThresholdUpsert) error
}

// Aggregator averages boundaries over a trailing window of series.
type Aggregator struct {
	repo   Repository
	window int
}

// New returns an Aggregator. A window <= 0 uses DefaultWindow.
func New(repo Repository, window int) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{repo: repo, window: window}
}

// Window returns the number of series averaged.
func (a *Aggregator) Window() int {
	return a.window
}

// Averages returns the per-grade summaries for one subject, tier and season.
// Fewer series than the window are used as-is. No series yields an empty result.
func (a *Aggregator) Averages(ctx context.Context, subjectID int64, tier model.Tier, season model.Season) ([]model.GradeThresholdSummary, error) {
	series, err := a.repo.RecentSeries(ctx, season, a.window)
	if err != nil {
		return nil, fmt.Errorf("recent series: %w", err)
	}
	if len(series) == 0 {
		return nil, nil
	}
	ids := make([]int64, 0, len(series))
	years := make(map[int64]int, len(series))
	for _, s := range series {
		ids = append(ids, s.ID)
		years[s.ID] = s.Year
	}
	rows, err := a.repo.Thresholds(ctx, subjectID, tier, ids)
	if err != nil {
		return nil, fmt.Errorf("thresholds: %w", err)
	}
	return Summarize(rows, years), nil
}

// Pct converts a boundary to a percentage of the max mark, rounded to one decimal.
// The ratio is scaled by 1000 in one step so .x5 ratios such as 23/80 round up.
func Pct(minMark, maxMark int) (float64, bool) {
	if maxMark <= 0 {
		return 0, false
	}
	return math.Round(float64(minMark)/float64(maxMark)*1000) / 10, true
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Summarize groups rows by grade. Rows with a non-positive max mark or an unknown series are dropped.
func Summarize(rows []model.ThresholdRow, yearBySeries map[int64]int) []model.GradeThresholdSummary {
	byGrade := make(map[model.Grade][]model.YearPct)
	for _, r := range rows {
		year, ok := yearBySeries[r.SeriesID]
		if !ok {
			continue
		}
		pct, ok := Pct(r.MinMark, r.MaxMark)
		if !ok {
			continue
		}
		byGrade[r.Grade] = append(byGrade[r.Grade], model.YearPct{Year: year, Pct: pct})
	}

	var out []model.GradeThresholdSummary
	for _, g := range model.AllGrades() {
		points := byGrade[g]
		if len(points) == 0 {
			continue
		}
		sort.SliceStable(points, func(i, j int) bool { return points[i].Year < points[j].Year })
		sum := 0.0
		minPct, maxPct := points[0].Pct, points[0].Pct
		for _, p := range points {
			sum += p.Pct
			if p.Pct < minPct {
				minPct = p.Pct
			}
			if p.Pct > maxPct {
				maxPct = p.Pct
			}
		}
		out = append(out, model.GradeThresholdSummary{
			Grade:       g,
			AveragedPct: Round1(sum / float64(len(points))),
			MinPct:      minPct,
			MaxPct:      maxPct,
			YearData:    points,
		})
	}
	return out
}
