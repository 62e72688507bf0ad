package stats

import (
	"sort"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Spread is how far a grade boundary moved across the years, in percentage points.
func Spread(s model.GradeThresholdSummary) float64 {
	return aggregate.Round1(s.MaxPct - s.MinPct)
}

// RankBySpread returns the n grades whose boundary moved the most, widest first.
// Ties keep the canonical grade order.
func RankBySpread(summaries []model.GradeThresholdSummary, n int) []model.GradeThresholdSummary {
	if n <= 0 || len(summaries) == 0 {
		return nil
	}
	items := make([]model.GradeThresholdSummary, len(summaries))
	copy(items, summaries)
	sort.SliceStable(items, func(i, j int) bool {
		si, sj := Spread(items[i]), Spread(items[j])
		if si == sj {
			return items[i].Grade < items[j].Grade
		}
		return si > sj
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}
