package stats

import (
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

func TestRankBySpread(t *testing.T) {
	summaries := []model.GradeThresholdSummary{
		{Grade: model.GradeAStar, MinPct: 80, MaxPct: 82},
		{Grade: model.GradeA, MinPct: 65, MaxPct: 71.5},
		{Grade: model.GradeB, MinPct: 55, MaxPct: 57},
		{Grade: model.GradeC, MinPct: 45, MaxPct: 45},
	}
	top := RankBySpread(summaries, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 grades, got %d", len(top))
	}
	if top[0].Grade != model.GradeA || top[1].Grade != model.GradeAStar || top[2].Grade != model.GradeB {
		t.Fatalf("unexpected order: %v %v %v", top[0].Grade, top[1].Grade, top[2].Grade)
	}
	if summaries[0].Grade != model.GradeAStar {
		t.Fatalf("expected input to be left untouched")
	}
	if got := RankBySpread(summaries, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
}
