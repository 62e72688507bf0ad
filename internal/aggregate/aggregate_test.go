package aggregate

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

func TestSummarizeSingleYear(t *testing.T) {
	rows := []model.ThresholdRow{
		{Grade: model.GradeA, MinMark: 63, MaxMark: 90, SeriesID: 1},
		{Grade: model.GradeAStar, MinMark: 72, MaxMark: 90, SeriesID: 1},
	}
	got := Summarize(rows, map[int64]int{1: 2024})
	want := []model.GradeThresholdSummary{
		{Grade: model.GradeAStar, AveragedPct: 80, MinPct: 80, MaxPct: 80, YearData: []model.YearPct{{Year: 2024, Pct: 80}}},
		{Grade: model.GradeA, AveragedPct: 70, MinPct: 70, MaxPct: 70, YearData: []model.YearPct{{Year: 2024, Pct: 70}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeAveragesAndOrdersYears(t *testing.T) {
	rows := []model.ThresholdRow{
		{Grade: model.GradeC, MinMark: 100, MaxMark: 200, SeriesID: 3},
		{Grade: model.GradeC, MinMark: 90, MaxMark: 200, SeriesID: 1},
		{Grade: model.GradeC, MinMark: 95, MaxMark: 200, SeriesID: 2},
		{Grade: model.GradeD, MinMark: 10, MaxMark: 0, SeriesID: 1},
		{Grade: model.GradeE, MinMark: 10, MaxMark: 100, SeriesID: 99},
	}
	got := Summarize(rows, map[int64]int{1: 2022, 2: 2023, 3: 2024})
	if len(got) != 1 {
		t.Fatalf("expected only grade C, got %+v", got)
	}
	c := got[0]
	if c.AveragedPct != 47.5 || c.MinPct != 45 || c.MaxPct != 50 {
		t.Fatalf("unexpected stats: %+v", c)
	}
	years := []int{c.YearData[0].Year, c.YearData[1].Year, c.YearData[2].Year}
	if diff := cmp.Diff([]int{2022, 2023, 2024}, years); diff != "" {
		t.Fatalf("year order mismatch (-want +got):\n%s", diff)
	}
}

func TestPctRounding(t *testing.T) {
	got, ok := Pct(2, 3)
	if !ok || got != 66.7 {
		t.Fatalf("expected 66.7, got %v (%v)", got, ok)
	}
	if _, ok := Pct(5, 0); ok {
		t.Fatalf("expected zero max mark to be rejected")
	}
	halves := []struct {
		min, max int
		want     float64
	}{
		{23, 80, 28.8},
		{41, 80, 51.3},
		{51, 80, 63.8},
		{102, 160, 63.8},
	}
	for _, tc := range halves {
		if got, _ := Pct(tc.min, tc.max); got != tc.want {
			t.Fatalf("Pct(%d, %d): expected %.1f, got %v", tc.min, tc.max, tc.want, got)
		}
	}
}

func TestSummarizeRoundsHalfMarksUp(t *testing.T) {
	rows := []model.ThresholdRow{{Grade: model.GradeC, MinMark: 23, MaxMark: 80, SeriesID: 1}}
	got := Summarize(rows, map[int64]int{1: 2024})
	if len(got) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(got))
	}
	if got[0].AveragedPct != 28.8 || got[0].MinPct != 28.8 || got[0].YearData[0].Pct != 28.8 {
		t.Fatalf("expected 28.8 everywhere, got %+v", got[0])
	}
}

func TestAveragesUsesTrailingWindow(t *testing.T) {
	ctx := context.Background()
	var parsed []model.ParsedThreshold
	for year, mark := range map[int]int{2019: 50, 2020: 60, 2021: 70, 2022: 80} {
		parsed = append(parsed, model.ParsedThreshold{
			SyllabusCode: "0580",
			Season:       model.SeasonMJ,
			Year:         year,
			Tier:         model.TierExtended,
			OptionCode:   "BY",
			MaxMark:      100,
			Grades:       []model.GradeMark{{Grade: model.GradeAStar, MinMark: mark}},
		})
	}
	parsed = append(parsed, model.ParsedThreshold{
		SyllabusCode: "0580",
		Season:       model.SeasonON,
		Year:         2023,
		Tier:         model.TierExtended,
		MaxMark:      100,
		Grades:       []model.GradeMark{{Grade: model.GradeAStar, MinMark: 10}},
	})
	repo, err := FromParsed(ctx, parsed)
	if err != nil {
		t.Fatalf("FromParsed: %v", err)
	}
	id, err := repo.SubjectID(ctx, "0580")
	if err != nil {
		t.Fatalf("SubjectID: %v", err)
	}

	got, err := New(repo, 2).Averages(ctx, id, model.TierExtended, model.SeasonMJ)
	if err != nil {
		t.Fatalf("Averages: %v", err)
	}
	if len(got) != 1 || got[0].AveragedPct != 75 || len(got[0].YearData) != 2 {
		t.Fatalf("expected two most recent MJ years averaged to 75, got %+v", got)
	}

	got, err = New(repo, 0).Averages(ctx, id, model.TierExtended, model.SeasonMJ)
	if err != nil {
		t.Fatalf("Averages: %v", err)
	}
	if len(got[0].YearData) != 4 {
		t.Fatalf("expected the short history to be used unpadded, got %d years", len(got[0].YearData))
	}

	got, err = New(repo, 5).Averages(ctx, id, model.TierCore, model.SeasonMJ)
	if err != nil {
		t.Fatalf("Averages: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no data for core tier, got %+v", got)
	}

	got, err = New(repo, 5).Averages(ctx, id, model.TierExtended, model.SeasonFM)
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty result for a season without series, got %+v, %v", got, err)
	}
}

func TestMemoryRepositoryUnknownSubject(t *testing.T) {
	repo := NewMemoryRepository()
	if _, err := repo.SubjectID(context.Background(), "0000"); err == nil {
		t.Fatalf("expected error for unknown subject")
	}
}
