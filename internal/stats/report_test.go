package stats

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "igcse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	subjectID, err := st.UpsertSubject(ctx, "0580", "Mathematics", true)
	if err != nil {
		t.Fatalf("upsert subject: %v", err)
	}
	var rows []model.ThresholdUpsert
	for i, year := range []int{2019, 2020, 2021, 2022, 2023, 2024} {
		seriesID, err := st.UpsertSeries(ctx, year, model.SeasonFM)
		if err != nil {
			t.Fatalf("upsert series: %v", err)
		}
		rows = append(rows, model.ThresholdUpsert{
			SubjectID: subjectID, SeriesID: seriesID, Tier: model.TierExtended,
			Grade: model.GradeA, MinMark: 140 + 2*i, MaxMark: 200,
		})
		if year == 2024 {
			rows = append(rows, model.ThresholdUpsert{
				SubjectID: subjectID, SeriesID: seriesID, Tier: model.TierExtended,
				Grade: model.GradeC, MinMark: 100, MaxMark: 200,
			})
		}
	}
	mjID, err := st.UpsertSeries(ctx, 2024, model.SeasonMJ)
	if err != nil {
		t.Fatalf("upsert series: %v", err)
	}
	rows = append(rows, model.ThresholdUpsert{
		SubjectID: subjectID, SeriesID: mjID, Tier: model.TierExtended,
		Grade: model.GradeA, MinMark: 180, MaxMark: 200,
	})
	if err := st.UpsertThresholds(ctx, rows); err != nil {
		t.Fatalf("upsert thresholds: %v", err)
	}

	report, err := BuildReport(ctx, st, model.ThresholdQuery{SubjectCode: "0580", Tier: model.TierExtended})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Query.Window != 5 || report.Query.Season != model.SeasonFM {
		t.Fatalf("expected default window and season, got %+v", report.Query)
	}
	if len(report.Summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(report.Summaries))
	}
	a := report.Summaries[0]
	if a.Grade != model.GradeA || a.AveragedPct != 73 || len(a.YearData) != 5 {
		t.Fatalf("unexpected windowed grade A summary: %+v", a)
	}
	if len(report.History) != 2 || len(report.History[0].YearData) != 6 {
		t.Fatalf("expected six years of history for grade A, got %+v", report.History)
	}
	if report.History[0].MinPct != 70 || report.History[0].MaxPct != 75 {
		t.Fatalf("unexpected history range: %+v", report.History[0])
	}

	if _, err := BuildReport(ctx, st, model.ThresholdQuery{SubjectCode: "9999"}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
