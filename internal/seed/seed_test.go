package seed

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/store"
)

func TestRunSeedsStore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "igcse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	}()

	subjects := []model.SubjectConfig{{
		Code:     "0580",
		Name:     "Mathematics",
		HasTiers: true,
		Papers: []model.PaperConfig{
			{PaperNumber: "2", Name: "Paper 2", Tier: model.TierExtended, MaxRawMark: 70, WeightPercentage: 50},
			{PaperNumber: "4", Name: "Paper 4", Tier: model.TierExtended, MaxRawMark: 130, WeightPercentage: 50},
		},
	}}
	thresholds := []model.ParsedThreshold{
		{SyllabusCode: "0580", Season: model.SeasonMJ, Year: 2023, Tier: model.TierExtended, OptionCode: "BY", MaxMark: 200,
			Grades: []model.GradeMark{{Grade: model.GradeAStar, MinMark: 160}, {Grade: model.GradeA, MinMark: 140}}},
		{SyllabusCode: "0580", Season: model.SeasonMJ, Year: 2024, Tier: model.TierExtended, OptionCode: "BY", MaxMark: 200,
			Grades: []model.GradeMark{{Grade: model.GradeAStar, MinMark: 150}, {Grade: model.GradeA, MinMark: 130}}},
		{SyllabusCode: "0999", Season: model.SeasonMJ, Year: 2024, OptionCode: "AX", MaxMark: 100,
			Grades: []model.GradeMark{{Grade: model.GradeAStar, MinMark: 80}}},
	}
	components := []model.ParsedComponent{
		{SyllabusCode: "0580", Year: 2023, ComponentCode: "22", PaperNumber: "2", MaxMark: 90},
		{SyllabusCode: "0580", Year: 2024, ComponentCode: "22", PaperNumber: "2", MaxMark: 100},
		{SyllabusCode: "0580", Year: 2024, ComponentCode: "05", PaperNumber: "0", MaxMark: 40},
	}

	seeder := New(st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	report, err := seeder.Run(ctx, subjects, thresholds, components)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Subjects != 1 || report.Papers != 2 || report.Thresholds != 2 || report.Skipped != 1 || report.MaxMarks != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	subj, err := st.SubjectByCode(ctx, "0580")
	if err != nil {
		t.Fatalf("SubjectByCode: %v", err)
	}
	if subj.Papers[0].MaxRawMark != 100 {
		t.Fatalf("expected latest component max mark 100, got %d", subj.Papers[0].MaxRawMark)
	}

	summaries, err := aggregate.New(st, 5).Averages(ctx, subj.ID, model.TierExtended, model.SeasonMJ)
	if err != nil {
		t.Fatalf("Averages: %v", err)
	}
	if len(summaries) != 2 || summaries[0].AveragedPct != 77.5 || summaries[1].AveragedPct != 67.5 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}

	if _, err := seeder.Run(ctx, subjects, thresholds, components); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	again, err := aggregate.New(st, 5).Averages(ctx, subj.ID, model.TierExtended, model.SeasonMJ)
	if err != nil {
		t.Fatalf("Averages: %v", err)
	}
	if len(again[0].YearData) != 2 {
		t.Fatalf("expected reseeding to be idempotent, got %+v", again[0].YearData)
	}
}
