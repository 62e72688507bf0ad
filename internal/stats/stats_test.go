package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("moving average mismatch (-want +got):\n%s", diff)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 50, 100}); got != " +@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 5}); got != "++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func sampleHistory() []model.GradeThresholdSummary {
	return []model.GradeThresholdSummary{
		{
			Grade: model.GradeA, AveragedPct: 71, MinPct: 70, MaxPct: 72,
			YearData: []model.YearPct{{Year: 2023, Pct: 70}, {Year: 2024, Pct: 72}},
		},
		{
			Grade: model.GradeC, AveragedPct: 50, MinPct: 50, MaxPct: 50,
			YearData: []model.YearPct{{Year: 2024, Pct: 50}},
		},
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	r := Report{
		Subject:   model.Subject{SyllabusCode: "0580", Name: "Mathematics"},
		Query:     model.ThresholdQuery{SubjectCode: "0580", Tier: model.TierExtended, Season: model.SeasonFM, Window: 5},
		Summaries: sampleHistory(),
	}
	if err := RenderSummary(&buf, r); err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "0580 Mathematics (Extended, FM, last 5 series)" {
		t.Fatalf("unexpected heading %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "A") || !strings.Contains(lines[2], "71.0") || !strings.Contains(lines[2], "2.0") {
		t.Fatalf("unexpected grade A row %q", lines[2])
	}

	buf.Reset()
	r.Summaries = nil
	if err := RenderSummary(&buf, r); err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	if !strings.Contains(buf.String(), "No thresholds found.") {
		t.Fatalf("expected empty message, got %q", buf.String())
	}
}

func TestRenderYearMatrix(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderYearMatrix(&buf, sampleHistory()); err != nil {
		t.Fatalf("RenderYearMatrix: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[1] != "Grade  2023  2024" {
		t.Fatalf("unexpected header %q", lines[1])
	}
	if lines[2] != "A      70.0  72.0" {
		t.Fatalf("unexpected grade A row %q", lines[2])
	}
	if lines[3] != "C         -  50.0" {
		t.Fatalf("unexpected grade C row %q", lines[3])
	}
}

func TestRenderCurvesSkipsSingleYearGrades(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCurvesWithSize(&buf, sampleHistory(), 1, 40, 4, false); err != nil {
		t.Fatalf("RenderCurvesWithSize: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Boundary Curves 2023-2024") {
		t.Fatalf("expected title, got:\n%s", out)
	}
	if !strings.Contains(out, "A (solid)") || strings.Contains(out, "C (") {
		t.Fatalf("expected only grade A in legend, got:\n%s", out)
	}
}

func TestRenderEstimate(t *testing.T) {
	grade := model.GradeC
	res := model.EstimateResult{
		Entries: []model.SubjectEstimateResult{{
			SubjectCode:      "0580",
			SubjectName:      "Mathematics",
			TierSelected:     model.TierExtended,
			WeightedTotalPct: 60,
			EstimatedGrade:   &grade,
			Thresholds:       sampleHistory(),
			MissingPapers:    true,
		}},
		CalculatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	var buf bytes.Buffer
	if err := RenderEstimate(&buf, res); err != nil {
		t.Fatalf("RenderEstimate: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"0580 Mathematics", "Extended", "60.0", "11.0", "papers missing", "2025-03-01 12:00:00 UTC"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestThresholdLine(t *testing.T) {
	if got := ThresholdLine(sampleHistory()); got != "A 71.0  C 50.0" {
		t.Fatalf("unexpected threshold line %q", got)
	}
}
