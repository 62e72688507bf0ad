package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/stats"
)

func sampleReport() stats.Report {
	history := []model.GradeThresholdSummary{
		{Grade: model.GradeA, AveragedPct: 71, MinPct: 70, MaxPct: 72,
			YearData: []model.YearPct{{Year: 2023, Pct: 70}, {Year: 2024, Pct: 72}}},
		{Grade: model.GradeC, AveragedPct: 50, MinPct: 50, MaxPct: 50,
			YearData: []model.YearPct{{Year: 2024, Pct: 50}}},
	}
	return stats.Report{
		Subject:   model.Subject{SyllabusCode: "0580", Name: "Mathematics"},
		Query:     model.ThresholdQuery{SubjectCode: "0580", Tier: model.TierExtended, Season: model.SeasonFM, Window: 5},
		Summaries: history,
		History:   history,
	}
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sampleReport())
	if err != nil {
		t.Fatalf("Workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	if diff := cmp.Diff([]string{SummarySheet, YearsSheet}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheet mismatch (-want +got):\n%s", diff)
	}
	title, err := f.GetCellValue(SummarySheet, "A1")
	if err != nil || title != "0580 Mathematics (Extended, FM, last 5 series)" {
		t.Fatalf("unexpected title %q, %v", title, err)
	}
	rows, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	if diff := cmp.Diff([]string{"A", "71", "70", "72", "2", "2"}, rows[3]); diff != "" {
		t.Fatalf("summary row mismatch (-want +got):\n%s", diff)
	}

	years, err := f.GetRows(YearsSheet)
	if err != nil {
		t.Fatalf("year rows: %v", err)
	}
	want := [][]string{
		{"Grade", "2023", "2024"},
		{"A", "70", "72"},
		{"C", "", "50"},
	}
	if diff := cmp.Diff(want, years); diff != "" {
		t.Fatalf("year matrix mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "0580.xlsx")
	if err := WriteFile(path, sampleReport()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "0580.xlsx" {
		t.Fatalf("expected only the workbook, got %v", entries)
	}
}
