// Package export writes threshold reports as XLSX workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/stats"
)

// Sheet names.
const (
	SummarySheet = "Summary"
	YearsSheet   = "By Year"
)

// Workbook returns an XLSX workbook with the averaged summary and the per-year history of r.
func Workbook(r stats.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort cleanup of temporary workbook parts.
			_ = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(YearsSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	if err := writeSummary(f, r); err != nil {
		return nil, err
	}
	if err := writeYears(f, r.History); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(SummarySheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the workbook of r to path, replacing it atomically.
func WriteFile(path string, r stats.Report) error {
	data, err := Workbook(r)
	if err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeSummary(f *excelize.File, r stats.Report) error {
	const sheet = SummarySheet
	title := stats.Heading(r)
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	headers := []any{"Grade", "Average %", "Min %", "Max %", "Spread", "Years"}
	if err := f.SetSheetRow(sheet, "A3", &headers); err != nil {
		return err
	}
	for i, s := range r.Summaries {
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		row := []any{s.Grade.String(), s.AveragedPct, s.MinPct, s.MaxPct, stats.Spread(s), len(s.YearData)}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 10); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "F", 12)
}

func writeYears(f *excelize.File, history []model.GradeThresholdSummary) error {
	const sheet = YearsSheet
	years := stats.Years(history)
	col := make(map[int]int, len(years))
	if err := f.SetCellValue(sheet, "A1", "Grade"); err != nil {
		return err
	}
	for i, y := range years {
		col[y] = i + 2
		cell, err := excelize.CoordinatesToCellName(i+2, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, strconv.Itoa(y)); err != nil {
			return err
		}
	}
	for i, s := range history {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, s.Grade.String()); err != nil {
			return err
		}
		for _, p := range s.YearData {
			cell, err := excelize.CoordinatesToCellName(col[p.Year], row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, p.Pct); err != nil {
				return err
			}
		}
	}
	return nil
}
