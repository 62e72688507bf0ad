package stats

import (
	"fmt"
	"io"

	"github.com/abhinavpachauri/igcse-estimator/internal/estimate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// RenderEstimate prints one line per subject with its total, grade and the gap to the next grade.
func RenderEstimate(w io.Writer, res model.EstimateResult) error {
	if len(res.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No subjects estimated.")
		return err
	}
	headers := []string{"Subject", "Tier", "Total %", "Grade", "Next", "Gap %", "Notes"}
	rows := make([][]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		grade := "U"
		if e.EstimatedGrade != nil {
			grade = e.EstimatedGrade.String()
		}
		next, gap := "-", "-"
		if s, g, ok := estimate.NextBoundary(e.Thresholds, e.EstimatedGrade, e.WeightedTotalPct); ok {
			next = s.Grade.String()
			gap = fmt.Sprintf("%.1f", g)
		}
		notes := ""
		switch {
		case len(e.Thresholds) == 0:
			notes = "no thresholds"
		case e.MissingPapers:
			notes = "papers missing"
		}
		name := e.SubjectCode
		if e.SubjectName != "" {
			name += " " + e.SubjectName
		}
		rows = append(rows, []string{
			name,
			e.TierSelected.Label(),
			fmt.Sprintf("%.1f", e.WeightedTotalPct),
			grade,
			next,
			gap,
			notes,
		})
	}
	if err := writeLines(w, formatTable(headers, rows, map[int]bool{2: true, 5: true})); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Calculated at %s\n", res.CalculatedAt.Format("2006-01-02 15:04:05 MST"))
	return err
}

// ThresholdLine is a compact "A* 82.5  A 71.0 ..." rendering of averaged boundaries.
func ThresholdLine(summaries []model.GradeThresholdSummary) string {
	line := ""
	for i, s := range summaries {
		if i > 0 {
			line += "  "
		}
		line += fmt.Sprintf("%s %.1f", s.Grade, s.AveragedPct)
	}
	return line
}
