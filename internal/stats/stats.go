// Package stats renders grade threshold summaries as tables and plots.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

const sparkChars = " .:-=+*#%@"

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// YearValues returns the percentages of a summary in year order.
func YearValues(s model.GradeThresholdSummary) []float64 {
	out := make([]float64, len(s.YearData))
	for i, p := range s.YearData {
		out[i] = p.Pct
	}
	return out
}

// Heading describes the selection a report was built from.
func Heading(r Report) string {
	name := r.Subject.SyllabusCode
	if r.Subject.Name != "" {
		name += " " + r.Subject.Name
	}
	return fmt.Sprintf("%s (%s, %s, last %d series)", name, r.Query.Tier.Label(), r.Query.Season, r.Query.Window)
}

// RenderSummary prints the averaged boundary of every grade with its range and trend.
func RenderSummary(w io.Writer, r Report) error {
	if _, err := fmt.Fprintln(w, Heading(r)); err != nil {
		return err
	}
	if len(r.Summaries) == 0 {
		_, err := fmt.Fprintln(w, "No thresholds found.")
		return err
	}
	headers := []string{"Grade", "Avg %", "Min %", "Max %", "Spread", "Years", "Trend"}
	rows := make([][]string, 0, len(r.Summaries))
	for _, s := range r.Summaries {
		rows = append(rows, []string{
			s.Grade.String(),
			fmt.Sprintf("%.1f", s.AveragedPct),
			fmt.Sprintf("%.1f", s.MinPct),
			fmt.Sprintf("%.1f", s.MaxPct),
			fmt.Sprintf("%.1f", Spread(s)),
			strconv.Itoa(len(s.YearData)),
			Sparkline(YearValues(s)),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// Years returns every year present in the summaries, ascending.
func Years(summaries []model.GradeThresholdSummary) []int {
	seen := map[int]struct{}{}
	for _, s := range summaries {
		for _, p := range s.YearData {
			seen[p.Year] = struct{}{}
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// RenderYearMatrix prints one row per grade and one column per year. Missing cells show "-".
func RenderYearMatrix(w io.Writer, history []model.GradeThresholdSummary) error {
	if len(history) == 0 {
		_, err := fmt.Fprintln(w, "No threshold history found.")
		return err
	}
	years := Years(history)
	headers := make([]string, 0, len(years)+1)
	headers = append(headers, "Grade")
	for _, y := range years {
		headers = append(headers, strconv.Itoa(y))
	}
	rightAlign := map[int]bool{}
	for i := range years {
		rightAlign[i+1] = true
	}
	rows := make([][]string, 0, len(history))
	for _, s := range history {
		byYear := make(map[int]float64, len(s.YearData))
		for _, p := range s.YearData {
			byYear[p.Year] = p.Pct
		}
		row := []string{s.Grade.String()}
		for _, y := range years {
			if pct, ok := byYear[y]; ok {
				row = append(row, fmt.Sprintf("%.1f", pct))
			} else {
				row = append(row, "-")
			}
		}
		rows = append(rows, row)
	}
	if _, err := fmt.Fprintln(w, "Boundaries by Year (%)"); err != nil {
		return err
	}
	if err := writeLines(w, formatTable(headers, rows, rightAlign)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderCurves plots the boundary of each grade over the years.
func RenderCurves(w io.Writer, history []model.GradeThresholdSummary, smooth int) error {
	return RenderCurvesWithSize(w, history, smooth, 0, 10, false)
}

// RenderCurvesWithSize plots boundary curves sized to a given total width. Grades with a
// single year are left out since they have no curve.
func RenderCurvesWithSize(w io.Writer, history []model.GradeThresholdSummary, smooth, totalWidth, height int, useColor bool) error {
	series := make([]Series, 0, len(history))
	for _, s := range history {
		if len(s.YearData) < 2 {
			continue
		}
		series = append(series, Series{
			Name:   s.Grade.String(),
			Values: MovingAverage(YearValues(s), smooth),
		})
	}
	if len(series) == 0 {
		return nil
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	years := Years(history)
	title := fmt.Sprintf("Boundary Curves %d-%d", years[0], years[len(years)-1])
	return PlotPercentSeries(w, title, series, width, height, useColor)
}
