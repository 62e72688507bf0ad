package statsui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/stats"
)

type recordingLoader struct {
	queries []model.ThresholdQuery
	err     error
}

func (r *recordingLoader) load(_ context.Context, q model.ThresholdQuery) (stats.Report, error) {
	r.queries = append(r.queries, q)
	if r.err != nil {
		return stats.Report{}, r.err
	}
	if q.Window == 0 {
		q.Window = 5
	}
	return stats.Report{
		Subject: model.Subject{SyllabusCode: q.SubjectCode, Name: "Mathematics"},
		Query:   q,
		Summaries: []model.GradeThresholdSummary{
			{Grade: model.GradeA, AveragedPct: 71, MinPct: 70, MaxPct: 72,
				YearData: []model.YearPct{{Year: 2023, Pct: 70}, {Year: 2024, Pct: 72}}},
		},
		History: []model.GradeThresholdSummary{
			{Grade: model.GradeA, AveragedPct: 71, MinPct: 70, MaxPct: 72,
				YearData: []model.YearPct{{Year: 2023, Pct: 70}, {Year: 2024, Pct: 72}}},
		},
	}, nil
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelLoadsAndAdjustsSelection(t *testing.T) {
	loader := &recordingLoader{}
	m := NewModel(loader.load, model.ThresholdQuery{SubjectCode: "0580", Tier: model.TierExtended})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	view := m.View()
	if !strings.Contains(view, "Overview") || !strings.Contains(view, "subject=0580") {
		t.Fatalf("expected tabs and selection in view:\n%s", view)
	}

	m.Update(key("-"))
	m.Update(key("s"))
	m.Update(key("t"))
	got := m.Query()
	want := model.ThresholdQuery{SubjectCode: "0580", Tier: model.TierNone, Season: model.SeasonMJ, Window: 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("query mismatch (-want +got):\n%s", diff)
	}
	if len(loader.queries) != 4 {
		t.Fatalf("expected a reload per change, got %d loads", len(loader.queries))
	}
}

func TestModelShowsLoadError(t *testing.T) {
	loader := &recordingLoader{err: errors.New("subject 9999: not found")}
	m := NewModel(loader.load, model.ThresholdQuery{SubjectCode: "9999"})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), "subject 9999: not found") {
		t.Fatalf("expected load error in footer:\n%s", m.View())
	}
}

func TestModelWithoutSubjectDoesNotLoad(t *testing.T) {
	loader := &recordingLoader{}
	NewModel(loader.load, model.ThresholdQuery{})
	if len(loader.queries) != 0 {
		t.Fatalf("expected no load without a subject, got %d", len(loader.queries))
	}
}

func TestParseFilter(t *testing.T) {
	q, err := parseFilter([]string{"0625", "core", "on", "3"})
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	want := model.ThresholdQuery{SubjectCode: "0625", Tier: model.TierCore, Season: model.SeasonON, Window: 3}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}

	q, err = parseFilter([]string{"0500", "", "", ""})
	if err != nil || q.Season != model.SeasonFM || q.Tier != model.TierNone || q.Window != 0 {
		t.Fatalf("expected defaults, got %+v, %v", q, err)
	}

	cases := [][]string{
		{"", "", "", ""},
		{"0580", "higher", "", ""},
		{"0580", "", "WS", ""},
		{"0580", "", "", "0"},
		{"0580", "", "", "x"},
	}
	for _, c := range cases {
		if _, err := parseFilter(c); err == nil {
			t.Fatalf("expected error for %v", c)
		}
	}
}

func TestNextSeasonAndTierCycle(t *testing.T) {
	if nextSeason(model.SeasonON) != model.SeasonFM || nextSeason(model.SeasonFM) != model.SeasonMJ {
		t.Fatalf("unexpected season cycle")
	}
	if nextTier(model.TierNone) != model.TierCore || nextTier(model.TierExtended) != model.TierNone {
		t.Fatalf("unexpected tier cycle")
	}
}
