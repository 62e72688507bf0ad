package tui

import (
	"strings"
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

func sampleSummaries() []model.GradeThresholdSummary {
	return []model.GradeThresholdSummary{
		{Grade: model.GradeAStar, AveragedPct: 90},
		{Grade: model.GradeA, AveragedPct: 80},
		{Grade: model.GradeB, AveragedPct: 70},
	}
}

func TestBoundaryTokensStates(t *testing.T) {
	grade := model.GradeA
	tokens := boundaryTokens(sampleSummaries(), &grade)
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	if tokens[0].text != "A*:90.0" || tokens[0].state != boundaryPending {
		t.Fatalf("unexpected A* token: %+v", tokens[0])
	}
	if tokens[1].state != boundaryCurrent {
		t.Fatalf("expected A to be current, got %+v", tokens[1])
	}
	if tokens[2].state != boundaryReached {
		t.Fatalf("expected B to be reached, got %+v", tokens[2])
	}
}

func TestBoundaryTokensWithoutGrade(t *testing.T) {
	for _, tok := range boundaryTokens(sampleSummaries(), nil) {
		if tok.state != boundaryPending {
			t.Fatalf("expected every token pending below all boundaries, got %+v", tok)
		}
	}
}

func TestBuildStyledRunesStyles(t *testing.T) {
	grade := model.GradeA
	runes := buildStyledRunes(boundaryTokens(sampleSummaries(), &grade))
	if len(runes) != len("A*:90.0 A:80.0 B:70.0") {
		t.Fatalf("unexpected rune count %d", len(runes))
	}
	if runes[0].s != pendingStyle.Render("A") {
		t.Fatalf("expected pending style for a better grade")
	}
	if !runes[7].isSpace {
		t.Fatalf("expected a space between tokens")
	}
	if runes[8].s != currentWordStyle.Underline(true).Render("A") {
		t.Fatalf("expected current style for the estimated grade")
	}
	if runes[15].s != correctStyle.Render("B") {
		t.Fatalf("expected reached style for a worse grade")
	}
}

func TestWrapStyledRunesBreaksAtSpaces(t *testing.T) {
	grade := model.GradeB
	runes := buildStyledRunes(boundaryTokens(sampleSummaries(), &grade))
	out := wrapStyledRunes(runes, 15)
	if got := strings.Count(out, "\n"); got != 1 {
		t.Fatalf("expected 2 lines, got %d:\n%s", got+1, out)
	}
	if wrapStyledRunes(runes, 0) != renderStyledRunes(runes) {
		t.Fatalf("expected no wrapping without a width")
	}
}
