package generator

import (
	"strings"
	"testing"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

func TestGeneratorIsDeterministic(t *testing.T) {
	a := Render(New(42).Tiered("0625", model.SeasonON, 2022, FormatProse, []string{"FY"}, []string{"BY"}))
	b := Render(New(42).Tiered("0625", model.SeasonON, 2022, FormatProse, []string{"FY"}, []string{"BY"}))
	if a != b {
		t.Fatalf("expected identical output for identical seeds")
	}
}

func TestBoundariesAreNonIncreasing(t *testing.T) {
	g := New(1)
	for i := 0; i < 50; i++ {
		marks := g.boundaries(200, 8, 3)
		for j := 0; j < 3; j++ {
			if marks[j] != 0 {
				t.Fatalf("expected leading gaps, got %v", marks)
			}
		}
		for j := 4; j < len(marks); j++ {
			if marks[j] > marks[j-1] {
				t.Fatalf("expected non-increasing marks, got %v", marks)
			}
			if marks[j] <= 0 || marks[j] >= 200 {
				t.Fatalf("mark out of range: %v", marks)
			}
		}
	}
}

func TestRenderFormats(t *testing.T) {
	doc := New(5).Untiered("0500", model.SeasonFM, 2024, 6, FormatColumn, []string{"AX", "BY"})
	out := Render(doc)
	if !strings.Contains(out, "Maximum mark after weighting") {
		t.Fatalf("expected max-mark column header in column format")
	}
	if !strings.Contains(out, "A* A B C D E\n") {
		t.Fatalf("expected six grade header, got:\n%s", out)
	}

	prose := Render(New(5).Tiered("0625", model.SeasonFM, 2022, FormatProse, []string{"FY"}, []string{"BY"}))
	if !strings.Contains(prose, "for the Extended option and") {
		t.Fatalf("expected two-value max mark sentence, got:\n%s", prose)
	}
	if !strings.Contains(prose, "–") {
		t.Fatalf("expected dashes for core grades above C")
	}
}
