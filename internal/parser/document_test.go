package parser

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abhinavpachauri/igcse-estimator/internal/generator"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/tier"
)

func expectedGrades(marks []int) []model.GradeMark {
	grades := model.ThresholdGrades(len(marks))
	var out []model.GradeMark
	for i, m := range marks {
		if m <= 0 {
			continue
		}
		out = append(out, model.GradeMark{Grade: grades[i], MinMark: m})
	}
	return out
}

func TestParseGeneratedTieredDocuments(t *testing.T) {
	for _, format := range []generator.Format{generator.FormatColumn, generator.FormatProse} {
		gen := generator.New(int64(format) + 7)
		src := gen.Tiered("0580", model.SeasonFM, 2024, format, []string{"AX", "AY"}, []string{"BX", "BY"})
		doc := Document{
			Path:         "raw/2024/0580.txt",
			SyllabusCode: "0580",
			Season:       model.SeasonFM,
			Year:         2024,
			Text:         generator.Render(src),
		}
		res := Parse(doc, tier.Default())
		if res.Skip != nil {
			t.Fatalf("format %d: unexpected skip: %v", format, res.Skip)
		}
		if len(res.Violations) != 0 {
			t.Fatalf("format %d: unexpected violations: %v", format, res.Violations)
		}
		if len(res.Thresholds) != 2 {
			t.Fatalf("format %d: expected core and extended thresholds, got %d", format, len(res.Thresholds))
		}
		core, ext := res.Thresholds[0], res.Thresholds[1]
		if core.Tier != model.TierCore || core.OptionCode != "AY" {
			t.Fatalf("format %d: unexpected core threshold: %+v", format, core)
		}
		if ext.Tier != model.TierExtended || ext.OptionCode != "BY" {
			t.Fatalf("format %d: unexpected extended threshold: %+v", format, ext)
		}
		if core.MaxMark != src.Options[1].MaxMark || ext.MaxMark != src.Options[3].MaxMark {
			t.Fatalf("format %d: unexpected max marks core=%d ext=%d", format, core.MaxMark, ext.MaxMark)
		}
		if diff := cmp.Diff(expectedGrades(src.Options[1].Grades), core.Grades); diff != "" {
			t.Fatalf("format %d: core grades mismatch (-want +got):\n%s", format, diff)
		}
		if diff := cmp.Diff(expectedGrades(src.Options[3].Grades), ext.Grades); diff != "" {
			t.Fatalf("format %d: extended grades mismatch (-want +got):\n%s", format, diff)
		}
		if len(res.Components) != len(src.Components) {
			t.Fatalf("format %d: expected %d components, got %d", format, len(src.Components), len(res.Components))
		}
	}
}

func TestParseGeneratedSixGradeDocument(t *testing.T) {
	gen := generator.New(3)
	src := gen.Untiered("0606", model.SeasonMJ, 2023, 6, generator.FormatProse, []string{"AX"})
	res := Parse(Document{SyllabusCode: "0606", Season: model.SeasonMJ, Year: 2023, Text: generator.Render(src)}, tier.Default())
	if res.Skip != nil {
		t.Fatalf("unexpected skip: %v", res.Skip)
	}
	if res.Layout.GradeCount != 6 {
		t.Fatalf("expected 6 grades, got %d", res.Layout.GradeCount)
	}
	if len(res.Thresholds) != 1 || res.Thresholds[0].Tier != model.TierNone {
		t.Fatalf("expected one untiered threshold, got %+v", res.Thresholds)
	}
	if len(res.Components) != 0 {
		t.Fatalf("expected components only from FM documents, got %d", len(res.Components))
	}
	if diff := cmp.Diff(expectedGrades(src.Options[0].Grades), res.Thresholds[0].Grades); diff != "" {
		t.Fatalf("grades mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSkipsDocumentWithoutSection(t *testing.T) {
	res := Parse(Document{Path: "raw/2024/0500.txt", SyllabusCode: "0500", Season: model.SeasonFM, Year: 2024, Text: "Component 12 80\n"}, tier.Default())
	if res.Skip == nil || !errors.Is(res.Skip, ErrNoOverallSection) {
		t.Fatalf("expected skip for missing section, got %+v", res.Skip)
	}
	if res.Skip.Path != "raw/2024/0500.txt" {
		t.Fatalf("expected skip path, got %q", res.Skip.Path)
	}
	if len(res.Components) != 1 {
		t.Fatalf("expected component rows to survive a skip, got %d", len(res.Components))
	}
}

func TestParseReportsViolationsSeparately(t *testing.T) {
	text := "Overall thresholds\nOption Maximum mark after weighting A* A B C D E\nAX 120 12, 22 80 90 70 60 50 40\n"
	res := Parse(Document{SyllabusCode: "0606", Season: model.SeasonFM, Year: 2024, Text: text}, tier.Default())
	if res.Skip != nil {
		t.Fatalf("unexpected skip: %v", res.Skip)
	}
	if len(res.Thresholds) != 0 {
		t.Fatalf("expected invalid threshold to be withheld, got %+v", res.Thresholds)
	}
	if len(res.Violations) != 1 || !errors.Is(res.Violations[0], ErrInvariant) {
		t.Fatalf("expected one invariant violation, got %v", res.Violations)
	}
}
