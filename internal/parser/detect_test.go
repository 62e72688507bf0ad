package parser

import (
	"errors"
	"strings"
	"testing"
)

const columnDoc = `Cambridge IGCSE Mathematics (0580)
Component 12 100
Component 22 100
The overall thresholds for the different grades were set as follows.
Option Maximum mark after weighting A* A B C D E F G
AX 130 12, 32 – – – 65 52 40 27 14
BY 200 22, 42 170 150 128 106 86 66 – –
`

const proseTwoDoc = `Cambridge IGCSE Physics (0625)
The maximum total mark for this syllabus, after weighting has been applied, is 200 for the Extended option and 160 for the Core option.
Overall thresholds
Option Combination of Components A* A B C D E F G
FY 11, 31, 51 – – – 94 77 60 44 28
BY 21, 41, 51 166 143 120 98 80 62 – –
`

const proseOneDoc = `Cambridge IGCSE Additional Mathematics (0606)
The maximum total mark for this syllabus, after weighting has been applied, is 160.
Overall threshold marks
Option A* A B C D E
AX 12, 22 130 110 90 70 50 30
`

func TestDetectColumnLayout(t *testing.T) {
	layout, section, err := Detect(columnDoc)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if layout.GradeCount != 8 {
		t.Fatalf("expected 8 grades, got %d", layout.GradeCount)
	}
	if !layout.EmbeddedMaxMark {
		t.Fatalf("expected embedded max mark")
	}
	if layout.External != nil {
		t.Fatalf("expected no external max marks, got %+v", layout.External)
	}
	if !strings.HasPrefix(section, "overall thresholds") {
		t.Fatalf("unexpected section start: %q", section[:20])
	}
}

func TestDetectProseTwoValues(t *testing.T) {
	layout, _, err := Detect(proseTwoDoc)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if layout.EmbeddedMaxMark {
		t.Fatalf("expected prose max marks")
	}
	ext := layout.External
	if ext == nil {
		t.Fatalf("expected external max marks")
	}
	if ext.Default != 200 {
		t.Fatalf("expected default 200, got %d", ext.Default)
	}
	if ext.Extended == nil || *ext.Extended != 200 {
		t.Fatalf("expected extended 200, got %v", ext.Extended)
	}
	if ext.Core == nil || *ext.Core != 160 {
		t.Fatalf("expected core 160, got %v", ext.Core)
	}
}

func TestDetectProseSingleValueSixGrades(t *testing.T) {
	layout, _, err := Detect(proseOneDoc)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if layout.GradeCount != 6 {
		t.Fatalf("expected 6 grades, got %d", layout.GradeCount)
	}
	if layout.External == nil || layout.External.Default != 160 {
		t.Fatalf("expected default 160, got %+v", layout.External)
	}
	if layout.External.Core != nil || layout.External.Extended != nil {
		t.Fatalf("expected no tier-specific marks")
	}
}

func TestDetectSkipReasons(t *testing.T) {
	if _, _, err := Detect("Component 12 100\nno table here"); !errors.Is(err, ErrNoOverallSection) {
		t.Fatalf("expected ErrNoOverallSection, got %v", err)
	}
	doc := "Overall thresholds\nOption A* A B C D E\nAX 12, 22 130 110 90 70 50 30\n"
	if _, _, err := Detect(doc); !errors.Is(err, ErrAmbiguousFormat) {
		t.Fatalf("expected ErrAmbiguousFormat, got %v", err)
	}
}

func TestDetectGradeCountOnlyScansHeader(t *testing.T) {
	section := "Overall thresholds\nOption A* A B C D E\n" + strings.Repeat("x", 700) + " F G"
	if got := DetectGradeCount(section); got != 6 {
		t.Fatalf("expected 6 grades when F G is past the header, got %d", got)
	}
}
