package parser

import (
	"regexp"
	"strconv"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

const (
	// headerScanRunes covers the table header of the overall section.
	headerScanRunes = 600

	fullGradeCount  = 8
	shortGradeCount = 6
)

var (
	overallSectionPattern = regexp.MustCompile(`(?i)overall threshold`)
	fullGradeHeader       = regexp.MustCompile(`(?s)A\*.{0,80}F.{0,20}G`)
	maxMarkColumnPattern  = regexp.MustCompile(`(?i)maximum\s+mark\s+after\s+weighting`)
	twoMaxMarksPattern    = regexp.MustCompile(`(?i)maximum\s+total\s+mark[^.]*?is\s+(\d{2,3})\s+for\s+the\s+(\w+)\s+option\s+and\s+(\d{2,3})\s+for\s+the\s+(\w+)\s+option`)
	oneMaxMarkPattern     = regexp.MustCompile(`(?i)maximum\s+total\s+mark[^.]*?is\s+(\d{2,3})\b`)
	extendedWordPattern   = regexp.MustCompile(`(?i)extended`)
	coreWordPattern       = regexp.MustCompile(`(?i)core`)
)

// OverallSection returns the text from the start of the overall-threshold table
// to the end of the document, and the text before it.
func OverallSection(text string) (before, section string, ok bool) {
	loc := overallSectionPattern.FindStringIndex(text)
	if loc == nil {
		return text, "", false
	}
	return text[:loc[0]], text[loc[0]:], true
}

// Detect classifies the overall-threshold table of a document.
// It returns ErrNoOverallSection when the document has no such table and
// ErrAmbiguousFormat when neither a max-mark column nor a max-mark sentence exists.
func Detect(text string) (model.Layout, string, error) {
	_, section, ok := OverallSection(text)
	if !ok {
		return model.Layout{}, "", ErrNoOverallSection
	}
	layout := model.Layout{
		GradeCount:      DetectGradeCount(section),
		EmbeddedMaxMark: maxMarkColumnPattern.MatchString(section),
	}
	if !layout.EmbeddedMaxMark {
		layout.External = ExtractMaxMarks(text)
		if layout.External == nil {
			return layout, section, ErrAmbiguousFormat
		}
	}
	return layout, section, nil
}

// DetectGradeCount returns 8 when the header lists F and G after A*, otherwise 6.
func DetectGradeCount(section string) int {
	head := section
	if runes := []rune(section); len(runes) > headerScanRunes {
		head = string(runes[:headerScanRunes])
	}
	if fullGradeHeader.MatchString(head) {
		return fullGradeCount
	}
	return shortGradeCount
}

// ExtractMaxMarks reads the max mark from the prose sentence used by documents
// that do not carry a max-mark column. It returns nil when no sentence matches.
func ExtractMaxMarks(text string) *model.MaxMarks {
	if m := twoMaxMarksPattern.FindStringSubmatch(text); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[3])
		out := &model.MaxMarks{Default: max(first, second)}
		assignTier(out, first, m[2])
		assignTier(out, second, m[4])
		return out
	}
	if m := oneMaxMarkPattern.FindStringSubmatch(text); m != nil {
		v, _ := strconv.Atoi(m[1])
		return &model.MaxMarks{Default: v}
	}
	return nil
}

func assignTier(out *model.MaxMarks, mark int, word string) {
	v := mark
	if extendedWordPattern.MatchString(word) {
		out.Extended = &v
	}
	if coreWordPattern.MatchString(word) {
		out.Core = &v
	}
}
