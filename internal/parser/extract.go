package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Option rows start with a 1-3 letter option code, sometimes followed by "(XX)".
var optionCodePattern = regexp.MustCompile(`^([A-Z]{1,3})(?:\s*\([^)]*\))?`)

// minEmbeddedMaxMark rejects rows whose first number is a component number rather than a max mark.
const minEmbeddedMaxMark = 10

// ExtractOptions walks the lines of an overall section and returns every option row.
// rejected counts candidate rows dropped for too few grade tokens or an implausible max mark.
func ExtractOptions(section string, layout model.Layout) (options []model.RawOption, rejected int) {
	for _, line := range strings.Split(section, "\n") {
		code, rest, ok := splitOptionCode(strings.TrimSpace(line))
		if !ok {
			continue
		}
		opt, ok := parseOptionRow(code, rest, layout)
		if !ok {
			rejected++
			continue
		}
		options = append(options, opt)
	}
	return options, rejected
}

func splitOptionCode(line string) (code, rest string, ok bool) {
	m := optionCodePattern.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	// "Grade", "Component" and similar words are prose, not option codes.
	if next, _ := utf8.DecodeRuneInString(line[len(m[1]):]); unicode.IsLetter(next) {
		return "", "", false
	}
	return m[1], strings.TrimSpace(line[len(m[0]):]), true
}

func parseOptionRow(code, rest string, layout model.Layout) (model.RawOption, bool) {
	tokens := Tokenize(rest)
	if len(tokens) < layout.GradeCount {
		return model.RawOption{}, false
	}
	var maxMark int
	if layout.EmbeddedMaxMark {
		first := tokens[0]
		if first.Gap || first.Value < minEmbeddedMaxMark {
			return model.RawOption{}, false
		}
		maxMark = first.Value
	} else {
		if layout.External == nil {
			return model.RawOption{}, false
		}
		maxMark = layout.External.Default
	}
	grades, ok := TrailingGrades(tokens, layout.GradeCount)
	if !ok {
		return model.RawOption{}, false
	}
	return model.RawOption{Code: code, MaxMark: maxMark, Grades: grades}, true
}
