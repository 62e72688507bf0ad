// Package parser extracts grade-threshold tables from the plain text of threshold documents.
package parser

import (
	"regexp"
	"strconv"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// A dash in a grade column means the board published no mark for that grade.
var tokenPattern = regexp.MustCompile(`\d+|[\x{2013}\x{2014}-]`)

// Tokenize returns the integers and dashes of s in order. Dashes become gaps.
func Tokenize(s string) []model.Mark {
	matches := tokenPattern.FindAllString(s, -1)
	tokens := make([]model.Mark, 0, len(matches))
	for _, m := range matches {
		if m[0] < '0' || m[0] > '9' {
			tokens = append(tokens, model.Mark{Gap: true})
			continue
		}
		v, err := strconv.Atoi(m)
		if err != nil {
			// Out of int range; no real threshold looks like this.
			continue
		}
		tokens = append(tokens, model.Mark{Value: v})
	}
	return tokens
}

// TrailingGrades returns the last n tokens of a row, best grade first.
// Option rows carry component marks and a max mark before the grade columns,
// and PDF text extraction does not preserve column positions, so the grade
// columns are located from the end of the row.
func TrailingGrades(tokens []model.Mark, n int) ([]model.Mark, bool) {
	if n <= 0 || len(tokens) < n {
		return nil, false
	}
	out := make([]model.Mark, n)
	copy(out, tokens[len(tokens)-n:])
	return out, true
}
