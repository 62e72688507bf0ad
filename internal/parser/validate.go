package parser

import (
	"fmt"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Validate checks a resolved threshold. Boundaries must not increase down the grade
// order, the max mark must be positive, and no boundary may exceed the max mark.
func Validate(t model.ParsedThreshold) error {
	id := Describe(t)
	if t.MaxMark <= 0 {
		return fmt.Errorf("%s: %w", id, ErrNonPositiveMaxMark)
	}
	for i, gm := range t.Grades {
		if gm.MinMark > t.MaxMark {
			return fmt.Errorf("%s: %s=%d max=%d: %w", id, gm.Grade, gm.MinMark, t.MaxMark, ErrMarkAboveMax)
		}
		if i == 0 {
			continue
		}
		prev := t.Grades[i-1]
		if gm.MinMark > prev.MinMark {
			return &MonotonicityError{Threshold: id, Upper: prev, Lower: gm}
		}
	}
	return nil
}

// Describe names a threshold for logs, e.g. "0580 FM 2024 Extended option BY".
func Describe(t model.ParsedThreshold) string {
	return fmt.Sprintf("%s %s %d %s option %s", t.SyllabusCode, t.Season, t.Year, t.Tier.Label(), t.OptionCode)
}
