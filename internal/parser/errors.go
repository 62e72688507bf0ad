package parser

import (
	"errors"
	"fmt"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Skip reasons. A skipped document yields no thresholds but does not fail the batch.
var (
	ErrNoOverallSection = errors.New("no overall threshold section")
	ErrAmbiguousFormat  = errors.New("cannot determine max mark source")
	ErrNoOptionRows     = errors.New("no option rows with enough grade columns")
	ErrNoTierMatch      = errors.New("no option matches the tier configuration")
)

// ErrInvariant is matched by every threshold that fails validation.
// Such thresholds point at a parser bug rather than an unsupported document.
var ErrInvariant = errors.New("threshold invariant violated")

// Invariant violations without grade context.
var (
	ErrNonPositiveMaxMark = fmt.Errorf("%w: max mark must be > 0", ErrInvariant)
	ErrMarkAboveMax       = fmt.Errorf("%w: boundary exceeds max mark", ErrInvariant)
)

// SkipError records why a document produced no thresholds.
type SkipError struct {
	Path   string
	Reason error
}

func (e *SkipError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Reason)
}

func (e *SkipError) Unwrap() error {
	return e.Reason
}

// MonotonicityError reports a lower grade with a higher boundary than the grade above it.
type MonotonicityError struct {
	Threshold string
	Upper     model.GradeMark
	Lower     model.GradeMark
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("%s: %s boundary %d exceeds %s boundary %d",
		e.Threshold, e.Lower.Grade, e.Lower.MinMark, e.Upper.Grade, e.Upper.MinMark)
}

// Is makes MonotonicityError match ErrInvariant.
func (e *MonotonicityError) Is(target error) bool {
	return target == ErrInvariant
}
