package model

import (
	"encoding/json"
	"fmt"
)

// Grade is a letter grade. Lower values rank higher, so A* < A < ... < U.
type Grade uint8

// Grades in canonical order.
const (
	GradeAStar Grade = iota
	GradeA
	GradeB
	GradeC
	GradeD
	GradeE
	GradeF
	GradeG
	GradeU
)

var gradeNames = [...]string{"A*", "A", "B", "C", "D", "E", "F", "G", "U"}

var thresholdOrder = [...]Grade{GradeAStar, GradeA, GradeB, GradeC, GradeD, GradeE, GradeF, GradeG}

// AllGrades returns every grade in canonical order, U last.
func AllGrades() []Grade {
	out := make([]Grade, len(gradeNames))
	for i := range gradeNames {
		out[i] = Grade(i)
	}
	return out
}

// ThresholdGrades returns the first n gradable columns of a threshold table (A* through G).
func ThresholdGrades(n int) []Grade {
	if n < 0 {
		n = 0
	}
	if n > len(thresholdOrder) {
		n = len(thresholdOrder)
	}
	out := make([]Grade, n)
	copy(out, thresholdOrder[:n])
	return out
}

// ParseGrade converts a display string such as "A*" into a Grade.
func ParseGrade(s string) (Grade, error) {
	for i, name := range gradeNames {
		if name == s {
			return Grade(i), nil
		}
	}
	return 0, fmt.Errorf("unknown grade %q", s)
}

// Rank is the zero-based position in canonical order.
func (g Grade) Rank() int {
	return int(g)
}

// Valid reports whether g is one of the defined grades.
func (g Grade) Valid() bool {
	return int(g) < len(gradeNames)
}

// Better reports whether g ranks strictly above other.
func (g Grade) Better(other Grade) bool {
	return g < other
}

func (g Grade) String() string {
	if !g.Valid() {
		return fmt.Sprintf("Grade(%d)", uint8(g))
	}
	return gradeNames[g]
}

// MarshalJSON encodes the grade as its display string.
func (g Grade) MarshalJSON() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid grade %d", uint8(g))
	}
	return json.Marshal(gradeNames[g])
}

// UnmarshalJSON decodes a display string.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseGrade(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
