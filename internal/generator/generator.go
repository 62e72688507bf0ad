// Package generator builds synthetic grade-threshold documents.
package generator

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Format selects which document revision to imitate.
type Format int

// Formats.
const (
	// FormatColumn carries the max mark as a column of the option table.
	FormatColumn Format = iota
	// FormatProse states the max mark in a sentence above the option table.
	FormatProse
)

// Component is one row of the component table.
type Component struct {
	Code    string
	MaxMark int
}

// Option is one row of the overall table. A zero grade renders as a dash.
type Option struct {
	Code       string
	Components []string
	MaxMark    int
	Grades     []int
}

// Document describes a threshold document to render.
type Document struct {
	SyllabusCode string
	Title        string
	Season       model.Season
	Year         int
	Format       Format
	GradeCount   int
	Components   []Component
	Options      []Option
	// CoreMaxMark and ExtendedMaxMark are stated in prose when both are set.
	CoreMaxMark     int
	ExtendedMaxMark int
}

// Generator produces randomized but internally consistent documents.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator with a fixed seed so output is reproducible.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Untiered builds a document with the given option codes sharing one max mark.
func (g *Generator) Untiered(code string, season model.Season, year, gradeCount int, format Format, optionCodes []string) Document {
	doc := g.base(code, season, year, gradeCount, format)
	maxMark := 100 + 10*g.rnd.Intn(16)
	for _, oc := range optionCodes {
		doc.Options = append(doc.Options, Option{
			Code:       oc,
			Components: g.componentCodes(doc.Components),
			MaxMark:    maxMark,
			Grades:     g.boundaries(maxMark, gradeCount, 0),
		})
	}
	return doc
}

// Tiered builds a document with Core options (no marks above C) and Extended options.
func (g *Generator) Tiered(code string, season model.Season, year int, format Format, coreCodes, extendedCodes []string) Document {
	doc := g.base(code, season, year, 8, format)
	coreMax := 100 + 10*g.rnd.Intn(6)
	extMax := coreMax + 40 + 10*g.rnd.Intn(6)
	for _, oc := range coreCodes {
		doc.Options = append(doc.Options, Option{
			Code:       oc,
			Components: g.componentCodes(doc.Components),
			MaxMark:    coreMax,
			Grades:     g.boundaries(coreMax, 8, 3),
		})
	}
	for _, oc := range extendedCodes {
		doc.Options = append(doc.Options, Option{
			Code:       oc,
			Components: g.componentCodes(doc.Components),
			MaxMark:    extMax,
			Grades:     g.boundaries(extMax, 8, 0),
		})
	}
	if format == FormatProse {
		doc.CoreMaxMark = coreMax
		doc.ExtendedMaxMark = extMax
	}
	return doc
}

func (g *Generator) base(code string, season model.Season, year, gradeCount int, format Format) Document {
	doc := Document{
		SyllabusCode: code,
		Title:        "Synthetic Syllabus",
		Season:       season,
		Year:         year,
		Format:       format,
		GradeCount:   gradeCount,
	}
	papers := 2 + g.rnd.Intn(2)
	for paper := 1; paper <= papers; paper++ {
		doc.Components = append(doc.Components, Component{
			Code:    fmt.Sprintf("%d%d", paper, 1+g.rnd.Intn(3)),
			MaxMark: 40 + 5*g.rnd.Intn(13),
		})
	}
	return doc
}

func (g *Generator) componentCodes(components []Component) []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, c.Code)
	}
	return out
}

// boundaries returns non-increasing marks below maxMark; the first gaps entries are dashes.
func (g *Generator) boundaries(maxMark, count, gaps int) []int {
	marks := make([]int, count)
	top := maxMark * (75 + g.rnd.Intn(15)) / 100
	for i := range marks {
		marks[i] = top * (count - i) / count
	}
	for i := 0; i < gaps && i < count; i++ {
		marks[i] = 0
	}
	return marks
}

// Render writes the document as extracted plain text.
func Render(doc Document) string {
	var b strings.Builder
	season := seasonName(doc.Season)
	fmt.Fprintf(&b, "Cambridge IGCSE %s (%s)\n", doc.Title, doc.SyllabusCode)
	fmt.Fprintf(&b, "Grade thresholds – %s %d\n\n", season, doc.Year)
	b.WriteString("Component  Maximum raw mark available\n")
	for _, c := range doc.Components {
		fmt.Fprintf(&b, "Component %s %d\n", c.Code, c.MaxMark)
	}
	b.WriteString("\n")

	if doc.Format == FormatProse {
		switch {
		case doc.CoreMaxMark > 0 && doc.ExtendedMaxMark > 0:
			fmt.Fprintf(&b, "The maximum total mark for this syllabus, after weighting has been applied, is %d for the Extended option and %d for the Core option.\n",
				doc.ExtendedMaxMark, doc.CoreMaxMark)
		case len(doc.Options) > 0:
			fmt.Fprintf(&b, "The maximum total mark for this syllabus, after weighting has been applied, is %d.\n", doc.Options[0].MaxMark)
		}
	}

	b.WriteString("Grade thresholds for Syllabus " + doc.SyllabusCode + ". The overall thresholds for the different grades were set as follows.\n")
	header := []string{"Option"}
	if doc.Format == FormatColumn {
		header = append(header, "Maximum mark after weighting")
	}
	header = append(header, "Combination of Components")
	for _, grade := range model.ThresholdGrades(doc.GradeCount) {
		header = append(header, grade.String())
	}
	b.WriteString(strings.Join(header, " ") + "\n")

	for _, opt := range doc.Options {
		fields := []string{opt.Code}
		if doc.Format == FormatColumn {
			fields = append(fields, fmt.Sprintf("%d", opt.MaxMark))
		}
		fields = append(fields, strings.Join(opt.Components, ", "))
		for _, mark := range opt.Grades {
			if mark <= 0 {
				fields = append(fields, "–")
				continue
			}
			fields = append(fields, fmt.Sprintf("%d", mark))
		}
		b.WriteString(strings.Join(fields, " ") + "\n")
	}
	return b.String()
}

func seasonName(s model.Season) string {
	switch s {
	case model.SeasonMJ:
		return "June"
	case model.SeasonON:
		return "November"
	default:
		return "March"
	}
}
