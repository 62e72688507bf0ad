package parser

import (
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/tier"
)

// Document is the extracted text of one threshold document.
type Document struct {
	Path         string
	SyllabusCode string
	Season       model.Season
	Year         int
	Text         string
}

// Result is everything parsed from one document.
type Result struct {
	Layout     model.Layout
	Thresholds []model.ParsedThreshold
	Components []model.ParsedComponent
	// RejectedLines counts option-looking rows that failed token validation.
	RejectedLines int
	// Skip is set when the document produced no thresholds.
	Skip *SkipError
	// Violations holds thresholds that failed Validate. They are not in Thresholds.
	Violations []error
}

// Parse runs detection, extraction and tier resolution on one document.
// Components are only read from FM documents; the other seasons repeat the same table.
func Parse(doc Document, cfg tier.Config) Result {
	var res Result
	if doc.Season == model.SeasonFM {
		for _, c := range ExtractComponents(doc.Text) {
			res.Components = append(res.Components, model.ParsedComponent{
				SyllabusCode:  doc.SyllabusCode,
				Year:          doc.Year,
				ComponentCode: c.Code,
				PaperNumber:   PaperNumber(c.Code),
				MaxMark:       c.MaxMark,
			})
		}
	}

	layout, section, err := Detect(doc.Text)
	res.Layout = layout
	if err != nil {
		res.Skip = &SkipError{Path: doc.Path, Reason: err}
		return res
	}

	options, rejected := ExtractOptions(section, layout)
	res.RejectedLines = rejected
	if len(options) == 0 {
		res.Skip = &SkipError{Path: doc.Path, Reason: ErrNoOptionRows}
		return res
	}

	target := tier.Target{SyllabusCode: doc.SyllabusCode, Season: doc.Season, Year: doc.Year}
	resolved := tier.Resolve(options, target, layout.External, cfg)
	if len(resolved) == 0 {
		res.Skip = &SkipError{Path: doc.Path, Reason: ErrNoTierMatch}
		return res
	}
	for _, t := range resolved {
		if err := Validate(t); err != nil {
			res.Violations = append(res.Violations, err)
			continue
		}
		res.Thresholds = append(res.Thresholds, t)
	}
	return res
}
