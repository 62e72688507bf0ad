// Package tier selects the representative option of each tier from a document's option rows.
package tier

import (
	"strings"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Prefixes lists the option-code prefixes of each tier of a tiered syllabus.
type Prefixes struct {
	Core     []string
	Extended []string
}

// Config is the syllabus to option-code mapping used to pick options.
type Config struct {
	// Tiered maps a syllabus code to its tier prefixes.
	Tiered map[string]Prefixes
	// Preferred maps an untiered syllabus code to the option prefix to prefer.
	Preferred map[string]string
	// DefaultPrefix is preferred for untiered syllabuses missing from Preferred.
	DefaultPrefix string
	// PreferredSuffix marks the option with every compulsory component and no substitution.
	PreferredSuffix string
}

// Default returns the built-in configuration. Every call returns fresh maps.
func Default() Config {
	science := Prefixes{Core: []string{"F", "G"}, Extended: []string{"B", "C"}}
	return Config{
		Tiered: map[string]Prefixes{
			"0580": {Core: []string{"A"}, Extended: []string{"B"}},
			"0610": science,
			"0620": science,
			"0625": science,
			"0653": science,
		},
		Preferred: map[string]string{
			"0500": "B",
		},
		DefaultPrefix:   "A",
		PreferredSuffix: "Y",
	}
}

// Merge returns a copy of c with the given entries added or replaced.
func (c Config) Merge(tiered map[string]Prefixes, preferred map[string]string) Config {
	out := Config{
		Tiered:          make(map[string]Prefixes, len(c.Tiered)+len(tiered)),
		Preferred:       make(map[string]string, len(c.Preferred)+len(preferred)),
		DefaultPrefix:   c.DefaultPrefix,
		PreferredSuffix: c.PreferredSuffix,
	}
	for k, v := range c.Tiered {
		out.Tiered[k] = v
	}
	for k, v := range tiered {
		out.Tiered[k] = v
	}
	for k, v := range c.Preferred {
		out.Preferred[k] = v
	}
	for k, v := range preferred {
		out.Preferred[k] = v
	}
	return out
}

// IsTiered reports whether the syllabus has Core and Extended variants.
func (c Config) IsTiered(code string) bool {
	_, ok := c.Tiered[code]
	return ok
}

// Target identifies the document the options came from.
type Target struct {
	SyllabusCode string
	Season       model.Season
	Year         int
}

// Resolve picks the options to keep and converts them to thresholds.
// Tiered syllabuses yield up to one Core and one Extended threshold; a tier with no
// candidate is left out. Untiered syllabuses yield exactly one threshold when any option exists.
// A tier-specific max mark from the document prose overrides the option's own max mark.
func Resolve(options []model.RawOption, target Target, external *model.MaxMarks, cfg Config) []model.ParsedThreshold {
	if len(options) == 0 {
		return nil
	}

	if prefixes, ok := cfg.Tiered[target.SyllabusCode]; ok {
		var out []model.ParsedThreshold
		if opt, ok := cfg.pick(filterPrefix(options, prefixes.Core, true)); ok {
			out = append(out, toThreshold(opt, target, model.TierCore, resolveMaxMark(opt, model.TierCore, external)))
		}
		if opt, ok := cfg.pick(filterPrefix(options, prefixes.Extended, true)); ok {
			out = append(out, toThreshold(opt, target, model.TierExtended, resolveMaxMark(opt, model.TierExtended, external)))
		}
		return out
	}

	prefix := cfg.DefaultPrefix
	if p, ok := cfg.Preferred[target.SyllabusCode]; ok {
		prefix = p
	}
	preferred := []string{prefix}
	opt, ok := cfg.pick(filterPrefix(options, preferred, true))
	if !ok {
		opt, ok = cfg.pick(filterPrefix(options, preferred, false))
	}
	if !ok {
		opt = options[0]
	}
	return []model.ParsedThreshold{toThreshold(opt, target, model.TierNone, resolveMaxMark(opt, model.TierNone, external))}
}

// pick prefers an option ending in the preferred suffix, otherwise the first one.
func (c Config) pick(options []model.RawOption) (model.RawOption, bool) {
	if len(options) == 0 {
		return model.RawOption{}, false
	}
	if c.PreferredSuffix != "" {
		for _, opt := range options {
			if strings.HasSuffix(opt.Code, c.PreferredSuffix) {
				return opt, true
			}
		}
	}
	return options[0], true
}

func filterPrefix(options []model.RawOption, prefixes []string, keepMatching bool) []model.RawOption {
	var out []model.RawOption
	for _, opt := range options {
		if hasAnyPrefix(opt.Code, prefixes) == keepMatching {
			out = append(out, opt)
		}
	}
	return out
}

func hasAnyPrefix(code string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(code, p) {
			return true
		}
	}
	return false
}

func resolveMaxMark(opt model.RawOption, t model.Tier, external *model.MaxMarks) int {
	if external == nil {
		return opt.MaxMark
	}
	if v, ok := external.ForTier(t); ok {
		return v
	}
	return opt.MaxMark
}

func toThreshold(opt model.RawOption, target Target, t model.Tier, maxMark int) model.ParsedThreshold {
	grades := model.ThresholdGrades(len(opt.Grades))
	marks := make([]model.GradeMark, 0, len(grades))
	for i, g := range grades {
		cell := opt.Grades[i]
		if cell.Gap || cell.Value <= 0 {
			continue
		}
		marks = append(marks, model.GradeMark{Grade: g, MinMark: cell.Value})
	}
	return model.ParsedThreshold{
		SyllabusCode: target.SyllabusCode,
		Season:       target.Season,
		Year:         target.Year,
		Tier:         t,
		OptionCode:   opt.Code,
		MaxMark:      maxMark,
		Grades:       marks,
	}
}
