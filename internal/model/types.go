// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Season identifies the sitting within a year.
type Season string

// Seasons.
const (
	SeasonFM Season = "FM"
	SeasonMJ Season = "MJ"
	SeasonON Season = "ON"
)

// Seasons returns every season in calendar order.
func Seasons() []Season {
	return []Season{SeasonFM, SeasonMJ, SeasonON}
}

// ParseSeason accepts FM, MJ or ON in any case.
func ParseSeason(s string) (Season, error) {
	switch Season(strings.ToUpper(strings.TrimSpace(s))) {
	case SeasonFM:
		return SeasonFM, nil
	case SeasonMJ:
		return SeasonMJ, nil
	case SeasonON:
		return SeasonON, nil
	}
	return "", fmt.Errorf("unknown season %q (expected FM, MJ or ON)", s)
}

// Tier is the difficulty variant of a syllabus. TierNone marks untiered subjects.
type Tier string

// Tiers.
const (
	TierNone     Tier = ""
	TierCore     Tier = "Core"
	TierExtended Tier = "Extended"
)

// ParseTier accepts core, extended, or an empty/"none" value for untiered subjects.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "null":
		return TierNone, nil
	case "core":
		return TierCore, nil
	case "extended":
		return TierExtended, nil
	}
	return TierNone, fmt.Errorf("unknown tier %q (expected Core or Extended)", s)
}

// Label returns a printable tier name.
func (t Tier) Label() string {
	if t == TierNone {
		return "no-tier"
	}
	return string(t)
}

// MarshalJSON encodes TierNone as null.
func (t Tier) MarshalJSON() ([]byte, error) {
	if t == TierNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts null or a tier name.
func (t *Tier) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TierNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Mark is one cell of an option row. Gap is set for a dash, which means no mark was published.
type Mark struct {
	Value int
	Gap   bool
}

// RawOption is an unselected option row extracted from one document.
type RawOption struct {
	Code    string
	MaxMark int
	Grades  []Mark
}

// MaxMarks holds the max marks read from prose in documents without a max-mark column.
type MaxMarks struct {
	Default  int
	Core     *int
	Extended *int
}

// ForTier returns the tier-specific value when present, otherwise the shared default.
func (m MaxMarks) ForTier(t Tier) (int, bool) {
	switch t {
	case TierCore:
		if m.Core != nil {
			return *m.Core, true
		}
		return 0, false
	case TierExtended:
		if m.Extended != nil {
			return *m.Extended, true
		}
		return 0, false
	}
	return m.Default, m.Default > 0
}

// Layout describes the overall-threshold table of one document.
type Layout struct {
	GradeCount      int
	EmbeddedMaxMark bool
	External        *MaxMarks
}

// GradeMark is the minimum mark for one grade.
type GradeMark struct {
	Grade   Grade `json:"grade"`
	MinMark int   `json:"min_mark"`
}

// ParsedThreshold is one resolved option for a syllabus, series and tier.
type ParsedThreshold struct {
	SyllabusCode string      `json:"syllabus_code"`
	Season       Season      `json:"season"`
	Year         int         `json:"year"`
	Tier         Tier        `json:"tier"`
	OptionCode   string      `json:"option_code"`
	MaxMark      int         `json:"max_mark"`
	Grades       []GradeMark `json:"grades"`
}

// ParsedComponent is the max mark of one component (paper) of a syllabus.
type ParsedComponent struct {
	SyllabusCode  string `json:"syllabus_code"`
	Year          int    `json:"year"`
	ComponentCode string `json:"component_code"`
	PaperNumber   string `json:"paper_number"`
	MaxMark       int    `json:"max_mark"`
}

// Series is one exam sitting.
type Series struct {
	ID     int64  `json:"id"`
	Year   int    `json:"year"`
	Season Season `json:"season"`
}

// ThresholdRow is one stored grade boundary.
type ThresholdRow struct {
	Grade    Grade
	MinMark  int
	MaxMark  int
	SeriesID int64
}

// ThresholdUpsert is a stored grade boundary keyed by (subject, series, tier, grade).
type ThresholdUpsert struct {
	SubjectID int64
	SeriesID  int64
	Tier      Tier
	Grade     Grade
	MinMark   int
	MaxMark   int
}

// YearPct is a grade boundary as a percentage for one year.
type YearPct struct {
	Year int     `json:"year"`
	Pct  float64 `json:"pct"`
}

// GradeThresholdSummary aggregates one grade over the selected series.
type GradeThresholdSummary struct {
	Grade       Grade     `json:"grade"`
	AveragedPct float64   `json:"averaged_pct"`
	MinPct      float64   `json:"min_pct"`
	MaxPct      float64   `json:"max_pct"`
	YearData    []YearPct `json:"year_data"`
}

// MarkNotEntered is the raw mark of a paper the student has not filled in yet.
const MarkNotEntered = -1

// PaperMarkEntry is a student's mark on one paper.
type PaperMarkEntry struct {
	PaperID          string  `json:"paper_id"`
	PaperNumber      string  `json:"paper_number"`
	PaperName        string  `json:"paper_name"`
	RawMark          int     `json:"raw_mark"`
	MaxRawMark       int     `json:"max_raw_mark"`
	WeightPercentage float64 `json:"weight_percentage"`
	IsUms            bool    `json:"is_ums"`
}

// Entered reports whether a mark was provided.
func (p PaperMarkEntry) Entered() bool {
	return p.RawMark >= 0
}

// SubjectEstimateInput is one subject of an estimate request.
type SubjectEstimateInput struct {
	SubjectID    string           `json:"subject_id"`
	SubjectCode  string           `json:"subject_code"`
	SubjectName  string           `json:"subject_name"`
	TierSelected Tier             `json:"tier_selected"`
	PaperMarks   []PaperMarkEntry `json:"paper_marks"`
}

// SubjectEstimateResult is the estimate for one subject.
type SubjectEstimateResult struct {
	SubjectID        string                  `json:"subject_id"`
	SubjectCode      string                  `json:"subject_code"`
	SubjectName      string                  `json:"subject_name"`
	TierSelected     Tier                    `json:"tier_selected"`
	WeightedTotalPct float64                 `json:"weighted_total_pct"`
	EstimatedGrade   *Grade                  `json:"estimated_grade"`
	Thresholds       []GradeThresholdSummary `json:"thresholds"`
	MissingPapers    bool                    `json:"missing_papers"`
}

// EstimateRequest is a batch of subject entries for one season.
type EstimateRequest struct {
	Entries []SubjectEstimateInput `json:"entries"`
	Season  Season                 `json:"season,omitempty"`
}

// EstimateResult is the response to an EstimateRequest.
type EstimateResult struct {
	Entries      []SubjectEstimateResult `json:"entries"`
	CalculatedAt time.Time               `json:"calculated_at"`
}

// ReverseRequest asks for the mark needed on one outstanding paper.
type ReverseRequest struct {
	TargetGradePct     float64 `json:"target_grade_pct"`
	CurrentWeightedPct float64 `json:"current_weighted_pct"`
	TargetPaperWeight  float64 `json:"target_paper_weight"`
	TargetPaperMaxMark int     `json:"target_paper_max_mark"`
}

// ReverseResult is the mark needed on the outstanding paper.
type ReverseResult struct {
	NeededRaw  int     `json:"needed_raw"`
	NeededPct  float64 `json:"needed_pct"`
	Achievable bool    `json:"achievable"`
}

// UmsConversionPoint maps a raw mark to a uniform mark.
type UmsConversionPoint struct {
	RawMark int `json:"raw_mark"`
	UmsMark int `json:"ums_mark"`
}

// PaperConfig is one paper of a subject in the catalogue.
type PaperConfig struct {
	PaperNumber      string  `json:"paper_number"`
	Name             string  `json:"name"`
	Tier             Tier    `json:"tier"`
	IsUms            bool    `json:"is_ums"`
	MaxRawMark       int     `json:"max_raw_mark"`
	MaxUmsMark       *int    `json:"max_ums_mark"`
	WeightPercentage float64 `json:"weight_percentage"`
}

// SubjectConfig is one catalogue file.
type SubjectConfig struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	HasTiers bool          `json:"has_tiers"`
	Papers   []PaperConfig `json:"papers"`
}

// Subject is a stored syllabus.
type Subject struct {
	ID           int64   `json:"id"`
	SyllabusCode string  `json:"syllabus_code"`
	Name         string  `json:"name"`
	HasTiers     bool    `json:"has_tiers"`
	Papers       []Paper `json:"papers,omitempty"`
}

// Paper is a stored paper of a subject.
type Paper struct {
	ID               int64   `json:"id"`
	SubjectID        int64   `json:"subject_id"`
	PaperNumber      string  `json:"paper_number"`
	Name             string  `json:"name"`
	Tier             Tier    `json:"tier"`
	IsUms            bool    `json:"is_ums"`
	MaxRawMark       int     `json:"max_raw_mark"`
	MaxUmsMark       *int    `json:"max_ums_mark"`
	WeightPercentage float64 `json:"weight_percentage"`
}

// ThresholdQuery selects the summaries to aggregate and render.
type ThresholdQuery struct {
	SubjectCode string
	Tier        Tier
	Season      Season
	Window      int
}
