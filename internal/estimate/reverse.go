package estimate

import (
	"errors"
	"math"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// ErrInvalidReverse is returned for a request without a positive paper weight and max mark.
var ErrInvalidReverse = errors.New("target paper weight and max mark must be > 0")

// Reverse returns the raw mark needed on the outstanding paper to reach the target percentage.
func Reverse(req model.ReverseRequest) (model.ReverseResult, error) {
	if req.TargetPaperWeight <= 0 || req.TargetPaperMaxMark <= 0 {
		return model.ReverseResult{}, ErrInvalidReverse
	}
	fraction := (req.TargetGradePct - req.CurrentWeightedPct) / req.TargetPaperWeight
	raw := int(math.Ceil(fraction * float64(req.TargetPaperMaxMark)))
	return model.ReverseResult{
		NeededRaw:  max(0, raw),
		NeededPct:  math.Max(0, aggregate.Round1(fraction*100)),
		Achievable: raw <= req.TargetPaperMaxMark && fraction <= 1,
	}, nil
}

// NextBoundary returns the closest grade above current and the percentage still needed to reach it.
// ok is false when current is already the best grade or no better boundary is known.
func NextBoundary(summaries []model.GradeThresholdSummary, current *model.Grade, total float64) (model.GradeThresholdSummary, float64, bool) {
	var best model.GradeThresholdSummary
	found := false
	for _, s := range summaries {
		if current != nil && !s.Grade.Better(*current) {
			continue
		}
		if s.AveragedPct <= total {
			continue
		}
		if !found || s.Grade > best.Grade {
			best = s
			found = true
		}
	}
	if !found {
		return model.GradeThresholdSummary{}, 0, false
	}
	return best, aggregate.Round1(best.AveragedPct - total), true
}
