package stats

import (
	"context"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/store"
)

// Report contains precomputed data for threshold rendering.
type Report struct {
	Subject model.Subject
	Query   model.ThresholdQuery
	// Summaries averages the trailing window of series.
	Summaries []model.GradeThresholdSummary
	// History covers every stored series of the season.
	History []model.GradeThresholdSummary
}

// BuildReport loads a subject and prepares its windowed summaries and full history.
func BuildReport(ctx context.Context, st *store.Store, q model.ThresholdQuery) (Report, error) {
	subject, err := st.SubjectByCode(ctx, q.SubjectCode)
	if err != nil {
		return Report{}, err
	}
	if q.Season == "" {
		q.Season = model.SeasonFM
	}
	agg := aggregate.New(st, q.Window)
	q.Window = agg.Window()

	summaries, err := agg.Averages(ctx, subject.ID, q.Tier, q.Season)
	if err != nil {
		return Report{}, err
	}
	series, rows, err := st.SeasonHistory(ctx, subject.ID, q.Tier, q.Season)
	if err != nil {
		return Report{}, err
	}
	years := make(map[int64]int, len(series))
	for _, s := range series {
		years[s.ID] = s.Year
	}

	return Report{
		Subject:   subject,
		Query:     q,
		Summaries: summaries,
		History:   aggregate.Summarize(rows, years),
	}, nil
}
