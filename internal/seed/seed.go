// Package seed loads the subject catalogue and parser output into the store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// Store is the write side of the threshold store.
type Store interface {
	UpsertSubject(ctx context.Context, code, name string, hasTiers bool) (int64, error)
	ReplacePapers(ctx context.Context, subjectID int64, papers []model.PaperConfig) error
	UpsertSeries(ctx context.Context, year int, season model.Season) (int64, error)
	UpsertThresholds(ctx context.Context, rows []model.ThresholdUpsert) error
	UpdatePaperMaxMark(ctx context.Context, subjectID int64, paperNumber string, maxMark int) (int64, error)
}

// Report counts what a seeding step did.
type Report struct {
	Subjects   int
	Papers     int
	Thresholds int
	Skipped    int
	MaxMarks   int
}

// Seeder writes catalogue and threshold data. Every write is an upsert, so runs are repeatable.
type Seeder struct {
	store  Store
	logger *slog.Logger
}

// New returns a Seeder. A nil logger uses slog.Default().
func New(store Store, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{store: store, logger: logger}
}

// Run seeds subjects, then thresholds, then paper max marks.
func (s *Seeder) Run(ctx context.Context, subjects []model.SubjectConfig, thresholds []model.ParsedThreshold, components []model.ParsedComponent) (Report, error) {
	ids, report, err := s.Subjects(ctx, subjects)
	if err != nil {
		return report, err
	}
	seeded, skipped, err := s.Thresholds(ctx, ids, thresholds)
	report.Thresholds, report.Skipped = seeded, skipped
	if err != nil {
		return report, err
	}
	report.MaxMarks, err = s.PaperMaxMarks(ctx, ids, components)
	return report, err
}

// Subjects upserts each subject and replaces its papers. A failing subject is logged and left out
// of the returned code to id map; context cancellation aborts.
func (s *Seeder) Subjects(ctx context.Context, subjects []model.SubjectConfig) (map[string]int64, Report, error) {
	ids := make(map[string]int64, len(subjects))
	var report Report
	for _, cfg := range subjects {
		if err := ctx.Err(); err != nil {
			return ids, report, err
		}
		id, err := s.store.UpsertSubject(ctx, cfg.Code, cfg.Name, cfg.HasTiers)
		if err != nil {
			s.logger.Error("seed.subject", "code", cfg.Code, "err", err)
			continue
		}
		ids[cfg.Code] = id
		report.Subjects++
		if err := s.store.ReplacePapers(ctx, id, cfg.Papers); err != nil {
			s.logger.Error("seed.papers", "code", cfg.Code, "err", err)
			continue
		}
		report.Papers += len(cfg.Papers)
		s.logger.Info("seed.subject", "code", cfg.Code, "name", cfg.Name, "papers", len(cfg.Papers))
	}
	return ids, report, nil
}

// Thresholds upserts one row per grade of each parsed threshold. Thresholds of subjects
// missing from ids are counted as skipped.
func (s *Seeder) Thresholds(ctx context.Context, ids map[string]int64, thresholds []model.ParsedThreshold) (seeded, skipped int, err error) {
	type seriesKey struct {
		year   int
		season model.Season
	}
	series := map[seriesKey]int64{}
	for _, t := range thresholds {
		key := seriesKey{year: t.Year, season: t.Season}
		if _, ok := series[key]; ok {
			continue
		}
		id, err := s.store.UpsertSeries(ctx, t.Year, t.Season)
		if err != nil {
			return 0, 0, fmt.Errorf("series %d %s: %w", t.Year, t.Season, err)
		}
		series[key] = id
	}

	for _, t := range thresholds {
		subjectID, ok := ids[t.SyllabusCode]
		if !ok {
			skipped++
			continue
		}
		seriesID := series[seriesKey{year: t.Year, season: t.Season}]
		rows := make([]model.ThresholdUpsert, 0, len(t.Grades))
		for _, g := range t.Grades {
			rows = append(rows, model.ThresholdUpsert{
				SubjectID: subjectID,
				SeriesID:  seriesID,
				Tier:      t.Tier,
				Grade:     g.Grade,
				MinMark:   g.MinMark,
				MaxMark:   t.MaxMark,
			})
		}
		if err := s.store.UpsertThresholds(ctx, rows); err != nil {
			return seeded, skipped, fmt.Errorf("%s %s %d %s: %w", t.SyllabusCode, t.Season, t.Year, t.Tier.Label(), err)
		}
		seeded++
	}
	s.logger.Info("seed.thresholds", "seeded", seeded, "skipped", skipped, "series", len(series))
	if skipped > 0 {
		s.logger.Warn("seed.thresholds", "skipped", skipped, "reason", "subject not in store")
	}
	return seeded, skipped, nil
}

// PaperMaxMarks sets each paper's max raw mark from the latest year's component table.
// Paper "0" is coursework and never updated.
func (s *Seeder) PaperMaxMarks(ctx context.Context, ids map[string]int64, components []model.ParsedComponent) (int, error) {
	type paperKey struct {
		code  string
		paper string
	}
	type latest struct {
		year    int
		maxMark int
	}
	byPaper := map[paperKey]latest{}
	for _, c := range components {
		key := paperKey{code: c.SyllabusCode, paper: c.PaperNumber}
		if cur, ok := byPaper[key]; !ok || c.Year > cur.year {
			byPaper[key] = latest{year: c.Year, maxMark: c.MaxMark}
		}
	}
	keys := make([]paperKey, 0, len(byPaper))
	for k := range byPaper {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].code != keys[j].code {
			return keys[i].code < keys[j].code
		}
		return keys[i].paper < keys[j].paper
	})

	updated := 0
	for _, key := range keys {
		subjectID, ok := ids[key.code]
		if !ok || key.paper == "0" {
			continue
		}
		n, err := s.store.UpdatePaperMaxMark(ctx, subjectID, key.paper, byPaper[key].maxMark)
		if err != nil {
			return updated, fmt.Errorf("paper %s/%s: %w", key.code, key.paper, err)
		}
		if n > 0 {
			updated++
		}
	}
	s.logger.Info("seed.max_marks", "updated", updated)
	return updated, nil
}
