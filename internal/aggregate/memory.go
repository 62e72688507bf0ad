package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// ErrUnknownSubject is returned when a syllabus code has no stored data.
var ErrUnknownSubject = errors.New("unknown subject")

type thresholdKey struct {
	subjectID int64
	seriesID  int64
	tier      model.Tier
	grade     model.Grade
}

type seriesKey struct {
	year   int
	season model.Season
}

// MemoryRepository is an in-memory Repository. It is safe for concurrent use.
type MemoryRepository struct {
	mu       sync.RWMutex
	subjects map[string]int64
	series   map[seriesKey]int64
	rows     map[thresholdKey]model.ThresholdUpsert
	nextID   int64
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		subjects: map[string]int64{},
		series:   map[seriesKey]int64{},
		rows:     map[thresholdKey]model.ThresholdUpsert{},
	}
}

// FromParsed builds a repository from parser output, registering every subject and series it names.
func FromParsed(ctx context.Context, thresholds []model.ParsedThreshold) (*MemoryRepository, error) {
	repo := NewMemoryRepository()
	var rows []model.ThresholdUpsert
	for _, t := range thresholds {
		subjectID := repo.AddSubject(t.SyllabusCode)
		seriesID := repo.AddSeries(t.Year, t.Season)
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
	}
	if err := repo.UpsertThresholds(ctx, rows); err != nil {
		return nil, err
	}
	return repo, nil
}

// AddSubject registers a syllabus code and returns its id. Repeated codes keep their id.
func (m *MemoryRepository) AddSubject(code string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.subjects[code]; ok {
		return id
	}
	m.nextID++
	m.subjects[code] = m.nextID
	return m.nextID
}

// AddSeries registers a series and returns its id. Repeated series keep their id.
func (m *MemoryRepository) AddSeries(year int, season model.Season) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := seriesKey{year: year, season: season}
	if id, ok := m.series[key]; ok {
		return id
	}
	m.nextID++
	m.series[key] = m.nextID
	return m.nextID
}

// SubjectID resolves a syllabus code.
func (m *MemoryRepository) SubjectID(_ context.Context, code string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.subjects[code]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSubject, code)
	}
	return id, nil
}

// RecentSeries implements Repository.
func (m *MemoryRepository) RecentSeries(_ context.Context, season model.Season, n int) ([]model.Series, error) {
	if n <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Series
	for key, id := range m.series {
		if key.season == season {
			out = append(out, model.Series{ID: id, Year: key.year, Season: key.season})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// Thresholds implements Repository.
func (m *MemoryRepository) Thresholds(_ context.Context, subjectID int64, tier model.Tier, seriesIDs []int64) ([]model.ThresholdRow, error) {
	if len(seriesIDs) == 0 {
		return nil, nil
	}
	wanted := make(map[int64]struct{}, len(seriesIDs))
	for _, id := range seriesIDs {
		wanted[id] = struct{}{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.ThresholdRow
	for key, row := range m.rows {
		if key.subjectID != subjectID || key.tier != tier {
			continue
		}
		if _, ok := wanted[key.seriesID]; !ok {
			continue
		}
		out = append(out, model.ThresholdRow{Grade: row.Grade, MinMark: row.MinMark, MaxMark: row.MaxMark, SeriesID: row.SeriesID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SeriesID != out[j].SeriesID {
			return out[i].SeriesID < out[j].SeriesID
		}
		return out[i].Grade < out[j].Grade
	})
	return out, nil
}

// UpsertThresholds implements Repository.
func (m *MemoryRepository) UpsertThresholds(_ context.Context, rows []model.ThresholdUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		m.rows[thresholdKey{subjectID: r.SubjectID, seriesID: r.SeriesID, tier: r.Tier, grade: r.Grade}] = r
	}
	return nil
}
