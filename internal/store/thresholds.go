package store

import (
	"context"
	"fmt"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// UpsertSeries inserts a series if missing and returns its id.
func (s *Store) UpsertSeries(ctx context.Context, year int, season model.Season) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO series (year, season) VALUES (?, ?)
		 ON CONFLICT (year, season) DO UPDATE SET season = excluded.season
		 RETURNING id`),
		year, string(season),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert series %d %s: %w", year, season, err)
	}
	return id, nil
}

// RecentSeries returns at most n series of a season, most recent year first.
func (s *Store) RecentSeries(ctx context.Context, season model.Season, n int) ([]model.Series, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, year, season FROM series
		 WHERE season = ?
		 ORDER BY year DESC
		 LIMIT ?`), string(season), n)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []model.Series
	for rows.Next() {
		var sr model.Series
		var seasonText string
		if err := rows.Scan(&sr.ID, &sr.Year, &seasonText); err != nil {
			return nil, err
		}
		sr.Season = model.Season(seasonText)
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Thresholds returns the boundaries of one subject and tier within the given series.
func (s *Store) Thresholds(ctx context.Context, subjectID int64, tier model.Tier, seriesIDs []int64) ([]model.ThresholdRow, error) {
	if len(seriesIDs) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(seriesIDs)+2)
	args = append(args, subjectID, string(tier))
	for _, id := range seriesIDs {
		args = append(args, id)
	}
	query := fmt.Sprintf(`SELECT grade, min_mark, max_mark, series_id
		FROM subject_thresholds
		WHERE subject_id = ? AND tier = ? AND series_id IN (%s)
		ORDER BY series_id ASC`, placeholders(len(seriesIDs)))
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var out []model.ThresholdRow
	for rows.Next() {
		var r model.ThresholdRow
		var grade string
		if err := rows.Scan(&grade, &r.MinMark, &r.MaxMark, &r.SeriesID); err != nil {
			return nil, err
		}
		g, err := model.ParseGrade(grade)
		if err != nil {
			return nil, err
		}
		r.Grade = g
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertThresholds writes rows keyed by (subject, series, tier, grade) in one transaction.
func (s *Store) UpsertThresholds(ctx context.Context, rows []model.ThresholdUpsert) (err error) {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO subject_thresholds (subject_id, series_id, tier, grade, min_mark, max_mark)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (subject_id, series_id, tier, grade)
		 DO UPDATE SET min_mark = excluded.min_mark, max_mark = excluded.max_mark`))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, r.SubjectID, r.SeriesID, string(r.Tier), r.Grade.String(), r.MinMark, r.MaxMark); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SeasonHistory returns every stored series of a season for a subject and tier, oldest first,
// together with its rows.
func (s *Store) SeasonHistory(ctx context.Context, subjectID int64, tier model.Tier, season model.Season) ([]model.Series, []model.ThresholdRow, error) {
	series, err := s.RecentSeries(ctx, season, maxHistory)
	if err != nil {
		return nil, nil, err
	}
	for i, j := 0, len(series)-1; i < j; i, j = i+1, j-1 {
		series[i], series[j] = series[j], series[i]
	}
	ids := make([]int64, len(series))
	for i, sr := range series {
		ids[i] = sr.ID
	}
	rows, err := s.Thresholds(ctx, subjectID, tier, ids)
	if err != nil {
		return nil, nil, err
	}
	return series, rows, nil
}

const maxHistory = 100
