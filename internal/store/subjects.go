package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

// UpsertSubject inserts a subject or updates its name and tier flag, returning its id.
func (s *Store) UpsertSubject(ctx context.Context, code, name string, hasTiers bool) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO subjects (syllabus_code, name, has_tiers) VALUES (?, ?, ?)
		 ON CONFLICT (syllabus_code) DO UPDATE SET name = excluded.name, has_tiers = excluded.has_tiers
		 RETURNING id`),
		code, name, hasTiers,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert subject %s: %w", code, err)
	}
	return id, nil
}

// ReplacePapers swaps the papers of a subject for the given set.
func (s *Store) ReplacePapers(ctx context.Context, subjectID int64, papers []model.PaperConfig) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			rollback(tx)
		}
	}()

	if _, err = tx.ExecContext(ctx, s.rebind(`DELETE FROM papers WHERE subject_id = ?`), subjectID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, s.rebind(
		`INSERT INTO papers (subject_id, paper_number, name, tier, is_ums, max_raw_mark, max_ums_mark, weight_percentage)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, p := range papers {
		var ums sql.NullInt64
		if p.MaxUmsMark != nil {
			ums = sql.NullInt64{Int64: int64(*p.MaxUmsMark), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx, subjectID, p.PaperNumber, p.Name, string(p.Tier), p.IsUms, p.MaxRawMark, ums, p.WeightPercentage); err != nil {
			return fmt.Errorf("insert paper %s: %w", p.PaperNumber, err)
		}
	}
	return tx.Commit()
}

// SubjectID resolves a syllabus code to its id.
func (s *Store) SubjectID(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT id FROM subjects WHERE syllabus_code = ?`), code).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("subject %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SubjectByCode returns a subject with its papers ordered by paper number.
func (s *Store) SubjectByCode(ctx context.Context, code string) (model.Subject, error) {
	var subj model.Subject
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, syllabus_code, name, has_tiers FROM subjects WHERE syllabus_code = ?`), code,
	).Scan(&subj.ID, &subj.SyllabusCode, &subj.Name, &subj.HasTiers)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subject{}, fmt.Errorf("subject %s: %w", code, ErrNotFound)
	}
	if err != nil {
		return model.Subject{}, err
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, subject_id, paper_number, name, tier, is_ums, max_raw_mark, max_ums_mark, weight_percentage
		 FROM papers WHERE subject_id = ?
		 ORDER BY paper_number ASC, tier ASC`), subj.ID)
	if err != nil {
		return model.Subject{}, err
	}
	defer closeRows(rows)
	for rows.Next() {
		var p model.Paper
		var tier string
		var ums sql.NullInt64
		if err := rows.Scan(&p.ID, &p.SubjectID, &p.PaperNumber, &p.Name, &tier, &p.IsUms, &p.MaxRawMark, &ums, &p.WeightPercentage); err != nil {
			return model.Subject{}, err
		}
		p.Tier = model.Tier(tier)
		if ums.Valid {
			v := int(ums.Int64)
			p.MaxUmsMark = &v
		}
		subj.Papers = append(subj.Papers, p)
	}
	if err := rows.Err(); err != nil {
		return model.Subject{}, err
	}
	return subj, nil
}

// ListSubjects returns every subject ordered by syllabus code, without papers.
func (s *Store) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, syllabus_code, name, has_tiers FROM subjects ORDER BY syllabus_code ASC`)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	var out []model.Subject
	for rows.Next() {
		var subj model.Subject
		if err := rows.Scan(&subj.ID, &subj.SyllabusCode, &subj.Name, &subj.HasTiers); err != nil {
			return nil, err
		}
		out = append(out, subj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdatePaperMaxMark sets the max raw mark of every paper of a subject with the given number.
// It returns the number of papers updated.
func (s *Store) UpdatePaperMaxMark(ctx context.Context, subjectID int64, paperNumber string, maxMark int) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE papers SET max_raw_mark = ? WHERE subject_id = ? AND paper_number = ?`),
		maxMark, subjectID, paperNumber)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
