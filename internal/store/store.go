// Package store handles SQL persistence of subjects, series and grade thresholds.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver.
	_ "modernc.org/sqlite"             // SQLite driver.
)

// Driver selects the database backend.
type Driver string

// Drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// ParseDriver accepts sqlite or postgres (pgx is an alias).
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("unsupported driver %q (expected sqlite or postgres)", s)
}

// Store wraps SQL access for threshold data.
type Store struct {
	db     *sql.DB
	driver Driver
}

// Open opens or creates the SQLite database at path and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return OpenDriver(context.Background(), DriverSQLite, path)
}

// OpenDriver opens a database for the given driver and applies migrations.
func OpenDriver(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var name string
	switch driver {
	case DriverSQLite:
		name = "sqlite"
	case DriverPostgres:
		name = "pgx"
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is empty", driver)
	}
	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db, driver: driver}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver returns the backend in use.
func (s *Store) Driver() Driver {
	return s.driver
}

func (s *Store) migrate(ctx context.Context) error {
	id := "INTEGER PRIMARY KEY"
	float := "REAL"
	if s.driver == DriverPostgres {
		id = "BIGSERIAL PRIMARY KEY"
		float = "DOUBLE PRECISION"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS subjects (
			id ` + id + `,
			syllabus_code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			has_tiers BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE TABLE IF NOT EXISTS papers (
			id ` + id + `,
			subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
			paper_number TEXT NOT NULL,
			name TEXT NOT NULL,
			tier TEXT NOT NULL DEFAULT '',
			is_ums BOOLEAN NOT NULL DEFAULT FALSE,
			max_raw_mark INTEGER NOT NULL,
			max_ums_mark INTEGER,
			weight_percentage ` + float + ` NOT NULL,
			UNIQUE (subject_id, paper_number, tier)
		);`,
		`CREATE TABLE IF NOT EXISTS series (
			id ` + id + `,
			year INTEGER NOT NULL,
			season TEXT NOT NULL,
			UNIQUE (year, season)
		);`,
		`CREATE TABLE IF NOT EXISTS subject_thresholds (
			subject_id BIGINT NOT NULL REFERENCES subjects(id) ON DELETE CASCADE,
			series_id BIGINT NOT NULL REFERENCES series(id) ON DELETE CASCADE,
			tier TEXT NOT NULL DEFAULT '',
			grade TEXT NOT NULL,
			min_mark INTEGER NOT NULL,
			max_mark INTEGER NOT NULL,
			PRIMARY KEY (subject_id, series_id, tier, grade)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_series_season_year ON series(season, year);`,
		`CREATE INDEX IF NOT EXISTS idx_papers_subject ON papers(subject_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func closeRows(rows *sql.Rows) {
	if cerr := rows.Close(); cerr != nil {
		// Best-effort rows close.
		_ = cerr
	}
}

func rollback(tx *sql.Tx) {
	if rerr := tx.Rollback(); rerr != nil {
		// Best-effort rollback.
		_ = rerr
	}
}
