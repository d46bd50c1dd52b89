package state

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists runs and results in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates an unopened store.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens the database and runs migrations. Use ":memory:" for an
// in-memory store.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open state database: %w", err)
	}
	if path == ":memory:" {
		// Every pool connection gets its own empty in-memory database;
		// pin the pool to one connection so they all see the same schema.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping state database: %w", err)
	}

	s.db = db
	s.path = path
	return s.migrate()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) ready() error {
	if s.db == nil {
		return fmt.Errorf("state database not opened")
	}
	return nil
}

// CreateRun records a new running analysis.
func (s *SQLiteStore) CreateRun(models, languages []string) (*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	run := &Run{
		ID:        uuid.New().String(),
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
		Models:    models,
		Languages: languages,
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (id, status, started_at, models, languages) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.StartedAt, strings.Join(models, ","), strings.Join(languages, ","),
	)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	return run, nil
}

// CompleteRun finalizes a run's status and counters.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, errMsg string, filesTotal, filesSkipped int) error {
	if err := s.ready(); err != nil {
		return err
	}
	now := time.Now().UTC()
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, error = ?, files_total = ?, files_skipped = ? WHERE id = ?`,
		status, now, errMsg, filesTotal, filesSkipped, id,
	)
	if err != nil {
		return fmt.Errorf("complete run %s: %w", id, err)
	}
	return nil
}

// GetRun fetches one run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, models, languages, files_total, files_skipped, error
		 FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// LatestRun fetches the most recently started run, or nil when the store
// is empty.
func (s *SQLiteStore) LatestRun() (*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	row := s.db.QueryRow(
		`SELECT id, status, started_at, completed_at, models, languages, files_total, files_skipped, error
		 FROM runs ORDER BY started_at DESC LIMIT 1`)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListRuns returns up to limit runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT id, status, started_at, completed_at, models, languages, files_total, files_skipped, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var completed sql.NullTime
	var models, languages string
	err := row.Scan(&run.ID, &run.Status, &run.StartedAt, &completed,
		&models, &languages, &run.FilesTotal, &run.FilesSkipped, &run.Error)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	run.Models = splitList(models)
	run.Languages = splitList(languages)
	return &run, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
