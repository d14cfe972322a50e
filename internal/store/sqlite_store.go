package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/msto63/koi/foundation/koi/command"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (or creates) the archive at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, storageError(err, "store.NewSQLiteStore", "failed to create directory")
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, storageError(err, "store.NewSQLiteStore", "failed to open database")
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, storageError(err, "store.NewSQLiteStore", "failed to initialize schema")
	}

	return s, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		threshold INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		command_count INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		errors TEXT
	);

	CREATE TABLE IF NOT EXISTS commands (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);

	-- kind: 1 basic, 2 composite
	CREATE TABLE IF NOT EXISTS params (
		run_id TEXT NOT NULL,
		command_seq INTEGER NOT NULL,
		seq INTEGER NOT NULL,
		kind INTEGER NOT NULL,
		name TEXT,
		value TEXT NOT NULL,
		PRIMARY KEY (run_id, command_seq, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores the run and its commands in one transaction
func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	errorsJSON, err := json.Marshal(run.Errors)
	if err != nil {
		return "", storageError(err, "store.SaveRun", "failed to encode errors")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storageError(err, "store.SaveRun", "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, threshold, created_at, command_count, error_count, errors)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Source, run.Threshold, run.CreatedAt.UTC(), len(run.Commands), len(run.Errors), string(errorsJSON)); err != nil {
		return "", storageError(err, "store.SaveRun", "failed to insert run")
	}

	cmdStmt, err := tx.PrepareContext(ctx, `INSERT INTO commands (run_id, seq, name) VALUES (?, ?, ?)`)
	if err != nil {
		return "", storageError(err, "store.SaveRun", "failed to prepare statement")
	}
	defer cmdStmt.Close()

	paramStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO params (run_id, command_seq, seq, kind, name, value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", storageError(err, "store.SaveRun", "failed to prepare statement")
	}
	defer paramStmt.Close()

	for i, cmd := range run.Commands {
		if _, err := cmdStmt.ExecContext(ctx, run.ID, i, cmd.Name()); err != nil {
			return "", storageError(err, "store.SaveRun", "failed to insert command")
		}
		for j, p := range cmd.Params() {
			var name sql.NullString
			value := p.Raw()
			if n, v, ok := p.AsComposite(); ok {
				name = sql.NullString{String: n, Valid: true}
				value = v
			}
			if _, err := paramStmt.ExecContext(ctx, run.ID, i, j, int(p.Kind()), name, value); err != nil {
				return "", storageError(err, "store.SaveRun", "failed to insert parameter")
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", storageError(err, "store.SaveRun", "failed to commit transaction")
	}

	return run.ID, nil
}

// GetRun loads a run with its commands rebuilt in order
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var run Run
	var errorsJSON sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, threshold, created_at, errors FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Source, &run.Threshold, &run.CreatedAt, &errorsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("store.GetRun", id)
	}
	if err != nil {
		return nil, storageError(err, "store.GetRun", "failed to query run")
	}
	if errorsJSON.Valid {
		if err := json.Unmarshal([]byte(errorsJSON.String), &run.Errors); err != nil {
			return nil, storageError(err, "store.GetRun", "failed to decode errors")
		}
	}

	names, err := s.commandNames(ctx, id)
	if err != nil {
		return nil, err
	}
	params, err := s.commandParams(ctx, id, len(names))
	if err != nil {
		return nil, err
	}

	run.Commands = make([]*command.Command, len(names))
	for i, name := range names {
		run.Commands[i] = command.New(name, params[i]...)
	}

	return &run, nil
}

func (s *SQLiteStore) commandNames(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM commands WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, storageError(err, "store.GetRun", "failed to query commands")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageError(err, "store.GetRun", "failed to scan command")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) commandParams(ctx context.Context, id string, n int) ([][]command.Parameter, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT command_seq, kind, name, value FROM params
		WHERE run_id = ? ORDER BY command_seq, seq
	`, id)
	if err != nil {
		return nil, storageError(err, "store.GetRun", "failed to query parameters")
	}
	defer rows.Close()

	params := make([][]command.Parameter, n)
	for rows.Next() {
		var (
			seq   int
			kind  int
			name  sql.NullString
			value string
		)
		if err := rows.Scan(&seq, &kind, &name, &value); err != nil {
			return nil, storageError(err, "store.GetRun", "failed to scan parameter")
		}
		if seq < 0 || seq >= n {
			continue
		}
		if command.Kind(kind) == command.KindComposite {
			params[seq] = append(params[seq], command.Composite(name.String, value))
		} else {
			params[seq] = append(params[seq], command.Basic(value))
		}
	}
	return params, rows.Err()
}

// ListRuns returns run summaries, newest first
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, source, threshold, created_at, command_count, error_count FROM runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(err, "store.ListRuns", "failed to query runs")
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Source, &r.Threshold, &r.CreatedAt, &r.Commands, &r.Errors); err != nil {
			return nil, storageError(err, "store.ListRuns", "failed to scan run")
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// DeleteRun removes a run with its commands and parameters
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageError(err, "store.DeleteRun", "failed to begin transaction")
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return storageError(err, "store.DeleteRun", "failed to delete run")
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("store.DeleteRun", id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM params WHERE run_id = ?`, id); err != nil {
		return storageError(err, "store.DeleteRun", "failed to delete parameters")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM commands WHERE run_id = ?`, id); err != nil {
		return storageError(err, "store.DeleteRun", "failed to delete commands")
	}

	if err := tx.Commit(); err != nil {
		return storageError(err, "store.DeleteRun", "failed to commit transaction")
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
