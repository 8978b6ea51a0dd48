package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mithrel/classkit/pkg/api"
)

type sqliteStore struct{ db *sql.DB }

// openSQLite connects to a SQLite database using modernc.org/sqlite driver and ensures schema exists.
func openSQLite(ctx context.Context, dsn string) (*sqliteStore, error) {
	path := strings.TrimPrefix(dsn, "sqlite://")
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	dbh, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps per-connection pragmas in effect and serializes writers
	dbh.SetMaxOpenConns(1)
	// set WAL mode
	if _, err := dbh.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	if _, err := dbh.ExecContext(ctx, `PRAGMA busy_timeout=5000;`); err != nil {
		_ = dbh.Close()
		return nil, err
	}
	if err := migrate(ctx, dbh); err != nil {
		_ = dbh.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &sqliteStore{db: dbh}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS drafts (
  key TEXT PRIMARY KEY,
  data TEXT NOT NULL,
  hash TEXT NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS submissions (
  id TEXT PRIMARY KEY,
  report_id TEXT NOT NULL UNIQUE,
  student_id TEXT NOT NULL,
  student_name TEXT NOT NULL,
  submitted_at TIMESTAMP NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_submissions_submitted ON submissions(submitted_at DESC, id);
`)
	return err
}

func (s *sqliteStore) Close() error { return s.db.Close() }

func (s *sqliteStore) GetDraft(ctx context.Context, key string) (api.Draft, error) {
	var data string
	row := conn(ctx, s.db).QueryRowContext(ctx, `SELECT data FROM drafts WHERE key=?`, key)
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	d := api.Draft{}
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decode draft %q: %w", key, err)
	}
	return d, nil
}

func (s *sqliteStore) PutDraft(ctx context.Context, key string, d api.Draft) (bool, error) {
	if d == nil {
		d = api.Draft{}
	}
	data, err := json.Marshal(d)
	if err != nil {
		return false, err
	}
	res, err := conn(ctx, s.db).ExecContext(ctx, `
INSERT INTO drafts(key, data, hash, updated_at) VALUES(?,?,?,?)
ON CONFLICT(key) DO UPDATE SET data=excluded.data, hash=excluded.hash, updated_at=excluded.updated_at
WHERE drafts.hash <> excluded.hash`, key, string(data), d.Hash(), time.Now().UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqliteStore) DeleteDraft(ctx context.Context, key string) error {
	_, err := conn(ctx, s.db).ExecContext(ctx, `DELETE FROM drafts WHERE key=?`, key)
	return err
}

func (s *sqliteStore) Submit(ctx context.Context, sub api.Submission, clearKey string) error {
	payload, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	ctx = WithTx(ctx, tx)

	_, err = tx.ExecContext(ctx, `INSERT INTO submissions(id, report_id, student_id, student_name, submitted_at, payload) VALUES(?,?,?,?,?,?)`,
		sub.ID, sub.ReportID, sub.StudentInfo.ID, sub.StudentInfo.Name, sub.SubmittedAt.UTC(), string(payload))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrConflict
		}
		return err
	}
	if clearKey != "" {
		if err := s.DeleteDraft(ctx, clearKey); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) ListSubmissions(ctx context.Context, limit int) ([]api.Submission, error) {
	q := `SELECT payload FROM submissions ORDER BY submitted_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := conn(ctx, s.db).QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []api.Submission
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sub api.Submission
		if err := json.Unmarshal([]byte(payload), &sub); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
