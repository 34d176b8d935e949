package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS captures (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

const sqliteUpsert = `INSERT INTO captures (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM captures WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, eris.Wrap(err, "sqlite: get capture")
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, sqliteUpsert, key, value, time.Now().UTC())
	if err != nil {
		return eris.Wrap(err, "sqlite: set capture")
	}
	return nil
}

func (s *SQLiteStore) SetMany(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for k, v := range entries {
		if _, err := tx.ExecContext(ctx, sqliteUpsert, k, v, now); err != nil {
			return eris.Wrapf(err, "sqlite: set capture %s", k)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM captures WHERE key = ?`, k); err != nil {
			return eris.Wrapf(err, "sqlite: delete capture %s", k)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit tx")
}

func (s *SQLiteStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM captures WHERE substr(key, 1, length(?)) = ? ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list captures")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan capture")
		}
		out[k] = v
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate captures")
}
