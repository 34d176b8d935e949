package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/unaq/indicator-report/internal/db"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var captureUpsert = db.UpsertConfig{
	Table:        "captures",
	Columns:      []string{"key", "value", "updated_at"},
	ConflictKeys: []string{"key"},
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS captures (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM captures WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, eris.Wrap(err, "postgres: get capture")
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	return s.SetMany(ctx, map[string]string{key: value})
}

func (s *PostgresStore) SetMany(ctx context.Context, entries map[string]string) error {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(entries))
	for k, v := range entries {
		rows = append(rows, []any{k, v, now})
	}
	if _, err := db.Upsert(ctx, s.pool, captureUpsert, rows); err != nil {
		return eris.Wrap(err, "postgres: set captures")
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM captures WHERE key = ANY($1)`, keys); err != nil {
		return eris.Wrap(err, "postgres: delete captures")
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT key, value FROM captures WHERE starts_with(key, $1) ORDER BY key`,
		prefix,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list captures")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan capture")
		}
		out[k] = v
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate captures")
}
