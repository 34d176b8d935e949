package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS captures`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM captures WHERE key = \$1`).
		WithArgs("ind::x::a::v1").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("80"))

	v, ok, err := s.Get(context.Background(), "ind::x::a::v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "80", v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM captures WHERE key = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Get_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT value FROM captures`).
		WithArgs("k").
		WillReturnError(fmt.Errorf("connection reset"))

	_, _, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: get capture")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "captures" \("key", "value", "updated_at"\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \("key"\) DO UPDATE SET`).
		WithArgs("ind::x::a::v2", "0.85", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Set(context.Background(), "ind::x::a::v2", "0.85"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Set_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "captures"`).
		WithArgs("k", "v", pgxmock.AnyArg()).
		WillReturnError(fmt.Errorf("read only"))

	err := s.Set(context.Background(), "k", "v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: set captures")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM captures WHERE key = ANY\(\$1\)`).
		WithArgs([]string{"a", "b"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, s.Delete(context.Background(), "a", "b"))
	require.NoError(t, s.Delete(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT key, value FROM captures WHERE starts_with\(key, \$1\)`).
		WithArgs("ind::x::a::").
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).
			AddRow("ind::x::a::v1", "100").
			AddRow("ind::x::a::v2", "85"))

	got, err := s.List(context.Background(), "ind::x::a::")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ind::x::a::v1": "100", "ind::x::a::v2": "85"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	closed := false
	s := &PostgresStore{closeFn: func() { closed = true }}
	require.NoError(t, s.Close())
	assert.True(t, closed)
}
