package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*Postgres, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Set(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p, mock := newMockPostgres(t)
	p.WithNow(func() time.Time { return now })

	mock.ExpectExec("INSERT INTO cache_entries").
		WithArgs("k", []byte("v"), now, now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, p.Set(context.Background(), "k", []byte("v"), time.Hour))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Get(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p, mock := newMockPostgres(t)

	rows := pgxmock.NewRows([]string{"key", "value", "stored_at", "expires_at"}).
		AddRow("k", []byte("v"), now, now.Add(time.Hour))
	mock.ExpectQuery("SELECT key, value, stored_at, expires_at FROM cache_entries").
		WithArgs("k").
		WillReturnRows(rows)

	entry, err := p.Get(context.Background(), "k")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, []byte("v"), entry.Value)
	assert.True(t, entry.Fresh(now.Add(30*time.Minute)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetAbsent(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectQuery("SELECT key, value, stored_at, expires_at FROM cache_entries").
		WithArgs("nope").
		WillReturnRows(pgxmock.NewRows([]string{"key", "value", "stored_at", "expires_at"}))

	entry, err := p.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p, mock := newMockPostgres(t)
	p.WithNow(func() time.Time { return now })

	mock.ExpectExec("DELETE FROM cache_entries WHERE expires_at").
		WithArgs(now.Add(-DefaultRetention)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := p.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
