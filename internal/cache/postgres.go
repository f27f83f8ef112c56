package cache

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the cache store uses. pgxmock's
// PgxPoolIface satisfies it, so tests run without a server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool      Pool
	retention time.Duration
	now       func() time.Time
}

// NewPostgres connects a Postgres cache store.
func NewPostgres(ctx context.Context, connString string) (*Postgres, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "cache: postgres connect")
	}
	return &Postgres{pool: pool, retention: DefaultRetention, now: time.Now}, nil
}

// NewPostgresFromPool wraps an existing pool (or a pgxmock pool in tests).
func NewPostgresFromPool(pool Pool) *Postgres {
	return &Postgres{pool: pool, retention: DefaultRetention, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (p *Postgres) WithNow(now func() time.Time) *Postgres {
	p.now = now
	return p
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	value      BYTEA NOT NULL,
	stored_at  TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
`

// Migrate creates the cache schema.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "cache: postgres migrate")
}

func (p *Postgres) Get(ctx context.Context, key string) (*Entry, error) {
	var e Entry
	err := p.pool.QueryRow(ctx,
		`SELECT key, value, stored_at, expires_at FROM cache_entries WHERE key = $1`,
		key,
	).Scan(&e.Key, &e.Value, &e.StoredAt, &e.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "cache: postgres get %s", key)
	}
	return &e, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := p.now().UTC()
	_, err := p.pool.Exec(ctx,
		`INSERT INTO cache_entries (key, value, stored_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, stored_at = EXCLUDED.stored_at, expires_at = EXCLUDED.expires_at`,
		key, value, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "cache: postgres set %s", key)
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return eris.Wrapf(err, "cache: postgres delete %s", key)
}

func (p *Postgres) DeleteExpired(ctx context.Context) (int, error) {
	cutoff := p.now().UTC().Add(-p.retention)
	tag, err := p.pool.Exec(ctx, `DELETE FROM cache_entries WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, eris.Wrap(err, "cache: postgres delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
