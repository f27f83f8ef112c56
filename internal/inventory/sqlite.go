package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/partsight/partsight-cli/internal/model"
)

// SQLite backs Store and UsageStore with a local database so the CLI runs
// end to end without an external inventory service.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens the inventory database at dsn.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "inventory: sqlite exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS components (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL,
	manufacturer TEXT NOT NULL DEFAULT '',
	condition    TEXT NOT NULL DEFAULT 'unknown',
	quantity     INTEGER NOT NULL DEFAULT 0,
	allocated    INTEGER NOT NULL DEFAULT 0,
	unit_price   REAL NOT NULL DEFAULT 0,
	currency     TEXT NOT NULL DEFAULT 'USD',
	specs        TEXT,
	related_ids  TEXT,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_metrics (
	component_id  TEXT PRIMARY KEY REFERENCES components(id),
	total_used    INTEGER NOT NULL DEFAULT 0,
	project_count INTEGER NOT NULL DEFAULT 0,
	last_used     DATETIME,
	frequency     TEXT NOT NULL DEFAULT 'low',
	success_rate  REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_components_category ON components(category);
CREATE INDEX IF NOT EXISTS idx_components_manufacturer ON components(manufacturer);
`

// Migrate creates the inventory schema.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "inventory: sqlite migrate")
}

// Put inserts or replaces a component. Used by seeding; the analytics
// engines never call it.
func (s *SQLite) Put(ctx context.Context, c model.Component) error {
	specs, err := json.Marshal(c.Specs)
	if err != nil {
		return eris.Wrap(err, "inventory: marshal specs")
	}
	related, err := json.Marshal(c.RelatedIDs)
	if err != nil {
		return eris.Wrap(err, "inventory: marshal related ids")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO components (id, name, category, manufacturer, condition, quantity, allocated, unit_price, currency, specs, related_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, category = excluded.category,
			manufacturer = excluded.manufacturer, condition = excluded.condition,
			quantity = excluded.quantity, allocated = excluded.allocated,
			unit_price = excluded.unit_price, currency = excluded.currency,
			specs = excluded.specs, related_ids = excluded.related_ids`,
		c.ID, c.Name, c.Category, c.Manufacturer, string(c.Condition),
		c.Quantity, c.Allocated, c.UnitPrice, c.Currency,
		string(specs), string(related), c.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "inventory: put %s", c.ID)
}

// PutMetrics inserts or replaces a component's usage aggregate.
func (s *SQLite) PutMetrics(ctx context.Context, um model.UsageMetrics) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_metrics (component_id, total_used, project_count, last_used, frequency, success_rate)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(component_id) DO UPDATE SET
			total_used = excluded.total_used, project_count = excluded.project_count,
			last_used = excluded.last_used, frequency = excluded.frequency,
			success_rate = excluded.success_rate`,
		um.ComponentID, um.TotalUsed, um.ProjectCount, um.LastUsed.UTC(),
		string(um.Frequency), um.SuccessRate,
	)
	return eris.Wrapf(err, "inventory: put metrics %s", um.ComponentID)
}

const componentCols = `id, name, category, manufacturer, condition, quantity, allocated, unit_price, currency, specs, related_ids, created_at`

func (s *SQLite) GetByID(ctx context.Context, id string) (*model.Component, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+componentCols+` FROM components WHERE id = ?`, id)
	c, err := scanComponent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: get %s", id)
	}
	return c, nil
}

func (s *SQLite) GetAll(ctx context.Context) ([]model.Component, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+componentCols+` FROM components ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: get all")
	}
	defer rows.Close() //nolint:errcheck
	return collectComponents(rows)
}

func (s *SQLite) GetByCategory(ctx context.Context, category string) ([]model.Component, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+componentCols+` FROM components WHERE category = ? ORDER BY id`, category)
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: get category %s", category)
	}
	defer rows.Close() //nolint:errcheck
	return collectComponents(rows)
}

func (s *SQLite) GetUsageMetrics(ctx context.Context, componentID string) (*model.UsageMetrics, error) {
	var um model.UsageMetrics
	var lastUsed sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT component_id, total_used, project_count, last_used, frequency, success_rate
		 FROM usage_metrics WHERE component_id = ?`, componentID,
	).Scan(&um.ComponentID, &um.TotalUsed, &um.ProjectCount, &lastUsed, &um.Frequency, &um.SuccessRate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: get metrics %s", componentID)
	}
	if lastUsed.Valid {
		um.LastUsed = lastUsed.Time
	}
	return &um, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComponent(row rowScanner) (*model.Component, error) {
	var c model.Component
	var specs, related sql.NullString
	err := row.Scan(&c.ID, &c.Name, &c.Category, &c.Manufacturer, &c.Condition,
		&c.Quantity, &c.Allocated, &c.UnitPrice, &c.Currency,
		&specs, &related, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if specs.Valid && specs.String != "" && specs.String != "null" {
		if err := json.Unmarshal([]byte(specs.String), &c.Specs); err != nil {
			return nil, eris.Wrapf(err, "inventory: decode specs %s", c.ID)
		}
	}
	if related.Valid && related.String != "" && related.String != "null" {
		if err := json.Unmarshal([]byte(related.String), &c.RelatedIDs); err != nil {
			return nil, eris.Wrapf(err, "inventory: decode related ids %s", c.ID)
		}
	}
	return &c, nil
}

func collectComponents(rows *sql.Rows) ([]model.Component, error) {
	var out []model.Component
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "inventory: scan component")
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
