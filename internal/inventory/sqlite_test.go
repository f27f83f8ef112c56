package inventory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsight/partsight-cli/internal/model"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "inventory.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLite_PutGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	c := model.Component{
		ID:           "c1",
		Name:         "LM317 Voltage Regulator",
		Category:     "regulators",
		Manufacturer: "TI",
		Condition:    model.ConditionNew,
		Quantity:     40,
		Allocated:    5,
		UnitPrice:    0.55,
		Currency:     "USD",
		Specs:        map[string]string{"voltage": "1.25-37V", "current": "1.5A"},
		RelatedIDs:   []string{"c2"},
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Put(ctx, c))

	got, err := s.GetByID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.Specs, got.Specs)
	assert.Equal(t, c.RelatedIDs, got.RelatedIDs)
	assert.Equal(t, 35, got.Available())
}

func TestSQLite_GetByID_Absent(t *testing.T) {
	s := newTestSQLite(t)
	got, err := s.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_GetByCategory(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, c := range []model.Component{
		{ID: "a", Name: "A", Category: "resistors", CreatedAt: time.Now()},
		{ID: "b", Name: "B", Category: "resistors", CreatedAt: time.Now()},
		{ID: "c", Name: "C", Category: "capacitors", CreatedAt: time.Now()},
	} {
		require.NoError(t, s.Put(ctx, c))
	}

	got, err := s.GetByCategory(ctx, "resistors")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSQLite_UsageMetrics(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, model.Component{ID: "c1", Name: "X", Category: "misc", CreatedAt: time.Now()}))
	require.NoError(t, s.PutMetrics(ctx, model.UsageMetrics{
		ComponentID:  "c1",
		TotalUsed:    120,
		ProjectCount: 4,
		LastUsed:     time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC),
		Frequency:    model.FrequencyHigh,
		SuccessRate:  0.9,
	}))

	um, err := s.GetUsageMetrics(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, um)
	assert.Equal(t, 120, um.TotalUsed)
	assert.Equal(t, model.FrequencyHigh, um.Frequency)

	um, err = s.GetUsageMetrics(ctx, "no-history")
	require.NoError(t, err)
	assert.Nil(t, um)
}
