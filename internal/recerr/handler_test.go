package recerr

import (
	"fmt"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_ReturnsFallback(t *testing.T) {
	h := NewHandler(10, DefaultHealthThresholds())

	got := Handle(h, eris.New("supplier fetch timeout"), Context{
		Operation:    "fetch_market_data",
		ComponentIDs: []string{"c1"},
	}, []string{"fallback"}, SeverityMedium)

	assert.Equal(t, []string{"fallback"}, got)

	entries := h.Recent()
	require.Len(t, entries, 1)
	assert.Equal(t, KindExternalAPIError, entries[0].Kind)
	assert.Equal(t, "fetch_market_data", entries[0].Operation)
	assert.True(t, entries[0].Retryable)
	assert.NotEmpty(t, entries[0].Fallback)
}

func TestHandler_CapEvictsOldest(t *testing.T) {
	h := NewHandler(5, DefaultHealthThresholds())
	for i := 0; i < 8; i++ {
		h.Record(eris.Errorf("network error %d", i), Context{Operation: "op"}, SeverityLow)
	}

	entries := h.Recent()
	require.Len(t, entries, 5)
	// Oldest three evicted.
	assert.Equal(t, "network error 3", entries[0].Message)
	assert.Equal(t, "network error 7", entries[4].Message)
}

func TestHealth_Thresholds(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("healthy when quiet", func(t *testing.T) {
		h := NewHandler(100, DefaultHealthThresholds()).WithNow(func() time.Time { return base })
		rep := h.Health()
		assert.True(t, rep.OK)
		assert.Zero(t, rep.ErrorsLastHour)
	})

	t.Run("unhealthy above hourly rate", func(t *testing.T) {
		h := NewHandler(100, DefaultHealthThresholds()).WithNow(func() time.Time { return base })
		for i := 0; i < 11; i++ {
			h.Record(fmt.Errorf("fetch failed %d", i), Context{Operation: "op"}, SeverityLow)
		}
		assert.False(t, h.Health().OK)
	})

	t.Run("unhealthy on any critical", func(t *testing.T) {
		h := NewHandler(100, DefaultHealthThresholds()).WithNow(func() time.Time { return base })
		h.Record(eris.New("cache store unreachable"), Context{Operation: "op"}, SeverityCritical)
		rep := h.Health()
		assert.False(t, rep.OK)
		assert.Equal(t, 1, rep.CriticalErrors)
	})

	t.Run("unhealthy above ai error limit", func(t *testing.T) {
		h := NewHandler(100, DefaultHealthThresholds()).WithNow(func() time.Time { return base })
		for i := 0; i < 6; i++ {
			h.Record(eris.New("model request rejected"), Context{Operation: "op"}, SeverityLow)
		}
		rep := h.Health()
		assert.False(t, rep.OK)
		assert.Equal(t, 6, rep.AIErrors)
	})

	t.Run("old errors fall out of the window", func(t *testing.T) {
		now := base
		h := NewHandler(100, DefaultHealthThresholds()).WithNow(func() time.Time { return now })
		for i := 0; i < 20; i++ {
			h.Record(eris.New("network flake"), Context{Operation: "op"}, SeverityLow)
		}
		now = base.Add(2 * time.Hour)
		rep := h.Health()
		assert.True(t, rep.OK)
		assert.Zero(t, rep.ErrorsLastHour)
	})
}
