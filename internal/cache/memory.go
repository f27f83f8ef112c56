package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. The clock is injectable so tests can
// control freshness without sleeping.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]Entry
	retention time.Duration
	now       func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[string]Entry),
		retention: DefaultRetention,
		now:       time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (m *Memory) WithNow(now func() time.Time) *Memory {
	m.now = now
	return m
}

// WithRetention overrides the stale-entry grace period.
func (m *Memory) WithRetention(d time.Duration) *Memory {
	m.retention = d
	return m
}

func (m *Memory) Get(_ context.Context, key string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	out := e
	return &out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := m.now().UTC()
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = Entry{
		Key:       key,
		Value:     v,
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) DeleteExpired(_ context.Context) (int, error) {
	cutoff := m.now().UTC().Add(-m.retention)

	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k, e := range m.entries {
		if e.ExpiresAt.Before(cutoff) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error { return nil }
