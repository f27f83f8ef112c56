package inventory

import (
	"context"
	"sort"
	"sync"

	"github.com/partsight/partsight-cli/internal/model"
)

// Memory is an in-process Store and UsageStore, used by tests and demo
// seeding.
type Memory struct {
	mu         sync.RWMutex
	components map[string]model.Component
	metrics    map[string]model.UsageMetrics
}

// NewMemory creates an empty in-memory inventory.
func NewMemory() *Memory {
	return &Memory{
		components: make(map[string]model.Component),
		metrics:    make(map[string]model.UsageMetrics),
	}
}

// AddComponent inserts or replaces a component.
func (m *Memory) AddComponent(c model.Component) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.components[c.ID] = c
}

// AddMetrics inserts or replaces a component's usage metrics.
func (m *Memory) AddMetrics(um model.UsageMetrics) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[um.ComponentID] = um
}

func (m *Memory) GetByID(_ context.Context, id string) (*model.Component, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.components[id]
	if !ok {
		return nil, nil
	}
	out := c
	return &out, nil
}

func (m *Memory) GetAll(context.Context) ([]model.Component, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Component, 0, len(m.components))
	for _, c := range m.components {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetByCategory(_ context.Context, category string) ([]model.Component, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Component
	for _, c := range m.components {
		if c.Category == category {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetUsageMetrics(_ context.Context, componentID string) (*model.UsageMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	um, ok := m.metrics[componentID]
	if !ok {
		return nil, nil
	}
	out := um
	return &out, nil
}
