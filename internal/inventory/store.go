// Package inventory defines the read-only collaborator interfaces the
// analytics engines consume: the component store and the usage-metrics
// store. The engines never mutate quantities or allocations.
package inventory

import (
	"context"

	"github.com/partsight/partsight-cli/internal/model"
)

// Store is the component inventory, owned elsewhere.
type Store interface {
	GetByID(ctx context.Context, id string) (*model.Component, error)
	GetAll(ctx context.Context) ([]model.Component, error)
	GetByCategory(ctx context.Context, category string) ([]model.Component, error)
}

// UsageStore serves the externally maintained consumption aggregates.
// GetUsageMetrics returns nil (no error) when a component has no history.
type UsageStore interface {
	GetUsageMetrics(ctx context.Context, componentID string) (*model.UsageMetrics, error)
}
