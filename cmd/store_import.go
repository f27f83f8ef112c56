package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
)

// inventoryFile is the YAML document accepted by `store init --file`.
type inventoryFile struct {
	Components []struct {
		ID           string            `yaml:"id"`
		Name         string            `yaml:"name"`
		Category     string            `yaml:"category"`
		Manufacturer string            `yaml:"manufacturer"`
		Condition    string            `yaml:"condition"`
		Quantity     int               `yaml:"quantity"`
		Allocated    int               `yaml:"allocated"`
		UnitPrice    float64           `yaml:"unit_price"`
		Currency     string            `yaml:"currency"`
		Specs        map[string]string `yaml:"specs"`
		RelatedIDs   []string          `yaml:"related_ids"`
		CreatedAt    time.Time         `yaml:"created_at"`
	} `yaml:"components"`
	Metrics []struct {
		ComponentID  string    `yaml:"component_id"`
		TotalUsed    int       `yaml:"total_used"`
		ProjectCount int       `yaml:"project_count"`
		LastUsed     time.Time `yaml:"last_used"`
		Frequency    string    `yaml:"frequency"`
		SuccessRate  float64   `yaml:"success_rate"`
	} `yaml:"metrics"`
}

// importInventoryFile loads components and usage metrics from a YAML file
// into the store. Metrics referencing an unknown component id are rejected
// before anything is written.
func importInventoryFile(ctx context.Context, store *inventory.SQLite, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "read inventory file %s", path)
	}

	var doc inventoryFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return 0, eris.Wrapf(err, "parse inventory file %s", path)
	}

	ids := make(map[string]bool, len(doc.Components))
	for i, c := range doc.Components {
		if c.ID == "" || c.Name == "" {
			return 0, eris.Errorf("component %d: id and name are required", i)
		}
		if ids[c.ID] {
			return 0, eris.Errorf("duplicate component id %q", c.ID)
		}
		ids[c.ID] = true
	}
	for _, m := range doc.Metrics {
		if !ids[m.ComponentID] {
			return 0, eris.Errorf("metrics reference unknown component %q", m.ComponentID)
		}
	}

	now := time.Now().UTC()
	for _, c := range doc.Components {
		created := c.CreatedAt
		if created.IsZero() {
			created = now
		}
		cond := model.Condition(c.Condition)
		if c.Condition == "" {
			cond = model.ConditionUnknown
		}
		err := store.Put(ctx, model.Component{
			ID:           c.ID,
			Name:         c.Name,
			Category:     c.Category,
			Manufacturer: c.Manufacturer,
			Condition:    cond,
			Quantity:     c.Quantity,
			Allocated:    c.Allocated,
			UnitPrice:    c.UnitPrice,
			Currency:     c.Currency,
			Specs:        c.Specs,
			RelatedIDs:   c.RelatedIDs,
			CreatedAt:    created,
		})
		if err != nil {
			return 0, err
		}
	}
	for _, m := range doc.Metrics {
		err := store.PutMetrics(ctx, model.UsageMetrics{
			ComponentID:  m.ComponentID,
			TotalUsed:    m.TotalUsed,
			ProjectCount: m.ProjectCount,
			LastUsed:     m.LastUsed,
			Frequency:    model.UsageFrequency(m.Frequency),
			SuccessRate:  m.SuccessRate,
		})
		if err != nil {
			return 0, err
		}
	}
	return len(doc.Components), nil
}
