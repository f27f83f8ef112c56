// Package model defines the records exchanged between the inventory store,
// the analytics engines, and their callers.
package model

import "time"

// Condition describes the physical state of a component.
type Condition string

const (
	ConditionNew         Condition = "new"
	ConditionRefurbished Condition = "refurbished"
	ConditionUsed        Condition = "used"
	ConditionUnknown     Condition = "unknown"
	ConditionDamaged     Condition = "damaged"
)

// Rank orders conditions from worst to best so substitutions can be
// classified as upgrades or downgrades.
func (c Condition) Rank() int {
	switch c {
	case ConditionNew:
		return 4
	case ConditionRefurbished:
		return 3
	case ConditionUsed:
		return 2
	case ConditionDamaged:
		return 0
	default:
		return 1
	}
}

// UsageFrequency is the qualitative usage rate maintained by the metrics store.
type UsageFrequency string

const (
	FrequencyLow    UsageFrequency = "low"
	FrequencyMedium UsageFrequency = "medium"
	FrequencyHigh   UsageFrequency = "high"
)

// Component is a physical inventory item. It is owned by the inventory
// store; the analytics engines only read it.
type Component struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Manufacturer string            `json:"manufacturer"`
	Condition    Condition         `json:"condition"`
	Quantity     int               `json:"quantity"`
	Allocated    int               `json:"allocated"`
	UnitPrice    float64           `json:"unit_price"`
	Currency     string            `json:"currency"`
	Specs        map[string]string `json:"specs,omitempty"`
	RelatedIDs   []string          `json:"related_ids,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Available returns the quantity not reserved by any project.
func (c Component) Available() int {
	avail := c.Quantity - c.Allocated
	if avail < 0 {
		return 0
	}
	return avail
}

// UsageMetrics is the per-component consumption aggregate maintained
// externally from project history. Read-only input to prediction.
type UsageMetrics struct {
	ComponentID  string         `json:"component_id"`
	TotalUsed    int            `json:"total_used"`
	ProjectCount int            `json:"project_count"`
	LastUsed     time.Time      `json:"last_used"`
	Frequency    UsageFrequency `json:"frequency"`
	SuccessRate  float64        `json:"success_rate"`
}
