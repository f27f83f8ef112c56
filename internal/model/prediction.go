package model

import "time"

// Urgency classifies a stock alert by how soon the component runs out.
type Urgency string

const (
	UrgencyCritical Urgency = "critical"
	UrgencyWarning  Urgency = "warning"
	UrgencyInfo     Urgency = "info"
)

// Rank orders urgencies for sorting, most urgent first.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyCritical:
		return 0
	case UrgencyWarning:
		return 1
	default:
		return 2
	}
}

// StockPrediction is a depletion forecast for one component. Recomputed per
// query and cached with a short TTL.
type StockPrediction struct {
	ComponentID     string     `json:"component_id"`
	CurrentStock    int        `json:"current_stock"`
	DepletionDate   *time.Time `json:"depletion_date,omitempty"`
	ReorderQuantity int        `json:"reorder_quantity"`
	Confidence      float64    `json:"confidence"`
	ConsumptionRate float64    `json:"consumption_rate"`
	Factors         []string   `json:"factors,omitempty"`
	Algorithm       string     `json:"algorithm,omitempty"`
}

// StockAlert is one entry of the batch depletion report.
type StockAlert struct {
	ComponentID        string     `json:"component_id"`
	Name               string     `json:"name"`
	Urgency            Urgency    `json:"urgency"`
	CurrentStock       int        `json:"current_stock"`
	DepletionDate      *time.Time `json:"depletion_date,omitempty"`
	DaysUntilDepletion int        `json:"days_until_depletion"`
	Action             string     `json:"action"`
	ReorderQuantity    int        `json:"reorder_quantity"`
	Confidence         float64    `json:"confidence"`
}

// DemandBucket is one monthly period of a demand forecast.
type DemandBucket struct {
	Start      time.Time `json:"start"`
	Expected   float64   `json:"expected"`
	Confidence float64   `json:"confidence"`
}

// DemandForecast projects per-month demand for a component.
type DemandForecast struct {
	ComponentID string         `json:"component_id"`
	HorizonDays int            `json:"horizon_days"`
	Buckets     []DemandBucket `json:"buckets"`
	PeakIndex   int            `json:"peak_index"`
	PeakDemand  float64        `json:"peak_demand"`
}

// ProjectSuccessPrediction estimates the odds of a project succeeding with
// the given bill of components.
type ProjectSuccessPrediction struct {
	ProjectType string   `json:"project_type"`
	Probability float64  `json:"probability"`
	Risks       []string `json:"risks,omitempty"`
}

// ComponentTrend scores one component's usage momentum in [-1, 1].
type ComponentTrend struct {
	ComponentID string  `json:"component_id"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
}

// ComponentTrends buckets a category's components by usage momentum.
type ComponentTrends struct {
	Category     string           `json:"category"`
	TrendingUp   []ComponentTrend `json:"trending_up,omitempty"`
	TrendingDown []ComponentTrend `json:"trending_down,omitempty"`
	Stable       []ComponentTrend `json:"stable,omitempty"`
}
