package model

import "time"

// Availability classifies whether a supplier can ship the part.
type Availability string

const (
	AvailabilityInStock Availability = "in_stock"
	AvailabilityUnknown Availability = "unknown"
)

// MarketDataItem is one supplier's normalized offer for a component.
// Display holds the converted price formatted in the target currency;
// OriginalDisplay retains the supplier's pre-conversion string.
type MarketDataItem struct {
	Supplier        string    `json:"supplier"`
	Price           float64   `json:"price"`
	Currency        string    `json:"currency"`
	Display         string    `json:"display"`
	OriginalDisplay string    `json:"original_display,omitempty"`
	Link            string    `json:"link,omitempty"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// SupplierPrice is one row of a price comparison.
type SupplierPrice struct {
	Supplier     string       `json:"supplier"`
	Price        float64      `json:"price"`
	Display      string       `json:"display"`
	Availability Availability `json:"availability"`
}

// PriceRange is the spread of supplier prices.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// PriceComparison reduces the fetched market data for one component.
type PriceComparison struct {
	ComponentID         string          `json:"component_id"`
	Currency            string          `json:"currency"`
	Suppliers           []SupplierPrice `json:"suppliers"`
	LowestPrice         float64         `json:"lowest_price"`
	AveragePrice        float64         `json:"average_price"`
	Range               PriceRange      `json:"range"`
	RecommendedSupplier string          `json:"recommended_supplier"`
}

// TrendDirection classifies price movement over the history window.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendDecreasing TrendDirection = "decreasing"
	TrendVolatile   TrendDirection = "volatile"
	TrendStable     TrendDirection = "stable"
)

// MarketTrendAnalysis summarizes price movement and projects near-term prices.
type MarketTrendAnalysis struct {
	ComponentID string         `json:"component_id"`
	Direction   TrendDirection `json:"direction"`
	Strength    float64        `json:"strength"`
	Volatility  float64        `json:"volatility"`
	NextMonth   float64        `json:"next_month"`
	NextQuarter float64        `json:"next_quarter"`
	Confidence  float64        `json:"confidence"`
	Points      int            `json:"points"`
}

// PricePoint is one day's observed price for the history series.
type PricePoint struct {
	Day   string  `json:"day"`
	Price float64 `json:"price"`
}

// PriceAlertType selects the rule a price alert evaluates.
type PriceAlertType string

const (
	AlertPriceDrop          PriceAlertType = "price_drop"
	AlertPriceIncrease      PriceAlertType = "price_increase"
	AlertAvailabilityChange PriceAlertType = "availability_change"
	AlertTargetPrice        PriceAlertType = "target_price"
)

// PriceAlert is a user-scoped threshold rule evaluated on every scheduled
// market refresh. Firing only records LastTriggered; notification transport
// is an external collaborator.
type PriceAlert struct {
	ID            string         `json:"id"`
	ComponentID   string         `json:"component_id"`
	Type          PriceAlertType `json:"type"`
	Threshold     float64        `json:"threshold,omitempty"`
	TargetPrice   float64        `json:"target_price,omitempty"`
	OriginalPrice float64        `json:"original_price"`
	Active        bool           `json:"active"`
	Channel       string         `json:"channel,omitempty"`
	LastTriggered *time.Time     `json:"last_triggered,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
