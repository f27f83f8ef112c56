package model

// Impact classifies how a technical difference affects the substitution.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// UsabilityImpact is the overall drop-in friction of a substitution.
type UsabilityImpact string

const (
	UsabilityNone        UsabilityImpact = "none"
	UsabilityMinimal     UsabilityImpact = "minimal"
	UsabilityModerate    UsabilityImpact = "moderate"
	UsabilitySignificant UsabilityImpact = "significant"
)

// TechnicalDifference describes one property that differs between the
// original component and a candidate substitute.
type TechnicalDifference struct {
	Property    string `json:"property"`
	Original    string `json:"original"`
	Alternative string `json:"alternative"`
	Impact      Impact `json:"impact"`
	Note        string `json:"note"`
}

// PriceDelta compares the original and alternative unit prices.
type PriceDelta struct {
	Original    float64 `json:"original"`
	Alternative float64 `json:"alternative"`
	Diff        float64 `json:"diff"`
	DiffPercent float64 `json:"diff_percent"`
}

// ComponentAlternative is one ranked substitute produced by the
// compatibility scoring engine. Created fresh per query, never persisted.
type ComponentAlternative struct {
	ComponentID   string                `json:"component_id"`
	Name          string                `json:"name"`
	Score         float64               `json:"score"`
	Price         PriceDelta            `json:"price"`
	Differences   []TechnicalDifference `json:"differences,omitempty"`
	Usability     UsabilityImpact       `json:"usability"`
	Explanation   string                `json:"explanation"`
	Confidence    float64               `json:"confidence"`
	Modifications []string              `json:"modifications,omitempty"`
}
