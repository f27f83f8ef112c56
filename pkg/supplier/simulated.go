package supplier

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/shopspring/decimal"
)

// Simulated is a deterministic offline supplier. The quoted price derives
// from a hash of (supplier, component id) around a base price, so repeated
// queries return identical offers and tests stay reproducible.
type Simulated struct {
	name      string
	currency  string
	symbol    string
	reliable  bool
	basePrice float64
	failing   bool
}

// NewSimulated creates a simulated supplier quoting around basePrice in the
// given currency, prefixed with symbol (e.g. "$", "€") in the display string.
func NewSimulated(name, currency, symbol string, reliable bool, basePrice float64) *Simulated {
	return &Simulated{
		name:      name,
		currency:  currency,
		symbol:    symbol,
		reliable:  reliable,
		basePrice: basePrice,
	}
}

// SetFailing makes every Quote call fail, for degradation tests.
func (s *Simulated) SetFailing(failing bool) { s.failing = failing }

func (s *Simulated) Name() string           { return s.name }
func (s *Simulated) NativeCurrency() string { return s.currency }
func (s *Simulated) Reliable() bool         { return s.reliable }

func (s *Simulated) Quote(_ context.Context, componentID, _ string) (*Quote, error) {
	if s.failing {
		return nil, fmt.Errorf("supplier: %s: simulated fetch timeout", s.name)
	}

	h := fnv.New32a()
	h.Write([]byte(s.name + ":" + componentID))
	// Spread quotes across 80%-119% of the base price.
	factor := 0.8 + float64(h.Sum32()%40)/100

	price := decimal.NewFromFloat(s.basePrice * factor).Round(2)
	return &Quote{
		Price: s.symbol + price.StringFixed(2),
		Link:  fmt.Sprintf("https://%s.example.com/parts/%s", s.name, componentID),
	}, nil
}
