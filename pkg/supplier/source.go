// Package supplier provides price sources for market data aggregation. Each
// source is queried independently; one supplier failing never aborts the
// batch.
package supplier

import "context"

// Quote is a raw supplier offer. Price is the supplier's display string
// (symbol or ISO code plus amount); normalization happens in the market
// aggregator.
type Quote struct {
	Price string `json:"price"`
	Link  string `json:"link,omitempty"`
}

// Source is one supplier's price API.
type Source interface {
	// Name identifies the supplier.
	Name() string

	// NativeCurrency is assumed when a quote carries no currency marker.
	NativeCurrency() string

	// Reliable reports whether the supplier's listings are trusted enough
	// to classify as in stock.
	Reliable() bool

	// Quote returns the supplier's current offer for a component.
	Quote(ctx context.Context, componentID, componentName string) (*Quote, error)
}
