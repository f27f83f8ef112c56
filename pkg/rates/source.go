// Package rates provides exchange-rate sources. The currency layer walks an
// ordered list of sources and takes the first success.
package rates

import "context"

// Source serves exchange rates for currency pairs and full tables.
type Source interface {
	// Name identifies the source in logs and error entries.
	Name() string

	// FetchRate returns the rate converting one unit of from into to.
	FetchRate(ctx context.Context, from, to string) (float64, error)

	// FetchTable returns a full rate table against base.
	FetchTable(ctx context.Context, base string) (map[string]float64, error)
}
