package rates

import (
	"context"

	"github.com/rotisserie/eris"
)

// Static serves rates from a fixed table against one base currency. It is
// the last source in the default cascade so development setups work offline,
// and tests use it as a deterministic provider.
type Static struct {
	name  string
	base  string
	rates map[string]float64
}

// NewStatic creates a static source. The table maps currency codes to their
// value per one unit of base; base itself is implicit at 1.0.
func NewStatic(name, base string, table map[string]float64) *Static {
	rates := make(map[string]float64, len(table)+1)
	for k, v := range table {
		rates[k] = v
	}
	rates[base] = 1.0
	return &Static{name: name, base: base, rates: rates}
}

func (s *Static) Name() string { return s.name }

func (s *Static) FetchRate(_ context.Context, from, to string) (float64, error) {
	fromRate, okFrom := s.rates[from]
	toRate, okTo := s.rates[to]
	if !okFrom || !okTo || fromRate <= 0 {
		return 0, eris.Errorf("rates: %s: no rate for %s/%s", s.name, from, to)
	}
	// Cross rate through the base currency.
	return toRate / fromRate, nil
}

func (s *Static) FetchTable(_ context.Context, base string) (map[string]float64, error) {
	baseRate, ok := s.rates[base]
	if !ok || baseRate <= 0 {
		return nil, eris.Errorf("rates: %s: unknown base %s", s.name, base)
	}
	out := make(map[string]float64, len(s.rates))
	for code, r := range s.rates {
		if code == base {
			continue
		}
		out[code] = r / baseRate
	}
	return out, nil
}
