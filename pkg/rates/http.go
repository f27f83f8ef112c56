package rates

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/partsight/partsight-cli/internal/resilience"
)

// HTTPSource fetches rates from a frankfurter-style JSON API:
// GET {base_url}/latest?base=EUR&symbols=USD,GBP
// -> {"base":"EUR","rates":{"USD":1.09,"GBP":0.85}}
type HTTPSource struct {
	name    string
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *HTTPSource) { s.http = hc }
}

// WithAPIKey sets a bearer token for providers that require one.
func WithAPIKey(key string) Option {
	return func(s *HTTPSource) { s.apiKey = key }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(s *HTTPSource) { s.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewHTTP creates an HTTP rate source.
func NewHTTP(name, baseURL string, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Name() string { return s.name }

type tableResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

func (s *HTTPSource) FetchRate(ctx context.Context, from, to string) (float64, error) {
	table, err := s.fetch(ctx, from, []string{to})
	if err != nil {
		return 0, err
	}
	r, ok := table[to]
	if !ok || r <= 0 {
		return 0, eris.Errorf("rates: %s: no rate for %s/%s", s.name, from, to)
	}
	return r, nil
}

func (s *HTTPSource) FetchTable(ctx context.Context, base string) (map[string]float64, error) {
	return s.fetch(ctx, base, nil)
}

func (s *HTTPSource) fetch(ctx context.Context, base string, symbols []string) (map[string]float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "rates: %s: rate limit wait", s.name)
	}

	url := fmt.Sprintf("%s/latest?base=%s", s.baseURL, base)
	if len(symbols) > 0 {
		url += "&symbols=" + strings.Join(symbols, ",")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "rates: %s: build request", s.name)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "rates: %s: fetch", s.name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := eris.Errorf("rates: %s: status %d: %s", s.name, resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var out tableResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrapf(err, "rates: %s: decode", s.name)
	}
	if len(out.Rates) == 0 {
		return nil, eris.Errorf("rates: %s: empty rate table for %s", s.name, base)
	}
	return out.Rates, nil
}
