package supplier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/partsight/partsight-cli/internal/resilience"
)

// HTTPSource queries a supplier price endpoint:
// GET {base_url}/price?component={id}&name={name}
// -> {"price":"$1.23","link":"https://..."}
type HTTPSource struct {
	name     string
	baseURL  string
	currency string
	reliable bool
	apiKey   string
	http     *http.Client
	limiter  *rate.Limiter
}

// Option configures an HTTPSource.
type Option func(*HTTPSource)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *HTTPSource) { s.http = hc }
}

// WithAPIKey sets a bearer token.
func WithAPIKey(key string) Option {
	return func(s *HTTPSource) { s.apiKey = key }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64) Option {
	return func(s *HTTPSource) { s.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewHTTP creates an HTTP supplier source.
func NewHTTP(name, baseURL, nativeCurrency string, reliable bool, opts ...Option) *HTTPSource {
	s := &HTTPSource{
		name:     name,
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: nativeCurrency,
		reliable: reliable,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HTTPSource) Name() string           { return s.name }
func (s *HTTPSource) NativeCurrency() string { return s.currency }
func (s *HTTPSource) Reliable() bool         { return s.reliable }

func (s *HTTPSource) Quote(ctx context.Context, componentID, componentName string) (*Quote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrapf(err, "supplier: %s: rate limit wait", s.name)
	}

	u := fmt.Sprintf("%s/price?component=%s&name=%s",
		s.baseURL, url.QueryEscape(componentID), url.QueryEscape(componentName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "supplier: %s: build request", s.name)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "supplier: %s: fetch", s.name)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := eris.Errorf("supplier: %s: status %d: %s", s.name, resp.StatusCode, string(body))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var q Quote
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return nil, eris.Wrapf(err, "supplier: %s: decode", s.name)
	}
	if q.Price == "" {
		return nil, eris.Errorf("supplier: %s: empty price for %s", s.name, componentID)
	}
	return &q, nil
}
