// Package market aggregates supplier prices for components: concurrent
// multi-supplier fetch with per-source isolation, normalization to one
// currency, per-day price history, trend analysis, and price alerting.
package market

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/currency"
	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
	"github.com/partsight/partsight-cli/internal/resilience"
	"github.com/partsight/partsight-cli/pkg/supplier"
)

// Config tunes the aggregator.
type Config struct {
	// TargetCurrency is the normalization currency when callers pass none.
	TargetCurrency string

	// CacheTTL is the market-data freshness window. Default: 1h.
	CacheTTL time.Duration

	// HistoryDays bounds the per-day price history. Default: 90.
	HistoryDays int

	// MinTrendPoints is the history size trend analysis requires. Default: 10.
	MinTrendPoints int

	// TrendChange is the half-series mean change that marks a direction.
	// Default: 0.05.
	TrendChange float64

	// VolatilityThreshold is the coefficient of variation above which a flat
	// series counts as volatile. Default: 0.2.
	VolatilityThreshold float64

	// IncreaseMultiplier / DecreaseMultiplier project next-period prices.
	// Defaults: 1.05 / 0.95.
	IncreaseMultiplier float64
	DecreaseMultiplier float64

	// TrendConfidence is the fixed confidence of trend projections.
	// Default: 0.7.
	TrendConfidence float64

	// Policy governs each supplier fetch.
	Policy resilience.FetchPolicy

	// Breaker tunes the per-supplier circuit breakers.
	Breaker resilience.BreakerConfig
}

func (c Config) withDefaults() Config {
	if c.TargetCurrency == "" {
		c.TargetCurrency = "USD"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = 90
	}
	if c.MinTrendPoints <= 0 {
		c.MinTrendPoints = 10
	}
	if c.TrendChange <= 0 {
		c.TrendChange = 0.05
	}
	if c.VolatilityThreshold <= 0 {
		c.VolatilityThreshold = 0.2
	}
	if c.IncreaseMultiplier <= 0 {
		c.IncreaseMultiplier = 1.05
	}
	if c.DecreaseMultiplier <= 0 {
		c.DecreaseMultiplier = 0.95
	}
	if c.TrendConfidence <= 0 {
		c.TrendConfidence = 0.7
	}
	return c
}

// Aggregator fetches and reduces supplier market data.
type Aggregator struct {
	inv      inventory.Store
	sources  []supplier.Source
	breakers map[string]*resilience.Breaker
	conv     *currency.Converter
	store    cache.Store
	errs     *recerr.Handler
	cfg      Config
	now      func() time.Time
}

// New creates an Aggregator. All collaborators are required; a nil one is a
// construction error and panics immediately rather than degrading.
func New(inv inventory.Store, sources []supplier.Source, conv *currency.Converter, store cache.Store, errs *recerr.Handler, cfg Config) *Aggregator {
	if inv == nil || conv == nil || store == nil || errs == nil {
		panic("market: missing required collaborator")
	}
	breakers := make(map[string]*resilience.Breaker, len(sources))
	for _, src := range sources {
		breakers[src.Name()] = resilience.NewBreaker(cfg.Breaker)
	}
	return &Aggregator{
		inv:      inv,
		sources:  sources,
		breakers: breakers,
		conv:     conv,
		store:    store,
		errs:     errs,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (a *Aggregator) WithNow(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// FetchMarketData returns one normalized offer per responding supplier.
// Unless forceRefresh is set, a fresh cached set is returned as-is. Supplier
// failures are recorded and skipped; they never abort the batch.
func (a *Aggregator) FetchMarketData(ctx context.Context, componentID string, forceRefresh bool, targetCurrency string) []model.MarketDataItem {
	if targetCurrency == "" {
		targetCurrency = a.cfg.TargetCurrency
	}
	now := a.now().UTC()
	key := cache.Key("market_data", componentID, targetCurrency)

	if !forceRefresh {
		var cached []model.MarketDataItem
		entry, err := cache.GetJSON(ctx, a.store, key, &cached)
		if err != nil {
			zap.L().Warn("market: cache read failed", zap.String("key", key), zap.Error(err))
		} else if entry.Fresh(now) {
			return cached
		}
	}

	opCtx := recerr.Context{Operation: "fetch_market_data", ComponentIDs: []string{componentID}}

	comp, err := a.inv.GetByID(ctx, componentID)
	if err != nil {
		return recerr.Handle(a.errs, err, opCtx, []model.MarketDataItem{}, recerr.SeverityHigh)
	}
	if comp == nil {
		err := eris.Errorf("market: component %s not found", componentID)
		return recerr.Handle(a.errs, err, opCtx, []model.MarketDataItem{}, recerr.SeverityMedium)
	}

	quotes := a.queryAll(ctx, comp)

	items := make([]model.MarketDataItem, 0, len(quotes))
	for _, sq := range quotes {
		item, err := a.normalize(ctx, sq.src, sq.quote, targetCurrency, now)
		if err != nil {
			a.errs.Record(err, opCtx, recerr.SeverityLow)
			continue
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		if err := cache.SetJSON(ctx, a.store, key, items, a.cfg.CacheTTL); err != nil {
			zap.L().Warn("market: cache write failed", zap.String("key", key), zap.Error(err))
		}
		a.appendHistory(ctx, componentID, targetCurrency, items, now)
	}

	zap.L().Debug("market: fetch complete",
		zap.String("component", componentID),
		zap.Int("suppliers", len(a.sources)),
		zap.Int("offers", len(items)),
	)
	return items
}

type sourcedQuote struct {
	src   supplier.Source
	quote *supplier.Quote
}

// queryAll fans out to every supplier concurrently. Each source runs behind
// its own breaker and fetch policy; a failure or timeout on one source never
// cancels the others.
func (a *Aggregator) queryAll(ctx context.Context, comp *model.Component) []sourcedQuote {
	results := make([]*supplier.Quote, len(a.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			breaker := a.breakers[src.Name()]
			quote, err := resilience.Call(gctx, breaker, func(ctx context.Context) (*supplier.Quote, error) {
				return resilience.Fetch(ctx, a.cfg.Policy, src.Name(), func(ctx context.Context) (*supplier.Quote, error) {
					return src.Quote(ctx, comp.ID, comp.Name)
				})
			})
			if err != nil {
				a.errs.Record(
					eris.Wrapf(err, "market: supplier %s fetch", src.Name()),
					recerr.Context{Operation: "fetch_market_data", ComponentIDs: []string{comp.ID}},
					recerr.SeverityLow,
				)
				return nil
			}
			results[i] = quote
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	out := make([]sourcedQuote, 0, len(results))
	for i, q := range results {
		if q != nil {
			out = append(out, sourcedQuote{src: a.sources[i], quote: q})
		}
	}
	return out
}

// normalize parses a raw quote, converts it to the target currency, and
// formats both displays.
func (a *Aggregator) normalize(ctx context.Context, src supplier.Source, q *supplier.Quote, target string, now time.Time) (model.MarketDataItem, error) {
	amount, srcCurrency, err := currency.ParsePrice(q.Price, src.NativeCurrency())
	if err != nil {
		return model.MarketDataItem{}, eris.Wrapf(err, "market: supplier %s price", src.Name())
	}

	converted := a.conv.Convert(ctx, amount, srcCurrency, target)
	item := model.MarketDataItem{
		Supplier:  src.Name(),
		Price:     converted,
		Currency:  target,
		Display:   currency.Format(converted, target),
		Link:      q.Link,
		FetchedAt: now,
	}
	if srcCurrency != target {
		item.OriginalDisplay = q.Price
	}
	return item, nil
}

// RefreshAll force-refreshes market data for every component and then
// evaluates price alerts. This is the payload of the periodic schedule job.
func (a *Aggregator) RefreshAll(ctx context.Context) {
	comps, err := a.inv.GetAll(ctx)
	if err != nil {
		a.errs.Record(eris.Wrap(err, "market: list components"),
			recerr.Context{Operation: "refresh_market_data"}, recerr.SeverityHigh)
		return
	}
	for _, comp := range comps {
		a.FetchMarketData(ctx, comp.ID, true, a.cfg.TargetCurrency)
	}
	fired := a.EvaluateAlerts(ctx)
	zap.L().Info("market: scheduled refresh complete",
		zap.Int("components", len(comps)),
		zap.Int("alerts_fired", len(fired)),
	)
}

func (a *Aggregator) sourceByName(name string) supplier.Source {
	for _, src := range a.sources {
		if src.Name() == name {
			return src
		}
	}
	return nil
}
