package currency

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
	"github.com/partsight/partsight-cli/internal/resilience"
	"github.com/partsight/partsight-cli/pkg/rates"
)

// Config tunes the converter.
type Config struct {
	// TTL is the rate freshness window. Default: 24h.
	TTL time.Duration

	// Majors is the currency list refreshed by the daily batch update.
	Majors []string

	// Policy governs external rate fetches.
	Policy resilience.FetchPolicy
}

// DefaultMajors is the batch-refreshed currency set.
var DefaultMajors = []string{"USD", "EUR", "GBP", "JPY", "CNY", "CAD", "AUD", "CHF", "SEK", "KRW"}

// Converter resolves exchange rates through cache, an ordered source
// cascade, and stale-cache fallback. It never fails a caller: with no data
// at all the rate degrades to the neutral 1.0.
type Converter struct {
	store   cache.Store
	sources []rates.Source
	errs    *recerr.Handler
	cfg     Config
	now     func() time.Time
}

// New creates a Converter. The source order is the fallback order.
func New(store cache.Store, sources []rates.Source, errs *recerr.Handler, cfg Config) *Converter {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if len(cfg.Majors) == 0 {
		cfg.Majors = DefaultMajors
	}
	return &Converter{
		store:   store,
		sources: sources,
		errs:    errs,
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (c *Converter) WithNow(now func() time.Time) *Converter {
	c.now = now
	return c
}

// GetRate resolves the rate converting one unit of from into to.
func (c *Converter) GetRate(ctx context.Context, from, to string) model.ExchangeRate {
	now := c.now().UTC()
	if from == to {
		return model.ExchangeRate{From: from, To: to, Rate: 1, LastUpdated: now}
	}

	key := cache.Key("rate", from, to)
	var cached model.ExchangeRate
	entry, err := cache.GetJSON(ctx, c.store, key, &cached)
	if err != nil {
		zap.L().Warn("currency: cache read failed", zap.String("key", key), zap.Error(err))
		entry = nil
	}
	if entry.Fresh(now) {
		return cached
	}

	rate, srcErr := c.fetchRate(ctx, from, to)
	if srcErr == nil {
		fresh := model.ExchangeRate{From: from, To: to, Rate: rate, LastUpdated: now}
		if err := cache.SetJSON(ctx, c.store, key, fresh, c.cfg.TTL); err != nil {
			zap.L().Warn("currency: cache write failed", zap.String("key", key), zap.Error(err))
		}
		return fresh
	}

	opCtx := recerr.Context{Operation: "get_rate", ComponentIDs: []string{from + "/" + to}}
	if entry != nil {
		zap.L().Warn("currency: all sources failed, serving stale rate",
			zap.String("pair", from+"/"+to),
			zap.Duration("age", entry.Age(now)),
			zap.Error(srcErr),
		)
		return recerr.Handle(c.errs, srcErr, opCtx, cached, recerr.SeverityMedium)
	}

	// No cache at all: degrade to the neutral rate.
	neutral := model.ExchangeRate{From: from, To: to, Rate: 1, LastUpdated: now}
	return recerr.Handle(c.errs, srcErr, opCtx, neutral, recerr.SeverityHigh)
}

// Convert converts amount from one currency to another.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	if from == to {
		return amount
	}
	return amount * c.GetRate(ctx, from, to).Rate
}

// GetAllRates resolves the full rate table against base, following the same
// cache, cascade, and stale-fallback ladder as GetRate.
func (c *Converter) GetAllRates(ctx context.Context, base string) model.CurrencyRates {
	now := c.now().UTC()
	key := cache.Key("rates_table", base)

	var cached model.CurrencyRates
	entry, err := cache.GetJSON(ctx, c.store, key, &cached)
	if err != nil {
		zap.L().Warn("currency: cache read failed", zap.String("key", key), zap.Error(err))
		entry = nil
	}
	if entry.Fresh(now) {
		return cached
	}

	table, srcErr := c.fetchTable(ctx, base)
	if srcErr == nil {
		fresh := model.CurrencyRates{Base: base, Rates: table, LastUpdated: now}
		if err := cache.SetJSON(ctx, c.store, key, fresh, c.cfg.TTL); err != nil {
			zap.L().Warn("currency: cache write failed", zap.String("key", key), zap.Error(err))
		}
		return fresh
	}

	opCtx := recerr.Context{Operation: "get_all_rates", ComponentIDs: []string{base}}
	if entry != nil {
		zap.L().Warn("currency: all sources failed, serving stale table",
			zap.String("base", base),
			zap.Duration("age", entry.Age(now)),
			zap.Error(srcErr),
		)
		return recerr.Handle(c.errs, srcErr, opCtx, cached, recerr.SeverityMedium)
	}

	empty := model.CurrencyRates{Base: base, Rates: map[string]float64{}, LastUpdated: now}
	return recerr.Handle(c.errs, srcErr, opCtx, empty, recerr.SeverityHigh)
}

// UpdateAll refreshes the rate table for every major currency. Per-currency
// failures are logged and isolated; the batch always completes. Returns the
// number of tables refreshed. This is the payload of the daily schedule job.
func (c *Converter) UpdateAll(ctx context.Context) int {
	now := c.now().UTC()
	updated := 0
	for _, base := range c.cfg.Majors {
		table, err := c.fetchTable(ctx, base)
		if err != nil {
			c.errs.Record(err, recerr.Context{
				Operation:    "update_all_rates",
				ComponentIDs: []string{base},
			}, recerr.SeverityMedium)
			continue
		}
		key := cache.Key("rates_table", base)
		fresh := model.CurrencyRates{Base: base, Rates: table, LastUpdated: now}
		if err := cache.SetJSON(ctx, c.store, key, fresh, c.cfg.TTL); err != nil {
			zap.L().Warn("currency: cache write failed", zap.String("key", key), zap.Error(err))
			continue
		}
		updated++
	}
	zap.L().Info("currency: batch rate update complete",
		zap.Int("updated", updated),
		zap.Int("requested", len(c.cfg.Majors)),
	)
	return updated
}

// fetchRate walks the source cascade; first success wins.
func (c *Converter) fetchRate(ctx context.Context, from, to string) (float64, error) {
	var lastErr error
	for _, src := range c.sources {
		rate, err := resilience.Fetch(ctx, c.cfg.Policy, src.Name(), func(ctx context.Context) (float64, error) {
			return src.FetchRate(ctx, from, to)
		})
		if err == nil {
			return rate, nil
		}
		lastErr = err
		zap.L().Warn("currency: rate source failed",
			zap.String("source", src.Name()),
			zap.String("pair", from+"/"+to),
			zap.Error(err),
		)
	}
	if lastErr == nil {
		lastErr = eris.New("currency: no rate sources configured")
	}
	return 0, lastErr
}

func (c *Converter) fetchTable(ctx context.Context, base string) (map[string]float64, error) {
	var lastErr error
	for _, src := range c.sources {
		table, err := resilience.Fetch(ctx, c.cfg.Policy, src.Name(), func(ctx context.Context) (map[string]float64, error) {
			return src.FetchTable(ctx, base)
		})
		if err == nil {
			return table, nil
		}
		lastErr = err
		zap.L().Warn("currency: table source failed",
			zap.String("source", src.Name()),
			zap.String("base", base),
			zap.Error(err),
		)
	}
	if lastErr == nil {
		lastErr = eris.New("currency: no rate sources configured")
	}
	return nil, lastErr
}
