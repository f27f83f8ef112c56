package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/compat"
	"github.com/partsight/partsight-cli/internal/config"
	"github.com/partsight/partsight-cli/internal/currency"
	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/market"
	"github.com/partsight/partsight-cli/internal/recerr"
	"github.com/partsight/partsight-cli/internal/resilience"
	"github.com/partsight/partsight-cli/internal/stockpred"
	"github.com/partsight/partsight-cli/pkg/rates"
	"github.com/partsight/partsight-cli/pkg/supplier"
)

// env wires the configured stores and engines together for one command run.
type env struct {
	Cache     cache.Store
	Inventory inventory.Store
	Usage     inventory.UsageStore
	Errors    *recerr.Handler
	Converter *currency.Converter
	Market    *market.Aggregator
	Compat    *compat.Engine
	Predictor *stockpred.Predictor

	closers []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			zap.L().Warn("env: close failed", zap.Error(err))
		}
	}
}

// initEnv builds the engine graph from the loaded config. Configuration
// errors here are fatal; degradation only starts once the engines run.
func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	e := &env{}
	e.Errors = recerr.NewHandler(cfg.Errors.LogCap, recerr.HealthThresholds{
		MaxErrorsPerHour: cfg.Errors.MaxErrorsPerHour,
		MaxAIErrors:      cfg.Errors.MaxAIErrors,
	})

	if err := e.initCache(ctx); err != nil {
		return nil, err
	}
	if err := e.initInventory(ctx); err != nil {
		return nil, err
	}

	fetchPolicy := resilience.FetchPolicy{
		Timeout:     time.Duration(cfg.Currency.TimeoutSecs) * time.Second,
		MaxAttempts: cfg.Currency.MaxFetchAttempts,
	}
	e.Converter = currency.New(e.Cache, rateSources(), e.Errors, currency.Config{
		TTL:    time.Duration(cfg.Currency.TTLHours) * time.Hour,
		Majors: cfg.Currency.Majors,
		Policy: fetchPolicy,
	})

	e.Market = market.New(e.Inventory, supplierSources(), e.Converter, e.Cache, e.Errors, market.Config{
		TargetCurrency:      cfg.Currency.Base,
		CacheTTL:            time.Duration(cfg.Market.CacheTTLHours) * time.Hour,
		HistoryDays:         cfg.Market.HistoryDays,
		MinTrendPoints:      cfg.Market.MinTrendPoints,
		TrendChange:         cfg.Market.TrendChange,
		VolatilityThreshold: cfg.Market.VolatilityThreshold,
		IncreaseMultiplier:  cfg.Market.IncreaseMultiplier,
		DecreaseMultiplier:  cfg.Market.DecreaseMultiplier,
		TrendConfidence:     cfg.Market.TrendConfidence,
		Policy: resilience.FetchPolicy{
			Timeout:     time.Duration(cfg.Market.TimeoutSecs) * time.Second,
			MaxAttempts: cfg.Market.MaxFetchAttempts,
		},
		Breaker: resilience.BreakerConfig{
			FailureThreshold: cfg.Market.BreakerFailures,
			ResetTimeout:     time.Duration(cfg.Market.BreakerResetSecs) * time.Second,
		},
	})

	e.Compat = compat.New(e.Inventory, e.Usage, e.Errors, compat.Config{
		MinScore:        cfg.Scoring.MinScore,
		MaxAlternatives: cfg.Scoring.MaxAlternatives,
		FuzzyThreshold:  cfg.Scoring.FuzzyThreshold,
		Weights:         scoringWeights(cfg.Scoring),
	}).WithPriceFunc(func(ctx context.Context, componentID string) float64 {
		return e.Market.PriceComparison(ctx, componentID, cfg.Currency.Base).LowestPrice
	})

	e.Predictor = stockpred.New(e.Inventory, e.Usage, e.Cache, e.Errors, stockpred.Config{
		SafetyStock:          cfg.Prediction.SafetyStock,
		ReorderHorizonDays:   cfg.Prediction.ReorderHorizonDays,
		CriticalDays:         cfg.Prediction.CriticalDays,
		WarningDays:          cfg.Prediction.WarningDays,
		InfoDays:             cfg.Prediction.InfoDays,
		CacheTTL:             time.Duration(cfg.Prediction.CacheTTLMins) * time.Minute,
		BaseDemandConfidence: cfg.Prediction.BaseDemandConfidence,
		DemandDecay:          cfg.Prediction.DemandDecay,
	})

	return e, nil
}

func (e *env) initCache(ctx context.Context) error {
	switch cfg.Cache.Driver {
	case "memory":
		e.Cache = cache.NewMemory()
	case "sqlite":
		store, err := cache.NewSQLite(cfg.Cache.Path)
		if err != nil {
			return eris.Wrap(err, "init cache")
		}
		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "init cache")
		}
		e.Cache = store
	case "postgres":
		store, err := cache.NewPostgres(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			return eris.Wrap(err, "init cache")
		}
		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "init cache")
		}
		e.Cache = store
	case "redis":
		store, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return eris.Wrap(err, "init cache")
		}
		e.Cache = store
	default:
		return eris.Errorf("unknown cache driver %q", cfg.Cache.Driver)
	}
	e.closers = append(e.closers, e.Cache.Close)
	return nil
}

func (e *env) initInventory(ctx context.Context) error {
	switch cfg.Inventory.Driver {
	case "memory":
		mem := inventory.NewMemory()
		e.Inventory, e.Usage = mem, mem
	case "sqlite":
		store, err := inventory.NewSQLite(cfg.Inventory.Path)
		if err != nil {
			return eris.Wrap(err, "init inventory")
		}
		if err := store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "init inventory")
		}
		e.Inventory, e.Usage = store, store
		e.closers = append(e.closers, store.Close)
	default:
		return eris.Errorf("unknown inventory driver %q", cfg.Inventory.Driver)
	}
	return nil
}

// rateSources builds the ordered provider cascade: primary HTTP provider,
// optional backup, and a static offline table when enabled.
func rateSources() []rates.Source {
	var sources []rates.Source
	if cfg.Currency.ProviderURL != "" {
		opts := []rates.Option{}
		if cfg.Currency.ProviderKey != "" {
			opts = append(opts, rates.WithAPIKey(cfg.Currency.ProviderKey))
		}
		if cfg.Currency.RateLimitPerMin > 0 {
			opts = append(opts, rates.WithRateLimit(float64(cfg.Currency.RateLimitPerMin)/60))
		}
		sources = append(sources, rates.NewHTTP("primary", cfg.Currency.ProviderURL, opts...))
	}
	if cfg.Currency.BackupURL != "" {
		sources = append(sources, rates.NewHTTP("backup", cfg.Currency.BackupURL))
	}
	if cfg.Currency.StaticFallback {
		sources = append(sources, rates.NewStatic("static", "USD", map[string]float64{
			"EUR": 0.92, "GBP": 0.79, "JPY": 150.0, "CNY": 7.2, "CAD": 1.36,
			"AUD": 1.52, "CHF": 0.88, "SEK": 10.5, "KRW": 1330.0,
		}))
	}
	return sources
}

func supplierSources() []supplier.Source {
	var sources []supplier.Source
	for _, sc := range cfg.Market.Suppliers {
		switch sc.Type {
		case "http":
			var opts []supplier.Option
			if sc.APIKey != "" {
				opts = append(opts, supplier.WithAPIKey(sc.APIKey))
			}
			sources = append(sources, supplier.NewHTTP(sc.Name, sc.BaseURL, sc.Currency, sc.Reliable, opts...))
		default:
			sources = append(sources, supplier.NewSimulated(
				sc.Name, sc.Currency, currency.Symbol(sc.Currency), sc.Reliable, sc.BasePrice))
		}
	}
	return sources
}

func scoringWeights(sc config.ScoringConfig) compat.Weights {
	w := compat.DefaultWeights()
	for name, weight := range sc.Weights {
		switch name {
		case "category":
			w.Category = weight
		case "manufacturer":
			w.Manufacturer = weight
		case "availability":
			w.Availability = weight
		case "price":
			w.Price = weight
		case "specs":
			w.Specs = weight
		case "preference":
			w.Preference = weight
		}
	}
	return w
}
