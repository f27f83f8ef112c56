package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Inventory  InventoryConfig  `yaml:"inventory" mapstructure:"inventory"`
	Currency   CurrencyConfig   `yaml:"currency" mapstructure:"currency"`
	Market     MarketConfig     `yaml:"market" mapstructure:"market"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Prediction PredictionConfig `yaml:"prediction" mapstructure:"prediction"`
	Errors     ErrorsConfig     `yaml:"errors" mapstructure:"errors"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// CacheConfig selects the shared TTL cache backend.
type CacheConfig struct {
	// Driver is one of memory, sqlite, postgres, redis.
	Driver        string `yaml:"driver" mapstructure:"driver"`
	Path          string `yaml:"path" mapstructure:"path"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	RetentionDays int    `yaml:"retention_days" mapstructure:"retention_days"`
}

// InventoryConfig selects the inventory store backend.
type InventoryConfig struct {
	// Driver is one of memory, sqlite.
	Driver string `yaml:"driver" mapstructure:"driver"`
	Path   string `yaml:"path" mapstructure:"path"`
}

// CurrencyConfig configures the conversion layer.
type CurrencyConfig struct {
	Base             string   `yaml:"base" mapstructure:"base"`
	TTLHours         int      `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	RefreshHour      int      `yaml:"refresh_hour" mapstructure:"refresh_hour"`
	Majors           []string `yaml:"majors" mapstructure:"majors"`
	ProviderURL      string   `yaml:"provider_url" mapstructure:"provider_url"`
	ProviderKey      string   `yaml:"provider_key" mapstructure:"provider_key"`
	BackupURL        string   `yaml:"backup_url" mapstructure:"backup_url"`
	RateLimitPerMin  int      `yaml:"rate_limit_per_min" mapstructure:"rate_limit_per_min"`
	StaticFallback   bool     `yaml:"static_fallback" mapstructure:"static_fallback"`
	TimeoutSecs      int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxFetchAttempts int      `yaml:"max_fetch_attempts" mapstructure:"max_fetch_attempts"`
}

// SupplierConfig defines one price source.
type SupplierConfig struct {
	// Type is simulated or http.
	Name      string  `yaml:"name" mapstructure:"name"`
	Type      string  `yaml:"type" mapstructure:"type"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	APIKey    string  `yaml:"api_key" mapstructure:"api_key"`
	Currency  string  `yaml:"currency" mapstructure:"currency"`
	Reliable  bool    `yaml:"reliable" mapstructure:"reliable"`
	BasePrice float64 `yaml:"base_price" mapstructure:"base_price"`
}

// MarketConfig configures the market data aggregator.
type MarketConfig struct {
	Suppliers           []SupplierConfig `yaml:"suppliers" mapstructure:"suppliers"`
	CacheTTLHours       int              `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	RefreshIntervalMins int              `yaml:"refresh_interval_mins" mapstructure:"refresh_interval_mins"`
	TimeoutSecs         int              `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxFetchAttempts    int              `yaml:"max_fetch_attempts" mapstructure:"max_fetch_attempts"`
	HistoryDays         int              `yaml:"history_days" mapstructure:"history_days"`
	MinTrendPoints      int              `yaml:"min_trend_points" mapstructure:"min_trend_points"`
	TrendChange         float64          `yaml:"trend_change" mapstructure:"trend_change"`
	VolatilityThreshold float64          `yaml:"volatility_threshold" mapstructure:"volatility_threshold"`
	IncreaseMultiplier  float64          `yaml:"increase_multiplier" mapstructure:"increase_multiplier"`
	DecreaseMultiplier  float64          `yaml:"decrease_multiplier" mapstructure:"decrease_multiplier"`
	TrendConfidence     float64          `yaml:"trend_confidence" mapstructure:"trend_confidence"`
	BreakerFailures     int              `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs    int              `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ScoringConfig configures the compatibility engine.
type ScoringConfig struct {
	MinScore        float64            `yaml:"min_score" mapstructure:"min_score"`
	MaxAlternatives int                `yaml:"max_alternatives" mapstructure:"max_alternatives"`
	FuzzyThreshold  float64            `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	Weights         map[string]float64 `yaml:"weights" mapstructure:"weights"`
}

// PredictionConfig configures the stock prediction engine.
type PredictionConfig struct {
	SafetyStock          float64 `yaml:"safety_stock" mapstructure:"safety_stock"`
	ReorderHorizonDays   int     `yaml:"reorder_horizon_days" mapstructure:"reorder_horizon_days"`
	CriticalDays         int     `yaml:"critical_days" mapstructure:"critical_days"`
	WarningDays          int     `yaml:"warning_days" mapstructure:"warning_days"`
	InfoDays             int     `yaml:"info_days" mapstructure:"info_days"`
	CacheTTLMins         int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	BaseDemandConfidence float64 `yaml:"base_demand_confidence" mapstructure:"base_demand_confidence"`
	DemandDecay          float64 `yaml:"demand_decay" mapstructure:"demand_decay"`
}

// ErrorsConfig configures the error handler.
type ErrorsConfig struct {
	LogCap           int `yaml:"log_cap" mapstructure:"log_cap"`
	MaxErrorsPerHour int `yaml:"max_errors_per_hour" mapstructure:"max_errors_per_hour"`
	MaxAIErrors      int `yaml:"max_ai_errors" mapstructure:"max_ai_errors"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("PARTSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.path", "partsight-cache.db")
	v.SetDefault("cache.retention_days", 7)
	v.SetDefault("inventory.driver", "sqlite")
	v.SetDefault("inventory.path", "partsight.db")
	v.SetDefault("currency.base", "USD")
	v.SetDefault("currency.ttl_hours", 24)
	v.SetDefault("currency.refresh_hour", 6)
	v.SetDefault("currency.majors", []string{"USD", "EUR", "GBP", "JPY", "CNY", "CAD", "AUD", "CHF", "SEK", "KRW"})
	v.SetDefault("currency.provider_url", "https://api.frankfurter.dev/v1")
	v.SetDefault("currency.rate_limit_per_min", 30)
	v.SetDefault("currency.static_fallback", true)
	v.SetDefault("currency.timeout_secs", 10)
	v.SetDefault("currency.max_fetch_attempts", 3)
	v.SetDefault("market.cache_ttl_hours", 1)
	v.SetDefault("market.refresh_interval_mins", 60)
	v.SetDefault("market.timeout_secs", 10)
	v.SetDefault("market.max_fetch_attempts", 3)
	v.SetDefault("market.history_days", 90)
	v.SetDefault("market.min_trend_points", 10)
	v.SetDefault("market.trend_change", 0.05)
	v.SetDefault("market.volatility_threshold", 0.2)
	v.SetDefault("market.increase_multiplier", 1.05)
	v.SetDefault("market.decrease_multiplier", 0.95)
	v.SetDefault("market.trend_confidence", 0.7)
	v.SetDefault("market.breaker_failures", 5)
	v.SetDefault("market.breaker_reset_secs", 30)
	v.SetDefault("market.suppliers", []map[string]any{
		{"name": "partsdepot", "type": "simulated", "currency": "USD", "reliable": true, "base_price": 10.0},
		{"name": "chipmart", "type": "simulated", "currency": "USD", "reliable": true, "base_price": 11.0},
		{"name": "eurosupply", "type": "simulated", "currency": "EUR", "reliable": false, "base_price": 9.0},
	})
	v.SetDefault("scoring.min_score", 50)
	v.SetDefault("scoring.max_alternatives", 5)
	v.SetDefault("scoring.fuzzy_threshold", 0.3)
	v.SetDefault("prediction.safety_stock", 1.2)
	v.SetDefault("prediction.reorder_horizon_days", 90)
	v.SetDefault("prediction.critical_days", 7)
	v.SetDefault("prediction.warning_days", 30)
	v.SetDefault("prediction.info_days", 90)
	v.SetDefault("prediction.cache_ttl_mins", 15)
	v.SetDefault("prediction.base_demand_confidence", 0.8)
	v.SetDefault("prediction.demand_decay", 0.05)
	v.SetDefault("errors.log_cap", 1000)
	v.SetDefault("errors.max_errors_per_hour", 10)
	v.SetDefault("errors.max_ai_errors", 5)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for a run mode ("cli" or "serve").
// Construction-time configuration errors are fatal, never degraded.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Market.RefreshIntervalMins <= 0 {
			problems = append(problems, "market.refresh_interval_mins must be > 0")
		}
		if c.Currency.RefreshHour < 0 || c.Currency.RefreshHour > 23 {
			problems = append(problems, "currency.refresh_hour must be between 0 and 23")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Cache.Driver {
	case "memory", "sqlite":
	case "postgres":
		if c.Cache.DatabaseURL == "" {
			problems = append(problems, "cache.database_url is required for the postgres driver")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			problems = append(problems, "cache.redis_addr is required for the redis driver")
		}
	default:
		problems = append(problems, "cache.driver must be one of memory, sqlite, postgres, redis")
	}

	switch c.Inventory.Driver {
	case "memory", "sqlite":
	default:
		problems = append(problems, "inventory.driver must be memory or sqlite")
	}

	if c.Scoring.MinScore < 0 || c.Scoring.MinScore > 100 {
		problems = append(problems, "scoring.min_score must be between 0 and 100")
	}
	if c.Scoring.FuzzyThreshold < 0 || c.Scoring.FuzzyThreshold > 1 {
		problems = append(problems, "scoring.fuzzy_threshold must be between 0 and 1")
	}
	if c.Prediction.SafetyStock < 1 {
		problems = append(problems, "prediction.safety_stock must be >= 1")
	}
	if !(c.Prediction.CriticalDays < c.Prediction.WarningDays && c.Prediction.WarningDays < c.Prediction.InfoDays) {
		problems = append(problems, "prediction urgency thresholds must be ascending")
	}
	for _, w := range c.Scoring.Weights {
		if w < 0 {
			problems = append(problems, "scoring.weights values must be >= 0")
			break
		}
	}
	for _, s := range c.Market.Suppliers {
		switch s.Type {
		case "simulated":
		case "http":
			if s.BaseURL == "" {
				problems = append(problems, "market supplier "+s.Name+": base_url is required for the http type")
			}
		default:
			problems = append(problems, "market supplier "+s.Name+": type must be simulated or http")
		}
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
