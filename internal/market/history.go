package market

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/model"
)

// appendHistory records today's average supplier price in the per-day series,
// replacing an existing bucket for the same day and trimming past the
// retention window. The series outlives market-data cache entries: its TTL
// spans the whole retention window.
func (a *Aggregator) appendHistory(ctx context.Context, componentID, currency string, items []model.MarketDataItem, now time.Time) {
	if len(items) == 0 {
		return
	}
	sum := 0.0
	for _, it := range items {
		sum += it.Price
	}
	point := model.PricePoint{
		Day:   now.Format("2006-01-02"),
		Price: sum / float64(len(items)),
	}

	key := cache.Key("price_history", componentID, currency)
	var series []model.PricePoint
	if _, err := cache.GetJSON(ctx, a.store, key, &series); err != nil {
		zap.L().Warn("market: history read failed", zap.String("key", key), zap.Error(err))
		series = nil
	}

	if n := len(series); n > 0 && series[n-1].Day == point.Day {
		series[n-1] = point
	} else {
		series = append(series, point)
	}
	if len(series) > a.cfg.HistoryDays {
		series = series[len(series)-a.cfg.HistoryDays:]
	}

	ttl := time.Duration(a.cfg.HistoryDays) * 24 * time.Hour
	if err := cache.SetJSON(ctx, a.store, key, series, ttl); err != nil {
		zap.L().Warn("market: history write failed", zap.String("key", key), zap.Error(err))
	}
}

// History returns the stored per-day price series for a component, oldest
// first. An entry past its TTL still serves; the series is observational
// data, not a freshness-gated cache.
func (a *Aggregator) History(ctx context.Context, componentID, targetCurrency string) []model.PricePoint {
	if targetCurrency == "" {
		targetCurrency = a.cfg.TargetCurrency
	}
	key := cache.Key("price_history", componentID, targetCurrency)
	var series []model.PricePoint
	if _, err := cache.GetJSON(ctx, a.store, key, &series); err != nil {
		zap.L().Warn("market: history read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	return series
}
