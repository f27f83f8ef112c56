package market

import (
	"context"
	"math"

	"github.com/rotisserie/eris"

	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

// AnalyzeTrends classifies price movement over the stored history and
// projects near-term prices. With fewer than the minimum number of history
// points the analysis degrades to a zero-confidence stable result.
func (a *Aggregator) AnalyzeTrends(ctx context.Context, componentID, targetCurrency string) model.MarketTrendAnalysis {
	series := a.History(ctx, componentID, targetCurrency)

	out := model.MarketTrendAnalysis{
		ComponentID: componentID,
		Direction:   model.TrendStable,
		Points:      len(series),
	}
	if len(series) < a.cfg.MinTrendPoints {
		err := eris.Errorf("market: %d price points for component %s, need %d",
			len(series), componentID, a.cfg.MinTrendPoints)
		return recerr.Handle(a.errs, err,
			recerr.Context{Operation: "analyze_trends", ComponentIDs: []string{componentID}},
			out, recerr.SeverityLow)
	}

	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}

	firstHalf := mean(prices[:len(prices)/2])
	secondHalf := mean(prices[len(prices)/2:])
	overall := mean(prices)
	cv := 0.0
	if overall > 0 {
		cv = stddev(prices, overall) / overall
	}

	change := 0.0
	if firstHalf > 0 {
		change = (secondHalf - firstHalf) / firstHalf
	}
	switch {
	case change > a.cfg.TrendChange:
		out.Direction = model.TrendIncreasing
	case change < -a.cfg.TrendChange:
		out.Direction = model.TrendDecreasing
	case cv > a.cfg.VolatilityThreshold:
		out.Direction = model.TrendVolatile
	}

	out.Volatility = cv
	out.Strength = math.Max(0, 1-cv)
	out.Confidence = a.cfg.TrendConfidence

	// Projections apply the direction multiplier to the latest price: once
	// for next month, compounded three times for next quarter.
	last := prices[len(prices)-1]
	mult := 1.0
	switch out.Direction {
	case model.TrendIncreasing:
		mult = a.cfg.IncreaseMultiplier
	case model.TrendDecreasing:
		mult = a.cfg.DecreaseMultiplier
	}
	out.NextMonth = last * mult
	out.NextQuarter = last * mult * mult * mult
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stddev(xs []float64, mean float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
