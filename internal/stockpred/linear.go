package stockpred

import (
	"fmt"
	"math"
	"time"

	"github.com/partsight/partsight-cli/internal/model"
)

// linearTrend assumes a constant consumption rate derived from lifetime
// usage. It is the reference algorithm; others can register alongside it.
type linearTrend struct{}

func (linearTrend) Name() string { return "linear_trend" }

func (linearTrend) Predict(comp model.Component, metrics *model.UsageMetrics, now time.Time, cfg Config) (model.StockPrediction, bool) {
	if metrics == nil || metrics.TotalUsed <= 0 {
		return model.StockPrediction{}, false
	}

	days := now.Sub(comp.CreatedAt).Hours() / 24
	if days < 1 {
		days = 1
	}
	rate := float64(metrics.TotalUsed) / days

	pred := model.StockPrediction{
		ComponentID:     comp.ID,
		CurrentStock:    comp.Quantity,
		ConsumptionRate: rate,
		ReorderQuantity: int(math.Ceil(rate * float64(cfg.ReorderHorizonDays) * cfg.SafetyStock)),
		Algorithm:       "linear_trend",
		Factors: []string{
			fmt.Sprintf("%d used over %.0f days", metrics.TotalUsed, days),
			fmt.Sprintf("%d projects", metrics.ProjectCount),
		},
	}

	if rate > 0 {
		daysLeft := float64(comp.Quantity) / rate
		depletion := now.Add(time.Duration(daysLeft * 24 * float64(time.Hour)))
		pred.DepletionDate = &depletion
	}

	// Confidence grows with observation length and project spread.
	conf := 0.5
	if days >= 30 {
		conf += 0.2
	}
	if metrics.ProjectCount >= 3 {
		conf += 0.15
	}
	if metrics.Frequency == model.FrequencyHigh {
		conf += 0.05
	}
	pred.Confidence = math.Min(conf, 0.9)
	return pred, true
}
