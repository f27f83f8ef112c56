package stockpred

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPredictor(t *testing.T) (*Predictor, *inventory.Memory, *recerr.Handler) {
	t.Helper()
	inv := inventory.NewMemory()
	store := cache.NewMemory().WithNow(func() time.Time { return testNow })
	errs := recerr.NewHandler(100, recerr.DefaultHealthThresholds())
	p := New(inv, inv, store, errs, Config{}).WithNow(func() time.Time { return testNow })
	return p, inv, errs
}

func addComponentWithRate(inv *inventory.Memory, id string, quantity int, ratePerDay float64, observedDays int) {
	inv.AddComponent(model.Component{
		ID:        id,
		Name:      "Component " + id,
		Category:  "resistor",
		Quantity:  quantity,
		CreatedAt: testNow.AddDate(0, 0, -observedDays),
	})
	inv.AddMetrics(model.UsageMetrics{
		ComponentID:  id,
		TotalUsed:    int(ratePerDay * float64(observedDays)),
		ProjectCount: 4,
		LastUsed:     testNow.AddDate(0, 0, -2),
		Frequency:    model.FrequencyMedium,
		SuccessRate:  0.85,
	})
}

func TestPredictDepletion_LinearScenario(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	// 100 in stock, consuming 2 per day.
	addComponentWithRate(inv, "r-1", 100, 2, 100)

	pred := p.PredictDepletion(context.Background(), "r-1")
	assert.InDelta(t, 2.0, pred.ConsumptionRate, 1e-9)
	assert.Equal(t, 216, pred.ReorderQuantity)
	require.NotNil(t, pred.DepletionDate)
	assert.Equal(t, testNow.AddDate(0, 0, 50), pred.DepletionDate.UTC().Truncate(time.Hour))
	assert.Greater(t, pred.Confidence, 0.0)
	assert.Equal(t, "linear_trend", pred.Algorithm)
}

func TestPredictDepletion_NoHistory(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	inv.AddComponent(model.Component{ID: "r-2", Name: "Unused", Quantity: 10, CreatedAt: testNow.AddDate(0, 0, -30)})

	pred := p.PredictDepletion(context.Background(), "r-2")
	assert.Zero(t, pred.Confidence)
	assert.Nil(t, pred.DepletionDate)
	assert.Contains(t, pred.Factors, "no usage history")
}

func TestPredictDepletion_Deterministic(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	addComponentWithRate(inv, "r-1", 100, 2, 100)

	first := p.PredictDepletion(context.Background(), "r-1")
	second := p.PredictDepletion(context.Background(), "r-1")
	assert.Equal(t, first, second)
}

func TestPredictDepletion_CachesResult(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	addComponentWithRate(inv, "r-1", 100, 2, 100)
	ctx := context.Background()

	first := p.PredictDepletion(ctx, "r-1")

	// A metrics change is invisible until the cached prediction expires.
	inv.AddMetrics(model.UsageMetrics{ComponentID: "r-1", TotalUsed: 900, ProjectCount: 4})
	second := p.PredictDepletion(ctx, "r-1")
	assert.Equal(t, first.ConsumptionRate, second.ConsumptionRate)
}

func TestPredictDepletion_UnknownComponent(t *testing.T) {
	p, _, errs := newTestPredictor(t)

	pred := p.PredictDepletion(context.Background(), "ghost")
	assert.Zero(t, pred.Confidence)
	require.NotEmpty(t, errs.Recent())
	assert.Equal(t, recerr.KindInsufficientData, errs.Recent()[0].Kind)
}

func TestGenerateStockAlerts_UrgencyAndOrder(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	// Days until depletion: stock / rate.
	addComponentWithRate(inv, "crit", 10, 2, 100)   // 5 days
	addComponentWithRate(inv, "warn", 40, 2, 100)   // 20 days
	addComponentWithRate(inv, "info", 120, 2, 100)  // 60 days
	addComponentWithRate(inv, "calm", 1000, 2, 100) // 500 days, no alert
	inv.AddComponent(model.Component{ID: "empty", Name: "Empty", Quantity: 0})

	alerts := p.GenerateStockAlerts(context.Background())
	require.Len(t, alerts, 3)
	assert.Equal(t, "crit", alerts[0].ComponentID)
	assert.Equal(t, model.UrgencyCritical, alerts[0].Urgency)
	assert.Equal(t, "warn", alerts[1].ComponentID)
	assert.Equal(t, model.UrgencyWarning, alerts[1].Urgency)
	assert.Equal(t, "info", alerts[2].ComponentID)
	assert.Equal(t, model.UrgencyInfo, alerts[2].Urgency)

	// Urgency never decreases as days-until-depletion grows.
	for i := 1; i < len(alerts); i++ {
		assert.GreaterOrEqual(t, alerts[i].DaysUntilDepletion, alerts[i-1].DaysUntilDepletion)
		assert.GreaterOrEqual(t, alerts[i].Urgency.Rank(), alerts[i-1].Urgency.Rank())
	}
}

func TestForecastDemand(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	addComponentWithRate(inv, "r-1", 100, 2, 100)

	fc := p.ForecastDemand(context.Background(), "r-1", 180)
	require.Len(t, fc.Buckets, 6)
	for i, b := range fc.Buckets {
		assert.InDelta(t, 60.0, b.Expected, 1e-9)
		if i > 0 {
			assert.Less(t, b.Confidence, fc.Buckets[i-1].Confidence)
		}
	}
	assert.InDelta(t, 0.8, fc.Buckets[0].Confidence, 1e-9)
	assert.InDelta(t, 60.0, fc.PeakDemand, 1e-9)
}

func TestForecastDemand_CapsAtTwelveBuckets(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	addComponentWithRate(inv, "r-1", 100, 2, 100)

	fc := p.ForecastDemand(context.Background(), "r-1", 3650)
	assert.Len(t, fc.Buckets, 12)
}

func TestForecastDemand_NoHistory(t *testing.T) {
	p, inv, errs := newTestPredictor(t)
	inv.AddComponent(model.Component{ID: "r-9", Name: "Fresh", Quantity: 5, CreatedAt: testNow})

	fc := p.ForecastDemand(context.Background(), "r-9", 90)
	assert.Empty(t, fc.Buckets)
	assert.NotEmpty(t, errs.Recent())
}

func TestPredictProjectSuccess(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	addComponentWithRate(inv, "good", 100, 2, 100) // success rate 0.85
	inv.AddMetrics(model.UsageMetrics{ComponentID: "bad", TotalUsed: 5, SuccessRate: 0.4})

	pred := p.PredictProjectSuccess(context.Background(), []string{"good", "bad", "unknown"}, "robotics")
	assert.Equal(t, "robotics", pred.ProjectType)

	// (0.7+0.85)/2 = 0.775; (0.775+0.4)/2 = 0.5875; ×0.9 for the unknown.
	assert.InDelta(t, 0.52875, pred.Probability, 1e-9)
	require.Len(t, pred.Risks, 2)
	assert.Contains(t, pred.Risks[0], "bad")
	assert.Contains(t, pred.Risks[1], "unknown")
}

func TestComponentTrends(t *testing.T) {
	p, inv, _ := newTestPredictor(t)
	inv.AddComponent(model.Component{ID: "hot", Name: "Hot", Category: "sensor", Quantity: 5})
	inv.AddMetrics(model.UsageMetrics{
		ComponentID: "hot", TotalUsed: 50,
		LastUsed: testNow.AddDate(0, 0, -1), Frequency: model.FrequencyHigh,
	})
	inv.AddComponent(model.Component{ID: "cold", Name: "Cold", Category: "sensor", Quantity: 5})
	inv.AddMetrics(model.UsageMetrics{
		ComponentID: "cold", TotalUsed: 2,
		LastUsed: testNow.AddDate(0, 0, -200), Frequency: model.FrequencyLow,
	})
	inv.AddComponent(model.Component{ID: "meh", Name: "Meh", Category: "sensor", Quantity: 5})
	inv.AddMetrics(model.UsageMetrics{
		ComponentID: "meh", TotalUsed: 10,
		LastUsed: testNow.AddDate(0, 0, -30), Frequency: model.FrequencyMedium,
	})

	trends := p.ComponentTrends(context.Background(), "sensor")
	require.Len(t, trends.TrendingUp, 1)
	assert.Equal(t, "hot", trends.TrendingUp[0].ComponentID)
	assert.InDelta(t, 0.5, trends.TrendingUp[0].Score, 1e-9)

	require.Len(t, trends.TrendingDown, 1)
	assert.Equal(t, "cold", trends.TrendingDown[0].ComponentID)
	assert.InDelta(t, -0.3, trends.TrendingDown[0].Score, 1e-9)

	require.Len(t, trends.Stable, 1)
	assert.Equal(t, "meh", trends.Stable[0].ComponentID)
}
