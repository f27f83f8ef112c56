package compat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

func newTestEngine(t *testing.T, cfg Config, comps ...model.Component) (*Engine, *inventory.Memory, *recerr.Handler) {
	t.Helper()
	inv := inventory.NewMemory()
	for _, c := range comps {
		inv.AddComponent(c)
	}
	errs := recerr.NewHandler(100, recerr.DefaultHealthThresholds())
	return New(inv, inv, errs, cfg), inv, errs
}

func TestFindAlternatives_RanksAndFilters(t *testing.T) {
	original := model.Component{
		ID: "r-1", Name: "10k Resistor", Category: "resistor",
		Manufacturer: "OhmCo", Condition: model.ConditionNew,
		Quantity: 0, UnitPrice: 10,
	}
	twin := model.Component{
		ID: "r-2", Name: "10k Resistor Alt", Category: "resistor",
		Manufacturer: "OhmCo", Condition: model.ConditionNew,
		Quantity: 8, UnitPrice: 10,
	}
	weak := model.Component{
		ID: "c-9", Name: "Ceramic Capacitor", Category: "capacitor",
		Manufacturer: "OhmCo", Condition: model.ConditionNew,
		Quantity: 0, UnitPrice: 10,
	}
	e, _, _ := newTestEngine(t, Config{}, original, twin, weak)

	alts := e.FindAlternatives(context.Background(), "r-1", Options{})
	require.Len(t, alts, 1)
	assert.Equal(t, "r-2", alts[0].ComponentID)
	assert.GreaterOrEqual(t, alts[0].Score, 50.0)
	assert.LessOrEqual(t, alts[0].Confidence, 95.0)
	assert.Equal(t, model.UsabilityMinimal, alts[0].Usability)
}

func TestFindAlternatives_Deterministic(t *testing.T) {
	comps := []model.Component{
		{ID: "r-1", Name: "10k Resistor", Category: "resistor", Quantity: 5, UnitPrice: 10},
		{ID: "r-2", Name: "10k Resistor B", Category: "resistor", Quantity: 5, UnitPrice: 10},
		{ID: "r-3", Name: "22k Resistor", Category: "resistor", Quantity: 2, UnitPrice: 12},
	}
	e, _, _ := newTestEngine(t, Config{}, comps...)

	first := e.FindAlternatives(context.Background(), "r-1", Options{})
	second := e.FindAlternatives(context.Background(), "r-1", Options{})
	assert.Equal(t, first, second)
}

func TestFindAlternatives_ThresholdInvariant(t *testing.T) {
	comps := []model.Component{
		{ID: "r-0", Name: "Base Resistor", Category: "resistor", Quantity: 5, UnitPrice: 10},
	}
	for i := 0; i < 10; i++ {
		comps = append(comps, model.Component{
			ID: string(rune('a' + i)), Name: "Spare Resistor", Category: "resistor",
			Quantity: i, UnitPrice: 10 + float64(i),
		})
	}
	e, _, _ := newTestEngine(t, Config{}, comps...)

	alts := e.FindAlternatives(context.Background(), "r-0", Options{})
	assert.LessOrEqual(t, len(alts), 5)
	for i, alt := range alts {
		assert.GreaterOrEqual(t, alt.Score, 50.0)
		if i > 0 {
			assert.LessOrEqual(t, alt.Score, alts[i-1].Score)
		}
	}
}

func TestFindAlternatives_FuzzyNameDiscovery(t *testing.T) {
	original := model.Component{
		ID: "s-1", Name: "BME280 Temperature Humidity Sensor",
		Category: "sensor", Quantity: 0, UnitPrice: 8,
	}
	// Different category and manufacturer; only the name overlaps.
	fuzzy := model.Component{
		ID: "s-2", Name: "BMP280 Temperature Sensor Breakout",
		Category: "breakout", Quantity: 6, UnitPrice: 8,
	}
	e, _, _ := newTestEngine(t, Config{MinScore: 30}, original, fuzzy)

	alts := e.FindAlternatives(context.Background(), "s-1", Options{})
	require.Len(t, alts, 1)
	assert.Equal(t, "s-2", alts[0].ComponentID)
}

func TestFindAlternatives_UnknownComponent(t *testing.T) {
	e, _, errs := newTestEngine(t, Config{})

	alts := e.FindAlternatives(context.Background(), "missing", Options{})
	assert.Empty(t, alts)

	entries := errs.Recent()
	require.NotEmpty(t, entries)
	assert.Equal(t, recerr.KindInsufficientData, entries[0].Kind)
}

func TestFindAlternatives_RequiredSpecsOverlay(t *testing.T) {
	original := model.Component{
		ID: "m-1", Name: "Motor Driver", Category: "driver", Quantity: 0, UnitPrice: 15,
	}
	underpowered := model.Component{
		ID: "m-2", Name: "Motor Driver Mini", Category: "driver",
		Quantity: 6, UnitPrice: 15,
		Specs: map[string]string{"current": "200mA"},
	}
	e, _, _ := newTestEngine(t, Config{}, original, underpowered)

	with := e.FindAlternatives(context.Background(), "m-1", Options{
		RequiredSpecs: map[string]string{"current": "2000mA"},
	})
	without := e.FindAlternatives(context.Background(), "m-1", Options{})

	withScore, withoutScore := 0.0, 0.0
	if len(with) > 0 {
		withScore = with[0].Score
	}
	if len(without) > 0 {
		withoutScore = without[0].Score
	}
	assert.Less(t, withScore, withoutScore)
}

func TestWeightedScore_Bounds(t *testing.T) {
	e, _, _ := newTestEngine(t, Config{})
	in := Input{
		Original:  model.Component{ID: "a", Category: "x", Manufacturer: "m", UnitPrice: 10},
		Candidate: model.Component{ID: "b", Category: "x", Manufacturer: "m", Quantity: 10, UnitPrice: 10},
	}
	in.OriginalPrice, in.CandidatePrice = 10, 10

	score := e.weightedScore(in)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestUsageMetricsInfluencePreference(t *testing.T) {
	original := model.Component{ID: "r-1", Name: "Resistor", Category: "resistor", Quantity: 5, UnitPrice: 10}
	popular := model.Component{ID: "r-2", Name: "Resistor A", Category: "resistor", Quantity: 5, UnitPrice: 10}
	unpopular := model.Component{ID: "r-3", Name: "Resistor B", Category: "resistor", Quantity: 5, UnitPrice: 10}

	e, inv, _ := newTestEngine(t, Config{}, original, popular, unpopular)
	inv.AddMetrics(model.UsageMetrics{
		ComponentID: "r-2", TotalUsed: 40, Frequency: model.FrequencyHigh,
		LastUsed: time.Now(), SuccessRate: 0.9,
	})
	inv.AddMetrics(model.UsageMetrics{
		ComponentID: "r-3", TotalUsed: 2, Frequency: model.FrequencyLow,
		LastUsed: time.Now(), SuccessRate: 0.9,
	})

	alts := e.FindAlternatives(context.Background(), "r-1", Options{})
	require.Len(t, alts, 2)
	assert.Equal(t, "r-2", alts[0].ComponentID)
	assert.Greater(t, alts[0].Score, alts[1].Score)
}
