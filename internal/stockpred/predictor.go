// Package stockpred forecasts component depletion, demand, and usage trends
// from the externally maintained usage metrics.
package stockpred

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

// Config tunes the predictor.
type Config struct {
	// SafetyStock scales the reorder quantity above bare projected demand.
	// Default: 1.2.
	SafetyStock float64

	// ReorderHorizonDays is the cover window a reorder should provide.
	// Default: 90.
	ReorderHorizonDays int

	// CriticalDays / WarningDays / InfoDays are the ascending urgency
	// thresholds. Defaults: 7 / 30 / 90.
	CriticalDays int
	WarningDays  int
	InfoDays     int

	// CacheTTL is the freshness window of cached predictions. Default: 15m.
	CacheTTL time.Duration

	// BaseDemandConfidence seeds demand forecasts. Default: 0.8.
	BaseDemandConfidence float64

	// DemandDecay reduces confidence per forecast bucket. Default: 0.05.
	DemandDecay float64
}

func (c Config) withDefaults() Config {
	if c.SafetyStock <= 0 {
		c.SafetyStock = 1.2
	}
	if c.ReorderHorizonDays <= 0 {
		c.ReorderHorizonDays = 90
	}
	if c.CriticalDays <= 0 {
		c.CriticalDays = 7
	}
	if c.WarningDays <= 0 {
		c.WarningDays = 30
	}
	if c.InfoDays <= 0 {
		c.InfoDays = 90
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 15 * time.Minute
	}
	if c.BaseDemandConfidence <= 0 {
		c.BaseDemandConfidence = 0.8
	}
	if c.DemandDecay <= 0 {
		c.DemandDecay = 0.05
	}
	return c
}

// Algorithm is one interchangeable prediction model. ok is false when the
// algorithm cannot produce a prediction for this component.
type Algorithm interface {
	Name() string
	Predict(comp model.Component, metrics *model.UsageMetrics, now time.Time, cfg Config) (model.StockPrediction, bool)
}

// Predictor runs every registered algorithm and keeps the highest-confidence
// result.
type Predictor struct {
	inv        inventory.Store
	usage      inventory.UsageStore
	store      cache.Store
	errs       *recerr.Handler
	cfg        Config
	algorithms []Algorithm
	now        func() time.Time
}

// New creates a Predictor with the linear-trend algorithm registered.
func New(inv inventory.Store, usage inventory.UsageStore, store cache.Store, errs *recerr.Handler, cfg Config) *Predictor {
	if inv == nil || usage == nil || store == nil || errs == nil {
		panic("stockpred: missing required collaborator")
	}
	return &Predictor{
		inv:        inv,
		usage:      usage,
		store:      store,
		errs:       errs,
		cfg:        cfg.withDefaults(),
		algorithms: []Algorithm{linearTrend{}},
		now:        time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (p *Predictor) WithNow(now func() time.Time) *Predictor {
	p.now = now
	return p
}

// Register adds a prediction algorithm. Callers never change: the engine
// keeps whichever registered algorithm reports the highest confidence.
func (p *Predictor) Register(a Algorithm) {
	p.algorithms = append(p.algorithms, a)
}

// PredictDepletion forecasts when a component runs out. Missing usage
// history yields a zero-confidence prediction rather than an error.
func (p *Predictor) PredictDepletion(ctx context.Context, componentID string) model.StockPrediction {
	now := p.now().UTC()
	opCtx := recerr.Context{Operation: "predict_depletion", ComponentIDs: []string{componentID}}

	key := cache.Key("stock_prediction", componentID)
	var cached model.StockPrediction
	if entry, err := cache.GetJSON(ctx, p.store, key, &cached); err == nil && entry.Fresh(now) {
		return cached
	}

	comp, err := p.inv.GetByID(ctx, componentID)
	if err != nil {
		return recerr.Handle(p.errs, err, opCtx, model.StockPrediction{ComponentID: componentID}, recerr.SeverityHigh)
	}
	if comp == nil {
		err := eris.Errorf("stockpred: component %s not found", componentID)
		return recerr.Handle(p.errs, err, opCtx, model.StockPrediction{ComponentID: componentID}, recerr.SeverityMedium)
	}

	metrics, err := p.usage.GetUsageMetrics(ctx, componentID)
	if err != nil {
		return recerr.Handle(p.errs, err, opCtx, noHistoryPrediction(*comp), recerr.SeverityMedium)
	}

	best := noHistoryPrediction(*comp)
	for _, algo := range p.algorithms {
		pred, ok := algo.Predict(*comp, metrics, now, p.cfg)
		if ok && pred.Confidence > best.Confidence {
			best = pred
		}
	}

	if err := cache.SetJSON(ctx, p.store, key, best, p.cfg.CacheTTL); err != nil {
		zap.L().Warn("stockpred: cache write failed", zap.String("key", key), zap.Error(err))
	}
	return best
}

func noHistoryPrediction(comp model.Component) model.StockPrediction {
	return model.StockPrediction{
		ComponentID:  comp.ID,
		CurrentStock: comp.Quantity,
		Confidence:   0,
		Factors:      []string{"no usage history"},
	}
}

// GenerateStockAlerts runs depletion prediction over every in-stock
// component and reports the ones inside the alert horizon, most urgent
// first.
func (p *Predictor) GenerateStockAlerts(ctx context.Context) []model.StockAlert {
	now := p.now().UTC()
	comps, err := p.inv.GetAll(ctx)
	if err != nil {
		return recerr.Handle(p.errs, err,
			recerr.Context{Operation: "generate_stock_alerts"},
			[]model.StockAlert{}, recerr.SeverityHigh)
	}

	var alerts []model.StockAlert
	for _, comp := range comps {
		if comp.Quantity <= 0 {
			continue
		}
		pred := p.PredictDepletion(ctx, comp.ID)
		if pred.DepletionDate == nil {
			continue
		}
		days := int(math.Ceil(pred.DepletionDate.Sub(now).Hours() / 24))
		urgency, ok := p.urgencyFor(days)
		if !ok {
			continue
		}
		alerts = append(alerts, model.StockAlert{
			ComponentID:        comp.ID,
			Name:               comp.Name,
			Urgency:            urgency,
			CurrentStock:       comp.Quantity,
			DepletionDate:      pred.DepletionDate,
			DaysUntilDepletion: days,
			Action:             actionFor(urgency),
			ReorderQuantity:    pred.ReorderQuantity,
			Confidence:         pred.Confidence,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Urgency.Rank() != alerts[j].Urgency.Rank() {
			return alerts[i].Urgency.Rank() < alerts[j].Urgency.Rank()
		}
		return alerts[i].DaysUntilDepletion < alerts[j].DaysUntilDepletion
	})

	zap.L().Debug("stockpred: alert batch complete",
		zap.Int("components", len(comps)),
		zap.Int("alerts", len(alerts)),
	)
	return alerts
}

func (p *Predictor) urgencyFor(days int) (model.Urgency, bool) {
	switch {
	case days <= p.cfg.CriticalDays:
		return model.UrgencyCritical, true
	case days <= p.cfg.WarningDays:
		return model.UrgencyWarning, true
	case days <= p.cfg.InfoDays:
		return model.UrgencyInfo, true
	default:
		return "", false
	}
}

func actionFor(u model.Urgency) string {
	switch u {
	case model.UrgencyCritical:
		return "reorder immediately"
	case model.UrgencyWarning:
		return "reorder soon"
	default:
		return "plan a reorder"
	}
}
