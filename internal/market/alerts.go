package market

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/cache"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

const alertsKey = "price_alerts"

// Alerts persist for as long as the user keeps them; the store entry never
// meaningfully expires.
const alertsTTL = 10 * 365 * 24 * time.Hour

// CreateAlert validates and stores a new price alert, assigning its ID and
// creation time. Validation failures are construction errors and return
// immediately; they are never swallowed into a fallback.
func (a *Aggregator) CreateAlert(ctx context.Context, alert model.PriceAlert) (model.PriceAlert, error) {
	if alert.ComponentID == "" {
		return model.PriceAlert{}, eris.New("market: alert requires a component id")
	}
	switch alert.Type {
	case model.AlertPriceDrop, model.AlertPriceIncrease:
		if alert.Threshold <= 0 {
			return model.PriceAlert{}, eris.Errorf("market: %s alert requires a positive threshold", alert.Type)
		}
	case model.AlertTargetPrice:
		if alert.TargetPrice <= 0 {
			return model.PriceAlert{}, eris.New("market: target_price alert requires a positive target")
		}
	case model.AlertAvailabilityChange:
	default:
		return model.PriceAlert{}, eris.Errorf("market: unknown alert type %q", alert.Type)
	}

	alert.ID = uuid.NewString()
	alert.CreatedAt = a.now().UTC()
	alert.Active = true
	alert.LastTriggered = nil

	if alert.OriginalPrice <= 0 {
		// Anchor relative alerts at the current lowest price.
		cmp := a.PriceComparison(ctx, alert.ComponentID, a.cfg.TargetCurrency)
		alert.OriginalPrice = cmp.LowestPrice
	}

	alerts, err := a.loadAlerts(ctx)
	if err != nil {
		return model.PriceAlert{}, err
	}
	alerts = append(alerts, alert)
	if err := a.saveAlerts(ctx, alerts); err != nil {
		return model.PriceAlert{}, err
	}
	zap.L().Info("market: alert created",
		zap.String("id", alert.ID),
		zap.String("component", alert.ComponentID),
		zap.String("type", string(alert.Type)),
	)
	return alert, nil
}

// ListAlerts returns all alerts, optionally filtered by component.
func (a *Aggregator) ListAlerts(ctx context.Context, componentID string) ([]model.PriceAlert, error) {
	alerts, err := a.loadAlerts(ctx)
	if err != nil {
		return nil, err
	}
	if componentID == "" {
		return alerts, nil
	}
	out := make([]model.PriceAlert, 0, len(alerts))
	for _, al := range alerts {
		if al.ComponentID == componentID {
			out = append(out, al)
		}
	}
	return out, nil
}

// UpdateAlert replaces the stored alert with the same ID.
func (a *Aggregator) UpdateAlert(ctx context.Context, alert model.PriceAlert) error {
	alerts, err := a.loadAlerts(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		if alerts[i].ID == alert.ID {
			alerts[i] = alert
			return a.saveAlerts(ctx, alerts)
		}
	}
	return eris.Errorf("market: alert %s not found", alert.ID)
}

// DeleteAlert removes the alert with the given ID.
func (a *Aggregator) DeleteAlert(ctx context.Context, id string) error {
	alerts, err := a.loadAlerts(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		if alerts[i].ID == id {
			alerts = append(alerts[:i], alerts[i+1:]...)
			return a.saveAlerts(ctx, alerts)
		}
	}
	return eris.Errorf("market: alert %s not found", id)
}

// EvaluateAlerts checks every active alert against current market data and
// returns the ones that fired. Firing stamps LastTriggered; delivering the
// notification is someone else's job.
func (a *Aggregator) EvaluateAlerts(ctx context.Context) []model.PriceAlert {
	alerts, err := a.loadAlerts(ctx)
	if err != nil {
		return recerr.Handle(a.errs, err,
			recerr.Context{Operation: "evaluate_alerts"},
			[]model.PriceAlert{}, recerr.SeverityMedium)
	}

	now := a.now().UTC()
	var fired []model.PriceAlert
	changed := false
	for i := range alerts {
		al := &alerts[i]
		if !al.Active {
			continue
		}
		cmp := a.PriceComparison(ctx, al.ComponentID, a.cfg.TargetCurrency)
		if len(cmp.Suppliers) == 0 {
			continue
		}
		if !triggered(*al, cmp.LowestPrice) {
			continue
		}
		al.LastTriggered = &now
		changed = true
		fired = append(fired, *al)
		zap.L().Info("market: alert fired",
			zap.String("id", al.ID),
			zap.String("component", al.ComponentID),
			zap.String("type", string(al.Type)),
			zap.Float64("current_price", cmp.LowestPrice),
		)
	}
	if changed {
		if err := a.saveAlerts(ctx, alerts); err != nil {
			a.errs.Record(err, recerr.Context{Operation: "evaluate_alerts"}, recerr.SeverityMedium)
		}
	}
	return fired
}

func triggered(al model.PriceAlert, current float64) bool {
	switch al.Type {
	case model.AlertPriceDrop:
		return al.OriginalPrice > 0 &&
			(al.OriginalPrice-current)/al.OriginalPrice*100 >= al.Threshold
	case model.AlertPriceIncrease:
		return al.OriginalPrice > 0 &&
			(current-al.OriginalPrice)/al.OriginalPrice*100 >= al.Threshold
	case model.AlertTargetPrice:
		return current <= al.TargetPrice
	default:
		// availability_change needs supplier state diffing; no rule yet.
		return false
	}
}

func (a *Aggregator) loadAlerts(ctx context.Context) ([]model.PriceAlert, error) {
	var alerts []model.PriceAlert
	if _, err := cache.GetJSON(ctx, a.store, cache.Key(alertsKey), &alerts); err != nil {
		return nil, eris.Wrap(err, "market: load alerts")
	}
	return alerts, nil
}

func (a *Aggregator) saveAlerts(ctx context.Context, alerts []model.PriceAlert) error {
	if err := cache.SetJSON(ctx, a.store, cache.Key(alertsKey), alerts, alertsTTL); err != nil {
		return eris.Wrap(err, "market: save alerts")
	}
	return nil
}
