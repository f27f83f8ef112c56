package stockpred

import (
	"context"
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

// ForecastDemand projects flat monthly demand buckets over the horizon, at
// most twelve, with confidence decaying from the base per bucket.
func (p *Predictor) ForecastDemand(ctx context.Context, componentID string, horizonDays int) model.DemandForecast {
	now := p.now().UTC()
	out := model.DemandForecast{ComponentID: componentID, HorizonDays: horizonDays}
	opCtx := recerr.Context{Operation: "forecast_demand", ComponentIDs: []string{componentID}}

	comp, err := p.inv.GetByID(ctx, componentID)
	if err != nil || comp == nil {
		if err == nil {
			err = eris.Errorf("stockpred: component %s not found", componentID)
		}
		return recerr.Handle(p.errs, err, opCtx, out, recerr.SeverityMedium)
	}
	metrics, err := p.usage.GetUsageMetrics(ctx, componentID)
	if err != nil {
		return recerr.Handle(p.errs, err, opCtx, out, recerr.SeverityMedium)
	}
	if metrics == nil || metrics.TotalUsed <= 0 {
		err := eris.Errorf("stockpred: no usage history for component %s", componentID)
		return recerr.Handle(p.errs, err, opCtx, out, recerr.SeverityLow)
	}

	days := now.Sub(comp.CreatedAt).Hours() / 24
	if days < 1 {
		days = 1
	}
	monthly := float64(metrics.TotalUsed) / days * 30

	buckets := horizonDays / 30
	if buckets < 1 {
		buckets = 1
	}
	if buckets > 12 {
		buckets = 12
	}

	for i := 0; i < buckets; i++ {
		conf := p.cfg.BaseDemandConfidence * math.Pow(1-p.cfg.DemandDecay, float64(i))
		out.Buckets = append(out.Buckets, model.DemandBucket{
			Start:      now.AddDate(0, 0, i*30),
			Expected:   monthly,
			Confidence: conf,
		})
	}
	out.PeakIndex, out.PeakDemand = peak(out.Buckets)
	return out
}

func peak(buckets []model.DemandBucket) (int, float64) {
	idx, max := 0, 0.0
	for i, b := range buckets {
		if b.Expected > max {
			idx, max = i, b.Expected
		}
	}
	return idx, max
}

// PredictProjectSuccess averages the components' historical success rates
// into one probability, seeded at 0.7 and penalized 10% per component with
// no history. Components scoring below 0.6 each contribute a risk note.
func (p *Predictor) PredictProjectSuccess(ctx context.Context, componentIDs []string, projectType string) model.ProjectSuccessPrediction {
	out := model.ProjectSuccessPrediction{ProjectType: projectType, Probability: 0.7}
	opCtx := recerr.Context{Operation: "predict_project_success", ComponentIDs: componentIDs}

	for _, id := range componentIDs {
		metrics, err := p.usage.GetUsageMetrics(ctx, id)
		if err != nil {
			return recerr.Handle(p.errs, err, opCtx, out, recerr.SeverityMedium)
		}
		if metrics == nil {
			out.Probability *= 0.9
			out.Risks = append(out.Risks, fmt.Sprintf("%s: no usage history", id))
			continue
		}
		out.Probability = (out.Probability + metrics.SuccessRate) / 2
		if metrics.SuccessRate < 0.6 {
			out.Risks = append(out.Risks,
				fmt.Sprintf("%s: historical success rate %.0f%%", id, metrics.SuccessRate*100))
		}
	}
	return out
}

// ComponentTrends scores each component of a category in [-1, 1] from
// last-use recency and usage frequency, then buckets by momentum.
func (p *Predictor) ComponentTrends(ctx context.Context, category string) model.ComponentTrends {
	now := p.now().UTC()
	out := model.ComponentTrends{Category: category}
	opCtx := recerr.Context{Operation: "component_trends", ComponentIDs: []string{category}}

	comps, err := p.inv.GetByCategory(ctx, category)
	if err != nil {
		return recerr.Handle(p.errs, err, opCtx, out, recerr.SeverityMedium)
	}

	for _, comp := range comps {
		metrics, err := p.usage.GetUsageMetrics(ctx, comp.ID)
		if err != nil {
			p.errs.Record(err, opCtx, recerr.SeverityLow)
			continue
		}

		score := 0.0
		if metrics != nil {
			sinceUse := now.Sub(metrics.LastUsed).Hours() / 24
			switch {
			case sinceUse < 7:
				score += 0.3
			case sinceUse > 90:
				score -= 0.2
			}
			switch metrics.Frequency {
			case model.FrequencyHigh:
				score += 0.2
			case model.FrequencyLow:
				score -= 0.1
			}
		}
		score = math.Max(-1, math.Min(1, score))

		trend := model.ComponentTrend{ComponentID: comp.ID, Name: comp.Name, Score: score}
		switch {
		case score > 0.2:
			out.TrendingUp = append(out.TrendingUp, trend)
		case score < -0.2:
			out.TrendingDown = append(out.TrendingDown, trend)
		default:
			out.Stable = append(out.Stable, trend)
		}
	}
	return out
}
