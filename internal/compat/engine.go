// Package compat finds and ranks substitute components. Candidates are
// discovered from category, manufacturer, fuzzy name, and declared
// relationships, then scored by a weighted strategy list.
package compat

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/partsight/partsight-cli/internal/inventory"
	"github.com/partsight/partsight-cli/internal/model"
	"github.com/partsight/partsight-cli/internal/recerr"
)

// Config tunes the engine.
type Config struct {
	// MinScore filters candidates below this compatibility score. Default: 50.
	MinScore float64

	// MaxAlternatives truncates the ranked result. Default: 5.
	MaxAlternatives int

	// FuzzyThreshold is the significant-term fraction a candidate name must
	// reach to count as a fuzzy match. Default: 0.3.
	FuzzyThreshold float64

	// Weights tune the built-in strategies. Zero value uses DefaultWeights.
	Weights Weights
}

func (c Config) withDefaults() Config {
	if c.MinScore <= 0 {
		c.MinScore = 50
	}
	if c.MaxAlternatives <= 0 {
		c.MaxAlternatives = 5
	}
	if c.FuzzyThreshold <= 0 {
		c.FuzzyThreshold = 0.3
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights()
	}
	return c
}

// PriceFunc resolves a component's effective unit price when the inventory
// record carries none; zero means unknown.
type PriceFunc func(ctx context.Context, componentID string) float64

// Engine scores substitute components.
type Engine struct {
	inv        inventory.Store
	usage      inventory.UsageStore
	errs       *recerr.Handler
	cfg        Config
	strategies []Strategy
	price      PriceFunc
}

// New creates an Engine. The inventory store and error handler are required.
func New(inv inventory.Store, usage inventory.UsageStore, errs *recerr.Handler, cfg Config) *Engine {
	if inv == nil || errs == nil {
		panic("compat: missing required collaborator")
	}
	cfg = cfg.withDefaults()
	return &Engine{
		inv:        inv,
		usage:      usage,
		errs:       errs,
		cfg:        cfg,
		strategies: defaultStrategies(cfg.Weights),
	}
}

// WithPriceFunc sets the market price resolver used when a component record
// has no unit price.
func (e *Engine) WithPriceFunc(fn PriceFunc) *Engine {
	e.price = fn
	return e
}

// AddStrategy appends a custom scoring strategy.
func (e *Engine) AddStrategy(s Strategy) {
	e.strategies = append(e.strategies, s)
}

// Options narrow one FindAlternatives query.
type Options struct {
	// RequiredSpecs overlay the original component's specs for scoring, so a
	// caller can demand properties the stored record doesn't carry.
	RequiredSpecs map[string]string
}

// FindAlternatives discovers, scores, and ranks substitutes for a component.
// It always returns a well-formed (possibly empty) list; lookup failures
// degrade through the error handler.
func (e *Engine) FindAlternatives(ctx context.Context, componentID string, opts Options) []model.ComponentAlternative {
	opCtx := recerr.Context{Operation: "find_alternatives", ComponentIDs: []string{componentID}}

	original, err := e.inv.GetByID(ctx, componentID)
	if err != nil {
		return recerr.Handle(e.errs, err, opCtx, []model.ComponentAlternative{}, recerr.SeverityHigh)
	}
	if original == nil {
		err := eris.Errorf("compat: component %s not found", componentID)
		return recerr.Handle(e.errs, err, opCtx, []model.ComponentAlternative{}, recerr.SeverityMedium)
	}

	target := *original
	if len(opts.RequiredSpecs) > 0 {
		merged := make(map[string]string, len(target.Specs)+len(opts.RequiredSpecs))
		for k, v := range target.Specs {
			merged[k] = v
		}
		for k, v := range opts.RequiredSpecs {
			merged[k] = v
		}
		target.Specs = merged
	}

	candidates, err := e.discover(ctx, target)
	if err != nil {
		return recerr.Handle(e.errs, err, opCtx, []model.ComponentAlternative{}, recerr.SeverityHigh)
	}

	origPrice := e.resolvePrice(ctx, target)
	ranked := make([]model.ComponentAlternative, 0, len(candidates))
	for _, cand := range candidates {
		metrics := e.candidateMetrics(ctx, cand.ID)
		in := Input{
			Original:       target,
			Candidate:      cand,
			Metrics:        metrics,
			OriginalPrice:  origPrice,
			CandidatePrice: e.resolvePrice(ctx, cand),
		}
		score := e.weightedScore(in)
		if score < e.cfg.MinScore {
			continue
		}
		ranked = append(ranked, e.buildAlternative(in, score))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > e.cfg.MaxAlternatives {
		ranked = ranked[:e.cfg.MaxAlternatives]
	}

	zap.L().Debug("compat: alternatives ranked",
		zap.String("component", componentID),
		zap.Int("candidates", len(candidates)),
		zap.Int("returned", len(ranked)),
	)
	return ranked
}

// weightedScore is the weighted mean over all strategies.
func (e *Engine) weightedScore(in Input) float64 {
	num, den := 0.0, 0.0
	for _, s := range e.strategies {
		if s.Weight <= 0 {
			continue
		}
		num += s.Score(in) * s.Weight
		den += s.Weight
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// discover unions the four candidate sources and de-duplicates by id. The
// original component itself is never a candidate.
func (e *Engine) discover(ctx context.Context, original model.Component) ([]model.Component, error) {
	all, err := e.inv.GetAll(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "compat: list components")
	}

	terms := significantTerms(original.Name)
	related := make(map[string]bool, len(original.RelatedIDs))
	for _, id := range original.RelatedIDs {
		related[id] = true
	}

	seen := make(map[string]bool)
	var out []model.Component
	for _, c := range all {
		if c.ID == original.ID || seen[c.ID] {
			continue
		}
		match := strings.EqualFold(c.Category, original.Category) ||
			(original.Manufacturer != "" && strings.EqualFold(c.Manufacturer, original.Manufacturer)) ||
			related[c.ID] ||
			termFraction(terms, c.Name) > e.cfg.FuzzyThreshold
		if !match {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) candidateMetrics(ctx context.Context, componentID string) *model.UsageMetrics {
	if e.usage == nil {
		return nil
	}
	metrics, err := e.usage.GetUsageMetrics(ctx, componentID)
	if err != nil {
		zap.L().Debug("compat: usage metrics lookup failed",
			zap.String("component", componentID), zap.Error(err))
		return nil
	}
	return metrics
}

func (e *Engine) resolvePrice(ctx context.Context, c model.Component) float64 {
	if c.UnitPrice > 0 {
		return c.UnitPrice
	}
	if e.price != nil {
		return e.price(ctx, c.ID)
	}
	return 0
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true,
	"module": true, "board": true, "pack": true,
}

// significantTerms extracts the discriminating words of a component name:
// lowercased, stop-words and anything two characters or shorter dropped.
func significantTerms(name string) []string {
	var out []string
	for _, f := range strings.Fields(strings.ToLower(name)) {
		f = strings.Trim(f, ".,()-/")
		if len(f) <= 2 || stopWords[f] {
			continue
		}
		out = append(out, f)
	}
	return out
}

// termFraction is the fraction of terms the candidate name contains.
func termFraction(terms []string, candidateName string) float64 {
	if len(terms) == 0 {
		return 0
	}
	name := strings.ToLower(candidateName)
	matched := 0
	for _, t := range terms {
		if strings.Contains(name, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
