package compat

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/partsight/partsight-cli/internal/model"
)

// Input is the resolved scoring context for one candidate. Prices are
// pre-resolved by the engine; zero means unknown.
type Input struct {
	Original       model.Component
	Candidate      model.Component
	Metrics        *model.UsageMetrics
	OriginalPrice  float64
	CandidatePrice float64
}

// Strategy is one weighted scoring dimension. Score must return a value in
// [0,100]; the engine computes the weighted mean across all strategies.
type Strategy struct {
	Name   string
	Weight float64
	Score  func(in Input) float64
}

// Weights configure the relative influence of each built-in strategy.
type Weights struct {
	Category     float64 `yaml:"category" mapstructure:"category"`
	Manufacturer float64 `yaml:"manufacturer" mapstructure:"manufacturer"`
	Availability float64 `yaml:"availability" mapstructure:"availability"`
	Price        float64 `yaml:"price" mapstructure:"price"`
	Specs        float64 `yaml:"specs" mapstructure:"specs"`
	Preference   float64 `yaml:"preference" mapstructure:"preference"`
}

// DefaultWeights returns the reference strategy weighting.
func DefaultWeights() Weights {
	return Weights{
		Category:     2.0,
		Manufacturer: 0.5,
		Availability: 1.5,
		Price:        1.0,
		Specs:        2.5,
		Preference:   0.5,
	}
}

func defaultStrategies(w Weights) []Strategy {
	return []Strategy{
		{Name: "category", Weight: w.Category, Score: scoreCategory},
		{Name: "manufacturer", Weight: w.Manufacturer, Score: scoreManufacturer},
		{Name: "availability", Weight: w.Availability, Score: scoreAvailability},
		{Name: "price", Weight: w.Price, Score: scorePrice},
		{Name: "specs", Weight: w.Specs, Score: scoreSpecs},
		{Name: "preference", Weight: w.Preference, Score: scorePreference},
	}
}

func scoreCategory(in Input) float64 {
	if strings.EqualFold(in.Original.Category, in.Candidate.Category) {
		return 100
	}
	return 0
}

func scoreManufacturer(in Input) float64 {
	if in.Original.Manufacturer != "" &&
		strings.EqualFold(in.Original.Manufacturer, in.Candidate.Manufacturer) {
		return 100
	}
	return 0
}

// scoreAvailability is 0 with nothing in stock, full at five or more
// available units, and linear in between.
func scoreAvailability(in Input) float64 {
	avail := in.Candidate.Available()
	if avail <= 0 {
		return 0
	}
	if avail >= 5 {
		return 100
	}
	return float64(avail) * 20
}

// scorePrice rewards candidates priced close to the original. Unknown prices
// on either side score the neutral 50.
func scorePrice(in Input) float64 {
	if in.OriginalPrice <= 0 || in.CandidatePrice <= 0 {
		return 50
	}
	score := 100 - math.Abs(in.CandidatePrice-in.OriginalPrice)/in.OriginalPrice*100
	return math.Max(0, score)
}

// scorePreference derives a score from how often the team actually uses the
// candidate.
func scorePreference(in Input) float64 {
	if in.Metrics == nil {
		return 50
	}
	switch in.Metrics.Frequency {
	case model.FrequencyHigh:
		return 100
	case model.FrequencyMedium:
		return 75
	case model.FrequencyLow:
		return 25
	default:
		return 50
	}
}

// Spec keys the built-in spec strategy understands.
const (
	specVoltage   = "voltage"
	specCurrent   = "current"
	specProtocols = "protocols"
)

// scoreSpecs compares electrical and protocol specs. With no spec data at
// all the score is the neutral 50; a candidate lacking specs against a
// specified original scores 25.
func scoreSpecs(in Input) float64 {
	if len(in.Original.Specs) == 0 {
		return 50
	}
	if len(in.Candidate.Specs) == 0 {
		return 25
	}

	var scores []float64
	if s, ok := voltageScore(in.Original.Specs, in.Candidate.Specs); ok {
		scores = append(scores, s)
	}
	if s, ok := currentScore(in.Original.Specs, in.Candidate.Specs); ok {
		scores = append(scores, s)
	}
	if s, ok := protocolScore(in.Original.Specs, in.Candidate.Specs); ok {
		scores = append(scores, s)
	}
	if len(scores) == 0 {
		return 50
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// electRange is a parsed electrical value: a single value has Min == Max.
type electRange struct {
	Min, Max float64
	Unit     string
}

var electPattern = regexp.MustCompile(`^\s*([\d.]+)\s*(?:-\s*([\d.]+)\s*)?([a-zA-Zµ]+)\s*$`)

func parseElect(raw string) (electRange, bool) {
	m := electPattern.FindStringSubmatch(raw)
	if m == nil {
		return electRange{}, false
	}
	min, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return electRange{}, false
	}
	max := min
	if m[2] != "" {
		max, err = strconv.ParseFloat(m[2], 64)
		if err != nil {
			return electRange{}, false
		}
	}
	return electRange{Min: min, Max: max, Unit: strings.ToLower(m[3])}, true
}

func (r electRange) overlaps(o electRange) bool {
	return r.Unit == o.Unit && r.Min <= o.Max && o.Min <= r.Max
}

// voltageScore checks range overlap; mismatched units never overlap.
func voltageScore(orig, cand map[string]string) (float64, bool) {
	or, okO := parseElect(orig[specVoltage])
	cr, okC := parseElect(cand[specVoltage])
	if !okO || !okC {
		return 0, false
	}
	if or.overlaps(cr) {
		return 100, true
	}
	return 0, true
}

// currentScore accepts a candidate that supplies at least 80% of the
// original's maximum current, units matching.
func currentScore(orig, cand map[string]string) (float64, bool) {
	or, okO := parseElect(orig[specCurrent])
	cr, okC := parseElect(cand[specCurrent])
	if !okO || !okC {
		return 0, false
	}
	if or.Unit != cr.Unit {
		return 0, true
	}
	if cr.Max >= or.Max*0.8 {
		return 100, true
	}
	return 0, true
}

// protocolScore is the fraction of the original's protocols the candidate
// also speaks.
func protocolScore(orig, cand map[string]string) (float64, bool) {
	want := splitProtocols(orig[specProtocols])
	if len(want) == 0 {
		return 0, false
	}
	have := make(map[string]bool)
	for _, p := range splitProtocols(cand[specProtocols]) {
		have[p] = true
	}
	matched := 0
	for _, p := range want {
		if have[p] {
			matched++
		}
	}
	return float64(matched) / float64(len(want)) * 100, true
}

func splitProtocols(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
