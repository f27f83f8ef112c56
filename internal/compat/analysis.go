package compat

import (
	"fmt"
	"math"
	"strings"

	"github.com/partsight/partsight-cli/internal/model"
)

// buildAlternative assembles the full substitution report for one scored
// candidate.
func (e *Engine) buildAlternative(in Input, score float64) model.ComponentAlternative {
	diffs := technicalDifferences(in)
	negatives := 0
	for _, d := range diffs {
		if d.Impact == model.ImpactNegative {
			negatives++
		}
	}

	alt := model.ComponentAlternative{
		ComponentID:   in.Candidate.ID,
		Name:          in.Candidate.Name,
		Score:         score,
		Price:         priceDelta(in),
		Differences:   diffs,
		Usability:     usability(score, negatives),
		Confidence:    math.Min(score, 95),
		Modifications: modifications(diffs),
	}
	alt.Explanation = explanation(in, score, negatives)
	return alt
}

func priceDelta(in Input) model.PriceDelta {
	d := model.PriceDelta{Original: in.OriginalPrice, Alternative: in.CandidatePrice}
	if in.OriginalPrice > 0 && in.CandidatePrice > 0 {
		d.Diff = in.CandidatePrice - in.OriginalPrice
		d.DiffPercent = d.Diff / in.OriginalPrice * 100
	}
	return d
}

// technicalDifferences reports manufacturer, condition, and electrical
// deltas between the original and the candidate.
func technicalDifferences(in Input) []model.TechnicalDifference {
	var diffs []model.TechnicalDifference

	if in.Original.Manufacturer != "" && in.Candidate.Manufacturer != "" &&
		!strings.EqualFold(in.Original.Manufacturer, in.Candidate.Manufacturer) {
		diffs = append(diffs, model.TechnicalDifference{
			Property:    "manufacturer",
			Original:    in.Original.Manufacturer,
			Alternative: in.Candidate.Manufacturer,
			Impact:      model.ImpactNeutral,
			Note:        "different manufacturer, verify form factor and pinout",
		})
	}

	if in.Original.Condition != in.Candidate.Condition {
		impact := model.ImpactNegative
		note := "condition downgrade"
		if in.Candidate.Condition.Rank() > in.Original.Condition.Rank() {
			impact = model.ImpactPositive
			note = "condition upgrade"
		}
		diffs = append(diffs, model.TechnicalDifference{
			Property:    "condition",
			Original:    string(in.Original.Condition),
			Alternative: string(in.Candidate.Condition),
			Impact:      impact,
			Note:        note,
		})
	}

	if len(in.Original.Specs) > 0 && len(in.Candidate.Specs) > 0 {
		diffs = append(diffs, electricalDifferences(in.Original.Specs, in.Candidate.Specs)...)
	}
	return diffs
}

func electricalDifferences(orig, cand map[string]string) []model.TechnicalDifference {
	var diffs []model.TechnicalDifference

	if ov, cv := orig[specVoltage], cand[specVoltage]; ov != "" && cv != "" && ov != cv {
		impact := model.ImpactNegative
		note := "voltage ranges do not overlap"
		or, okO := parseElect(ov)
		cr, okC := parseElect(cv)
		if okO && okC && or.overlaps(cr) {
			impact = model.ImpactNeutral
			note = "voltage ranges overlap"
		}
		diffs = append(diffs, model.TechnicalDifference{
			Property: specVoltage, Original: ov, Alternative: cv,
			Impact: impact, Note: note,
		})
	}

	if oc, cc := orig[specCurrent], cand[specCurrent]; oc != "" && cc != "" && oc != cc {
		impact := model.ImpactNegative
		note := "candidate supplies less current"
		or, okO := parseElect(oc)
		cr, okC := parseElect(cc)
		if okO && okC && or.Unit == cr.Unit {
			switch {
			case cr.Max >= or.Max:
				impact = model.ImpactPositive
				note = "candidate supplies more current"
			case cr.Max >= or.Max*0.8:
				impact = model.ImpactNeutral
				note = "current within tolerance"
			}
		}
		diffs = append(diffs, model.TechnicalDifference{
			Property: specCurrent, Original: oc, Alternative: cc,
			Impact: impact, Note: note,
		})
	}

	if op, cp := orig[specProtocols], cand[specProtocols]; op != "" && op != cp {
		if frac, ok := protocolScore(orig, cand); ok && frac < 100 {
			diffs = append(diffs, model.TechnicalDifference{
				Property: specProtocols, Original: op, Alternative: cp,
				Impact: model.ImpactNegative,
				Note:   "candidate does not speak every required protocol",
			})
		}
	}
	return diffs
}

// usability classifies drop-in friction from the score and the number of
// negative differences.
func usability(score float64, negatives int) model.UsabilityImpact {
	switch {
	case score >= 90 && negatives == 0:
		return model.UsabilityNone
	case score >= 80 && negatives <= 1:
		return model.UsabilityMinimal
	case score >= 60 && negatives <= 2:
		return model.UsabilityModerate
	default:
		return model.UsabilitySignificant
	}
}

var modificationActions = map[string]string{
	specVoltage:   "adjust the supply voltage or add a regulator",
	specCurrent:   "upgrade the power supply",
	specProtocols: "update software protocol support",
}

// modifications lists the required rework, one action per negative
// difference.
func modifications(diffs []model.TechnicalDifference) []string {
	var out []string
	for _, d := range diffs {
		if d.Impact != model.ImpactNegative {
			continue
		}
		action, ok := modificationActions[d.Property]
		if !ok {
			action = "review and adjust the " + d.Property + " difference"
		}
		out = append(out, action)
	}
	return out
}

func explanation(in Input, score float64, negatives int) string {
	var reasons []string
	if strings.EqualFold(in.Original.Category, in.Candidate.Category) {
		reasons = append(reasons, "same category")
	}
	if in.Original.Manufacturer != "" &&
		strings.EqualFold(in.Original.Manufacturer, in.Candidate.Manufacturer) {
		reasons = append(reasons, "same manufacturer")
	}
	if avail := in.Candidate.Available(); avail > 0 {
		reasons = append(reasons, fmt.Sprintf("%d in stock", avail))
	}
	if in.OriginalPrice > 0 && in.CandidatePrice > 0 && in.CandidatePrice < in.OriginalPrice {
		saving := (in.OriginalPrice - in.CandidatePrice) / in.OriginalPrice * 100
		reasons = append(reasons, fmt.Sprintf("saves %.0f%%", saving))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "partial match")
	}

	s := fmt.Sprintf("%s: compatibility %.0f/100", strings.Join(reasons, ", "), score)
	if negatives > 0 {
		s += fmt.Sprintf("; %d difference(s) need attention", negatives)
	}
	return s
}
