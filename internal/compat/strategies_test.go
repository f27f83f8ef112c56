package compat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsight/partsight-cli/internal/model"
)

func specInput(orig, cand map[string]string) Input {
	return Input{
		Original:  model.Component{ID: "a", Specs: orig},
		Candidate: model.Component{ID: "b", Specs: cand},
	}
}

func TestScoreSpecs_Neutrals(t *testing.T) {
	// No spec data at all.
	assert.Equal(t, 50.0, scoreSpecs(specInput(nil, nil)))
	// Candidate lacks specs entirely.
	assert.Equal(t, 25.0, scoreSpecs(specInput(map[string]string{"voltage": "5V"}, nil)))
	// Specs present but nothing comparable.
	assert.Equal(t, 50.0, scoreSpecs(specInput(
		map[string]string{"color": "red"},
		map[string]string{"color": "blue"},
	)))
}

func TestScoreSpecs_Voltage(t *testing.T) {
	// Overlapping ranges.
	assert.Equal(t, 100.0, scoreSpecs(specInput(
		map[string]string{"voltage": "3.3V"},
		map[string]string{"voltage": "3-5V"},
	)))
	// Disjoint ranges.
	assert.Equal(t, 0.0, scoreSpecs(specInput(
		map[string]string{"voltage": "12V"},
		map[string]string{"voltage": "3-5V"},
	)))
	// Unit mismatch never overlaps.
	assert.Equal(t, 0.0, scoreSpecs(specInput(
		map[string]string{"voltage": "5V"},
		map[string]string{"voltage": "5mV"},
	)))
}

func TestScoreSpecs_CurrentTolerance(t *testing.T) {
	// 850mA covers 80% of a 1000mA requirement.
	assert.Equal(t, 100.0, scoreSpecs(specInput(
		map[string]string{"current": "1000mA"},
		map[string]string{"current": "850mA"},
	)))
	assert.Equal(t, 0.0, scoreSpecs(specInput(
		map[string]string{"current": "1000mA"},
		map[string]string{"current": "500mA"},
	)))
}

func TestScoreSpecs_ProtocolFraction(t *testing.T) {
	score := scoreSpecs(specInput(
		map[string]string{"protocols": "i2c, spi"},
		map[string]string{"protocols": "I2C, uart"},
	))
	assert.InDelta(t, 50.0, score, 1e-9)
}

func TestScoreAvailability_Linear(t *testing.T) {
	for qty, want := range map[int]float64{0: 0, 1: 20, 3: 60, 5: 100, 50: 100} {
		in := Input{Candidate: model.Component{Quantity: qty}}
		assert.Equal(t, want, scoreAvailability(in), "qty=%d", qty)
	}
}

func TestScorePrice(t *testing.T) {
	in := Input{OriginalPrice: 100, CandidatePrice: 80}
	assert.InDelta(t, 80.0, scorePrice(in), 1e-9)

	// Wild price differences clamp at zero.
	in.CandidatePrice = 500
	assert.Equal(t, 0.0, scorePrice(in))

	// Unknown prices are neutral.
	in.CandidatePrice = 0
	assert.Equal(t, 50.0, scorePrice(in))
}

func TestUsabilityClassification(t *testing.T) {
	assert.Equal(t, model.UsabilityNone, usability(95, 0))
	assert.Equal(t, model.UsabilityMinimal, usability(85, 1))
	assert.Equal(t, model.UsabilityModerate, usability(70, 2))
	assert.Equal(t, model.UsabilitySignificant, usability(95, 3))
	assert.Equal(t, model.UsabilitySignificant, usability(40, 0))
}

func TestModifications(t *testing.T) {
	diffs := []model.TechnicalDifference{
		{Property: "voltage", Impact: model.ImpactNegative},
		{Property: "current", Impact: model.ImpactNegative},
		{Property: "condition", Impact: model.ImpactPositive},
		{Property: "shape", Impact: model.ImpactNegative},
	}
	mods := modifications(diffs)
	require.Len(t, mods, 3)
	assert.Equal(t, "adjust the supply voltage or add a regulator", mods[0])
	assert.Equal(t, "upgrade the power supply", mods[1])
	assert.Contains(t, mods[2], "shape")
}
