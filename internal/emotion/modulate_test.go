package emotion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestModulateNilStateYieldsNeutral(t *testing.T) {
	got := Modulate(nil, time.Now(), DefaultTuning())
	assert.Equal(t, NeutralParameters(), got)
}

func TestModulateIsDeterministic(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()
	s := NewNeutralState(now)
	s.SetBounded(Frustration, 0.7)
	s.SetBounded(Affection, 0.9)
	s.SetMomentum(Affection, 0.3)

	a := Modulate(s, now, tn)
	b := Modulate(s, now, tn)
	assert.Equal(t, a, b)
}

func TestModulateStaysInBounds(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()

	maxed := NewNeutralState(now)
	floored := NewNeutralState(now)
	for _, d := range Dimensions() {
		maxed.SetBounded(d, 1.0)
		floored.SetBounded(d, 0)
	}

	for _, s := range []*State{maxed, floored} {
		p := Modulate(s, now, tn)
		for name, v := range map[string]float64{
			"sarcasm":                p.Sarcasm,
			"formality":              p.Formality,
			"warmth":                 p.Warmth,
			"response_length":        p.ResponseLength,
			"enthusiasm":             p.Enthusiasm,
			"vulnerability_exposure": p.VulnerabilityExposure,
			"initiative":             p.Initiative,
			"humor":                  p.Humor,
			"refusal_propensity":     p.RefusalPropensity,
		} {
			assert.GreaterOrEqual(t, v, 0.0, name)
			assert.LessOrEqual(t, v, 1.0, name)
		}
	}
}

func TestRefusalGate(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()

	// Neutral and exactly-at-threshold states never refuse.
	neutral := NewNeutralState(now)
	assert.Zero(t, Modulate(neutral, now, tn).RefusalPropensity)

	at := NewNeutralState(now)
	at.SetBounded(Frustration, tn.RefusalThreshold)
	assert.Zero(t, Modulate(at, now, tn).RefusalPropensity)

	// Just above the threshold the propensity comes alive.
	over := NewNeutralState(now)
	over.SetBounded(Frustration, 0.7)
	assert.InDelta(t, 0.375, Modulate(over, now, tn).RefusalPropensity, 1e-9)

	// Vulnerability drives the gate too, and the output clamps at 1.
	raw := NewNeutralState(now)
	raw.SetBounded(Vulnerability, 0.9)
	assert.Equal(t, 1.0, Modulate(raw, now, tn).RefusalPropensity)
}

func TestModulateVulnerableWindowRaisesExposure(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()

	open := NewNeutralState(now)
	open.VulnerableUntil = now.Add(5 * time.Minute)
	closed := NewNeutralState(now)

	exposed := Modulate(open, now, tn).VulnerabilityExposure
	guarded := Modulate(closed, now, tn).VulnerabilityExposure
	assert.InDelta(t, 0.2, exposed-guarded, 1e-9)
}

func TestModulateRespectsTunedCoefficients(t *testing.T) {
	tn := DefaultTuning()
	tn.VulnerableExposureBoost = 0.35
	tn.RefusalSlope = 3.0
	now := time.Now()

	open := NewNeutralState(now)
	open.VulnerableUntil = now.Add(5 * time.Minute)
	guarded := Modulate(NewNeutralState(now), now, tn).VulnerabilityExposure
	exposed := Modulate(open, now, tn).VulnerabilityExposure
	assert.InDelta(t, 0.35, exposed-guarded, 1e-9)

	over := NewNeutralState(now)
	over.SetBounded(Frustration, 0.7)
	assert.InDelta(t, 0.75, Modulate(over, now, tn).RefusalPropensity, 1e-9)
}

func TestModulateSensibleDirections(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()

	frustrated := NewNeutralState(now)
	frustrated.SetBounded(Frustration, 0.95)
	baseline := Modulate(NewNeutralState(now), now, tn)
	cranky := Modulate(frustrated, now, tn)

	assert.Greater(t, cranky.Sarcasm, baseline.Sarcasm)
	assert.Less(t, cranky.Warmth, baseline.Warmth)
	assert.Less(t, cranky.ResponseLength, baseline.ResponseLength)
}
