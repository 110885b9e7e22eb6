package emotion

import "time"

// Parameters are the generation-control outputs derived from the emotional
// state. All values sit in [0,1]. Never persisted; recomputed fresh for
// every response.
type Parameters struct {
	Sarcasm               float64 `json:"sarcasm"`
	Formality             float64 `json:"formality"`
	Warmth                float64 `json:"warmth"`
	ResponseLength        float64 `json:"response_length"`
	Enthusiasm            float64 `json:"enthusiasm"`
	VulnerabilityExposure float64 `json:"vulnerability_exposure"`
	Initiative            float64 `json:"initiative"`
	Humor                 float64 `json:"humor"`

	// RefusalPropensity is a gate, not a dial: exactly zero until frustration
	// or vulnerability crosses the configured threshold, so a refusal is only
	// ever offered to the prompt layer with a real emotional cause behind it.
	RefusalPropensity float64 `json:"refusal_propensity"`
}

// NeutralParameters is the fallback when no state is available. Modulation
// must never fail the response pipeline.
func NeutralParameters() Parameters {
	return Parameters{
		Sarcasm:               0.5,
		Formality:             0.5,
		Warmth:                0.5,
		ResponseLength:        0.5,
		Enthusiasm:            0.5,
		VulnerabilityExposure: 0.5,
		Initiative:            0.5,
		Humor:                 0.5,
		RefusalPropensity:     0,
	}
}

// Modulate maps the state to generation parameters: each output is a linear
// combination of a few dimensions (weights from the tuning table) clamped to
// [0,1]. Pure, deterministic and cheap: no I/O, no clock reads beyond the
// caller-provided now (used only for the vulnerability window).
func Modulate(s *State, now time.Time, t *Tuning) Parameters {
	if s == nil {
		return NeutralParameters()
	}
	p := Parameters{
		Sarcasm:               evalWeights(s, t, "sarcasm"),
		Formality:             evalWeights(s, t, "formality"),
		Warmth:                evalWeights(s, t, "warmth"),
		ResponseLength:        evalWeights(s, t, "response_length"),
		Enthusiasm:            evalWeights(s, t, "enthusiasm"),
		VulnerabilityExposure: evalWeights(s, t, "vulnerability_exposure"),
		Initiative:            evalWeights(s, t, "initiative"),
		Humor:                 evalWeights(s, t, "humor"),
	}
	if s.Vulnerable(now) {
		p.VulnerabilityExposure = clamp(p.VulnerabilityExposure+t.VulnerableExposureBoost, 0, 1)
	}

	// Refusal gate: discrete behavior over continuous cause.
	drive := s.Get(Frustration)
	if v := s.Get(Vulnerability); v > drive {
		drive = v
	}
	if drive > t.RefusalThreshold && t.RefusalThreshold < 1 {
		p.RefusalPropensity = clamp((drive-t.RefusalThreshold)/(1-t.RefusalThreshold)*t.RefusalSlope, 0, 1)
	}
	return p
}

func evalWeights(s *State, t *Tuning, param string) float64 {
	w, ok := t.Modulation[param]
	if !ok {
		return 0.5
	}
	v := w.Bias
	for name, weight := range w.Terms {
		d, ok := DimensionByName(name)
		if !ok {
			continue
		}
		v += weight * s.Get(d)
	}
	return clamp(v, 0, 1)
}
