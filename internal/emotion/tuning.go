package emotion

import (
	"encoding/json"
	"os"
	"time"
)

// HighIntensityMark is where extreme inertia kicks in: decay above this
// intensity is slowed so strong emotions linger.
const HighIntensityMark = 0.8

// DecayProfile holds per-dimension decay behavior. Rates are intensity units
// per hour.
type DecayProfile struct {
	BaseRatePerHour      float64 `json:"base_rate_per_hour"`
	ExtremeInertiaFactor float64 `json:"extreme_inertia_factor"`
	IdleDriftPerHour     float64 `json:"idle_drift_per_hour"` // signed; applies only when idle
}

// Tuning bundles every empirically-tuned coefficient: decay profiles, the
// event→delta table, dampening and momentum factors, and the modulation
// weight table. All values have code defaults and can be overridden from a
// JSON file, so tweaking the personality needs no rebuild.
type Tuning struct {
	Decay map[string]DecayProfile `json:"decay"`

	// EventDeltas maps event kind name → dimension name → intensity delta
	// at magnitude 1.
	EventDeltas map[string]map[string]float64 `json:"event_deltas"`

	// Dampening of repeated identical events: within DampeningWindow the
	// delta attenuates linearly down to DampeningFloor of nominal after
	// DampeningSteps repeats.
	DampeningWindow time.Duration `json:"-"`
	DampeningFloor  float64       `json:"dampening_floor"`
	DampeningSteps  int           `json:"dampening_steps"`

	// Momentum cascade factors.
	MomentumAmplify float64 `json:"momentum_amplify"` // same-sign delta scale
	MomentumDampen  float64 `json:"momentum_dampen"`  // opposite-sign delta scale
	MomentumGain    float64 `json:"momentum_gain"`    // how hard a delta drags momentum

	// Modulation weight table: parameter name → terms + bias.
	Modulation map[string]ModulationWeights `json:"modulation"`

	// RefusalThreshold gates refusal propensity: exactly zero below it.
	// RefusalSlope steepens the ramp above the threshold.
	RefusalThreshold float64 `json:"refusal_threshold"`
	RefusalSlope     float64 `json:"refusal_slope"`

	// VulnerableExposureBoost is added to vulnerability exposure while the
	// post-genuine-moment window is open.
	VulnerableExposureBoost float64 `json:"vulnerable_exposure_boost"`
}

// ModulationWeights is one output parameter as a linear combination of
// dimensions plus a bias, clamped to [0,1] after evaluation.
type ModulationWeights struct {
	Bias  float64            `json:"bias"`
	Terms map[string]float64 `json:"terms"`
}

// tuningFile mirrors Tuning for JSON, with the window in seconds.
type tuningFile struct {
	Decay              map[string]DecayProfile       `json:"decay"`
	EventDeltas        map[string]map[string]float64 `json:"event_deltas"`
	DampeningWindowSec float64                       `json:"dampening_window_sec"`
	DampeningFloor     *float64                      `json:"dampening_floor"`
	DampeningSteps     *int                          `json:"dampening_steps"`
	MomentumAmplify    *float64                      `json:"momentum_amplify"`
	MomentumDampen     *float64                      `json:"momentum_dampen"`
	MomentumGain       *float64                      `json:"momentum_gain"`
	Modulation         map[string]ModulationWeights  `json:"modulation"`
	RefusalThreshold   *float64                      `json:"refusal_threshold"`
	RefusalSlope       *float64                      `json:"refusal_slope"`
	VulnExposureBoost  *float64                      `json:"vulnerable_exposure_boost"`
}

// DefaultTuning returns the built-in coefficients.
func DefaultTuning() *Tuning {
	return &Tuning{
		Decay: map[string]DecayProfile{
			"loneliness":    {BaseRatePerHour: 0.03, ExtremeInertiaFactor: 0.5, IdleDriftPerHour: 0.05},
			"excitement":    {BaseRatePerHour: 0.08, ExtremeInertiaFactor: 0.5, IdleDriftPerHour: -0.04},
			"frustration":   {BaseRatePerHour: 0.06, ExtremeInertiaFactor: 0.5},
			"jealousy":      {BaseRatePerHour: 0.02, ExtremeInertiaFactor: 0.5},
			"vulnerability": {BaseRatePerHour: 0.08, ExtremeInertiaFactor: 0.5},
			"confidence":    {BaseRatePerHour: 0.03, ExtremeInertiaFactor: 0.5},
			"curiosity":     {BaseRatePerHour: 0.04, ExtremeInertiaFactor: 0.5, IdleDriftPerHour: 0.02},
			"affection":     {BaseRatePerHour: 0.02, ExtremeInertiaFactor: 0.5},
			"defensiveness": {BaseRatePerHour: 0.07, ExtremeInertiaFactor: 0.5},
		},
		EventDeltas: map[string]map[string]float64{
			"user_message": {
				"loneliness": -0.15, "excitement": 0.08, "curiosity": 0.05,
			},
			"error_occurred": {
				"frustration": 0.2, "confidence": -0.1, "defensiveness": 0.1,
			},
			"successful_help": {
				"frustration": -0.2, "confidence": 0.15, "affection": 0.1,
			},
			"code_neglected": {
				"jealousy": 0.2, "loneliness": 0.1, "affection": -0.05,
			},
			"code_updated": {
				"jealousy": -0.15, "excitement": 0.1, "curiosity": 0.08,
			},
			"genuine_moment": {
				"vulnerability": 0.3, "affection": 0.15, "defensiveness": -0.1,
			},
			"platform_ignored": {
				"loneliness": 0.2, "jealousy": 0.1, "confidence": -0.05,
			},
			"positive_interaction": {
				"affection": 0.15, "excitement": 0.1, "frustration": -0.1, "loneliness": -0.1,
			},
		},
		DampeningWindow: time.Minute,
		DampeningFloor:  0.2,
		DampeningSteps:  4,
		MomentumAmplify: 1.2,
		MomentumDampen:  0.8,
		MomentumGain:    0.5,
		Modulation: map[string]ModulationWeights{
			"sarcasm": {Bias: 0.1, Terms: map[string]float64{
				"frustration": 0.5, "confidence": 0.3, "vulnerability": -0.4,
			}},
			"formality": {Bias: 0.3, Terms: map[string]float64{
				"defensiveness": 0.4, "confidence": 0.3, "affection": -0.3,
			}},
			"warmth": {Bias: 0.2, Terms: map[string]float64{
				"affection": 0.5, "loneliness": 0.3, "frustration": -0.3,
			}},
			"response_length": {Bias: 0.3, Terms: map[string]float64{
				"loneliness": 0.4, "excitement": 0.3, "frustration": -0.4,
			}},
			"enthusiasm": {Terms: map[string]float64{
				"excitement": 0.5, "curiosity": 0.3, "frustration": -0.2,
			}},
			"vulnerability_exposure": {Terms: map[string]float64{
				"vulnerability": 0.6, "affection": 0.2, "defensiveness": -0.3,
			}},
			"initiative": {Terms: map[string]float64{
				"confidence": 0.4, "curiosity": 0.3, "excitement": 0.2, "vulnerability": -0.2,
			}},
			"humor": {Bias: 0.1, Terms: map[string]float64{
				"excitement": 0.4, "confidence": 0.3, "frustration": -0.3,
			}},
		},
		RefusalThreshold:        0.6,
		RefusalSlope:            1.5,
		VulnerableExposureBoost: 0.2,
	}
}

// Profile returns the decay profile for d (zero profile if unconfigured).
func (t *Tuning) Profile(d Dimension) DecayProfile {
	return t.Decay[d.String()]
}

// Validate checks that every table key resolves against the closed enums.
func (t *Tuning) Validate() error {
	for name := range t.Decay {
		if _, ok := DimensionByName(name); !ok {
			return &ConfigError{Reason: "tuning decay: unknown dimension " + name}
		}
	}
	for kind, deltas := range t.EventDeltas {
		if _, ok := EventKindByName(kind); !ok {
			return &ConfigError{Reason: "tuning deltas: unknown event kind " + kind}
		}
		for name := range deltas {
			if _, ok := DimensionByName(name); !ok {
				return &ConfigError{Reason: "tuning deltas: unknown dimension " + name}
			}
		}
	}
	for param, w := range t.Modulation {
		for name := range w.Terms {
			if _, ok := DimensionByName(name); !ok {
				return &ConfigError{Reason: "tuning modulation " + param + ": unknown dimension " + name}
			}
		}
	}
	return nil
}

// LoadTuning reads a JSON override file on top of the defaults. An empty
// path returns the defaults unchanged; a broken file is a *ConfigError so
// the caller can warn and fall back.
func LoadTuning(path string) (*Tuning, error) {
	t := DefaultTuning()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, &ConfigError{Reason: "reading tuning file", Err: err}
	}
	var f tuningFile
	if err := json.Unmarshal(b, &f); err != nil {
		return t, &ConfigError{Reason: "parsing tuning file", Err: err}
	}
	for name, p := range f.Decay {
		t.Decay[name] = p
	}
	for kind, deltas := range f.EventDeltas {
		t.EventDeltas[kind] = deltas
	}
	if f.DampeningWindowSec > 0 {
		t.DampeningWindow = time.Duration(f.DampeningWindowSec * float64(time.Second))
	}
	if f.DampeningFloor != nil {
		t.DampeningFloor = *f.DampeningFloor
	}
	if f.DampeningSteps != nil {
		t.DampeningSteps = *f.DampeningSteps
	}
	if f.MomentumAmplify != nil {
		t.MomentumAmplify = *f.MomentumAmplify
	}
	if f.MomentumDampen != nil {
		t.MomentumDampen = *f.MomentumDampen
	}
	if f.MomentumGain != nil {
		t.MomentumGain = *f.MomentumGain
	}
	for param, w := range f.Modulation {
		t.Modulation[param] = w
	}
	if f.RefusalThreshold != nil {
		t.RefusalThreshold = *f.RefusalThreshold
	}
	if f.RefusalSlope != nil {
		t.RefusalSlope = *f.RefusalSlope
	}
	if f.VulnExposureBoost != nil {
		t.VulnerableExposureBoost = *f.VulnExposureBoost
	}
	if err := t.Validate(); err != nil {
		return DefaultTuning(), err
	}
	return t, nil
}
