package emotion

import (
	"time"
)

// NeutralIntensity is the boot value for every dimension and the backfill
// value for dimensions added to the schema after a record was written.
const NeutralIntensity = 0.5

// VulnerabilityWindow is how long the vulnerable flag stays open after a
// genuine moment.
const VulnerabilityWindow = 10 * time.Minute

// SchemaVersion of the persisted record. Bump when the dimension set or
// record layout changes.
const SchemaVersion = 1

// DimensionState is one axis of the emotional state: a bounded intensity and
// a signed momentum used to amplify cascading shifts.
type DimensionState struct {
	Intensity float64 `json:"intensity"`
	Momentum  float64 `json:"momentum"`
}

// State is the single live emotional state of the companion. It carries no
// behavior beyond bounded mutation and (de)serialization; all real mutation
// goes through Decay and Handler.Apply, serialized by the Engine.
type State struct {
	dims            [dimensionCount]DimensionState
	LastUpdated     time.Time
	VulnerableUntil time.Time
}

// NewNeutralState returns the first-boot state: every dimension at the
// neutral default with zero momentum.
func NewNeutralState(now time.Time) *State {
	s := &State{LastUpdated: now}
	for d := range s.dims {
		s.dims[d] = DimensionState{Intensity: NeutralIntensity}
	}
	return s
}

// Get returns the current intensity for d.
func (s *State) Get(d Dimension) float64 {
	if d < 0 || d >= dimensionCount {
		return 0
	}
	return s.dims[d].Intensity
}

// Momentum returns the current momentum for d.
func (s *State) Momentum(d Dimension) float64 {
	if d < 0 || d >= dimensionCount {
		return 0
	}
	return s.dims[d].Momentum
}

// SetBounded sets intensity clamped to [floor, 1]. Out-of-range input is a
// clamp, never an error.
func (s *State) SetBounded(d Dimension, v float64) {
	if d < 0 || d >= dimensionCount {
		return
	}
	s.dims[d].Intensity = clamp(v, d.Floor(), 1.0)
}

// SetMomentum sets momentum clamped to [-1, 1].
func (s *State) SetMomentum(d Dimension, m float64) {
	if d < 0 || d >= dimensionCount {
		return
	}
	s.dims[d].Momentum = clamp(m, -1.0, 1.0)
}

// Vulnerable reports whether the temporary vulnerability window is open.
func (s *State) Vulnerable(now time.Time) bool {
	return !s.VulnerableUntil.IsZero() && now.Before(s.VulnerableUntil)
}

// Clone returns an independent copy.
func (s *State) Clone() *State {
	out := *s
	return &out
}

// Record is the durable layout of a State. Dimensions are keyed by name so
// the set can evolve across versions (see StateFromRecord).
type Record struct {
	SchemaVersion   int                       `json:"schema_version"`
	Dimensions      map[string]DimensionState `json:"dimensions"`
	LastUpdated     time.Time                 `json:"last_updated"`
	VulnerableUntil time.Time                 `json:"vulnerable_until,omitzero"`
}

// ToRecord serializes the state.
func (s *State) ToRecord() Record {
	rec := Record{
		SchemaVersion:   SchemaVersion,
		Dimensions:      make(map[string]DimensionState, dimensionCount),
		LastUpdated:     s.LastUpdated,
		VulnerableUntil: s.VulnerableUntil,
	}
	for d := Dimension(0); d < dimensionCount; d++ {
		rec.Dimensions[d.String()] = s.dims[d]
	}
	return rec
}

// StateFromRecord rebuilds a State from a persisted record. A name outside
// the closed dimension set fails with *ConfigError; a dimension missing from
// the record (added after the record was written) is backfilled at the
// neutral default. Values are re-clamped on the way in.
func StateFromRecord(rec Record) (*State, error) {
	for name := range rec.Dimensions {
		if _, ok := DimensionByName(name); !ok {
			return nil, &ConfigError{Reason: "unknown dimension " + name}
		}
	}
	s := &State{
		LastUpdated:     rec.LastUpdated,
		VulnerableUntil: rec.VulnerableUntil,
	}
	for d := Dimension(0); d < dimensionCount; d++ {
		ds, ok := rec.Dimensions[d.String()]
		if !ok {
			ds = DimensionState{Intensity: NeutralIntensity}
		}
		s.dims[d] = DimensionState{
			Intensity: clamp(ds.Intensity, d.Floor(), 1.0),
			Momentum:  clamp(ds.Momentum, -1.0, 1.0),
		}
	}
	return s, nil
}

// Snapshot is a serializable read-only copy for adapters, dashboards and
// logs. Taken under the engine lock, safe to hold across LLM calls.
type Snapshot struct {
	Dimensions      map[string]DimensionState `json:"dimensions"`
	LastUpdated     time.Time                 `json:"last_updated"`
	VulnerableUntil time.Time                 `json:"vulnerable_until,omitzero"`
	Vulnerable      bool                      `json:"vulnerable"`
}

// SnapshotAt copies the state for external readers.
func (s *State) SnapshotAt(now time.Time) Snapshot {
	snap := Snapshot{
		Dimensions:      make(map[string]DimensionState, dimensionCount),
		LastUpdated:     s.LastUpdated,
		VulnerableUntil: s.VulnerableUntil,
		Vulnerable:      s.Vulnerable(now),
	}
	for d := Dimension(0); d < dimensionCount; d++ {
		snap.Dimensions[d.String()] = s.dims[d]
	}
	return snap
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
