package emotion

import (
	"math"
	"time"
)

// Handler maps discrete events onto state deltas: looks the delta vector up
// in the tuning table, attenuates rapid repeats of the same kind, and lets
// per-dimension momentum amplify or dampen the shift. Not safe for
// concurrent use on its own; the Engine serializes all calls.
type Handler struct {
	tuning *Tuning
	recent map[EventKind][]time.Time
}

// NewHandler creates a handler over the given tuning.
func NewHandler(t *Tuning) *Handler {
	return &Handler{
		tuning: t,
		recent: make(map[EventKind][]time.Time),
	}
}

// Apply returns the state after ev. Unknown kinds fail with
// ErrUnknownEventKind and leave the state untouched; every valid input is
// total: deltas are clamped through the bounded setters, never rejected.
func (h *Handler) Apply(s *State, ev Event) (*State, error) {
	if !ev.Kind.Valid() {
		return s, ErrUnknownEventKind
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	magnitude := ev.Magnitude
	if magnitude <= 0 {
		magnitude = 1
	}

	attenuation := h.attenuation(ev.Kind, at)
	h.remember(ev.Kind, at)

	out := s.Clone()
	for name, base := range h.tuning.EventDeltas[ev.Kind.String()] {
		d, ok := DimensionByName(name)
		if !ok {
			continue // tuning is validated at load
		}
		delta := base * magnitude * attenuation
		eff := h.cascade(out.Momentum(d), delta)
		out.SetBounded(d, out.Get(d)+eff)
		out.SetMomentum(d, out.Momentum(d)+h.tuning.MomentumGain*eff)
	}

	if ev.Kind == EventGenuineMoment {
		out.VulnerableUntil = at.Add(VulnerabilityWindow)
	}
	return out, nil
}

// cascade scales a delta by the momentum it runs with or against: a shift in
// the direction the emotion is already moving lands harder, one against it
// lands softer.
func (h *Handler) cascade(momentum, delta float64) float64 {
	if math.Abs(momentum) < signEps || delta == 0 {
		return delta
	}
	if momentum*delta > 0 {
		return delta * h.tuning.MomentumAmplify
	}
	return delta * h.tuning.MomentumDampen
}

// attenuation returns the dampening factor for a kind at time at: 1.0 for a
// fresh stimulus, stepping linearly down to the floor as identical events
// pile up inside the window.
func (h *Handler) attenuation(kind EventKind, at time.Time) float64 {
	repeats := 0
	cutoff := at.Add(-h.tuning.DampeningWindow)
	for _, t := range h.recent[kind] {
		if t.After(cutoff) && !t.After(at) {
			repeats++
		}
	}
	if repeats == 0 {
		return 1
	}
	steps := h.tuning.DampeningSteps
	if steps <= 0 {
		steps = 1
	}
	if repeats >= steps {
		return h.tuning.DampeningFloor
	}
	return 1 - (1-h.tuning.DampeningFloor)*float64(repeats)/float64(steps)
}

// remember records the event time and prunes everything outside the window.
func (h *Handler) remember(kind EventKind, at time.Time) {
	cutoff := at.Add(-h.tuning.DampeningWindow)
	kept := h.recent[kind][:0]
	for _, t := range h.recent[kind] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	h.recent[kind] = append(kept, at)
}
