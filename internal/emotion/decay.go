package emotion

import (
	"math"
	"time"
)

const signEps = 1e-9

// Decay advances the state by elapsed wall-clock time without any event.
// Intensities drift toward their floors at the profiled rate, slowed above
// the extreme mark; idle drift (signed) is added on top when idle. Momentum
// relaxes toward zero as exp(-hours), independent of intensity.
//
// The integration is exact piecewise-linear with at most a handful of
// segments per dimension, so a multi-day offline gap costs the same as a
// two-second one, and decaying once for T equals decaying N times for T/N.
// elapsed <= 0 returns an unchanged copy: out-of-order timestamps are a
// no-op, never an error.
func Decay(s *State, elapsed time.Duration, idle bool, t *Tuning) *State {
	out := s.Clone()
	if elapsed <= 0 {
		return out
	}
	hours := elapsed.Hours()
	momentumKeep := math.Exp(-hours)
	for d := Dimension(0); d < dimensionCount; d++ {
		p := t.Profile(d)
		drift := 0.0
		if idle {
			drift = p.IdleDriftPerHour
		}
		out.dims[d].Intensity = decayIntensity(out.dims[d].Intensity, d.Floor(), p, drift, hours)
		out.dims[d].Momentum = clamp(out.dims[d].Momentum*momentumKeep, -1.0, 1.0)
	}
	out.LastUpdated = s.LastUpdated.Add(elapsed)
	if !out.VulnerableUntil.IsZero() && !out.LastUpdated.Before(out.VulnerableUntil) {
		out.VulnerableUntil = time.Time{}
	}
	return out
}

// decayIntensity integrates dx/dt = -sign(x-floor)*rate(x) + drift over
// hours, where rate(x) is slowed by the inertia factor above the extreme
// mark. Velocity is constant inside the segments (floor, mark) and
// (mark, 1), so the trajectory is walked segment by segment; the loop bound
// is defensive, three segments is the true maximum.
func decayIntensity(x, floor float64, p DecayProfile, drift, hours float64) float64 {
	x = clamp(x, floor, 1.0)
	vLow := drift - p.BaseRatePerHour                         // velocity in (floor, mark)
	vHigh := drift - p.BaseRatePerHour*p.ExtremeInertiaFactor // velocity in (mark, 1)
	mark := HighIntensityMark
	if mark < floor {
		mark = floor
	}

	remaining := hours
	for i := 0; i < 6 && remaining > signEps; i++ {
		// Pick the velocity and the bound the trajectory is heading for.
		// On a boundary, the adjacent segment decides whether it can leave.
		var v, bound float64
		switch {
		case x > mark+signEps: // high segment
			v, bound = vHigh, mark
			if vHigh > 0 {
				bound = 1.0
			}
		case x > floor+signEps && x < mark-signEps: // low segment
			v, bound = vLow, floor
			if vLow > 0 {
				bound = mark
			}
		case x >= mark-signEps && x <= mark+signEps: // at the mark
			switch {
			case vHigh > 0:
				v, bound = vHigh, 1.0
			case vLow < 0:
				v, bound = vLow, floor
			default:
				return x // balanced at the mark
			}
		default: // at the floor
			if drift <= p.BaseRatePerHour {
				return floor // decay pins it down
			}
			v, bound = vLow, mark
			if mark <= floor+signEps {
				v, bound = vHigh, 1.0
			}
		}

		span := (bound - x) / v
		if span <= 0 {
			break
		}
		if span >= remaining {
			x += v * remaining
			remaining = 0
		} else {
			x = bound
			remaining -= span
			if x >= 1.0-signEps && v > 0 {
				return 1.0 // clamped at the ceiling
			}
		}
	}
	return clamp(x, floor, 1.0)
}
