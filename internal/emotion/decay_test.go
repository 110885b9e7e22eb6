package emotion

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecayNonPositiveElapsedIsNoOp(t *testing.T) {
	tn := DefaultTuning()
	s := NewNeutralState(time.Now())
	s.SetBounded(Frustration, 0.9)
	s.SetMomentum(Frustration, 0.4)

	for _, elapsed := range []time.Duration{0, -time.Hour} {
		out := Decay(s, elapsed, false, tn)
		assert.Equal(t, s.Get(Frustration), out.Get(Frustration))
		assert.Equal(t, s.Momentum(Frustration), out.Momentum(Frustration))
		assert.Equal(t, s.LastUpdated, out.LastUpdated)
	}
}

func TestDecayDoesNotMutateInput(t *testing.T) {
	tn := DefaultTuning()
	s := NewNeutralState(time.Now())
	s.SetBounded(Excitement, 0.9)

	_ = Decay(s, 5*time.Hour, false, tn)
	assert.Equal(t, 0.9, s.Get(Excitement))
}

func TestDecayConvergesToFloors(t *testing.T) {
	tn := DefaultTuning()
	s := NewNeutralState(time.Now())
	for _, d := range Dimensions() {
		s.SetBounded(d, 0.95)
	}

	out := Decay(s, 1000*time.Hour, false, tn)
	for _, d := range Dimensions() {
		assert.Equal(t, d.Floor(), out.Get(d), d.String())
	}
}

func TestIdleDriftOverpowersDecay(t *testing.T) {
	tn := DefaultTuning()
	s := NewNeutralState(time.Now())

	// Loneliness drifts up while idle faster than it decays down, so a long
	// quiet stretch pushes it to the ceiling. Excitement drains faster when
	// idle than when active.
	idle := Decay(s, 1000*time.Hour, true, tn)
	assert.Equal(t, 1.0, idle.Get(Loneliness))
	assert.Equal(t, 0.1, idle.Get(Excitement))

	shortIdle := Decay(s, 2*time.Hour, true, tn)
	shortActive := Decay(s, 2*time.Hour, false, tn)
	assert.Greater(t, shortIdle.Get(Loneliness), s.Get(Loneliness))
	assert.Less(t, shortActive.Get(Loneliness), s.Get(Loneliness))
	assert.Less(t, shortIdle.Get(Excitement), shortActive.Get(Excitement))
}

func TestDecayExtremeInertiaSlowsHighIntensity(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()

	hot := NewNeutralState(now)
	hot.SetBounded(Frustration, 0.95)
	warm := NewNeutralState(now)
	warm.SetBounded(Frustration, 0.75)

	hotOut := Decay(hot, time.Hour, false, tn)
	warmOut := Decay(warm, time.Hour, false, tn)

	hotDrop := 0.95 - hotOut.Get(Frustration)
	warmDrop := 0.75 - warmOut.Get(Frustration)
	assert.InDelta(t, 0.03, hotDrop, 1e-9, "halved rate above the mark")
	assert.InDelta(t, 0.06, warmDrop, 1e-9, "full rate below the mark")
}

func TestDecayMomentumRelaxesExponentially(t *testing.T) {
	tn := DefaultTuning()
	s := NewNeutralState(time.Now())
	s.SetMomentum(Jealousy, 0.8)
	s.SetMomentum(Affection, -0.6)

	out := Decay(s, time.Hour, false, tn)
	assert.InDelta(t, 0.8*math.Exp(-1), out.Momentum(Jealousy), 1e-9)
	assert.InDelta(t, -0.6*math.Exp(-1), out.Momentum(Affection), 1e-9)
}

// Decaying once for T must equal decaying N times for T/N, including
// trajectories that cross the extreme-inertia mark and hit floors.
func TestDecaySplitEquivalence(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()

	s := NewNeutralState(now)
	s.SetBounded(Loneliness, 0.92)
	s.SetBounded(Excitement, 0.85)
	s.SetBounded(Frustration, 0.3)
	s.SetBounded(Jealousy, 0.81)
	s.SetBounded(Vulnerability, 0.12)
	s.SetMomentum(Loneliness, 0.7)
	s.SetMomentum(Excitement, -0.4)

	for _, idle := range []bool{false, true} {
		once := Decay(s, 13*time.Hour, idle, tn)

		stepped := s
		for i := 0; i < 13; i++ {
			stepped = Decay(stepped, time.Hour, idle, tn)
		}

		for _, d := range Dimensions() {
			assert.InDelta(t, once.Get(d), stepped.Get(d), 1e-9,
				"%s intensity idle=%v", d, idle)
			assert.InDelta(t, once.Momentum(d), stepped.Momentum(d), 1e-9,
				"%s momentum idle=%v", d, idle)
		}
		assert.Equal(t, once.LastUpdated, stepped.LastUpdated)
	}
}

func TestDecayClearsExpiredVulnerableWindow(t *testing.T) {
	tn := DefaultTuning()
	now := time.Now()
	s := NewNeutralState(now)
	s.VulnerableUntil = now.Add(5 * time.Minute)

	still := Decay(s, 2*time.Minute, false, tn)
	require.False(t, still.VulnerableUntil.IsZero())

	expired := Decay(s, 10*time.Minute, false, tn)
	assert.True(t, expired.VulnerableUntil.IsZero())
}
