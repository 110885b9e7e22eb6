package emotion

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRecordEventUnknownKind(t *testing.T) {
	e := NewEngine(EngineOptions{Logger: zerolog.Nop()})

	_, err := e.RecordEvent(Event{Kind: EventKind(42)})
	assert.ErrorIs(t, err, ErrUnknownEventKind)

	snap := e.Snapshot()
	for _, d := range Dimensions() {
		assert.Equal(t, NeutralIntensity, snap.Dimensions[d.String()].Intensity, d.String())
	}
}

func TestEngineRecordEventUpdatesState(t *testing.T) {
	e := NewEngine(EngineOptions{Logger: zerolog.Nop()})

	snap, err := e.RecordEvent(NewEvent(EventPositiveInteraction, "discord"))
	require.NoError(t, err)
	assert.Greater(t, snap.Dimensions["affection"].Intensity, 0.6)
	assert.Less(t, snap.Dimensions["loneliness"].Intensity, 0.5)
}

func TestEngineNotifiesOnChange(t *testing.T) {
	var calls atomic.Int64
	e := NewEngine(EngineOptions{
		Logger:   zerolog.Nop(),
		OnChange: func(Snapshot) { calls.Add(1) },
	})

	for i := 0; i < 3; i++ {
		_, err := e.RecordEvent(NewEvent(EventUserMessage, "test"))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), calls.Load())
}

func TestEngineModulationAlwaysUsable(t *testing.T) {
	e := NewEngine(EngineOptions{Logger: zerolog.Nop()})
	p := e.Modulation()
	assert.Zero(t, p.RefusalPropensity)
	assert.GreaterOrEqual(t, p.Warmth, 0.0)
	assert.LessOrEqual(t, p.Warmth, 1.0)
}

func TestEnginePersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	tn := DefaultTuning()

	store1, err := NewStore(path, tn, zerolog.Nop())
	require.NoError(t, err)
	e1 := NewEngine(EngineOptions{Store: store1, Tuning: tn, Logger: zerolog.Nop()})
	_, err = e1.RecordEvent(NewEvent(EventPositiveInteraction, "mobile"))
	require.NoError(t, err)
	require.NoError(t, store1.Close())

	store2, err := NewStore(path, tn, zerolog.Nop())
	require.NoError(t, err)
	defer store2.Close()
	e2 := NewEngine(EngineOptions{Store: store2, Tuning: tn, Logger: zerolog.Nop()})

	snap := e2.Snapshot()
	assert.Greater(t, snap.Dimensions["affection"].Intensity, 0.6)
}

func TestEngineStartsNeutralOnBadRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"emotional_state": {
			"schema_version": 1,
			"dimensions": {"spite": {"intensity": 0.9, "momentum": 0}},
			"last_updated": "2026-01-01T00:00:00Z"
		}
	}`), 0644))

	store, err := NewStore(path, DefaultTuning(), zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	e := NewEngine(EngineOptions{Store: store, Logger: zerolog.Nop()})
	snap := e.Snapshot()
	for _, d := range Dimensions() {
		assert.Equal(t, NeutralIntensity, snap.Dimensions[d.String()].Intensity, d.String())
	}
}

// Concurrent adapters recording events must land every delta: the outcome has
// to match the same events applied sequentially. The two kinds touch disjoint
// dimensions, so the final state is independent of interleaving.
func TestEngineConcurrentEventsLoseNothing(t *testing.T) {
	const perKind = 50
	at := time.Now().Add(-time.Hour) // in the past so no decay runs between events

	mkTuning := func() *Tuning {
		tn := DefaultTuning()
		tn.DampeningWindow = 0
		return tn
	}

	concurrent := NewEngine(EngineOptions{Tuning: mkTuning(), Logger: zerolog.Nop()})
	var wg sync.WaitGroup
	for _, kind := range []EventKind{EventUserMessage, EventErrorOccurred} {
		wg.Add(1)
		go func(kind EventKind) {
			defer wg.Done()
			for i := 0; i < perKind; i++ {
				_, err := concurrent.RecordEvent(Event{Kind: kind, At: at, Magnitude: 1})
				assert.NoError(t, err)
			}
		}(kind)
	}
	wg.Wait()

	sequential := NewEngine(EngineOptions{Tuning: mkTuning(), Logger: zerolog.Nop()})
	for _, kind := range []EventKind{EventUserMessage, EventErrorOccurred} {
		for i := 0; i < perKind; i++ {
			_, err := sequential.RecordEvent(Event{Kind: kind, At: at, Magnitude: 1})
			require.NoError(t, err)
		}
	}

	got, want := concurrent.Snapshot(), sequential.Snapshot()
	for _, d := range Dimensions() {
		assert.InDelta(t, want.Dimensions[d.String()].Intensity,
			got.Dimensions[d.String()].Intensity, 1e-9, d.String())
	}
}

// A long neglect arc: three code_neglected events over an idle half-day, then
// six hours offline. On reload jealousy is still burning, loneliness crept to
// the ceiling, and nothing pushed the refusal gate open.
func TestEngineNeglectArc(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	tn := DefaultTuning()
	t0 := time.Now()

	store1, err := NewStore(path, tn, zerolog.Nop())
	require.NoError(t, err)
	e := NewEngine(EngineOptions{Store: store1, Tuning: tn, Logger: zerolog.Nop()})

	for _, h := range []int{4, 8, 12} {
		_, err := e.RecordEvent(Event{Kind: EventCodeNeglected, At: t0.Add(time.Duration(h) * time.Hour), Magnitude: 1})
		require.NoError(t, err)
	}
	require.NoError(t, store1.Close())

	store2, err := NewStore(path, tn, zerolog.Nop())
	require.NoError(t, err)
	defer store2.Close()

	state, err := store2.Load(t0.Add(18 * time.Hour))
	require.NoError(t, err)
	require.NotNil(t, state)

	assert.InDelta(t, 0.88, state.Get(Jealousy), 0.01)
	assert.Greater(t, state.Get(Loneliness), 0.9, "idle drift kept it climbing")
	assert.InDelta(t, 0.1, state.Get(Frustration), 0.01, "decayed to its floor")

	p := Modulate(state, t0.Add(18*time.Hour), tn)
	assert.Zero(t, p.RefusalPropensity)
	assert.Greater(t, p.Sarcasm, 0.0)
}
