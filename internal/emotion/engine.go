package emotion

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Engine owns the single live EmotionalState of the process and serializes
// every mutation: decay for elapsed time, event delta, persist, as one atomic
// unit per incoming event, so concurrent platform adapters never lose an
// update to each other. Reads copy a snapshot out under the lock; nothing
// downstream (LLM calls included) ever holds it.
type Engine struct {
	mu      sync.Mutex
	state   *State
	handler *Handler
	store   *Store // nil = memory-only
	tuning  *Tuning
	log     zerolog.Logger

	idleAfter   time.Duration
	lastEventAt time.Time
	degraded    bool

	onChange func(Snapshot) // called outside the lock after each mutation
}

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Store     *Store // optional; nil runs memory-only
	Tuning    *Tuning
	Logger    zerolog.Logger
	IdleAfter time.Duration // quiet time before idle drift applies
	OnChange  func(Snapshot)
}

// NewEngine loads the persisted state (with offline catch-up) or starts
// neutral. A broken persisted record is a warning, never a startup failure.
func NewEngine(opts EngineOptions) *Engine {
	if opts.Tuning == nil {
		opts.Tuning = DefaultTuning()
	}
	if opts.IdleAfter <= 0 {
		opts.IdleAfter = 10 * time.Minute
	}
	e := &Engine{
		handler:   NewHandler(opts.Tuning),
		store:     opts.Store,
		tuning:    opts.Tuning,
		log:       opts.Logger,
		idleAfter: opts.IdleAfter,
		onChange:  opts.OnChange,
	}

	now := time.Now()
	if e.store != nil {
		state, err := e.store.Load(now)
		switch {
		case err != nil:
			e.log.Warn().Err(err).Msg("persisted emotional state unusable, starting neutral")
		case state != nil:
			e.state = state
		}
	}
	if e.state == nil {
		e.state = NewNeutralState(now)
	}
	e.lastEventAt = now
	return e
}

// RecordEvent is the single mutation entry point. The returned snapshot
// reflects the state after the event. A *PersistenceError means the state
// was updated in memory but could not be saved; the caller may keep going
// degraded. ErrUnknownEventKind leaves the state untouched.
func (e *Engine) RecordEvent(ev Event) (Snapshot, error) {
	if !ev.Kind.Valid() {
		return Snapshot{}, ErrUnknownEventKind
	}
	now := ev.At
	if now.IsZero() {
		now = time.Now()
		ev.At = now
	}

	e.mu.Lock()
	e.decayLocked(now)
	next, err := e.handler.Apply(e.state, ev)
	if err != nil {
		snap := e.state.SnapshotAt(now)
		e.mu.Unlock()
		return snap, err
	}
	e.state = next
	e.state.LastUpdated = now
	e.lastEventAt = now
	snap := e.state.SnapshotAt(now)
	perr := e.persistLocked()
	e.mu.Unlock()

	e.log.Debug().
		Str("event", ev.Kind.String()).
		Str("event_id", ev.ID).
		Str("platform", ev.Platform).
		Float64("magnitude", ev.Magnitude).
		Msg("event recorded")
	e.notify(snap)
	return snap, perr
}

// Modulation derives generation parameters from the current state. Always
// succeeds; a missing state yields neutral parameters.
func (e *Engine) Modulation() Parameters {
	now := time.Now()
	e.mu.Lock()
	state := e.state.Clone()
	e.mu.Unlock()
	return Modulate(state, now, e.tuning)
}

// Snapshot returns a serializable read-only copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	now := time.Now()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.SnapshotAt(now)
}

// LastEventAt returns when the last external event was recorded (for the
// neglect/ignore watchers).
func (e *Engine) LastEventAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEventAt
}

// Run periodically advances decay so the state keeps moving (loneliness
// creeping up during quiet hours) and stays persisted. Blocks until ctx is
// done; run in a goroutine.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			e.mu.Lock()
			e.decayLocked(now)
			perr := e.persistLocked()
			snap := e.state.SnapshotAt(now)
			e.mu.Unlock()
			if perr != nil {
				e.log.Warn().Err(perr).Msg("periodic persist failed")
			}
			e.notify(snap)
		}
	}
}

// decayLocked advances the state to now. Caller holds the lock.
func (e *Engine) decayLocked(now time.Time) {
	elapsed := now.Sub(e.state.LastUpdated)
	if elapsed <= 0 {
		return
	}
	idle := now.Sub(e.lastEventAt) > e.idleAfter
	e.state = Decay(e.state, elapsed, idle, e.tuning)
}

// persistLocked saves with one retry, then degrades to memory-only with a
// warning. The live state always stays valid. Caller holds the lock.
func (e *Engine) persistLocked() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Save(e.state)
	if err == nil {
		if e.degraded {
			e.degraded = false
			e.log.Info().Msg("persistence recovered")
		}
		return nil
	}
	if err = e.store.Save(e.state); err == nil {
		return nil
	}
	if !e.degraded {
		e.degraded = true
		e.log.Warn().Err(err).Msg("persistence failing, continuing memory-only")
	}
	return err
}

func (e *Engine) notify(snap Snapshot) {
	if e.onChange != nil {
		e.onChange(snap)
	}
}
