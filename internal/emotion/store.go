package emotion

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/keshon/companion/datastore"
)

const stateKey = "emotional_state"

// Store is the persistence gateway for the emotional state. It owns the
// durable copy; the Engine owns the live one. Writes are atomic (temp file +
// rename inside datastore), loads replay decay over the offline gap.
type Store struct {
	ds     *datastore.DataStore
	tuning *Tuning
	log    zerolog.Logger
}

// NewStore opens (or creates) the state file at path.
func NewStore(path string, tuning *Tuning, log zerolog.Logger) (*Store, error) {
	cfg := datastore.DefaultConfig(path)
	cfg.Logger = log
	ds, err := datastore.NewWithConfig(cfg)
	if err != nil {
		// An unreadable state file must not block startup: move it aside
		// and start fresh. The damaged copy stays on disk for inspection.
		aside := path + ".corrupt." + time.Now().Format("20060102_150405")
		if renameErr := os.Rename(path, aside); renameErr != nil {
			return nil, &PersistenceError{Op: "open", Err: err}
		}
		log.Warn().Err(err).Str("moved_to", aside).Msg("state file unreadable, starting fresh")
		if ds, err = datastore.NewWithConfig(cfg); err != nil {
			return nil, &PersistenceError{Op: "open", Err: err}
		}
	}
	return &Store{ds: ds, tuning: tuning, log: log}, nil
}

// Save writes the state durably. Failures come back as *PersistenceError;
// the caller decides whether to degrade to memory-only.
func (s *Store) Save(state *State) error {
	s.ds.Add(stateKey, state.ToRecord())
	if err := s.ds.SaveToFile(); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

// Load returns the persisted state with offline decay catch-up applied, or
// (nil, nil) when nothing was persisted yet. The gap since last_updated is
// replayed through Decay as idle time in one closed-form step; emotions
// kept evolving while the process was down, loneliness most of all.
func (s *Store) Load(now time.Time) (*State, error) {
	var rec Record
	found, err := s.ds.GetJSON(stateKey, &rec)
	if err != nil {
		return nil, &ConfigError{Reason: "decoding persisted state", Err: err}
	}
	if !found {
		return nil, nil
	}
	state, err := StateFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if gap := now.Sub(state.LastUpdated); gap > 0 {
		state = Decay(state, gap, true, s.tuning)
		s.log.Info().
			Dur("offline_gap", gap).
			Msg("applied offline decay catch-up")
	}
	return state, nil
}

// Close flushes and closes the underlying store.
func (s *Store) Close() error {
	if err := s.ds.Close(); err != nil {
		return &PersistenceError{Op: "close", Err: err}
	}
	return nil
}
