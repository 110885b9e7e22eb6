package emotion

import (
	"errors"
	"fmt"
)

// ErrUnknownEventKind is returned when a caller passes an event kind outside
// the closed set. Always an integration bug, never swallowed.
var ErrUnknownEventKind = errors.New("emotion: unknown event kind")

// ConfigError means a persisted record or tuning file does not match the schema
// (unknown dimension name, bad JSON). Callers recover by starting from a
// neutral state; startup is never blocked on it.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("emotion: config: %s: %v", e.Reason, e.Err)
	}
	return "emotion: config: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// PersistenceError is a transient I/O failure on save/load. The in-memory state
// stays valid; callers degrade to memory-only operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("emotion: persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
