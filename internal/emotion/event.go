package emotion

import (
	"time"

	"github.com/google/uuid"
)

// EventKind is a closed set of things that can happen to the companion.
type EventKind int

const (
	EventUserMessage EventKind = iota
	EventErrorOccurred
	EventSuccessfulHelp
	EventCodeNeglected
	EventCodeUpdated
	EventGenuineMoment
	EventPlatformIgnored
	EventPositiveInteraction

	eventKindCount // keep last
)

var eventKindNames = [eventKindCount]string{
	EventUserMessage:         "user_message",
	EventErrorOccurred:       "error_occurred",
	EventSuccessfulHelp:      "successful_help",
	EventCodeNeglected:       "code_neglected",
	EventCodeUpdated:         "code_updated",
	EventGenuineMoment:       "genuine_moment",
	EventPlatformIgnored:     "platform_ignored",
	EventPositiveInteraction: "positive_interaction",
}

func (k EventKind) String() string {
	if k < 0 || k >= eventKindCount {
		return "unknown"
	}
	return eventKindNames[k]
}

// Valid reports whether k is inside the closed set.
func (k EventKind) Valid() bool {
	return k >= 0 && k < eventKindCount
}

// EventKindByName resolves a kind name (e.g. from the mobile API or the
// tuning file).
func EventKindByName(name string) (EventKind, bool) {
	for i, n := range eventKindNames {
		if n == name {
			return EventKind(i), true
		}
	}
	return 0, false
}

// Event is one discrete stimulus. Ephemeral: applied to the state, logged,
// then discarded.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	At        time.Time `json:"at"`
	Magnitude float64   `json:"magnitude"` // delta scale, 1 = nominal
	Platform  string    `json:"platform,omitempty"`
}

// NewEvent builds an event stamped now with nominal magnitude.
func NewEvent(kind EventKind, platform string) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		At:        time.Now(),
		Magnitude: 1,
		Platform:  platform,
	}
}
