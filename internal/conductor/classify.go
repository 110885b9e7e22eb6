package conductor

import (
	"strings"

	"github.com/keshon/companion/internal/emotion"
)

// classify returns the extra emotional events a message carries beyond the
// plain user_message. Content heuristics only, no LLM round-trip.
func classify(content string) []emotion.EventKind {
	lower := strings.ToLower(strings.TrimSpace(content))
	if lower == "" {
		return nil
	}

	var kinds []emotion.EventKind
	if containsAny(lower, "thank", "that worked", "you fixed", "🙏") {
		kinds = append(kinds, emotion.EventSuccessfulHelp)
	}
	if containsAny(lower, "love", "awesome", "great job", "you're the best", "❤", "😊") {
		kinds = append(kinds, emotion.EventPositiveInteraction)
	}
	if containsAny(lower, "i feel", "i'm scared", "i am scared", "honestly,", "i've never told", "can i tell you something") {
		kinds = append(kinds, emotion.EventGenuineMoment)
	}
	return kinds
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
