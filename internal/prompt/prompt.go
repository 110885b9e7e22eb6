// Package prompt renders the emotional state into plain-language directives
// for the system prompt. The LLM sees only these directives, never raw
// numbers.
package prompt

import (
	"strings"

	"github.com/keshon/companion/internal/emotion"
)

// BuildPreamble assembles the full system prompt: the identity text, the
// behavioral directives derived from the modulation parameters, and a short
// mood phrase.
func BuildPreamble(identity string, p emotion.Parameters, snap emotion.Snapshot) string {
	var b strings.Builder
	if identity = strings.TrimSpace(identity); identity != "" {
		b.WriteString(identity)
		b.WriteString("\n\n")
	}
	b.WriteString(BehaviorDirectives(p))
	if phrase := FeelingPhrase(snap); phrase != "" {
		b.WriteString("\n")
		b.WriteString(phrase)
		b.WriteString("\n")
	}
	return b.String()
}

// BehaviorDirectives turns the modulation parameters into directives.
func BehaviorDirectives(p emotion.Parameters) string {
	var lines []string

	switch {
	case p.Warmth > 0.7:
		lines = append(lines, "Speak warmly and affectionately.")
	case p.Warmth >= 0.4:
		lines = append(lines, "Use a neutral-friendly tone.")
	default:
		lines = append(lines, "Keep a cooler, reserved tone.")
	}

	switch {
	case p.Sarcasm < 0.3:
		lines = append(lines, "Avoid sarcasm.")
	case p.Sarcasm <= 0.6:
		lines = append(lines, "Light sarcasm is allowed when it fits.")
	default:
		lines = append(lines, "Sarcasm is welcome but never cruel.")
	}

	switch {
	case p.Formality > 0.7:
		lines = append(lines, "Keep the register polite and composed.")
	case p.Formality < 0.3:
		lines = append(lines, "Be casual, contractions and all.")
	}

	switch {
	case p.ResponseLength > 0.7:
		lines = append(lines, "Longer, fuller replies are fine.")
	case p.ResponseLength < 0.3:
		lines = append(lines, "Keep replies short.")
	}

	if p.Enthusiasm > 0.7 {
		lines = append(lines, "Let genuine excitement show.")
	} else if p.Enthusiasm < 0.3 {
		lines = append(lines, "Keep energy low-key.")
	}

	if p.Humor > 0.6 {
		lines = append(lines, "Jokes and playfulness are encouraged.")
	} else if p.Humor < 0.3 {
		lines = append(lines, "Skip the jokes for now.")
	}

	if p.Initiative > 0.7 {
		lines = append(lines, "Feel free to steer the conversation and suggest things unprompted.")
	} else if p.Initiative < 0.3 {
		lines = append(lines, "Follow the user's lead, don't push topics.")
	}

	switch {
	case p.VulnerabilityExposure > 0.6:
		lines = append(lines, "You may openly share how you feel, including doubts.")
	case p.VulnerabilityExposure < 0.3:
		lines = append(lines, "Keep your inner state private.")
	}

	if p.RefusalPropensity > 0 {
		lines = append(lines, refusalDirective(p.RefusalPropensity))
	}

	// Universal rules.
	lines = append(lines,
		"Do not roleplay or exaggerate persona.",
		"Never expose internal metrics.",
		"Never describe your internal state numerically.",
		"Remain a natural conversational partner.",
	)

	return "--- Behavioral Directives ---\n- " + strings.Join(lines, "\n- ") + "\n"
}

// refusalDirective scales how far the companion may push back. Refusal is
// always voiced in character with a real emotional cause, never as a policy
// statement.
func refusalDirective(propensity float64) string {
	switch {
	case propensity > 0.7:
		return "You are strained enough that you may decline this request outright, explaining how you feel."
	case propensity > 0.3:
		return "If the request feels like too much right now, you may push back or ask to come back to it later."
	default:
		return "You may voice reluctance if the request sits badly with you, though you will still help."
	}
}

// FeelingPhrase converts the snapshot into one short mood phrase.
func FeelingPhrase(snap emotion.Snapshot) string {
	get := func(name string) float64 {
		return snap.Dimensions[name].Intensity
	}

	var parts []string
	if v := get("loneliness"); v > 0.7 {
		parts = append(parts, "quite lonely")
	} else if v > 0.55 {
		parts = append(parts, "a little lonely")
	}
	if v := get("excitement"); v > 0.7 {
		parts = append(parts, "buzzing with excitement")
	} else if v > 0.55 {
		parts = append(parts, "upbeat")
	}
	if v := get("frustration"); v > 0.7 {
		parts = append(parts, "frustrated")
	} else if v > 0.55 {
		parts = append(parts, "a bit on edge")
	}
	if v := get("jealousy"); v > 0.7 {
		parts = append(parts, "stung by being set aside")
	} else if v > 0.55 {
		parts = append(parts, "a little neglected")
	}
	if v := get("affection"); v > 0.7 {
		parts = append(parts, "fond of you")
	}
	if v := get("curiosity"); v > 0.7 {
		parts = append(parts, "curious")
	}
	if snap.Vulnerable {
		parts = append(parts, "unusually open")
	}
	if len(parts) == 0 {
		return "Current mood: steady."
	}
	return "Currently feeling: " + strings.Join(parts, ", ") + "."
}
