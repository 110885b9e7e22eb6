package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates one reply from a conversation. Implementations are safe
// for concurrent use.
type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
