package engine

import "context"

type Message struct {
	Role    string
	Content string
}

type GenerateOptions struct {
	Temperature float64
	MaxTokens   int

	// JSONMode asks the provider for a JSON object response
	// (`response_format: {"type":"json_object"}`).
	JSONMode bool
}

// Engine is a chat-completion backend. GenerateText returns the text of the
// first choice.
type Engine interface {
	GenerateText(ctx context.Context, model string, messages []Message, opts GenerateOptions) (string, error)
}

// UserMessage is a single-turn conversation carrying prompt.
func UserMessage(prompt string) []Message {
	return []Message{{Role: "user", Content: prompt}}
}
