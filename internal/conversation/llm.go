package conversation

import "context"

// ApologyReply is the fixed reply returned when the generation backend is
// unavailable or fails. Never retried automatically.
const ApologyReply = "I apologize for the inconvenience, but I'm currently experiencing some technical difficulties. Please try again in a moment."

// Generator produces text for a prompt. Implemented by the Gemini client;
// tests substitute fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
