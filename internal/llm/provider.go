package llm

import "context"

// Provider is a streaming text completion backend. Stream invokes the model
// with the full prompt and calls onDelta once per fragment, in order.
// A non-nil return may follow fragments that were already delivered
// (mid-stream failure); a return before any onDelta call means the provider
// could not be invoked at all.
type Provider interface {
	Stream(ctx context.Context, model, prompt string, onDelta func(string) error) error
}
