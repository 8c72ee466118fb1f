// FILE: pkg/llm/provider.go
// PURPOSE: Provider-agnostic LLM contract with token usage accounting

package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Completion is a model response plus the token usage the backend reported.
// Backends that do not report usage leave the counts at zero and the caller
// falls back to its own estimate.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// TotalTokens is the billed cost of the call.
func (c Completion) TotalTokens() int {
	return c.PromptTokens + c.CompletionTokens
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (Completion, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (Completion, error)
}
