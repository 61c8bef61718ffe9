package domain

import (
	"context"
	"time"
)

// Provider issues one completion request to a configured language-model endpoint.
type Provider interface {
	// Name returns the variant name ("gemini", "openai", "anthropic").
	Name() string

	// Model returns the configured model identifier.
	Model() string

	// Timeout returns the per-call deadline.
	Timeout() time.Duration

	// Complete issues a single request. It never retries.
	Complete(ctx context.Context, prompt PromptPair) (*RawCompletion, error)
}

// GuideParser turns raw provider text into a Guide.
type GuideParser interface {
	Parse(raw *RawCompletion, outOfScope bool) (*Guide, error)
}
