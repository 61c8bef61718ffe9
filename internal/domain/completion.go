package domain

// PromptPair is the prompt sent to a provider.
type PromptPair struct {
	SystemInstructions string
	UserContent        string
}

// RawCompletion is a provider's unstructured answer.
type RawCompletion struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	ModelUsed        string
	FinishReason     string

	// Estimated is true when token counts were computed locally because the
	// provider did not report usage.
	Estimated bool
}

// TotalTokens returns prompt plus completion tokens.
func (r *RawCompletion) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens
}

// GenerationRequest is one caller request to produce a guide.
type GenerationRequest struct {
	ClientText string

	// Provider optionally selects another configured variant by name.
	Provider string

	// ActorID identifies the authenticated user the call is made for.
	ActorID string
}
