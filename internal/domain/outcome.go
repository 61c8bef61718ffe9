package domain

// OutcomeKind tags a GenerationOutcome.
type OutcomeKind string

const (
	OutcomeSuccess    OutcomeKind = "success"
	OutcomeOutOfScope OutcomeKind = "out_of_scope"
	OutcomeFailure    OutcomeKind = "failure"
)

// Outcome is the result of one generation attempt. It is one of *Success,
// *OutOfScope or *Failure.
type Outcome interface {
	Kind() OutcomeKind
	Latency() int64
	isOutcome()
}

// Success carries a fully populated guide.
type Success struct {
	Guide            *Guide `json:"guide"`
	ModelUsed        string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"tokens"`
	LatencyMs        int64  `json:"latency_ms"`

	// RawText is the Markdown answer the guide was parsed from, kept for
	// display. Empty for structured-JSON backends.
	RawText string `json:"markdown,omitempty"`
}

// OutOfScope reports that the provider declined the request.
type OutOfScope struct {
	Message          string `json:"message"`
	ModelUsed        string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	LatencyMs        int64  `json:"latency_ms"`
}

// Failure reports a classified, terminal error.
type Failure struct {
	Err       *GenerationError `json:"error"`
	ModelUsed string           `json:"model,omitempty"`
	LatencyMs int64            `json:"latency_ms"`
}

func (*Success) Kind() OutcomeKind    { return OutcomeSuccess }
func (*OutOfScope) Kind() OutcomeKind { return OutcomeOutOfScope }
func (*Failure) Kind() OutcomeKind    { return OutcomeFailure }

func (s *Success) Latency() int64    { return s.LatencyMs }
func (o *OutOfScope) Latency() int64 { return o.LatencyMs }
func (f *Failure) Latency() int64    { return f.LatencyMs }

func (*Success) isOutcome()    {}
func (*OutOfScope) isOutcome() {}
func (*Failure) isOutcome()    {}

// FailureKind returns the error kind of a failure.
func (f *Failure) FailureKind() ErrorKind {
	if f.Err == nil {
		return ErrorKindUnknownProvider
	}
	return f.Err.Kind
}

// Message returns the failure message.
func (f *Failure) Message() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Message
}
