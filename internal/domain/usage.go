package domain

import "time"

// UsageStatus is the audit status of one attempt.
type UsageStatus string

const (
	UsageStatusSuccess UsageStatus = "success"
	UsageStatusTimeout UsageStatus = "timeout"
	UsageStatusError   UsageStatus = "error"
)

// UsageRecord is one append-only audit row.
type UsageRecord struct {
	ID               string      `json:"id" yaml:"id" db:"id"`
	ActorID          string      `json:"user_id" yaml:"user_id" db:"user_id"`
	Provider         string      `json:"provider" yaml:"provider" db:"provider"`
	ModelUsed        string      `json:"model" yaml:"model" db:"model"`
	PromptTokens     int         `json:"prompt_tokens" yaml:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int         `json:"completion_tokens" yaml:"completion_tokens" db:"completion_tokens"`
	Status           UsageStatus `json:"status" yaml:"status" db:"status"`
	Outcome          OutcomeKind `json:"outcome" yaml:"outcome" db:"outcome"`
	ErrorKind        string      `json:"error_kind,omitempty" yaml:"error_kind,omitempty" db:"error_kind"`
	ErrorMessage     string      `json:"error_msg,omitempty" yaml:"error_msg,omitempty" db:"error_msg"`
	LatencyMs        int64       `json:"latency_ms" yaml:"latency_ms" db:"latency_ms"`
	CreatedAt        time.Time   `json:"created_at" yaml:"created_at" db:"created_at"`
}
