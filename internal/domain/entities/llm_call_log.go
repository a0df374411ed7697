package entities

import (
	"time"

	"github.com/google/uuid"
)

// Call statuses recorded in the audit log.
const (
	CallStatusSuccess = "success"
	CallStatusError   = "error"
)

// TokenUsage is the normalized usage record extracted from a provider's
// usage object regardless of its concrete shape.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// LLMCallLog is an append-only audit row for one model invocation.
// Rows are never mutated after insert; writes are best-effort and must never
// abort the calling operation.
type LLMCallLog struct {
	ID           string     `json:"id" db:"id"`
	TaskType     string     `json:"task_type" db:"task_type"`
	ProfileKey   string     `json:"profile_key" db:"profile_key"`
	Model        string     `json:"model" db:"model"`
	Provider     string     `json:"provider" db:"provider"`
	SystemPrompt string     `json:"system_prompt" db:"system_prompt"`
	UserPrompt   string     `json:"user_prompt" db:"user_prompt"`
	RawResponse  string     `json:"raw_response" db:"raw_response"`
	Usage        TokenUsage `json:"usage" db:"-"`
	Status       string     `json:"status" db:"status"`
	Error        string     `json:"error" db:"error"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// NewLLMCallLog creates an audit row with a fresh ID.
func NewLLMCallLog(taskType string) *LLMCallLog {
	return &LLMCallLog{
		ID:        uuid.NewString(),
		TaskType:  taskType,
		Status:    CallStatusSuccess,
		CreatedAt: time.Now().UTC(),
	}
}
