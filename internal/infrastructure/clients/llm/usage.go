package llm

import (
	"encoding/json"

	"github.com/mindreel/backend/internal/domain/entities"
)

// NormalizeUsage converts a provider usage payload into the canonical token
// counts. Backends disagree on field names; both the OpenAI completion shape
// and the responses-API shape are probed, and a missing total is summed from
// the parts. An empty or unreadable payload yields zero counts.
func NormalizeUsage(raw json.RawMessage) entities.TokenUsage {
	if len(raw) == 0 {
		return entities.TokenUsage{}
	}

	var probe struct {
		PromptTokens     *int `json:"prompt_tokens"`
		CompletionTokens *int `json:"completion_tokens"`
		InputTokens      *int `json:"input_tokens"`
		OutputTokens     *int `json:"output_tokens"`
		TotalTokens      *int `json:"total_tokens"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return entities.TokenUsage{}
	}

	usage := entities.TokenUsage{}
	switch {
	case probe.PromptTokens != nil:
		usage.PromptTokens = *probe.PromptTokens
	case probe.InputTokens != nil:
		usage.PromptTokens = *probe.InputTokens
	}
	switch {
	case probe.CompletionTokens != nil:
		usage.CompletionTokens = *probe.CompletionTokens
	case probe.OutputTokens != nil:
		usage.CompletionTokens = *probe.OutputTokens
	}
	if probe.TotalTokens != nil {
		usage.TotalTokens = *probe.TotalTokens
	} else {
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	return usage
}
