package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeUsage_CompletionShape(t *testing.T) {
	usage := NormalizeUsage(json.RawMessage(`{"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}`))

	assert.Equal(t, 120, usage.PromptTokens)
	assert.Equal(t, 30, usage.CompletionTokens)
	assert.Equal(t, 150, usage.TotalTokens)
}

func TestNormalizeUsage_ResponsesShape(t *testing.T) {
	usage := NormalizeUsage(json.RawMessage(`{"input_tokens": 80, "output_tokens": 20}`))

	assert.Equal(t, 80, usage.PromptTokens)
	assert.Equal(t, 20, usage.CompletionTokens)
	// missing total is summed from the parts
	assert.Equal(t, 100, usage.TotalTokens)
}

func TestNormalizeUsage_ZeroCompletionTokensKept(t *testing.T) {
	usage := NormalizeUsage(json.RawMessage(`{"prompt_tokens": 10, "completion_tokens": 0}`))

	assert.Equal(t, 10, usage.PromptTokens)
	assert.Equal(t, 0, usage.CompletionTokens)
	assert.Equal(t, 10, usage.TotalTokens)
}

func TestNormalizeUsage_EmptyAndGarbage(t *testing.T) {
	assert.Zero(t, NormalizeUsage(nil))
	assert.Zero(t, NormalizeUsage(json.RawMessage(`"not an object"`)))
}
