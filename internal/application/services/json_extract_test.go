package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_RawObject(t *testing.T) {
	doc, err := extractJSON(`{"one_liner": "测试"}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"one_liner": "测试"}`, string(doc))
}

func TestExtractJSON_FencedBlock(t *testing.T) {
	doc, err := extractJSON("```json\n{\"key\": \"value\"}\n```")
	require.NoError(t, err)
	assert.JSONEq(t, `{"key": "value"}`, string(doc))
}

func TestExtractJSON_ProseAroundObject(t *testing.T) {
	doc, err := extractJSON(`好的，以下是结果：{"key": "value"} 希望对你有帮助。`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key": "value"}`, string(doc))
}

func TestExtractJSON_ArrayInProse(t *testing.T) {
	doc, err := extractJSON(`排序结果为 [2, 0, 1]，按相关性降序。`)
	require.NoError(t, err)

	var indices []int
	require.NoError(t, json.Unmarshal(doc, &indices))
	assert.Equal(t, []int{2, 0, 1}, indices)
}

func TestExtractJSON_TrailingComma(t *testing.T) {
	doc, err := extractJSON(`{"items": [1, 2, 3,],}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [1, 2, 3]}`, string(doc))
}

func TestExtractJSON_PythonLiterals(t *testing.T) {
	doc, err := extractJSON(`{'valid': True, 'missing': None}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid": true, "missing": null}`, string(doc))
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := extractJSON("抱歉，我无法回答这个问题。")
	assert.ErrorIs(t, err, errNoJSON)
}

func TestExtractJSON_Empty(t *testing.T) {
	_, err := extractJSON("   ")
	assert.ErrorIs(t, err, errNoJSON)
}

func TestPermissiveRepair_EscapedQuoteSurvives(t *testing.T) {
	// An apostrophe inside a double-quoted string must not toggle quoting.
	out := permissiveRepair(`{"text": "it's fine"}`)
	assert.True(t, json.Valid([]byte(out)))
}
