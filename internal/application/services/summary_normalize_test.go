package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSummary_V1(t *testing.T) {
	raw := `{"one_liner": "三分钟看懂复利", "key_points": ["本金", "利率"], "summary": "讲解复利的基本原理。", "facts": ["72法则"]}`

	result := normalizeSummary("video_summary/v1", raw)

	require.Empty(t, result.ParseError)
	assert.Equal(t, "三分钟看懂复利", result.OneLiner)
	assert.Equal(t, []string{"本金", "利率"}, result.KeyPoints)
	assert.Equal(t, "讲解复利的基本原理。", result.Summary)
	assert.Equal(t, []string{"72法则"}, result.Facts)
}

func TestNormalizeSummary_V2Synthesis(t *testing.T) {
	raw := `{"core_principles": ["长期主义", "延迟满足"], "actionable_guidelines": ["每天复盘"], "cognitive_warnings": ["避免从众"], "case_studies": []}`

	result := normalizeSummary("video_summary/v2", raw)

	require.Empty(t, result.ParseError)
	// one_liner comes from the first core principle
	assert.Equal(t, "长期主义", result.OneLiner)
	assert.Equal(t, "核心原则：长期主义；延迟满足。行动建议：每天复盘。认知警示：避免从众。", result.Summary)
	assert.Equal(t, []string{"长期主义", "延迟满足"}, result.CorePrinciples)
	assert.Empty(t, result.CaseStudies)
}

func TestNormalizeSummary_V2OneLinerFallsThrough(t *testing.T) {
	raw := `{"actionable_guidelines": ["先写下目标"]}`

	result := normalizeSummary("video_summary/v2", raw)

	assert.Equal(t, "先写下目标", result.OneLiner)
	assert.Equal(t, "行动建议：先写下目标。", result.Summary)
}

func TestNormalizeSummary_ParseFailureDegrades(t *testing.T) {
	raw := "模型拒绝了请求"

	result := normalizeSummary("video_summary/v1", raw)

	require.NotNil(t, result)
	assert.Equal(t, raw, result.RawText)
	assert.NotEmpty(t, result.ParseError)
	assert.Empty(t, result.OneLiner)
}

func TestNormalizeSummary_FencedV1(t *testing.T) {
	raw := "```json\n{\"one_liner\": \"概览\", \"summary\": \"内容\"}\n```"

	result := normalizeSummary("video_summary/v1", raw)

	require.Empty(t, result.ParseError)
	assert.Equal(t, "概览", result.OneLiner)
}

func TestIsV2Profile(t *testing.T) {
	assert.True(t, isV2Profile("video_summary/v2"))
	assert.True(t, isV2Profile("video_summary/v2_mindset"))
	assert.False(t, isV2Profile("video_summary/v1"))
	assert.False(t, isV2Profile("author_report/v10")) // v10 is not a v2 family key
	assert.False(t, isV2Profile("v1"))
}
