package services

import (
	"context"
	"testing"

	"github.com/mindreel/backend/internal/infrastructure/prompts"
	"github.com/mindreel/backend/internal/infrastructure/routing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeIndices_ValidReorder(t *testing.T) {
	out := sanitizeIndices([]int{3, 1, 0, 2}, 4, 4)
	assert.Equal(t, []int{3, 1, 0, 2}, out)
}

func TestSanitizeIndices_DropsOutOfRangeAndDuplicates(t *testing.T) {
	out := sanitizeIndices([]int{2, 2, 9, -1, 0}, 3, 3)
	// 2 and 0 survive; 1 pads from the unused candidates in original order.
	assert.Equal(t, []int{2, 0, 1}, out)
}

func TestSanitizeIndices_TruncatesToTopN(t *testing.T) {
	out := sanitizeIndices([]int{4, 3, 2, 1, 0}, 5, 2)
	assert.Equal(t, []int{4, 3}, out)
}

func TestSanitizeIndices_PadsShortReply(t *testing.T) {
	out := sanitizeIndices([]int{1}, 3, 3)
	assert.Equal(t, []int{1, 0, 2}, out)
}

func TestSanitizeIndices_FewerDocsThanTopN(t *testing.T) {
	out := sanitizeIndices([]int{1, 0}, 2, 5)
	assert.Equal(t, []int{1, 0}, out)
}

func TestIdentityIndices(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2}, identityIndices(3, 5))
	assert.Equal(t, []int{0, 1}, identityIndices(5, 2))
	assert.Empty(t, identityIndices(0, 5))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "短文本", truncateRunes("短文本", 10))
	assert.Equal(t, "一二三", truncateRunes("一二三四五", 3))
	assert.Equal(t, "", truncateRunes("", 5))
}

func TestFormatRerankDocs(t *testing.T) {
	out := formatRerankDocs([]string{"第一段", "第二段"})
	assert.Contains(t, out, "[0] 第一段...")
	assert.Contains(t, out, "[1] 第二段...")
}

func TestRerank_UnconfiguredBackendKeepsRecallOrder(t *testing.T) {
	manager, err := prompts.NewManager()
	require.NoError(t, err)
	// no routing config and no profile overrides: every scene is unavailable
	gateway := NewLLMGateway(
		routing.NewRegistry("testdata/missing-models.yaml"),
		prompts.NewRegistry("testdata/missing-profiles.yaml"),
		manager, nil,
	)
	docs := []string{"甲", "乙", "丙", "丁", "戊", "己", "庚"}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, gateway.Rerank(context.Background(), "查询", docs, 5))
	assert.Equal(t, []int{0, 1}, gateway.Rerank(context.Background(), "查询", docs[:2], 5))
	assert.Empty(t, gateway.Rerank(context.Background(), "查询", nil, 5))
}
