package services

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSubtitles_ShortLinesMergeIntoOne(t *testing.T) {
	lines := []entities.SubtitleLine{
		{FromSec: 0, ToSec: 2, Text: "大家好"},
		{FromSec: 2, ToSec: 5, Text: "今天聊聊复利"},
		{FromSec: 5, ToSec: 8, Text: "先从一个例子说起"},
		{FromSec: 8, ToSec: 12, Text: "假设每年收益百分之十"},
	}

	chunks := chunkSubtitles(lines, chunkTargetChars)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0.0, chunks[0].fromSec)
	assert.Equal(t, 12.0, chunks[0].toSec)
	assert.Equal(t, "大家好 今天聊聊复利 先从一个例子说起 假设每年收益百分之十", chunks[0].text)
}

func TestChunkSubtitles_SplitsAtTarget(t *testing.T) {
	long := strings.Repeat("字", 150)
	lines := []entities.SubtitleLine{
		{FromSec: 0, ToSec: 10, Text: long},
		{FromSec: 10, ToSec: 20, Text: long},
		{FromSec: 20, ToSec: 25, Text: "结尾"},
	}

	chunks := chunkSubtitles(lines, chunkTargetChars)

	// Two 150-char lines reach the 300 threshold together; the short tail
	// becomes its own final chunk.
	require.Len(t, chunks, 2)
	assert.Equal(t, 0.0, chunks[0].fromSec)
	assert.Equal(t, 20.0, chunks[0].toSec)
	assert.GreaterOrEqual(t, utf8.RuneCountInString(chunks[0].text), chunkTargetChars)
	assert.Equal(t, "结尾", chunks[1].text)
	assert.Equal(t, 20.0, chunks[1].fromSec)
	assert.Equal(t, 25.0, chunks[1].toSec)
}

func TestChunkSubtitles_TimestampsMonotonic(t *testing.T) {
	var lines []entities.SubtitleLine
	for i := 0; i < 40; i++ {
		lines = append(lines, entities.SubtitleLine{
			FromSec: float64(i * 5),
			ToSec:   float64(i*5 + 5),
			Text:    strings.Repeat("词", 40),
		})
	}

	chunks := chunkSubtitles(lines, chunkTargetChars)

	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk.text)
		assert.LessOrEqual(t, chunk.fromSec, chunk.toSec)
		if i > 0 {
			assert.GreaterOrEqual(t, chunk.fromSec, chunks[i-1].toSec)
		}
	}
}

func TestChunkSubtitles_Empty(t *testing.T) {
	assert.Empty(t, chunkSubtitles(nil, chunkTargetChars))
}

func TestClassifyQuality_DescriptionOnlyIsSummary(t *testing.T) {
	lines := []entities.SubtitleLine{
		{FromSec: 0, ToSec: 600, Text: "这是视频简介", FromDescription: true},
	}
	assert.Equal(t, entities.QualitySummary, classifyQuality(lines))
}

func TestClassifyQuality_SubtitlesAreFull(t *testing.T) {
	lines := []entities.SubtitleLine{
		{FromSec: 0, ToSec: 5, Text: "第一句"},
		{FromSec: 5, ToSec: 10, Text: "第二句"},
	}
	assert.Equal(t, entities.QualityFull, classifyQuality(lines))
}

func TestClassifyQuality_SingleRecognizedLineIsFull(t *testing.T) {
	// One line is only "summary" quality when it came from the description.
	lines := []entities.SubtitleLine{
		{FromSec: 0, ToSec: 60, Text: "整段识别文本"},
	}
	assert.Equal(t, entities.QualityFull, classifyQuality(lines))
}

func TestApplyAuthorType_Inherits(t *testing.T) {
	author := &entities.Author{ID: "a1", AuthorType: "mindset"}
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "https://example.com")

	applyAuthorType(content, author)

	assert.Equal(t, "mindset", content.ContentType)
	assert.Equal(t, entities.TypeSourceAuthorInherit, content.ContentTypeSource)
}

func TestApplyAuthorType_NoTypeLeavesUnclassified(t *testing.T) {
	author := &entities.Author{ID: "a1"}
	content := entities.NewContentItem("a1", "bilibili", "BV1xx", "标题", "https://example.com")

	applyAuthorType(content, author)

	assert.Empty(t, content.ContentType)
	assert.Empty(t, content.ContentTypeSource)
}

func TestAvatarExt(t *testing.T) {
	assert.Equal(t, ".png", avatarExt("image/png", ""))
	assert.Equal(t, ".jpg", avatarExt("image/jpeg", ""))
	assert.Equal(t, ".webp", avatarExt("image/webp", ""))
	assert.Equal(t, ".gif", avatarExt("", "https://cdn.example.com/face.gif?size=64"))
	assert.Equal(t, ".jpg", avatarExt("", "https://cdn.example.com/face"))
}
