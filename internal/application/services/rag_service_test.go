package services

import (
	"strings"
	"testing"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func citedSegment(contentID, title, url, text string, startMS int64) *entities.Segment {
	return &entities.Segment{
		ID:          "seg-" + contentID,
		ContentID:   contentID,
		StartTimeMS: startMS,
		EndTimeMS:   startMS + 30000,
		Text:        text,
		Content: &entities.ContentItem{
			ID:    contentID,
			Title: title,
			URL:   url,
		},
	}
}

func TestBuildContext_NumberedFromOne(t *testing.T) {
	segments := []*entities.Segment{
		citedSegment("c1", "复利的力量", "https://www.bilibili.com/video/BV1xx", "复利是世界第八大奇迹", 75000),
		citedSegment("c2", "长期主义", "https://www.bilibili.com/video/BV1yy", "时间是朋友", 0),
	}

	out := buildContext(segments)

	assert.Contains(t, out, "[1] 《复利的力量》时间戳 01:15: 复利是世界第八大奇迹")
	assert.Contains(t, out, "[2] 《长期主义》时间戳 00:00: 时间是朋友")
}

func TestBuildCitations_DeepLinks(t *testing.T) {
	segments := []*entities.Segment{
		citedSegment("c1", "复利的力量", "https://www.bilibili.com/video/BV1xx", "复利是世界第八大奇迹", 75000),
	}

	citations := buildCitations(segments)

	require.Len(t, citations, 1)
	assert.Equal(t, 1, citations[0].Index)
	assert.Equal(t, "seg-c1", citations[0].SegmentID)
	assert.Equal(t, "复利的力量", citations[0].Title)
	assert.Equal(t, "https://www.bilibili.com/video/BV1xx?t=75", citations[0].URL)
	assert.Equal(t, int64(75), citations[0].StartTime)
	assert.Equal(t, "01:15", citations[0].Timestamp)
	assert.Equal(t, "复利是世界第八大奇迹", citations[0].Text)
}

func TestBuildCitations_CarriesFullText(t *testing.T) {
	long := strings.Repeat("复利效应需要时间来显现，", 20) // well past any display width
	segments := []*entities.Segment{
		citedSegment("c1", "复利的力量", "https://www.bilibili.com/video/BV1xx", long, 0),
	}

	citations := buildCitations(segments)

	require.Len(t, citations, 1)
	assert.Equal(t, long, citations[0].Text)
}

func TestBuildCitations_NoContentJoin(t *testing.T) {
	segments := []*entities.Segment{
		{ID: "s1", ContentID: "c1", StartTimeMS: 1000, Text: "文本"},
	}

	citations := buildCitations(segments)

	require.Len(t, citations, 1)
	assert.Empty(t, citations[0].URL)
	assert.Empty(t, citations[0].Title)
}

func TestDeepLink(t *testing.T) {
	assert.Equal(t, "https://example.com/v?t=90", deepLink("https://example.com/v", 90500))
	assert.Equal(t, "https://example.com/v?p=2&t=90", deepLink("https://example.com/v?p=2", 90500))
	assert.Empty(t, deepLink("", 1000))
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00", formatTimestamp(0))
	assert.Equal(t, "00:59", formatTimestamp(59999))
	assert.Equal(t, "01:15", formatTimestamp(75000))
	assert.Equal(t, "90:00", formatTimestamp(5400000)) // minutes keep counting past an hour
}

func TestContentTypeOf(t *testing.T) {
	segments := []*entities.Segment{
		{ID: "s1", Content: &entities.ContentItem{}},
		{ID: "s2", Content: &entities.ContentItem{ContentType: "mindset"}},
	}
	assert.Equal(t, "mindset", ContentTypeOf(segments))
}

func TestContentTypeOf_DefaultsToGeneric(t *testing.T) {
	assert.Equal(t, entities.ContentTypeGeneric, ContentTypeOf(nil))
	assert.Equal(t, entities.ContentTypeGeneric, ContentTypeOf([]*entities.Segment{{ID: "s1"}}))
}
