package entities

import (
	"github.com/google/uuid"
)

// Segment is one embedded, time-ranged transcript chunk owned by a content item.
// Segments are destroyed and regenerated wholesale on reprocessing.
type Segment struct {
	ID           string    `json:"id" db:"id"`
	ContentID    string    `json:"content_id" db:"content_id"`
	SegmentIndex int       `json:"segment_index" db:"segment_index"`
	StartTimeMS  int64     `json:"start_time_ms" db:"start_time_ms"`
	EndTimeMS    int64     `json:"end_time_ms" db:"end_time_ms"`
	Text         string    `json:"text" db:"text"`
	Embedding    []float32 `json:"embedding" db:"embedding"`

	// Content is the owning item, populated on recall for title/url context.
	Content *ContentItem `json:"content,omitempty" db:"-"`
}

// NewSegment creates a segment with a fresh ID.
func NewSegment(contentID string, index int, startMS, endMS int64, text string, embedding []float32) *Segment {
	return &Segment{
		ID:           uuid.NewString(),
		ContentID:    contentID,
		SegmentIndex: index,
		StartTimeMS:  startMS,
		EndTimeMS:    endMS,
		Text:         text,
		Embedding:    embedding,
	}
}

// SubtitleLine is one timestamped transcript line from any acquisition stage.
type SubtitleLine struct {
	FromSec float64 `json:"from"`
	ToSec   float64 `json:"to"`
	Text    string  `json:"content"`

	// FromDescription marks the description-fallback line so quality
	// classification can detect fallback-only transcripts.
	FromDescription bool `json:"-"`
}
