package entities

import (
	"time"

	"github.com/google/uuid"
)

// Content quality classification after transcript acquisition.
const (
	QualityFull    = "full"    // subtitles or multi-line recognition output
	QualitySummary = "summary" // description fallback only
	QualityMissing = "missing" // no stage produced content
)

// Content-type provenance labels.
const (
	TypeSourceUser          = "user"
	TypeSourceAuthorInherit = "author_inherit"
	TypeSourceClassifier    = "classifier"
)

// ContentTypeGeneric is the default routing bucket when no classification exists.
const ContentTypeGeneric = "generic"

// ContentItem represents one ingested video/article unit.
type ContentItem struct {
	ID                string     `json:"id" db:"id"`
	AuthorID          string     `json:"author_id" db:"author_id"`
	Platform          string     `json:"platform" db:"platform"`
	ExternalID        string     `json:"external_id" db:"external_id"`
	Type              string     `json:"type" db:"type"` // video, article
	Title             string     `json:"title" db:"title"`
	URL               string     `json:"url" db:"url"`
	ContentQuality    string     `json:"content_quality" db:"content_quality"`
	ContentType       string     `json:"content_type" db:"content_type"`               // empty = unclassified
	ContentTypeSource string     `json:"content_type_source" db:"content_type_source"` // user, author_inherit, classifier
	Duration          int        `json:"duration" db:"duration"`                       // seconds
	PublishedAt       *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}

// NewContentItem creates a content item with a fresh ID and default quality.
func NewContentItem(authorID, platform, externalID, title, url string) *ContentItem {
	return &ContentItem{
		ID:             uuid.NewString(),
		AuthorID:       authorID,
		Platform:       platform,
		ExternalID:     externalID,
		Type:           "video",
		Title:          title,
		URL:            url,
		ContentQuality: QualitySummary,
		CreatedAt:      time.Now().UTC(),
	}
}

// RoutingType returns the content type used for prompt/model routing,
// defaulting to the generic bucket when unclassified.
func (c *ContentItem) RoutingType() string {
	if c.ContentType == "" {
		return ContentTypeGeneric
	}
	return c.ContentType
}
