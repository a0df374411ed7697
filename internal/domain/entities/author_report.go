package entities

import (
	"time"

	"github.com/google/uuid"
)

// AuthorReport is an aggregated report keyed by (author, content type).
// An author accumulates one report per distinct content-type bucket observed
// among their contents.
type AuthorReport struct {
	ID            string    `json:"id" db:"id"`
	AuthorID      string    `json:"author_id" db:"author_id"`
	ContentType   string    `json:"content_type" db:"content_type"`
	ReportType    string    `json:"report_type" db:"report_type"`
	ReportVersion string    `json:"report_version" db:"report_version"`
	Content       string    `json:"content" db:"content"` // rendered markdown
	RawJSON       string    `json:"raw_json" db:"raw_json"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// NewAuthorReport creates a report row with a fresh ID.
func NewAuthorReport(authorID, contentType string) *AuthorReport {
	return &AuthorReport{
		ID:            uuid.NewString(),
		AuthorID:      authorID,
		ContentType:   contentType,
		ReportType:    "report.author",
		ReportVersion: "v1",
		CreatedAt:     time.Now().UTC(),
	}
}
