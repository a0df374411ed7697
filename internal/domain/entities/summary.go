package entities

import (
	"time"

	"github.com/google/uuid"
)

// StructuredSummary is the normalized result of a summary LLM call.
// V1 profiles fill OneLiner/KeyPoints/Summary/Facts directly; v2 profiles
// fill the grouped fields and OneLiner/Summary are synthesized from them.
type StructuredSummary struct {
	OneLiner  string   `json:"one_liner"`
	KeyPoints []string `json:"key_points,omitempty"`
	Summary   string   `json:"summary"`
	Facts     []string `json:"facts,omitempty"`

	CorePrinciples       []string `json:"core_principles,omitempty"`
	ActionableGuidelines []string `json:"actionable_guidelines,omitempty"`
	CognitiveWarnings    []string `json:"cognitive_warnings,omitempty"`
	CaseStudies          []string `json:"case_studies,omitempty"`

	// RawText preserves the verbatim model output when structured parsing
	// failed; ParseError carries the reason.
	RawText    string `json:"raw_text,omitempty"`
	ParseError string `json:"parse_error,omitempty"`
}

// Summary is one structured LLM output per content item. At most one live
// row exists per (content, type); provenance fields record how it was made.
type Summary struct {
	ID          string             `json:"id" db:"id"`
	ContentID   string             `json:"content_id" db:"content_id"`
	SummaryType string             `json:"summary_type" db:"summary_type"` // structured, short
	Content     string             `json:"content" db:"content"`           // raw model text
	ProfileKey  string             `json:"profile_key" db:"profile_key"`
	ContentType string             `json:"content_type" db:"content_type"`
	Data        *StructuredSummary `json:"data" db:"data"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
}

// NewSummary creates a summary row with a fresh ID.
func NewSummary(contentID, summaryType string) *Summary {
	return &Summary{
		ID:          uuid.NewString(),
		ContentID:   contentID,
		SummaryType: summaryType,
		CreatedAt:   time.Now().UTC(),
	}
}
