package entities

import (
	"time"

	"github.com/google/uuid"
)

// Author represents one tracked content creator on a source platform.
type Author struct {
	ID          string    `json:"id" db:"id"`
	Platform    string    `json:"platform" db:"platform"`
	ExternalID  string    `json:"external_id" db:"external_id"`
	Name        string    `json:"name" db:"name"`
	HomepageURL string    `json:"homepage_url" db:"homepage_url"`
	AvatarURL   string    `json:"avatar_url" db:"avatar_url"`
	AuthorType  string    `json:"author_type" db:"author_type"` // non-empty overrides content classification
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewAuthor creates an author with a fresh ID.
func NewAuthor(platform, externalID, name string) *Author {
	return &Author{
		ID:         uuid.NewString(),
		Platform:   platform,
		ExternalID: externalID,
		Name:       name,
		CreatedAt:  time.Now().UTC(),
	}
}
