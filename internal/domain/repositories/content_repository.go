package repositories

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// ContentRepository persists content items. Items are never deleted by the
// pipeline; only their segments are dropped on reprocessing.
type ContentRepository interface {
	Create(ctx context.Context, item *entities.ContentItem) error
	Update(ctx context.Context, item *entities.ContentItem) error
	GetByID(ctx context.Context, id string) (*entities.ContentItem, error)
	GetByExternalID(ctx context.Context, platform, externalID string) (*entities.ContentItem, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*entities.ContentItem, error)
}
