package repositories

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// AuthorRepository persists authors.
type AuthorRepository interface {
	Create(ctx context.Context, author *entities.Author) error
	Update(ctx context.Context, author *entities.Author) error
	GetByID(ctx context.Context, id string) (*entities.Author, error)
	GetByExternalID(ctx context.Context, platform, externalID string) (*entities.Author, error)
}
