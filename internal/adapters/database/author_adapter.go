package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/mindreel/backend/pkg/errors"
)

// AuthorAdapter implements the AuthorRepository interface
type AuthorAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAuthorAdapter creates a new author adapter
func NewAuthorAdapter(client *postgres.Client) repositories.AuthorRepository {
	return &AuthorAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new author
func (a *AuthorAdapter) Create(ctx context.Context, author *entities.Author) error {
	record := goqu.Record{
		"id":           author.ID,
		"platform":     author.Platform,
		"external_id":  author.ExternalID,
		"name":         author.Name,
		"homepage_url": author.HomepageURL,
		"avatar_url":   author.AvatarURL,
		"author_type":  sql.NullString{String: author.AuthorType, Valid: author.AuthorType != ""},
		"created_at":   author.CreatedAt,
	}

	query, args, err := a.db.Insert("authors").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create author", err)
	}

	return nil
}

// Update updates an author
func (a *AuthorAdapter) Update(ctx context.Context, author *entities.Author) error {
	record := goqu.Record{
		"name":         author.Name,
		"homepage_url": author.HomepageURL,
		"avatar_url":   author.AvatarURL,
		"author_type":  sql.NullString{String: author.AuthorType, Valid: author.AuthorType != ""},
	}

	query, args, err := a.db.Update("authors").Set(record).Where(goqu.Ex{"id": author.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update author", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("author with id %s not found", author.ID))
	}

	return nil
}

// GetByID retrieves an author by ID
func (a *AuthorAdapter) GetByID(ctx context.Context, id string) (*entities.Author, error) {
	return a.getByCondition(ctx, goqu.Ex{"id": id}, fmt.Sprintf("author with id %s not found", id))
}

// GetByExternalID retrieves an author by its platform identifier
func (a *AuthorAdapter) GetByExternalID(ctx context.Context, platform, externalID string) (*entities.Author, error) {
	return a.getByCondition(ctx,
		goqu.Ex{"platform": platform, "external_id": externalID},
		fmt.Sprintf("author %s/%s not found", platform, externalID),
	)
}

func (a *AuthorAdapter) getByCondition(ctx context.Context, cond goqu.Ex, notFoundMsg string) (*entities.Author, error) {
	query, args, err := a.db.Select(
		"id", "platform", "external_id", "name",
		"homepage_url", "avatar_url", "author_type", "created_at",
	).From("authors").Where(cond).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	author := &entities.Author{}
	var authorType sql.NullString

	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&author.ID,
		&author.Platform,
		&author.ExternalID,
		&author.Name,
		&author.HomepageURL,
		&author.AvatarURL,
		&authorType,
		&author.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get author", err)
	}

	author.AuthorType = authorType.String
	return author, nil
}
