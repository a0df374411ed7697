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

var contentColumns = []interface{}{
	"id", "author_id", "platform", "external_id", "type", "title", "url",
	"content_quality", "content_type", "content_type_source", "duration",
	"published_at", "created_at",
}

// ContentAdapter implements the ContentRepository interface
type ContentAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewContentAdapter creates a new content adapter
func NewContentAdapter(client *postgres.Client) repositories.ContentRepository {
	return &ContentAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func contentRecord(item *entities.ContentItem) goqu.Record {
	return goqu.Record{
		"id":                  item.ID,
		"author_id":           item.AuthorID,
		"platform":            item.Platform,
		"external_id":         item.ExternalID,
		"type":                item.Type,
		"title":               item.Title,
		"url":                 item.URL,
		"content_quality":     item.ContentQuality,
		"content_type":        sql.NullString{String: item.ContentType, Valid: item.ContentType != ""},
		"content_type_source": sql.NullString{String: item.ContentTypeSource, Valid: item.ContentTypeSource != ""},
		"duration":            item.Duration,
		"published_at":        item.PublishedAt,
		"created_at":          item.CreatedAt,
	}
}

// Create creates a new content item
func (a *ContentAdapter) Create(ctx context.Context, item *entities.ContentItem) error {
	query, args, err := a.db.Insert("content_items").Rows(contentRecord(item)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create content item", err)
	}

	return nil
}

// Update updates a content item
func (a *ContentAdapter) Update(ctx context.Context, item *entities.ContentItem) error {
	record := contentRecord(item)
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("content_items").Set(record).Where(goqu.Ex{"id": item.ID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update content item", err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("content item with id %s not found", item.ID))
	}

	return nil
}

// GetByID retrieves a content item by ID
func (a *ContentAdapter) GetByID(ctx context.Context, id string) (*entities.ContentItem, error) {
	return a.getByCondition(ctx, goqu.Ex{"id": id}, fmt.Sprintf("content item with id %s not found", id))
}

// GetByExternalID retrieves a content item by its platform identifier
func (a *ContentAdapter) GetByExternalID(ctx context.Context, platform, externalID string) (*entities.ContentItem, error) {
	return a.getByCondition(ctx,
		goqu.Ex{"platform": platform, "external_id": externalID},
		fmt.Sprintf("content item %s/%s not found", platform, externalID),
	)
}

// ListByAuthor returns an author's content items, newest first
func (a *ContentAdapter) ListByAuthor(ctx context.Context, authorID string) ([]*entities.ContentItem, error) {
	query, args, err := a.db.Select(contentColumns...).
		From("content_items").
		Where(goqu.Ex{"author_id": authorID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list content items", err)
	}
	defer rows.Close()

	var items []*entities.ContentItem
	for rows.Next() {
		item, err := scanContentItem(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan content item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate content items", err)
	}

	return items, nil
}

func (a *ContentAdapter) getByCondition(ctx context.Context, cond goqu.Ex, notFoundMsg string) (*entities.ContentItem, error) {
	query, args, err := a.db.Select(contentColumns...).From("content_items").Where(cond).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	item, err := scanContentItem(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get content item", err)
	}

	return item, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContentItem(row rowScanner) (*entities.ContentItem, error) {
	item := &entities.ContentItem{}
	var contentType, contentTypeSource sql.NullString

	err := row.Scan(
		&item.ID,
		&item.AuthorID,
		&item.Platform,
		&item.ExternalID,
		&item.Type,
		&item.Title,
		&item.URL,
		&item.ContentQuality,
		&contentType,
		&contentTypeSource,
		&item.Duration,
		&item.PublishedAt,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ContentType = contentType.String
	item.ContentTypeSource = contentTypeSource.String
	return item, nil
}
