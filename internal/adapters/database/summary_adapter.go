package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/mindreel/backend/pkg/errors"
)

// SummaryAdapter implements the SummaryRepository interface
type SummaryAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSummaryAdapter creates a new summary adapter
func NewSummaryAdapter(client *postgres.Client) repositories.SummaryRepository {
	return &SummaryAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts the summary or replaces the live row for its (content, type)
// pair, keeping at most one live row per pair.
func (a *SummaryAdapter) Upsert(ctx context.Context, summary *entities.Summary) error {
	data, err := json.Marshal(summary.Data)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal summary data", err)
	}

	query := `
		INSERT INTO summaries (
			id, content_id, summary_type, content, profile_key, content_type, data, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (content_id, summary_type) DO UPDATE SET
			content = EXCLUDED.content,
			profile_key = EXCLUDED.profile_key,
			content_type = EXCLUDED.content_type,
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at
	`

	_, err = a.client.DB().ExecContext(ctx, query,
		summary.ID,
		summary.ContentID,
		summary.SummaryType,
		summary.Content,
		summary.ProfileKey,
		summary.ContentType,
		data,
		summary.CreatedAt,
	)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert summary", err)
	}

	return nil
}

// GetByContent retrieves the live summary row for a content item and type
func (a *SummaryAdapter) GetByContent(ctx context.Context, contentID, summaryType string) (*entities.Summary, error) {
	query, args, err := a.db.Select(
		"id", "content_id", "summary_type", "content",
		"profile_key", "content_type", "data", "created_at",
	).From("summaries").
		Where(goqu.Ex{"content_id": contentID, "summary_type": summaryType}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	summary, err := scanSummary(row, nil)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(
			fmt.Sprintf("summary %s for content %s not found", summaryType, contentID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get summary", err)
	}

	return summary, nil
}

// ListByAuthor returns all summaries for an author's contents, newest first,
// with each summary's content type joined from its content item
func (a *SummaryAdapter) ListByAuthor(ctx context.Context, authorID string) ([]*entities.Summary, error) {
	query := `
		SELECT
			s.id, s.content_id, s.summary_type, s.content,
			s.profile_key, s.content_type, s.data, s.created_at,
			c.content_type
		FROM summaries s
		JOIN content_items c ON c.id = s.content_id
		WHERE c.author_id = $1
		ORDER BY s.created_at DESC
	`

	rows, err := a.client.DB().QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list summaries", err)
	}
	defer rows.Close()

	var summaries []*entities.Summary
	for rows.Next() {
		var itemType sql.NullString
		summary, err := scanSummary(rows, &itemType)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan summary", err)
		}
		// Prefer the content item's current classification over the one
		// recorded at generation time.
		if itemType.Valid && itemType.String != "" {
			summary.ContentType = itemType.String
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate summaries", err)
	}

	return summaries, nil
}

func scanSummary(row rowScanner, itemType *sql.NullString) (*entities.Summary, error) {
	summary := &entities.Summary{}
	var profileKey, contentType sql.NullString
	var data []byte

	dest := []interface{}{
		&summary.ID, &summary.ContentID, &summary.SummaryType, &summary.Content,
		&profileKey, &contentType, &data, &summary.CreatedAt,
	}
	if itemType != nil {
		dest = append(dest, itemType)
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	summary.ProfileKey = profileKey.String
	summary.ContentType = contentType.String

	if len(data) > 0 {
		parsed := &entities.StructuredSummary{}
		if err := json.Unmarshal(data, parsed); err == nil {
			summary.Data = parsed
		}
	}

	return summary, nil
}
