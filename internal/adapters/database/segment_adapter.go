package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	apperrors "github.com/mindreel/backend/pkg/errors"
)

// SegmentAdapter implements the SegmentRepository interface. Embeddings are
// stored in a pgvector column and ordered with the `<->` distance operator.
type SegmentAdapter struct {
	client  *postgres.Client
	metrics *observability.Metrics
}

// NewSegmentAdapter creates a new segment adapter. metrics may be nil.
func NewSegmentAdapter(client *postgres.Client, metrics *observability.Metrics) repositories.SegmentRepository {
	return &SegmentAdapter{
		client:  client,
		metrics: metrics,
	}
}

func (a *SegmentAdapter) recordQuery(ctx context.Context, operation string, start time.Time) {
	if a.metrics != nil {
		observability.RecordDBMetric(ctx, a.metrics, operation, time.Since(start))
	}
}

// CreateBatch inserts all segments for a content item in one transaction
func (a *SegmentAdapter) CreateBatch(ctx context.Context, segments []*entities.Segment) error {
	if len(segments) == 0 {
		return nil
	}
	defer a.recordQuery(ctx, "segments.create_batch", time.Now())

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO segments (
			id, content_id, segment_index, start_time_ms, end_time_ms, text, embedding
		) VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
	`

	for _, seg := range segments {
		_, err := tx.ExecContext(ctx, query,
			seg.ID,
			seg.ContentID,
			seg.SegmentIndex,
			seg.StartTimeMS,
			seg.EndTimeMS,
			seg.Text,
			encodeVector(seg.Embedding),
		)
		if err != nil {
			return apperrors.NewInternalError("failed to insert segment", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit segments", err)
	}

	return nil
}

// DeleteByContent drops all segments for a content item
func (a *SegmentAdapter) DeleteByContent(ctx context.Context, contentID string) error {
	defer a.recordQuery(ctx, "segments.delete_by_content", time.Now())
	_, err := a.client.DB().ExecContext(ctx, `DELETE FROM segments WHERE content_id = $1`, contentID)
	if err != nil {
		return apperrors.NewInternalError("failed to delete segments", err)
	}
	return nil
}

// ListByContent returns a content item's segments ordered by segment_index
func (a *SegmentAdapter) ListByContent(ctx context.Context, contentID string) ([]*entities.Segment, error) {
	defer a.recordQuery(ctx, "segments.list_by_content", time.Now())
	query := `
		SELECT id, content_id, segment_index, start_time_ms, end_time_ms, text, embedding::text
		FROM segments
		WHERE content_id = $1
		ORDER BY segment_index
	`

	rows, err := a.client.DB().QueryContext(ctx, query, contentID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list segments", err)
	}
	defer rows.Close()

	return scanSegments(rows, false)
}

// GetByIDs returns segments for the given IDs, preserving input order
func (a *SegmentAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Segment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	defer a.recordQuery(ctx, "segments.get_by_ids", time.Now())

	query := `
		SELECT id, content_id, segment_index, start_time_ms, end_time_ms, text, embedding::text
		FROM segments
		WHERE id = ANY($1)
	`

	rows, err := a.client.DB().QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get segments by ids", err)
	}
	defer rows.Close()

	found, err := scanSegments(rows, false)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Segment, len(found))
	for _, seg := range found {
		byID[seg.ID] = seg
	}

	ordered := make([]*entities.Segment, 0, len(ids))
	for _, id := range ids {
		if seg, ok := byID[id]; ok {
			ordered = append(ordered, seg)
		}
	}
	return ordered, nil
}

// NearestByEmbedding returns the limit nearest segments to the query vector,
// each joined to its owning content item
func (a *SegmentAdapter) NearestByEmbedding(ctx context.Context, embedding []float32, authorID string, limit int) ([]*entities.Segment, error) {
	defer a.recordQuery(ctx, "segments.nearest_by_embedding", time.Now())
	query := `
		SELECT
			s.id, s.content_id, s.segment_index, s.start_time_ms, s.end_time_ms, s.text, s.embedding::text,
			c.id, c.author_id, c.platform, c.external_id, c.type, c.title, c.url,
			c.content_quality, c.content_type, c.content_type_source, c.duration,
			c.published_at, c.created_at
		FROM segments s
		JOIN content_items c ON c.id = s.content_id
	`
	args := []interface{}{encodeVector(embedding), limit}
	if authorID != "" {
		query += ` WHERE c.author_id = $3`
		args = append(args, authorID)
	}
	query += ` ORDER BY s.embedding <-> $1::vector LIMIT $2`

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to search segments", err)
	}
	defer rows.Close()

	return scanSegments(rows, true)
}

func scanSegments(rows *sql.Rows, withContent bool) ([]*entities.Segment, error) {
	var segments []*entities.Segment
	for rows.Next() {
		seg := &entities.Segment{}
		var vec string

		dest := []interface{}{
			&seg.ID, &seg.ContentID, &seg.SegmentIndex,
			&seg.StartTimeMS, &seg.EndTimeMS, &seg.Text, &vec,
		}

		var item *entities.ContentItem
		var contentType, contentTypeSource sql.NullString
		if withContent {
			item = &entities.ContentItem{}
			dest = append(dest,
				&item.ID, &item.AuthorID, &item.Platform, &item.ExternalID,
				&item.Type, &item.Title, &item.URL,
				&item.ContentQuality, &contentType, &contentTypeSource, &item.Duration,
				&item.PublishedAt, &item.CreatedAt,
			)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.NewInternalError("failed to scan segment", err)
		}

		embedding, err := decodeVector(vec)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to decode embedding", err)
		}
		seg.Embedding = embedding

		if withContent {
			item.ContentType = contentType.String
			item.ContentTypeSource = contentTypeSource.String
			seg.Content = item
		}

		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate segments", err)
	}

	return segments, nil
}
