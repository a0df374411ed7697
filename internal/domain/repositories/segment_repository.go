package repositories

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// SegmentRepository persists transcript segments and serves vector recall.
type SegmentRepository interface {
	// CreateBatch inserts all segments for a content item in index order.
	CreateBatch(ctx context.Context, segments []*entities.Segment) error

	// DeleteByContent drops all segments for a content item.
	DeleteByContent(ctx context.Context, contentID string) error

	// ListByContent returns a content item's segments ordered by segment_index.
	ListByContent(ctx context.Context, contentID string) ([]*entities.Segment, error)

	// GetByIDs returns segments for the given IDs, preserving input order.
	GetByIDs(ctx context.Context, ids []string) ([]*entities.Segment, error)

	// NearestByEmbedding returns the limit nearest segments to the query
	// vector, optionally restricted to one author (empty = all), each joined
	// to its owning content item.
	NearestByEmbedding(ctx context.Context, embedding []float32, authorID string, limit int) ([]*entities.Segment, error)
}

// SegmentSearchRepository is an optional keyword-search index over segments,
// merged into recall when configured.
type SegmentSearchRepository interface {
	// IndexSegment adds or replaces one segment document.
	IndexSegment(ctx context.Context, segment *entities.Segment, authorID string) error

	// DeleteByContent drops all documents for a content item.
	DeleteByContent(ctx context.Context, contentID string) error

	// SearchSegments returns segment IDs matching the query, best first.
	SearchSegments(ctx context.Context, query, authorID string, limit int) ([]string, error)
}
