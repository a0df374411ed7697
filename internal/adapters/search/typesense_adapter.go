package search

import (
	"context"
	"fmt"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/repositories"
	tsclient "github.com/mindreel/backend/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const collectionName = tsclient.SegmentsCollection

// TypesenseAdapter implements keyword search over transcript segments
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements SegmentSearchRepository
var _ repositories.SegmentSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// IndexSegment adds or replaces one segment document
func (a *TypesenseAdapter) IndexSegment(ctx context.Context, segment *entities.Segment, authorID string) error {
	document := map[string]interface{}{
		"id":            segment.ID,
		"content_id":    segment.ContentID,
		"author_id":     authorID,
		"text":          segment.Text,
		"segment_index": segment.SegmentIndex,
		"start_time_ms": segment.StartTimeMS,
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index segment: %w", err)
	}

	return nil
}

// DeleteByContent drops all documents for a content item
func (a *TypesenseAdapter) DeleteByContent(ctx context.Context, contentID string) error {
	filter := fmt.Sprintf("content_id:=%s", contentID)
	_, err := a.client.Client().Collection(collectionName).Documents().Delete(ctx, &api.DeleteDocumentsParams{
		FilterBy: pointer.String(filter),
	})
	if err != nil {
		return fmt.Errorf("failed to delete segments from index: %w", err)
	}
	return nil
}

// SearchSegments returns segment IDs matching the query, best first
func (a *TypesenseAdapter) SearchSegments(ctx context.Context, query, authorID string, limit int) ([]string, error) {
	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("text"),
		PerPage: pointer.Int(limit),
	}
	if authorID != "" {
		searchParams.FilterBy = pointer.String(fmt.Sprintf("author_id:=%s", authorID))
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search segments: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		if hit.Document == nil {
			continue
		}
		doc := *hit.Document
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}
