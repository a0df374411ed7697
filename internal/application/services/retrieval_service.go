package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	apperrors "github.com/mindreel/backend/pkg/errors"
	"github.com/rs/zerolog/log"
)

// recallMultiplier widens the vector recall pool relative to the requested
// final result count so the reranker has candidates to discard.
const recallMultiplier = 2

// queryEmbeddingTTL bounds how long a cached query embedding stays valid.
const queryEmbeddingTTL = 3600

// RetrievalService performs stage-one candidate recall: vector nearest
// neighbours, optionally merged with keyword search hits. Query embeddings
// are cached so repeated questions skip the embedding backend.
type RetrievalService struct {
	embedder providers.EmbeddingProvider
	segments repositories.SegmentRepository
	search   repositories.SegmentSearchRepository
	cache    providers.CacheProvider
	metrics  *observability.Metrics
}

// NewRetrievalService creates the recall service. search, cache and metrics
// may be nil.
func NewRetrievalService(
	embedder providers.EmbeddingProvider,
	segments repositories.SegmentRepository,
	search repositories.SegmentSearchRepository,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		segments: segments,
		search:   search,
		cache:    cache,
		metrics:  metrics,
	}
}

// Recall returns up to recallMultiplier*topK candidate segments for the
// query, nearest first, optionally scoped to one author. Keyword hits are
// appended after vector hits, deduplicated by segment ID.
func (s *RetrievalService) Recall(ctx context.Context, query, authorID string, topK int) ([]*entities.Segment, error) {
	start := time.Now()

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, apperrors.NewExternalError("failed to embed query", err)
	}

	limit := topK * recallMultiplier
	candidates, err := s.segments.NearestByEmbedding(ctx, vector, authorID, limit)
	if err != nil {
		return nil, err
	}

	candidates = s.mergeKeywordHits(ctx, query, authorID, candidates, limit)

	if s.metrics != nil {
		observability.RecordRetrievalMetric(ctx, s.metrics, "recall", time.Since(start))
	}
	return candidates, nil
}

// embedQuery returns the query embedding, consulting the cache first. Cache
// failures fall through to the embedder.
func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	cacheKey := ""
	if s.cache != nil {
		sum := sha256.Sum256([]byte(query))
		cacheKey = "emb:query:" + hex.EncodeToString(sum[:16])

		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var vector []float32
			if err := json.Unmarshal(raw, &vector); err == nil && len(vector) == s.embedder.Dimension() {
				return vector, nil
			}
		}
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if raw, err := json.Marshal(vector); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, queryEmbeddingTTL); err != nil {
				log.Warn().Err(err).Msg("failed to cache query embedding")
			}
		}
	}
	return vector, nil
}

// mergeKeywordHits appends keyword-search results missing from the vector
// pool. Keyword search failures degrade to vector-only recall.
func (s *RetrievalService) mergeKeywordHits(ctx context.Context, query, authorID string, candidates []*entities.Segment, limit int) []*entities.Segment {
	if s.search == nil || len(candidates) >= limit {
		return candidates
	}

	ids, err := s.search.SearchSegments(ctx, query, authorID, limit)
	if err != nil {
		log.Warn().Err(err).Msg("keyword search unavailable, using vector recall only")
		return candidates
	}

	seen := make(map[string]bool, len(candidates))
	for _, seg := range candidates {
		seen[seg.ID] = true
	}

	missing := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return candidates
	}

	extra, err := s.segments.GetByIDs(ctx, missing)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load keyword search hits")
		return candidates
	}

	for _, seg := range extra {
		if len(candidates) >= limit {
			break
		}
		candidates = append(candidates, seg)
	}
	return candidates
}

// ContentTypeOf returns the content type of the first candidate carrying a
// non-empty classification, or the generic bucket.
func ContentTypeOf(candidates []*entities.Segment) string {
	for _, seg := range candidates {
		if seg.Content != nil && seg.Content.ContentType != "" {
			return seg.Content.ContentType
		}
	}
	return entities.ContentTypeGeneric
}
