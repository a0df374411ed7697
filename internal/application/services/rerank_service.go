package services

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// RerankService is stage two of retrieval: LLM listwise reranking over the
// recall pool. It is ordering-only; it never invents or drops candidates
// beyond truncation to topN.
type RerankService struct {
	gateway *LLMGateway
}

// NewRerankService creates the rerank service.
func NewRerankService(gateway *LLMGateway) *RerankService {
	return &RerankService{gateway: gateway}
}

// Rerank orders candidates by relevance to the query and returns the top
// topN. Any rerank failure preserves the recall order, so the result is
// never worse than stage one alone.
func (s *RerankService) Rerank(ctx context.Context, query string, candidates []*entities.Segment, topN int) []*entities.Segment {
	if len(candidates) == 0 {
		return nil
	}

	docs := make([]string, 0, len(candidates))
	for _, seg := range candidates {
		docs = append(docs, seg.Text)
	}

	indices := s.gateway.Rerank(ctx, query, docs, topN)

	out := make([]*entities.Segment, 0, len(indices))
	for _, idx := range indices {
		out = append(out, candidates[idx])
	}
	return out
}
