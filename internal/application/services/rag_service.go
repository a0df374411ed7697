package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/infrastructure/observability"
	"github.com/mindreel/backend/internal/infrastructure/routing"
	"github.com/rs/zerolog/log"
)

// DefaultTopK is the final citation count when the caller passes none.
const DefaultTopK = 5

// noContentAnswer is returned when recall produces no candidates at all.
const noContentAnswer = "未找到相关内容。"

// mockAnswer is returned when no chat backend is configured, so the pipeline
// stays demonstrable end to end.
const mockAnswer = "【模拟回答】基于片段 [1]，作者提到了相关概念。\n(请配置 OPENAI_API_KEY 以启用真实 LLM 回答)"

// Citation points one answer reference at its exact source position. Text is
// carried whole so callers can map a citation back to its segment; display
// truncation is theirs to do.
type Citation struct {
	Index     int    `json:"index"` // 1-based, matches [n] markers in the answer
	SegmentID string `json:"segment_id"`
	ContentID string `json:"content_id"`
	Title     string `json:"title"`
	URL       string `json:"url"`        // deep link to the cited timestamp
	StartTime int64  `json:"start_time"` // seconds
	Timestamp string `json:"timestamp"`
	Text      string `json:"text"`
}

// ChatAnswer is one grounded answer with its citation list.
type ChatAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}

// RAGService runs the full two-stage retrieval pipeline and assembles cited
// answers.
type RAGService struct {
	retrieval *RetrievalService
	reranker  *RerankService
	gateway   *LLMGateway
	metrics   *observability.Metrics
}

// NewRAGService creates the answering service. metrics may be nil.
func NewRAGService(
	retrieval *RetrievalService,
	reranker *RerankService,
	gateway *LLMGateway,
	metrics *observability.Metrics,
) *RAGService {
	return &RAGService{
		retrieval: retrieval,
		reranker:  reranker,
		gateway:   gateway,
		metrics:   metrics,
	}
}

// Ask answers a query over an author's indexed segments (empty authorID
// searches all authors). The answer cites the reranked segments by 1-based
// index; an unconfigured chat backend degrades to a mock answer with real
// citations.
func (s *RAGService) Ask(ctx context.Context, query, authorID string, topK int) (*ChatAnswer, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	start := time.Now()

	candidates, err := s.retrieval.Recall(ctx, query, authorID, topK)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &ChatAnswer{Answer: noContentAnswer}, nil
	}

	selected := s.reranker.Rerank(ctx, query, candidates, topK)

	contextStr := buildContext(selected)
	contentType := ContentTypeOf(selected)

	answer, err := s.gateway.Answer(ctx, query, contextStr, contentType)
	if err != nil {
		if errors.Is(err, routing.ErrSceneUnavailable) {
			log.Warn().Msg("answer backend unavailable, returning mock answer")
			answer = mockAnswer
		} else {
			return nil, err
		}
	}

	if s.metrics != nil {
		observability.RecordRetrievalMetric(ctx, s.metrics, "answer", time.Since(start))
	}

	return &ChatAnswer{
		Answer:    answer,
		Citations: buildCitations(selected),
	}, nil
}

// buildContext renders the numbered context block fed to the answer prompt.
// Indices are 1-based to match the citation markers the prompt asks for.
func buildContext(segments []*entities.Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		title := ""
		if seg.Content != nil {
			title = seg.Content.Title
		}
		fmt.Fprintf(&b, "[%d] 《%s》时间戳 %s: %s\n", i+1, title, formatTimestamp(seg.StartTimeMS), seg.Text)
	}
	return b.String()
}

func buildCitations(segments []*entities.Segment) []Citation {
	citations := make([]Citation, 0, len(segments))
	for i, seg := range segments {
		citation := Citation{
			Index:     i + 1,
			SegmentID: seg.ID,
			ContentID: seg.ContentID,
			StartTime: seg.StartTimeMS / 1000,
			Timestamp: formatTimestamp(seg.StartTimeMS),
			Text:      seg.Text,
		}
		if seg.Content != nil {
			citation.Title = seg.Content.Title
			citation.URL = deepLink(seg.Content.URL, seg.StartTimeMS)
		}
		citations = append(citations, citation)
	}
	return citations
}

// deepLink appends the start-second parameter so the player opens at the
// cited position.
func deepLink(url string, startMS int64) string {
	if url == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%d", url, sep, startMS/1000)
}

// formatTimestamp renders milliseconds as mm:ss.
func formatTimestamp(ms int64) string {
	totalSec := ms / 1000
	return fmt.Sprintf("%02d:%02d", totalSec/60, totalSec%60)
}
