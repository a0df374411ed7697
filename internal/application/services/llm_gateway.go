package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/providers"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/llm"
	"github.com/mindreel/backend/internal/infrastructure/prompts"
	"github.com/mindreel/backend/internal/infrastructure/routing"
	"github.com/rs/zerolog/log"
)

// Task identifiers double as routing scenes.
const (
	TaskSummarySingle = "summary.single"
	TaskReportAuthor  = "report.author"
	TaskRerank        = "rag.rerank"
	TaskAnswer        = "rag.answer"
	TaskClassify      = "classify.content_type"
)

// Hard-coded profile fallbacks applied when the registry resolves nothing.
const (
	defaultSummaryProfile  = "video_summary/v1"
	defaultReportProfile   = "author_report/v1"
	defaultRerankProfile   = "rag_chat/rerank_v1"
	defaultAnswerProfile   = "rag_chat/answer_v1"
	defaultClassifyProfile = "common/classify_v1"
)

// maxPromptChars bounds transcript text sent to the model.
const maxPromptChars = 30000

// LLMGateway executes chat completions with profile/model resolution,
// deterministic response repair, and best-effort audit logging.
type LLMGateway struct {
	routing  *routing.Registry
	profiles *prompts.Registry
	manager  *prompts.Manager
	callLogs repositories.CallLogRepository
}

// NewLLMGateway creates a gateway over the routing and prompt registries
func NewLLMGateway(
	registry *routing.Registry,
	profiles *prompts.Registry,
	manager *prompts.Manager,
	callLogs repositories.CallLogRepository,
) *LLMGateway {
	return &LLMGateway{
		routing:  registry,
		profiles: profiles,
		manager:  manager,
		callLogs: callLogs,
	}
}

// resolveProfile walks the registry and falls back to the hard-coded default.
func (g *LLMGateway) resolveProfile(taskType, contentType string, requireOverride bool, fallback string) string {
	if key := g.profiles.GetPromptKey(taskType, contentType, requireOverride); key != "" && g.manager.Has(key) {
		return key
	}
	return fallback
}

// invoke issues one chat completion and records exactly one audit entry for
// it, success or failure. Audit writes never fail the call.
func (g *LLMGateway) invoke(ctx context.Context, taskType, profileKey string, rendered *prompts.Rendered, jsonMode bool) (string, error) {
	client, err := g.routing.ClientForScene(taskType)
	if err != nil {
		return "", err
	}

	result, err := client.Complete(ctx, providers.ChatRequest{
		SystemPrompt: rendered.System,
		UserPrompt:   rendered.User,
		Temperature:  0.2,
		JSONMode:     jsonMode,
	})

	entry := entities.NewLLMCallLog(taskType)
	entry.ProfileKey = profileKey
	entry.Model = client.Model()
	entry.Provider = client.Provider()
	entry.SystemPrompt = rendered.System
	entry.UserPrompt = rendered.User
	if err != nil {
		entry.Status = entities.CallStatusError
		entry.Error = err.Error()
	} else {
		entry.RawResponse = result.Text
		entry.Usage = llm.NormalizeUsage(result.RawUsage)
	}
	g.audit(entry)

	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// audit appends the call log entry asynchronously; failures are only warned.
func (g *LLMGateway) audit(entry *entities.LLMCallLog) {
	if g.callLogs == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.callLogs.Create(ctx, entry); err != nil {
			log.Warn().Err(err).Str("task", entry.TaskType).Msg("failed to write llm call log")
		}
	}()
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// GenerateSummary produces a normalized structured summary for a transcript.
// The returned profile key records which template was used. A routing.
// ErrSceneUnavailable error means no backend is configured for the task.
func (g *LLMGateway) GenerateSummary(ctx context.Context, text, contentType string) (*entities.StructuredSummary, string, string, error) {
	profileKey := g.resolveProfile(TaskSummarySingle, contentType, true, defaultSummaryProfile)

	rendered, err := g.manager.Render(profileKey, map[string]interface{}{
		"text": truncateRunes(text, maxPromptChars),
	})
	if err != nil {
		return nil, profileKey, "", err
	}

	raw, err := g.invoke(ctx, TaskSummarySingle, profileKey, rendered, true)
	if err != nil {
		return nil, profileKey, "", err
	}

	return normalizeSummary(profileKey, raw), profileKey, raw, nil
}

// ClassifyContentType asks the classifier task for a content-type label.
// Returns "" without error when the scene is unavailable or the reply cannot
// be parsed, so classification degrades to the generic bucket.
func (g *LLMGateway) ClassifyContentType(ctx context.Context, text string) string {
	profileKey := g.resolveProfile(TaskClassify, "", false, defaultClassifyProfile)

	rendered, err := g.manager.Render(profileKey, map[string]interface{}{
		"text": truncateRunes(text, 2000),
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to render classifier prompt")
		return ""
	}

	raw, err := g.invoke(ctx, TaskClassify, profileKey, rendered, true)
	if err != nil {
		log.Warn().Err(err).Msg("content-type classification unavailable")
		return ""
	}

	doc, err := extractJSON(raw)
	if err != nil {
		log.Warn().Err(err).Msg("classifier reply not parseable")
		return ""
	}

	var parsed struct {
		ContentType string `json:"content_type"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return ""
	}
	return parsed.ContentType
}

// GenerateAuthorReport produces the raw report document for an author's
// summary collection. The caller renders markdown from the returned JSON.
func (g *LLMGateway) GenerateAuthorReport(ctx context.Context, contextText, contentType string) (json.RawMessage, string, error) {
	profileKey := g.resolveProfile(TaskReportAuthor, contentType, true, defaultReportProfile)

	rendered, err := g.manager.Render(profileKey, map[string]interface{}{
		"context": truncateRunes(contextText, maxPromptChars),
	})
	if err != nil {
		return nil, profileKey, err
	}

	raw, err := g.invoke(ctx, TaskReportAuthor, profileKey, rendered, true)
	if err != nil {
		return nil, profileKey, err
	}

	doc, err := extractJSON(raw)
	if err != nil {
		return nil, profileKey, err
	}
	return doc, profileKey, nil
}

// Rerank orders candidate documents by relevance to the query and returns
// topN indices into docs. It never fails: on an unavailable backend, an
// unparseable reply, or any other error it returns the first topN candidates
// in original order.
func (g *LLMGateway) Rerank(ctx context.Context, query string, docs []string, topN int) []int {
	fallback := identityIndices(len(docs), topN)
	if len(docs) == 0 {
		return fallback
	}

	profileKey := g.resolveProfile(TaskRerank, "", true, defaultRerankProfile)

	rendered, err := g.manager.Render(profileKey, map[string]interface{}{
		"query":     query,
		"documents": formatRerankDocs(docs),
		"top_n":     topN,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to render rerank prompt")
		return fallback
	}

	raw, err := g.invoke(ctx, TaskRerank, profileKey, rendered, true)
	if err != nil {
		log.Warn().Err(err).Msg("rerank unavailable, keeping recall order")
		return fallback
	}

	doc, err := extractJSON(raw)
	if err != nil {
		log.Warn().Err(err).Msg("rerank reply not parseable, keeping recall order")
		return fallback
	}

	var parsed struct {
		Indices []int `json:"indices"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return fallback
	}

	return sanitizeIndices(parsed.Indices, len(docs), topN)
}

// Answer generates a grounded answer over an assembled context block.
func (g *LLMGateway) Answer(ctx context.Context, query, contextStr, contentType string) (string, error) {
	profileKey := g.resolveProfile(TaskAnswer, contentType, true, defaultAnswerProfile)

	rendered, err := g.manager.Render(profileKey, map[string]interface{}{
		"query":       query,
		"context_str": contextStr,
	})
	if err != nil {
		return "", err
	}

	return g.invoke(ctx, TaskAnswer, profileKey, rendered, false)
}

func identityIndices(total, topN int) []int {
	n := total
	if topN < n {
		n = topN
	}
	if n < 0 {
		n = 0
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// sanitizeIndices drops out-of-range and duplicate indices, truncates to
// topN, and pads with unused candidates in original order.
func sanitizeIndices(indices []int, total, topN int) []int {
	want := total
	if topN < want {
		want = topN
	}

	seen := make(map[int]bool, want)
	out := make([]int, 0, want)
	for _, idx := range indices {
		if idx < 0 || idx >= total || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
		if len(out) == want {
			return out
		}
	}

	for i := 0; i < total && len(out) < want; i++ {
		if !seen[i] {
			out = append(out, i)
		}
	}
	return out
}

func formatRerankDocs(docs []string) string {
	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "[%d] %s...\n", i, truncateRunes(doc, 200))
	}
	return b.String()
}
