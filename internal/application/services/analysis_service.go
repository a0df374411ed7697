package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/repositories"
	apperrors "github.com/mindreel/backend/pkg/errors"
	"github.com/rs/zerolog/log"
)

// SummaryTypeStructured is the summary row type written by this service.
const SummaryTypeStructured = "structured"

// classifySampleChars bounds the transcript prefix shown to the classifier.
const classifySampleChars = 2000

// AnalysisService produces per-content summaries and per-author reports,
// resolving content types through the classification cascade.
type AnalysisService struct {
	gateway   *LLMGateway
	authors   repositories.AuthorRepository
	contents  repositories.ContentRepository
	segments  repositories.SegmentRepository
	summaries repositories.SummaryRepository
	reports   repositories.ReportRepository
}

// NewAnalysisService creates the analysis service.
func NewAnalysisService(
	gateway *LLMGateway,
	authors repositories.AuthorRepository,
	contents repositories.ContentRepository,
	segments repositories.SegmentRepository,
	summaries repositories.SummaryRepository,
	reports repositories.ReportRepository,
) *AnalysisService {
	return &AnalysisService{
		gateway:   gateway,
		authors:   authors,
		contents:  contents,
		segments:  segments,
		summaries: summaries,
		reports:   reports,
	}
}

// ResolveContentType runs the classification cascade for one item:
// author type override, existing classification, LLM classifier, generic.
// The cascade is idempotent; repeated calls return the same label and only
// write when the stored classification changes.
func (s *AnalysisService) ResolveContentType(ctx context.Context, content *entities.ContentItem, fullText string) (string, error) {
	author, err := s.authors.GetByID(ctx, content.AuthorID)
	if err != nil && !apperrors.IsNotFound(err) {
		return "", err
	}

	if author != nil && author.AuthorType != "" {
		if content.ContentType != author.AuthorType || content.ContentTypeSource != entities.TypeSourceAuthorInherit {
			content.ContentType = author.AuthorType
			content.ContentTypeSource = entities.TypeSourceAuthorInherit
			if err := s.contents.Update(ctx, content); err != nil {
				return "", err
			}
		}
		return author.AuthorType, nil
	}

	if content.ContentType != "" {
		return content.ContentType, nil
	}

	label := s.gateway.ClassifyContentType(ctx, truncateRunes(fullText, classifySampleChars))
	if label != "" {
		content.ContentType = label
		content.ContentTypeSource = entities.TypeSourceClassifier
		if err := s.contents.Update(ctx, content); err != nil {
			return "", err
		}
		log.Info().Str("content", content.ID).Str("type", label).Msg("classified content type")
		return label, nil
	}

	// Unclassified items route through the generic bucket without persisting.
	return entities.ContentTypeGeneric, nil
}

// GenerateContentSummary summarizes one content item's transcript into a
// structured summary row. An existing summary is returned unless force is set.
func (s *AnalysisService) GenerateContentSummary(ctx context.Context, contentID string, force bool) (*entities.Summary, error) {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if content.ContentQuality == entities.QualityMissing {
		return nil, apperrors.NewValidationError("content has no transcript to summarize")
	}

	if !force {
		existing, err := s.summaries.GetByContent(ctx, contentID, SummaryTypeStructured)
		if err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			return existing, nil
		}
	}

	segments, err := s.segments.ListByContent(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, apperrors.NewValidationError("content has no segments to summarize")
	}

	texts := make([]string, 0, len(segments))
	for _, seg := range segments {
		texts = append(texts, seg.Text)
	}
	fullText := strings.Join(texts, "\n")

	contentType, err := s.ResolveContentType(ctx, content, fullText)
	if err != nil {
		return nil, err
	}

	structured, profileKey, raw, err := s.gateway.GenerateSummary(ctx, fullText, contentType)
	if err != nil {
		return nil, err
	}

	summary := entities.NewSummary(contentID, SummaryTypeStructured)
	summary.Content = raw
	summary.ProfileKey = profileKey
	summary.ContentType = contentType
	summary.Data = structured

	if err := s.summaries.Upsert(ctx, summary); err != nil {
		return nil, err
	}

	log.Info().Str("content", contentID).Str("profile", profileKey).Msg("saved structured summary")
	return summary, nil
}

// SummarizeAuthor generates summaries for every summarizable item of an
// author. Per-item failures are logged and the run continues.
func (s *AnalysisService) SummarizeAuthor(ctx context.Context, authorID string, force bool) error {
	items, err := s.contents.ListByAuthor(ctx, authorID)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.ContentQuality == entities.QualityMissing {
			continue
		}
		if _, err := s.GenerateContentSummary(ctx, item.ID, force); err != nil {
			log.Error().Err(err).Str("content", item.ID).Msg("failed to summarize content")
		}
	}
	return nil
}

// GenerateAuthorReports builds one report per content-type bucket observed
// among the author's summaries. A non-empty author type collapses all
// summaries into a single bucket.
func (s *AnalysisService) GenerateAuthorReports(ctx context.Context, authorID string) ([]*entities.AuthorReport, error) {
	author, err := s.authors.GetByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.summaries.ListByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, apperrors.NewValidationError("author has no summaries to report on")
	}

	groups := groupSummaries(summaries, author.AuthorType)

	contentTypes := make([]string, 0, len(groups))
	for contentType := range groups {
		contentTypes = append(contentTypes, contentType)
	}
	sort.Strings(contentTypes)

	reports := make([]*entities.AuthorReport, 0, len(groups))
	for _, contentType := range contentTypes {
		report, err := s.generateGroupReport(ctx, author, contentType, groups[contentType])
		if err != nil {
			log.Error().Err(err).Str("author", authorID).Str("type", contentType).
				Msg("failed to generate author report")
			continue
		}
		reports = append(reports, report)
	}

	if len(reports) == 0 {
		return nil, apperrors.NewExternalError("no author report could be generated", nil)
	}
	return reports, nil
}

// groupSummaries buckets summaries by content type. authorType, when set,
// overrides per-item classification and yields a single bucket.
func groupSummaries(summaries []*entities.Summary, authorType string) map[string][]*entities.Summary {
	groups := make(map[string][]*entities.Summary)
	for _, summary := range summaries {
		key := summary.ContentType
		if authorType != "" {
			key = authorType
		} else if key == "" {
			key = entities.ContentTypeGeneric
		}
		groups[key] = append(groups[key], summary)
	}
	return groups
}

func (s *AnalysisService) generateGroupReport(ctx context.Context, author *entities.Author, contentType string, group []*entities.Summary) (*entities.AuthorReport, error) {
	contextText := buildReportContext(author.Name, group)

	doc, profileKey, err := s.gateway.GenerateAuthorReport(ctx, contextText, contentType)
	if err != nil {
		return nil, err
	}

	report := entities.NewAuthorReport(author.ID, contentType)
	report.ReportVersion = reportVersion(profileKey)
	report.RawJSON = string(doc)
	report.Content = renderReportMarkdown(doc)

	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	log.Info().Str("author", author.ID).Str("type", contentType).
		Int("summaries", len(group)).Msg("saved author report")
	return report, nil
}

// buildReportContext assembles the per-summary digest block fed to the
// report prompt.
func buildReportContext(authorName string, group []*entities.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "作者：%s\n\n", authorName)
	for i, summary := range group {
		fmt.Fprintf(&b, "### 内容 %d\n", i+1)

		if summary.Data != nil {
			if summary.Data.OneLiner != "" {
				fmt.Fprintf(&b, "一句话：%s\n", summary.Data.OneLiner)
			}
			if summary.Data.Summary != "" {
				fmt.Fprintf(&b, "%s\n", summary.Data.Summary)
			}
			for _, point := range summary.Data.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", point)
			}
		} else if summary.Content != "" {
			fmt.Fprintf(&b, "%s\n", truncateRunes(summary.Content, 500))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// reportVersion extracts the version tail of a profile key,
// e.g. "author_report/v2" yields "v2".
func reportVersion(profileKey string) string {
	tail := profileKey
	if idx := strings.LastIndex(profileKey, "/"); idx >= 0 {
		tail = profileKey[idx+1:]
	}
	if strings.HasPrefix(tail, "v") {
		return tail
	}
	return "v1"
}

// renderReportMarkdown turns the report document into markdown. A
// report_markdown field passes through verbatim; otherwise sections are
// synthesized from the known report fields in a stable order.
func renderReportMarkdown(doc json.RawMessage) string {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return string(doc)
	}

	if raw, ok := parsed["report_markdown"]; ok {
		var markdown string
		if err := json.Unmarshal(raw, &markdown); err == nil && markdown != "" {
			return markdown
		}
	}

	sections := []struct {
		key   string
		title string
	}{
		{"overview", "概览"},
		{"core_themes", "核心主题"},
		{"methodology", "方法论"},
		{"audience_advice", "适合人群与建议"},
		{"highlights", "亮点内容"},
	}

	var b strings.Builder
	for _, section := range sections {
		raw, ok := parsed[section.key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", section.title)

		var text string
		if err := json.Unmarshal(raw, &text); err == nil {
			b.WriteString(text)
			b.WriteString("\n\n")
			continue
		}

		var items []string
		if err := json.Unmarshal(raw, &items); err == nil {
			for _, item := range items {
				fmt.Fprintf(&b, "- %s\n", item)
			}
			b.WriteString("\n")
		}
	}

	if b.Len() == 0 {
		return string(doc)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}
