package repositories

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// SummaryRepository persists structured summaries. At most one live row per
// (content, summary type).
type SummaryRepository interface {
	// Upsert inserts the summary or replaces the live row for its
	// (content, type) pair.
	Upsert(ctx context.Context, summary *entities.Summary) error

	GetByContent(ctx context.Context, contentID, summaryType string) (*entities.Summary, error)

	// ListByAuthor returns all summaries for an author's contents, newest
	// first, each joined to its content item for content-type grouping.
	ListByAuthor(ctx context.Context, authorID string) ([]*entities.Summary, error)
}

// ReportRepository persists author reports.
type ReportRepository interface {
	Create(ctx context.Context, report *entities.AuthorReport) error
	ListByAuthor(ctx context.Context, authorID string) ([]*entities.AuthorReport, error)
}
