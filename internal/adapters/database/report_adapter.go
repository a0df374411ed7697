package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/mindreel/backend/internal/domain/entities"
	"github.com/mindreel/backend/internal/domain/repositories"
	"github.com/mindreel/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/mindreel/backend/pkg/errors"
)

// ReportAdapter implements the ReportRepository interface
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) repositories.ReportRepository {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates an author report
func (a *ReportAdapter) Create(ctx context.Context, report *entities.AuthorReport) error {
	record := goqu.Record{
		"id":             report.ID,
		"author_id":      report.AuthorID,
		"content_type":   report.ContentType,
		"report_type":    report.ReportType,
		"report_version": report.ReportVersion,
		"content":        report.Content,
		"raw_json":       report.RawJSON,
		"created_at":     report.CreatedAt,
	}

	query, args, err := a.db.Insert("author_reports").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create author report", err)
	}

	return nil
}

// ListByAuthor returns an author's reports, newest first
func (a *ReportAdapter) ListByAuthor(ctx context.Context, authorID string) ([]*entities.AuthorReport, error) {
	query, args, err := a.db.Select(
		"id", "author_id", "content_type", "report_type",
		"report_version", "content", "raw_json", "created_at",
	).From("author_reports").
		Where(goqu.Ex{"author_id": authorID}).
		Order(goqu.I("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list author reports", err)
	}
	defer rows.Close()

	var reports []*entities.AuthorReport
	for rows.Next() {
		report := &entities.AuthorReport{}
		err := rows.Scan(
			&report.ID,
			&report.AuthorID,
			&report.ContentType,
			&report.ReportType,
			&report.ReportVersion,
			&report.Content,
			&report.RawJSON,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan author report", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate author reports", err)
	}

	return reports, nil
}
