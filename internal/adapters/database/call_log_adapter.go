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

// CallLogAdapter implements the CallLogRepository interface. Rows are
// insert-only; nothing updates or deletes them.
type CallLogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCallLogAdapter creates a new call log adapter
func NewCallLogAdapter(client *postgres.Client) repositories.CallLogRepository {
	return &CallLogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create appends one audit row
func (a *CallLogAdapter) Create(ctx context.Context, log *entities.LLMCallLog) error {
	record := goqu.Record{
		"id":                log.ID,
		"task_type":         log.TaskType,
		"profile_key":       log.ProfileKey,
		"model":             log.Model,
		"provider":          log.Provider,
		"system_prompt":     log.SystemPrompt,
		"user_prompt":       log.UserPrompt,
		"raw_response":      log.RawResponse,
		"prompt_tokens":     log.Usage.PromptTokens,
		"completion_tokens": log.Usage.CompletionTokens,
		"total_tokens":      log.Usage.TotalTokens,
		"status":            log.Status,
		"error":             log.Error,
		"created_at":        log.CreatedAt,
	}

	query, args, err := a.db.Insert("llm_call_logs").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create call log", err)
	}

	return nil
}
