package repositories

import (
	"context"

	"github.com/mindreel/backend/internal/domain/entities"
)

// CallLogRepository is an append-only audit log for LLM invocations.
type CallLogRepository interface {
	Create(ctx context.Context, log *entities.LLMCallLog) error
}
