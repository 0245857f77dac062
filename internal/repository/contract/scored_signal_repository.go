package contract

import (
	"context"

	"github.com/google/uuid"

	"ai-companion-be/internal/model"
)

type ScoredSignalRepository interface {
	Create(ctx context.Context, record *model.ScoredSignalRecord) error
	FindRecentByRelationship(ctx context.Context, relationshipId uuid.UUID, limit int) ([]*model.ScoredSignalRecord, error)
	FindNeedingReview(ctx context.Context, limit int) ([]*model.ScoredSignalRecord, error)
}
