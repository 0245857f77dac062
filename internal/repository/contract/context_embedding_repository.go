package contract

import (
	"context"

	"github.com/google/uuid"

	"ai-companion-be/internal/model"
)

type ContextEmbeddingRepository interface {
	Create(ctx context.Context, embedding *model.ContextEmbedding) error
	CreateBulk(ctx context.Context, embeddings []*model.ContextEmbedding) error
	DeleteByTurnId(ctx context.Context, turnId uuid.UUID) error
	DeleteByRelationshipId(ctx context.Context, relationshipId uuid.UUID) error
	SearchSimilar(ctx context.Context, embedding []float32, relationshipId uuid.UUID, limit int) ([]*model.ContextEmbedding, error)
}
