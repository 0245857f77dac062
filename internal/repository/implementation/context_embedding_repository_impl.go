package implementation

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
)

type ContextEmbeddingRepositoryImpl struct {
	db *gorm.DB
}

func NewContextEmbeddingRepository(db *gorm.DB) contract.ContextEmbeddingRepository {
	return &ContextEmbeddingRepositoryImpl{
		db: db,
	}
}

func (r *ContextEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *model.ContextEmbedding) error {
	return r.db.WithContext(ctx).Create(embedding).Error
}

func (r *ContextEmbeddingRepositoryImpl) CreateBulk(ctx context.Context, embeddings []*model.ContextEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(embeddings).Error
}

func (r *ContextEmbeddingRepositoryImpl) DeleteByTurnId(ctx context.Context, turnId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("turn_id = ?", turnId).Delete(&model.ContextEmbedding{}).Error
}

func (r *ContextEmbeddingRepositoryImpl) DeleteByRelationshipId(ctx context.Context, relationshipId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("relationship_id = ?", relationshipId).Delete(&model.ContextEmbedding{}).Error
}

func (r *ContextEmbeddingRepositoryImpl) SearchSimilar(ctx context.Context, embedding []float32, relationshipId uuid.UUID, limit int) ([]*model.ContextEmbedding, error) {
	if limit <= 0 {
		limit = 5
	}
	var models []*model.ContextEmbedding

	// Using pgvector cosine distance: embedding_value <=> vector
	// Recall is scoped to one relationship; never mix companions
	err := r.db.WithContext(ctx).
		Where("relationship_id = ?", relationshipId).
		Where("deleted_at IS NULL").
		Order(gorm.Expr("embedding_value <=> ?", pgvector.NewVector(embedding))).
		Limit(limit).
		Find(&models).Error

	if err != nil {
		return nil, err
	}
	return models, nil
}
