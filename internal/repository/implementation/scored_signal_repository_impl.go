package implementation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
)

type ScoredSignalRepositoryImpl struct {
	db *gorm.DB
}

func NewScoredSignalRepository(db *gorm.DB) contract.ScoredSignalRepository {
	return &ScoredSignalRepositoryImpl{
		db: db,
	}
}

func (r *ScoredSignalRepositoryImpl) Create(ctx context.Context, record *model.ScoredSignalRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *ScoredSignalRepositoryImpl) FindRecentByRelationship(ctx context.Context, relationshipId uuid.UUID, limit int) ([]*model.ScoredSignalRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []*model.ScoredSignalRecord
	err := r.db.WithContext(ctx).
		Where("relationship_id = ?", relationshipId).
		Order("observed_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *ScoredSignalRepositoryImpl) FindNeedingReview(ctx context.Context, limit int) ([]*model.ScoredSignalRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []*model.ScoredSignalRecord
	err := r.db.WithContext(ctx).
		Where("needs_review = ?", true).
		Order("created_at ASC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
