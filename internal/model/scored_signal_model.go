package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScoredSignalRecord struct {
	Id             uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TurnId         uuid.UUID      `gorm:"type:uuid;not null;index"`
	RelationshipId uuid.UUID      `gorm:"type:uuid;not null;index"`
	SignalType     string         `gorm:"type:varchar(32);not null"`
	Value          float64        `gorm:"not null"`
	Unit           string         `gorm:"type:varchar(16)"`
	Score          *float64       // nil when no rule covered the signal
	Severity       string         `gorm:"type:varchar(16);not null"`
	NeedsReview    bool           `gorm:"default:false;index"`
	RuleVersion    string         `gorm:"type:varchar(16)"`
	ObservedAt     time.Time      `gorm:"not null"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

func (ScoredSignalRecord) TableName() string {
	return "scored_signals"
}
