package relmem

import (
	"time"

	"github.com/google/uuid"

	"ai-companion-be/pkg/emotion"
)

// ContextEntry is a single remembered moment for a relationship. Entries are
// append-only: once written they are never rewritten, only decayed at read
// time.
type ContextEntry struct {
	Id         uuid.UUID     `json:"id"`
	Tags       []string      `json:"tags"`
	Salience   float64       `json:"salience"`    // 0-1 importance weight
	TrustDelta float64       `json:"trust_delta"` // signed contribution to the trust trajectory
	Emotion    emotion.State `json:"emotion"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Snapshot is the read model handed to the rest of the pipeline after an
// update: the current decayed trust score plus the top-K recalled entries.
type Snapshot struct {
	RelationshipId uuid.UUID      `json:"relationship_id"`
	Trust          float64        `json:"trust"` // 0-1
	Version        int64          `json:"version"`
	LastUpdated    time.Time      `json:"last_updated"`
	Recalled       []ContextEntry `json:"recalled"`
}

// DefaultSnapshot is the neutral snapshot used when nothing is known about a
// relationship yet, or when memory lookups degrade.
func DefaultSnapshot(relationshipId uuid.UUID) Snapshot {
	return Snapshot{
		RelationshipId: relationshipId,
		Trust:          trustBaseline,
	}
}
