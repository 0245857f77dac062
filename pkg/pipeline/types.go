package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/prosody"
	"ai-companion-be/pkg/relmem"
	"ai-companion-be/pkg/scoring"
)

var (
	// ErrInvalidInput rejects turns that cannot identify a relationship.
	ErrInvalidInput = errors.New("pipeline: invalid interaction input")

	// ErrDependencyTimeout marks a collaborator that missed its deadline.
	ErrDependencyTimeout = errors.New("pipeline: dependency timed out")
)

// Interaction is one companion turn entering the pipeline.
type Interaction struct {
	TurnId         uuid.UUID                 `json:"turn_id"`
	RelationshipId uuid.UUID                 `json:"relationship_id"`
	Transcript     string                    `json:"transcript"`
	Acoustic       *emotion.AcousticFeatures `json:"acoustic,omitempty"`
	Signal         *scoring.HealthSignal     `json:"signal,omitempty"`
	Tags           []string                  `json:"tags,omitempty"`
	Salience       float64                   `json:"salience"`
	ReplyText      string                    `json:"reply_text"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// Stage names, used in fallback reporting and logs.
const (
	StageStart        = "start"
	StageClassify     = "classify"
	StageUpdateMemory = "update_memory"
	StageScore        = "score"
	StageMapProsody   = "map_prosody"
	StageComplete     = "complete"
)

// Fallback records one degraded stage within an otherwise completed turn.
type Fallback struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// ResponseBundle is the pipeline's per-turn output: everything downstream
// speech synthesis and care routing needs, plus a record of any degradation.
type ResponseBundle struct {
	TurnId    uuid.UUID             `json:"turn_id"`
	Emotion   emotion.EmotionState  `json:"emotion"`
	Snapshot  relmem.Snapshot       `json:"snapshot"`
	Scored    *scoring.ScoredSignal `json:"scored,omitempty"`
	Prosody   prosody.Parameters    `json:"prosody"`
	Fallbacks []Fallback            `json:"fallbacks,omitempty"`
	Elapsed   time.Duration         `json:"elapsed"`
}

// Degraded reports whether any stage fell back during the turn.
func (b ResponseBundle) Degraded() bool {
	return len(b.Fallbacks) > 0
}

// ContextSearcher is the external similarity collaborator: given the turn's
// tags it proposes additional context entries to consider during recall.
type ContextSearcher interface {
	Similar(ctx context.Context, relationshipId uuid.UUID, tags []string, limit int) ([]relmem.ContextEntry, error)
}

// SnapshotCache holds the last known-good snapshot per relationship so a
// failed memory update can degrade to stale-but-consistent context.
type SnapshotCache interface {
	Get(relationshipId uuid.UUID) (relmem.Snapshot, bool)
	Put(snapshot relmem.Snapshot)
}
