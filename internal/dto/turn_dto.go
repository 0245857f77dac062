package dto

import (
	"time"

	"github.com/google/uuid"
)

type AcousticPayload struct {
	PitchVariance float64 `json:"pitch_variance" validate:"gte=0,lte=1"`
	SpeakingRate  float64 `json:"speaking_rate" validate:"gte=0"`
	PauseRatio    float64 `json:"pause_ratio" validate:"gte=0,lte=1"`
}

type SignalPayload struct {
	Type       string    `json:"type" validate:"required"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	ObservedAt time.Time `json:"observed_at"`
}

type ProcessTurnRequest struct {
	RelationshipId uuid.UUID        `json:"relationship_id" validate:"required"`
	Transcript     string           `json:"transcript"`
	Acoustic       *AcousticPayload `json:"acoustic,omitempty"`
	Signal         *SignalPayload   `json:"signal,omitempty"`
	Tags           []string         `json:"tags,omitempty"`
	Salience       float64          `json:"salience" validate:"gte=0,lte=1"`
	ReplyText      string           `json:"reply_text" validate:"required"`
}

type FallbackPayload struct {
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

type ScoredSignalPayload struct {
	Type        string   `json:"type"`
	Score       *float64 `json:"score"`
	Severity    string   `json:"severity"`
	NeedsReview bool     `json:"needs_review"`
	RuleVersion string   `json:"rule_version"`
}

type ProcessTurnResponse struct {
	TurnId         uuid.UUID            `json:"turn_id"`
	EmotionState   string               `json:"emotion_state"`
	Confidence     float64              `json:"confidence"`
	Trust          float64              `json:"trust"`
	MemoryVersion  int64                `json:"memory_version"`
	Scored         *ScoredSignalPayload `json:"scored,omitempty"`
	ProsodyMarkup  string               `json:"prosody_markup"`
	PitchDelta     float64              `json:"pitch_delta_st"`
	RateMultiplier float64              `json:"rate_multiplier"`
	VolumeDelta    float64              `json:"volume_delta_db"`
	Degraded       bool                 `json:"degraded"`
	Fallbacks      []FallbackPayload    `json:"fallbacks,omitempty"`
}

// PublishArchiveTurnMessage is the payload handed to the archive consumer
// after a turn completes, so context embedding happens off the hot path.
type PublishArchiveTurnMessage struct {
	TurnId         uuid.UUID `json:"turn_id"`
	RelationshipId uuid.UUID `json:"relationship_id"`
	Transcript     string    `json:"transcript"`
	Tags           []string  `json:"tags"`
	Salience       float64   `json:"salience"`
	EmotionState   string    `json:"emotion_state"`
	Timestamp      time.Time `json:"timestamp"`
}
