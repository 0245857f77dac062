package scoring

import (
	"errors"
	"time"
)

// SignalType identifies the kind of health signal being scored.
type SignalType string

const (
	SignalHeartRate    SignalType = "HEART_RATE"
	SignalSystolicBP   SignalType = "SYSTOLIC_BP"
	SignalSpO2         SignalType = "SPO2"
	SignalBodyTemp     SignalType = "BODY_TEMP"
	SignalSymptom      SignalType = "SYMPTOM"
	SignalMedAdherence SignalType = "MED_ADHERENCE"
)

// Severity buckets an urgency score for downstream routing.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
	SeverityUnknown  Severity = "UNKNOWN"
)

// ErrRuleMissing is returned when no scoring rule covers the signal type.
// The signal is still emitted, flagged for human review.
var ErrRuleMissing = errors.New("scoring: no rule for signal type")

// HealthSignal is one raw reading entering the scorer.
type HealthSignal struct {
	Type       SignalType `json:"type"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	ObservedAt time.Time  `json:"observed_at"`
}

// Factor records one multiplicative contribution to the final score, in
// application order, so a reviewer can reconstruct the arithmetic.
type Factor struct {
	Name       string  `json:"name"`
	Multiplier float64 `json:"multiplier"`
}

// ScoredSignal is the scorer's output. Score is nil when no rule covered the
// signal type; NeedsReview marks signals a human should look at.
type ScoredSignal struct {
	Signal      HealthSignal `json:"signal"`
	Score       *float64     `json:"score"` // 0-100
	Severity    Severity     `json:"severity"`
	Factors     []Factor     `json:"factors"`
	NeedsReview bool         `json:"needs_review"`
	RuleVersion string       `json:"rule_version"`
}
