package scoring

import (
	"ai-companion-be/pkg/emotion"
)

// Emotional-context multipliers. Agitation amplifies urgency; a calm
// presentation leaves the physiological read untouched.
var emotionMultipliers = map[emotion.State]float64{
	emotion.StateCalm:    1.00,
	emotion.StateGuarded: 1.15,
	emotion.StateLit:     1.25,
}

// Scorer turns raw health signals into bounded urgency scores using a
// versioned rule table plus the turn's emotional and relational context.
type Scorer struct {
	table Table
}

// NewScorer creates a scorer over the given rule table.
func NewScorer(table Table) *Scorer {
	return &Scorer{table: table}
}

// Score evaluates one signal. The emotional state multiplies the base band
// factor; for self-reported signals the relationship trust score dampens or
// amplifies the result. Every multiplicative step is recorded as a Factor in
// application order.
//
// A signal type with no rule is not an error path that loses data: the signal
// comes back with a nil score, UNKNOWN severity and NeedsReview set, together
// with ErrRuleMissing.
func (s *Scorer) Score(signal HealthSignal, state emotion.State, trust float64) (ScoredSignal, error) {
	rule, ok := s.table.Rules[signal.Type]
	if !ok {
		return s.unknown(signal), ErrRuleMissing
	}

	band, ok := rule.bandFor(signal.Value)
	if !ok {
		return s.unknown(signal), ErrRuleMissing
	}

	score := band.Factor
	factors := []Factor{{Name: "base_band", Multiplier: band.Factor}}

	emotionMul, ok := emotionMultipliers[state]
	if !ok {
		emotionMul = 1.0
	}
	score *= emotionMul
	factors = append(factors, Factor{Name: "emotion_" + string(state), Multiplier: emotionMul})

	if rule.SelfReported {
		trustMul := s.table.TrustBase + s.table.TrustSpan*clamp01(trust)
		score *= trustMul
		factors = append(factors, Factor{Name: "trust", Multiplier: trustMul})
	}

	score = clampScore(score)
	return ScoredSignal{
		Signal:      signal,
		Score:       &score,
		Severity:    s.table.severityFor(score),
		Factors:     factors,
		RuleVersion: s.table.Version,
	}, nil
}

func (s *Scorer) unknown(signal HealthSignal) ScoredSignal {
	return ScoredSignal{
		Signal:      signal,
		Severity:    SeverityUnknown,
		NeedsReview: true,
		RuleVersion: s.table.Version,
	}
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
