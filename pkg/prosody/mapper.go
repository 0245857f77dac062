package prosody

import (
	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/scoring"
)

// PauseProfile holds break durations in milliseconds.
type PauseProfile struct {
	Sentence int `json:"sentence_ms"`
	Comma    int `json:"comma_ms"`
}

// Parameters is the full prosody envelope for one spoken reply.
type Parameters struct {
	PitchDelta     float64      `json:"pitch_delta_st"`  // semitones relative to neutral
	RateMultiplier float64      `json:"rate_multiplier"` // 1.0 = neutral pace
	VolumeDelta    float64      `json:"volume_delta_db"`
	Pause          PauseProfile `json:"pause"`
	Markup         string       `json:"markup"` // SSML rendering of the reply
}

// Per-emotion baselines: how the companion sounds absent any urgency or
// rapport adjustment.
var baselines = map[emotion.State]Parameters{
	emotion.StateCalm: {
		PitchDelta:     0,
		RateMultiplier: 1.00,
		VolumeDelta:    0,
		Pause:          PauseProfile{Sentence: 450, Comma: 220},
	},
	emotion.StateGuarded: {
		PitchDelta:     -1.0,
		RateMultiplier: 0.95,
		VolumeDelta:    -2.0,
		Pause:          PauseProfile{Sentence: 560, Comma: 280},
	},
	emotion.StateLit: {
		PitchDelta:     2.0,
		RateMultiplier: 1.10,
		VolumeDelta:    1.0,
		Pause:          PauseProfile{Sentence: 380, Comma: 180},
	},
}

const (
	// Urgency: a critical signal makes delivery brisker and brighter so it
	// cuts through, without shouting.
	criticalRateBoost  = 0.15
	criticalPitchBoost = 1.5

	// Rapport: early in a relationship the voice softens and slows.
	lowTrustThreshold  = 0.40
	lowTrustVolumeDrop = 1.5
	lowTrustRateDrop   = 0.05
	lowTrustPauseScale = 1.25
)

// Mapper derives speech-delivery parameters from the turn's emotional state,
// the highest signal severity, and relationship trust.
type Mapper struct{}

// NewMapper creates a prosody mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// Map produces the prosody envelope and SSML markup for replyText.
// severity may be SeverityUnknown, which applies no urgency adjustment.
func (m *Mapper) Map(state emotion.State, severity scoring.Severity, trust float64, replyText string) Parameters {
	params, ok := baselines[state]
	if !ok {
		params = baselines[emotion.StateCalm]
	}

	if severity == scoring.SeverityCritical {
		params.RateMultiplier += criticalRateBoost
		params.PitchDelta += criticalPitchBoost
	}

	if trust < lowTrustThreshold {
		params.VolumeDelta -= lowTrustVolumeDrop
		params.RateMultiplier -= lowTrustRateDrop
		params.Pause.Sentence = int(float64(params.Pause.Sentence) * lowTrustPauseScale)
		params.Pause.Comma = int(float64(params.Pause.Comma) * lowTrustPauseScale)
	}

	params.Markup = buildSSML(params, replyText)
	return params
}

// Neutral returns the calm baseline envelope for replyText. Used as the
// degraded-mode fallback when upstream stages fail.
func (m *Mapper) Neutral(replyText string) Parameters {
	params := baselines[emotion.StateCalm]
	params.Markup = buildSSML(params, replyText)
	return params
}
