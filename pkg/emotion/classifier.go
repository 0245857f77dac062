package emotion

import (
	"strings"
)

const (
	baseScore = 0.33

	// Acoustic heuristic boosts.
	litEnergyBoost    = 0.20
	guardedPauseBoost = 0.15
	calmSteadyBoost   = 0.10

	// Thresholds for the acoustic heuristics.
	highPitchVariance = 0.60
	fastSpeakingRate  = 1.10
	slowSpeakingRate  = 0.85
	highPauseRatio    = 0.35

	// Temporal smoothing: 70% current turn, 30% previous turn.
	smoothingPrevious = 0.30

	// Confidence scale applied when hysteresis holds the previous state.
	holdConfidenceScale = 0.90

	// Confidence reported when there is nothing to classify.
	noDataConfidence = 0.34
)

// Classifier maps per-turn transcript and acoustic features to a discrete
// emotional state. Classification is rule-based: each candidate state
// accumulates weighted lexical and prosodic cue matches, scores are
// normalized to a probability vector, and a hysteresis margin keeps the
// state from flapping between adjacent turns.
type Classifier struct {
	patterns map[State][]weightedCue
	margin   float64
}

// NewClassifier creates a classifier with the built-in cue lexicons.
// margin is the hysteresis margin M: the minimum normalized-score advantage a
// challenger state needs over the previous state to trigger a transition.
func NewClassifier(margin float64) *Classifier {
	if margin <= 0 {
		margin = 0.15
	}
	return &Classifier{
		patterns: defaultCuePatterns(),
		margin:   margin,
	}
}

// Classify derives the emotional state for one turn.
//
// With no transcript and no acoustic features it never fails outright: it
// returns the previous state (or Calm with low confidence on a first turn)
// together with ErrNoData so the caller can record the degradation.
func (c *Classifier) Classify(in Input) (EmotionState, error) {
	if strings.TrimSpace(in.Transcript) == "" && in.Acoustic == nil {
		if in.Previous != nil {
			held := *in.Previous
			held.Confidence = clamp01(held.Confidence * holdConfidenceScale)
			held.Held = true
			return held, ErrNoData
		}
		return EmotionState{
			State:      StateCalm,
			Confidence: noDataConfidence,
			Vector:     [3]float64{noDataConfidence, baseScore, baseScore},
		}, ErrNoData
	}

	vector := c.scoreVector(in.Transcript, in.Acoustic)

	// Temporal smoothing against the previous turn's vector avoids jitter
	// when consecutive turns sit near a state boundary.
	if in.Previous != nil && vectorSum(in.Previous.Vector) > 0 {
		for i := range vector {
			vector[i] = (1-smoothingPrevious)*vector[i] + smoothingPrevious*in.Previous.Vector[i]
		}
		vector = normalize(vector)
	}

	challengerIdx := argmax(vector)
	result := EmotionState{
		State:      States[challengerIdx],
		Confidence: vector[challengerIdx],
		Vector:     vector,
	}

	// Hysteresis: switch away from the previous state only when the
	// challenger clears it by the configured margin.
	if in.Previous != nil && result.State != in.Previous.State {
		prevIdx := indexOf(in.Previous.State)
		if vector[challengerIdx]-vector[prevIdx] <= c.margin {
			result.State = in.Previous.State
			result.Confidence = clamp01(vector[prevIdx] * holdConfidenceScale)
			result.Held = true
		}
	}

	return result, nil
}

// scoreVector accumulates weighted cue matches into a normalized
// [calm, guarded, lit] probability vector.
func (c *Classifier) scoreVector(transcript string, ac *AcousticFeatures) [3]float64 {
	scores := [3]float64{baseScore, baseScore, baseScore}
	lower := strings.ToLower(transcript)

	for state, cues := range c.patterns {
		idx := indexOf(state)
		for _, cue := range cues {
			if strings.Contains(lower, cue.phrase) {
				scores[idx] += cue.weight
			}
		}
	}

	if ac != nil {
		switch {
		case ac.PitchVariance > highPitchVariance && ac.SpeakingRate > fastSpeakingRate:
			scores[indexOf(StateLit)] += litEnergyBoost
		case ac.PauseRatio > highPauseRatio || (ac.SpeakingRate > 0 && ac.SpeakingRate < slowSpeakingRate):
			scores[indexOf(StateGuarded)] += guardedPauseBoost
		default:
			scores[indexOf(StateCalm)] += calmSteadyBoost
		}
	}

	return normalize(scores)
}

func normalize(v [3]float64) [3]float64 {
	total := vectorSum(v)
	if total <= 0 {
		return [3]float64{baseScore, baseScore, baseScore}
	}
	for i := range v {
		v[i] /= total
	}
	return v
}

func vectorSum(v [3]float64) float64 {
	return v[0] + v[1] + v[2]
}

func argmax(v [3]float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
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
