package emotion

import "errors"

// State is one of the three discrete emotional states the engine recognizes.
type State string

const (
	StateCalm    State = "calm"
	StateGuarded State = "guarded"
	StateLit     State = "lit"
)

// States lists every recognized state in vector order.
// The classifier's probability vector is indexed in this order.
var States = [3]State{StateCalm, StateGuarded, StateLit}

// ErrNoData is returned when a turn carries no transcript and no acoustic
// features. The classifier still returns a usable neutral state so the turn
// can proceed on the fallback path.
var ErrNoData = errors.New("emotion: no input signal for classification")

// AcousticFeatures are the prosodic measurements extracted upstream by the
// transcription provider. All values are optional heuristic inputs.
type AcousticFeatures struct {
	PitchVariance float64 `json:"pitch_variance"` // normalized 0-1
	SpeakingRate  float64 `json:"speaking_rate"`  // 1.0 = baseline pace
	PauseRatio    float64 `json:"pause_ratio"`    // silence fraction 0-1
}

// EmotionState is the per-turn classification result.
type EmotionState struct {
	State      State      `json:"state"`
	Confidence float64    `json:"confidence"` // 0.0-1.0
	Vector     [3]float64 `json:"vector"`     // [calm, guarded, lit] probabilities
	Held       bool       `json:"held"`       // true when hysteresis kept the previous state
}

// Input groups everything the classifier looks at for one turn.
type Input struct {
	Transcript string
	Acoustic   *AcousticFeatures
	Previous   *EmotionState // nil on the first turn of a session
}

func indexOf(s State) int {
	for i, candidate := range States {
		if candidate == s {
			return i
		}
	}
	return 0
}
