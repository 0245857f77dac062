package emotion

type weightedCue struct {
	phrase string
	weight float64
}

// Lexical cue lexicons with differentiated weights. Lit cues carry a higher
// weight because excitement markers are rarer and less ambiguous than
// calm/guarded hedging.
func defaultCuePatterns() map[State][]weightedCue {
	return map[State][]weightedCue{
		StateCalm: {
			{phrase: "yeah", weight: 0.10}, {phrase: "actually", weight: 0.10},
			{phrase: "clear", weight: 0.10}, {phrase: "peaceful", weight: 0.10},
			{phrase: "fine", weight: 0.10}, {phrase: "okay", weight: 0.10},
			{phrase: "calm", weight: 0.10}, {phrase: "steady", weight: 0.10},
		},
		StateGuarded: {
			{phrase: "i mean", weight: 0.10}, {phrase: "i guess", weight: 0.10},
			{phrase: "maybe", weight: 0.10}, {phrase: "kind of", weight: 0.10},
			{phrase: "tired", weight: 0.10}, {phrase: "worried", weight: 0.10},
			{phrase: "uncertain", weight: 0.10},
		},
		StateLit: {
			{phrase: "let's do it", weight: 0.15}, {phrase: "amazing", weight: 0.15},
			{phrase: "excited", weight: 0.15}, {phrase: "can't wait", weight: 0.15},
			{phrase: "love", weight: 0.15}, {phrase: "yes", weight: 0.15},
			{phrase: "ready", weight: 0.15},
		},
	}
}
