package prosody

import (
	"fmt"
	"strings"
)

var ssmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// buildSSML renders the reply with its prosody envelope as an SSML document.
// The rate attribute is expressed as a percentage of neutral pace.
func buildSSML(p Parameters, text string) string {
	return fmt.Sprintf(
		`<speak><prosody pitch="%+.1fst" rate="%.0f%%" volume="%+.1fdB">%s<break time="%dms"/></prosody></speak>`,
		p.PitchDelta,
		p.RateMultiplier*100,
		p.VolumeDelta,
		ssmlEscaper.Replace(escapeText(text)),
		p.Pause.Sentence,
	)
}

// escapeText strips control characters that have no place in spoken text,
// keeping newlines and tabs as plain whitespace.
func escapeText(text string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
}
