package prosody

import (
	"strings"
	"testing"

	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/scoring"
)

func TestMapCriticalUrgency(t *testing.T) {
	m := NewMapper()

	calm := m.Map(emotion.StateCalm, scoring.SeverityLow, 0.8, "all good")
	urgent := m.Map(emotion.StateCalm, scoring.SeverityCritical, 0.8, "please sit down")

	if urgent.RateMultiplier <= calm.RateMultiplier {
		t.Errorf("critical rate %.2f should exceed calm rate %.2f", urgent.RateMultiplier, calm.RateMultiplier)
	}
	if urgent.PitchDelta <= calm.PitchDelta {
		t.Errorf("critical pitch %+.1f should exceed calm pitch %+.1f", urgent.PitchDelta, calm.PitchDelta)
	}
}

func TestMapLowTrustSoftens(t *testing.T) {
	m := NewMapper()

	established := m.Map(emotion.StateGuarded, scoring.SeverityLow, 0.8, "let's check in")
	fresh := m.Map(emotion.StateGuarded, scoring.SeverityLow, 0.2, "let's check in")

	if fresh.VolumeDelta >= established.VolumeDelta {
		t.Errorf("low-trust volume %+.1f should be below %+.1f", fresh.VolumeDelta, established.VolumeDelta)
	}
	if fresh.RateMultiplier >= established.RateMultiplier {
		t.Errorf("low-trust rate %.2f should be below %.2f", fresh.RateMultiplier, established.RateMultiplier)
	}
	if fresh.Pause.Sentence <= established.Pause.Sentence {
		t.Errorf("low-trust sentence pause %dms should exceed %dms", fresh.Pause.Sentence, established.Pause.Sentence)
	}
}

func TestMapEmotionBaselines(t *testing.T) {
	m := NewMapper()

	lit := m.Map(emotion.StateLit, scoring.SeverityLow, 0.8, "hey!")
	guarded := m.Map(emotion.StateGuarded, scoring.SeverityLow, 0.8, "hey")

	if lit.PitchDelta <= guarded.PitchDelta {
		t.Errorf("lit pitch %+.1f should exceed guarded pitch %+.1f", lit.PitchDelta, guarded.PitchDelta)
	}
	if lit.RateMultiplier <= guarded.RateMultiplier {
		t.Errorf("lit rate %.2f should exceed guarded rate %.2f", lit.RateMultiplier, guarded.RateMultiplier)
	}
}

func TestMapUnknownSeverityNoAdjustment(t *testing.T) {
	m := NewMapper()

	baseline := m.Map(emotion.StateCalm, scoring.SeverityLow, 0.8, "hello")
	unknown := m.Map(emotion.StateCalm, scoring.SeverityUnknown, 0.8, "hello")

	if unknown.RateMultiplier != baseline.RateMultiplier || unknown.PitchDelta != baseline.PitchDelta {
		t.Error("unknown severity must not adjust the envelope")
	}
}

func TestSSMLEscaping(t *testing.T) {
	m := NewMapper()

	params := m.Map(emotion.StateCalm, scoring.SeverityLow, 0.8, `take <2> pills & "rest"`)
	if !strings.Contains(params.Markup, "&lt;2&gt;") {
		t.Errorf("angle brackets not escaped: %s", params.Markup)
	}
	if !strings.Contains(params.Markup, "pills &amp;") {
		t.Errorf("ampersand not escaped: %s", params.Markup)
	}
	if !strings.Contains(params.Markup, "&quot;rest&quot;") {
		t.Errorf("quotes not escaped: %s", params.Markup)
	}
}

func TestSSMLDropsControlChars(t *testing.T) {
	m := NewMapper()

	params := m.Map(emotion.StateCalm, scoring.SeverityLow, 0.8, "hi\x00there\x07")
	if strings.ContainsRune(params.Markup, 0x00) || strings.ContainsRune(params.Markup, 0x07) {
		t.Errorf("control characters leaked into markup: %q", params.Markup)
	}
	if !strings.Contains(params.Markup, "hithere") {
		t.Errorf("text mangled: %q", params.Markup)
	}
}

func TestNeutralFallback(t *testing.T) {
	m := NewMapper()

	params := m.Neutral("I'm here with you")
	if params.PitchDelta != 0 || params.RateMultiplier != 1.0 || params.VolumeDelta != 0 {
		t.Errorf("neutral envelope not baseline: %+v", params)
	}
	if !strings.HasPrefix(params.Markup, "<speak>") {
		t.Errorf("markup missing speak wrapper: %s", params.Markup)
	}
}
