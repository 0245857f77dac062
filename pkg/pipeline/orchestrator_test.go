package pipeline

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/prosody"
	"ai-companion-be/pkg/relmem"
	"ai-companion-be/pkg/scoring"
)

// stubSearcher returns canned candidates, optionally blocking long enough to
// trip the collaborator deadline.
type stubSearcher struct {
	entries []relmem.ContextEntry
	block   time.Duration
	err     error
}

func (s *stubSearcher) Similar(ctx context.Context, _ uuid.UUID, _ []string, _ int) ([]relmem.ContextEntry, error) {
	if s.block > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.block):
		}
	}
	return s.entries, s.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[uuid.UUID]relmem.Snapshot
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[uuid.UUID]relmem.Snapshot)}
}

func (c *mapCache) Get(relationshipId uuid.UUID) (relmem.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.data[relationshipId]
	return snap, ok
}

func (c *mapCache) Put(snapshot relmem.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[snapshot.RelationshipId] = snapshot
}

func newTestOrchestrator(searcher ContextSearcher, cache SnapshotCache) *Orchestrator {
	return NewOrchestrator(Options{
		Classifier: emotion.NewClassifier(0.15),
		Store:      relmem.NewStore(relmem.StoreOptions{}),
		Scorer:     scoring.NewScorer(scoring.DefaultTable()),
		Mapper:     prosody.NewMapper(),
		Searcher:   searcher,
		Cache:      cache,
		Logger:     log.New(io.Discard, "", 0),
		Timeout:    50 * time.Millisecond,
	})
}

func TestRunTurnCalmConversation(t *testing.T) {
	o := newTestOrchestrator(nil, newMapCache())
	relId := uuid.New()

	first, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: relId,
		Transcript:     "I'm fine, everything is peaceful today",
		ReplyText:      "Glad to hear it.",
	})
	require.NoError(t, err)
	assert.Equal(t, emotion.StateCalm, first.Emotion.State)
	assert.Equal(t, int64(1), first.Snapshot.Version)
	assert.False(t, first.Degraded())
	assert.Contains(t, first.Prosody.Markup, "<speak>")

	// Second turn: previous state feeds smoothing and trust keeps moving.
	second, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: relId,
		Transcript:     "still doing okay, nice and steady",
		ReplyText:      "Good.",
	})
	require.NoError(t, err)
	assert.Equal(t, emotion.StateCalm, second.Emotion.State)
	assert.Equal(t, int64(2), second.Snapshot.Version)
	assert.Greater(t, second.Snapshot.Trust, 0.5)
}

func TestRunTurnScoresSelfReportedSymptom(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	relId := uuid.New()

	bundle, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: relId,
		Transcript:     "not sure, I guess my knee hurts a bit",
		Signal:         &scoring.HealthSignal{Type: scoring.SignalSymptom, Value: 3},
		Tags:           []string{"pain", "knee"},
		Salience:       0.6,
		ReplyText:      "Let's keep an eye on that knee.",
	})
	require.NoError(t, err)
	require.NotNil(t, bundle.Scored)
	require.NotNil(t, bundle.Scored.Score)
	assert.InDelta(t, 46, *bundle.Scored.Score, 3)
	assert.Equal(t, scoring.SeverityMedium, bundle.Scored.Severity)
}

func TestRunTurnCriticalVitalUrgentProsody(t *testing.T) {
	o := newTestOrchestrator(nil, nil)

	critical, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: uuid.New(),
		Transcript:     "my chest feels weird",
		Signal:         &scoring.HealthSignal{Type: scoring.SignalHeartRate, Value: 150},
		ReplyText:      "Please sit down, I'm checking your heart rate.",
	})
	require.NoError(t, err)
	require.NotNil(t, critical.Scored)
	assert.Equal(t, scoring.SeverityCritical, critical.Scored.Severity)

	calm, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: uuid.New(),
		Transcript:     "feeling fine",
		ReplyText:      "Please sit down, I'm checking your heart rate.",
	})
	require.NoError(t, err)
	assert.Greater(t, critical.Prosody.RateMultiplier, calm.Prosody.RateMultiplier)
}

func TestRunTurnUnknownSignalDegrades(t *testing.T) {
	o := newTestOrchestrator(nil, nil)

	bundle, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: uuid.New(),
		Transcript:     "just walking around",
		Signal:         &scoring.HealthSignal{Type: "GAIT_SPEED", Value: 1.1},
		ReplyText:      "Noted.",
	})
	require.NoError(t, err)
	require.NotNil(t, bundle.Scored)
	assert.Nil(t, bundle.Scored.Score)
	assert.True(t, bundle.Scored.NeedsReview)
	assert.True(t, bundle.Degraded())

	found := false
	for _, fb := range bundle.Fallbacks {
		if fb.Stage == StageScore {
			found = true
		}
	}
	assert.True(t, found, "expected a score-stage fallback")
}

func TestRunTurnEmptyInputDegrades(t *testing.T) {
	o := newTestOrchestrator(nil, nil)

	bundle, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: uuid.New(),
		ReplyText:      "I'm here when you want to talk.",
	})
	require.NoError(t, err)
	assert.Equal(t, emotion.StateCalm, bundle.Emotion.State)
	assert.True(t, bundle.Degraded())

	found := false
	for _, fb := range bundle.Fallbacks {
		if fb.Stage == StageClassify {
			found = true
		}
	}
	assert.True(t, found, "expected a classify-stage fallback")
	assert.NotEmpty(t, bundle.Prosody.Markup)
}

func TestRunTurnSearcherTimeoutDegrades(t *testing.T) {
	o := newTestOrchestrator(&stubSearcher{block: time.Second}, nil)
	relId := uuid.New()

	bundle, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: relId,
		Transcript:     "I'm fine",
		Tags:           []string{"sleep"},
		ReplyText:      "Okay.",
	})
	require.NoError(t, err)
	assert.True(t, bundle.Degraded())
	// Memory itself still committed the turn.
	assert.Equal(t, int64(1), bundle.Snapshot.Version)
}

func TestRunTurnCancelledContextUsesCache(t *testing.T) {
	cache := newMapCache()
	o := newTestOrchestrator(nil, cache)
	relId := uuid.New()

	// Warm the cache with one good turn.
	warm, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: relId,
		Transcript:     "I'm fine",
		ReplyText:      "Good.",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), warm.Snapshot.Version)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	bundle, err := o.RunTurn(ctx, Interaction{
		RelationshipId: relId,
		Transcript:     "still fine",
		ReplyText:      "Good.",
	})
	require.NoError(t, err)
	assert.True(t, bundle.Degraded())
	// Degraded to the cached snapshot: version unchanged, no phantom commit.
	assert.Equal(t, int64(1), bundle.Snapshot.Version)
}

func TestRunTurnMergesSearcherCandidates(t *testing.T) {
	extra := relmem.ContextEntry{
		Id:        uuid.New(),
		Tags:      []string{"sleep"},
		Salience:  0.9,
		Timestamp: time.Now().Add(-time.Hour),
	}
	o := newTestOrchestrator(&stubSearcher{entries: []relmem.ContextEntry{extra}}, nil)

	bundle, err := o.RunTurn(context.Background(), Interaction{
		RelationshipId: uuid.New(),
		Transcript:     "slept badly again",
		Tags:           []string{"sleep"},
		Salience:       0.5,
		ReplyText:      "Let's talk about your sleep.",
	})
	require.NoError(t, err)
	assert.False(t, bundle.Degraded())

	found := false
	for _, e := range bundle.Snapshot.Recalled {
		if e.Id == extra.Id {
			found = true
		}
	}
	assert.True(t, found, "searcher candidate missing from recall")
}

func TestRunTurnRejectsMissingRelationship(t *testing.T) {
	o := newTestOrchestrator(nil, nil)

	_, err := o.RunTurn(context.Background(), Interaction{Transcript: "hello"})
	require.ErrorIs(t, err, ErrInvalidInput)
}
