package relmem

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"ai-companion-be/pkg/emotion"
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestTrustDecay(t *testing.T) {
	start := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(StoreOptions{HalfLife: 72 * time.Hour, Now: fixedClock(start)})
	relId := uuid.New()

	_, err := s.Update(context.Background(), relId, ContextEntry{
		TrustDelta: 0.2,
		Emotion:    emotion.StateCalm,
		Timestamp:  start,
	}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Fresh entry contributes its full delta.
	if got := s.Trust(relId); math.Abs(got-0.70) > 0.001 {
		t.Errorf("fresh trust = %.3f, want 0.700", got)
	}

	// One half-life later the delta is worth half.
	s.now = fixedClock(start.Add(72 * time.Hour))
	if got := s.Trust(relId); math.Abs(got-0.60) > 0.001 {
		t.Errorf("decayed trust = %.3f, want 0.600", got)
	}
}

func TestTrustStaysClamped(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(StoreOptions{Now: fixedClock(now)})
	relId := uuid.New()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		_, err := s.Update(context.Background(), relId, ContextEntry{
			TrustDelta: rng.Float64()*2 - 1, // [-1, 1)
			Timestamp:  now,
		}, nil, nil)
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		trust := s.Trust(relId)
		if trust < 0 || trust > 1 {
			t.Fatalf("trust %.6f out of [0,1] after %d updates", trust, i+1)
		}
	}
}

func TestVersionMonotonic(t *testing.T) {
	s := NewStore(StoreOptions{})
	relId := uuid.New()

	for i := int64(1); i <= 10; i++ {
		snap, err := s.Update(context.Background(), relId, ContextEntry{TrustDelta: 0.01}, nil, nil)
		if err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if snap.Version != i {
			t.Errorf("Version = %d, want %d", snap.Version, i)
		}
	}
}

func TestUpdateCancelledBeforeCommit(t *testing.T) {
	s := NewStore(StoreOptions{})
	relId := uuid.New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Update(ctx, relId, ContextEntry{TrustDelta: 0.5}, nil, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}

	// Nothing may have been committed.
	snap := s.Snapshot(relId, nil)
	if snap.Version != 0 {
		t.Errorf("Version = %d after cancelled update, want 0", snap.Version)
	}
	if math.Abs(snap.Trust-0.5) > 0.001 {
		t.Errorf("Trust = %.3f after cancelled update, want baseline 0.500", snap.Trust)
	}
}

func TestRankingOrderDeterministic(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	// Salience only, so entries with equal salience are an exact score tie
	// and must fall back to most-recent-first.
	s := NewStore(StoreOptions{
		Now:     fixedClock(now),
		Weights: RankWeights{Recency: 0, Salience: 1, Overlap: 0},
	})
	relId := uuid.New()

	older := ContextEntry{Id: uuid.New(), Salience: 0.5, Timestamp: now.Add(-2 * time.Hour)}
	newer := ContextEntry{Id: uuid.New(), Salience: 0.5, Timestamp: now.Add(-1 * time.Hour)}
	salient := ContextEntry{Id: uuid.New(), Salience: 0.9, Timestamp: now.Add(-3 * time.Hour)}

	for _, e := range []ContextEntry{older, newer, salient} {
		if _, err := s.Update(context.Background(), relId, e, nil, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	snap := s.Snapshot(relId, nil)
	if len(snap.Recalled) != 3 {
		t.Fatalf("Recalled = %d entries, want 3", len(snap.Recalled))
	}
	wantOrder := []uuid.UUID{salient.Id, newer.Id, older.Id}
	for i, want := range wantOrder {
		if snap.Recalled[i].Id != want {
			t.Errorf("Recalled[%d] = %s, want %s", i, snap.Recalled[i].Id, want)
		}
	}

	// Same inputs, same order, every time.
	for i := 0; i < 5; i++ {
		again := s.Snapshot(relId, nil)
		for j := range wantOrder {
			if again.Recalled[j].Id != wantOrder[j] {
				t.Fatalf("run %d: order changed at index %d", i, j)
			}
		}
	}
}

func TestRankingMergesExternalCandidates(t *testing.T) {
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	s := NewStore(StoreOptions{Now: fixedClock(now)})
	relId := uuid.New()

	stored := ContextEntry{Id: uuid.New(), Tags: []string{"sleep"}, Salience: 0.4, Timestamp: now.Add(-time.Hour)}
	if _, err := s.Update(context.Background(), relId, stored, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	external := ContextEntry{Id: uuid.New(), Tags: []string{"sleep", "pain"}, Salience: 0.8, Timestamp: now.Add(-30 * time.Minute)}
	duplicate := ContextEntry{Id: stored.Id, Salience: 0.99, Timestamp: now}

	snap, err := s.Update(context.Background(), relId, ContextEntry{
		Id: uuid.New(), Tags: []string{"pain"}, Salience: 0.3, Timestamp: now,
	}, []string{"pain"}, []ContextEntry{external, duplicate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, e := range snap.Recalled {
		if e.Id == external.Id {
			found = true
		}
		if e.Id == stored.Id && e.Salience != stored.Salience {
			t.Error("stored entry was shadowed by an external duplicate")
		}
	}
	if !found {
		t.Error("external candidate missing from recall")
	}
}

func TestConcurrentUpdatesDistinctKeys(t *testing.T) {
	s := NewStore(StoreOptions{})
	const workers = 8
	const updates = 50

	relIds := make([]uuid.UUID, workers)
	for i := range relIds {
		relIds[i] = uuid.New()
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(relId uuid.UUID) {
			defer wg.Done()
			for j := 0; j < updates; j++ {
				if _, err := s.Update(context.Background(), relId, ContextEntry{TrustDelta: 0.001}, nil, nil); err != nil {
					errs <- fmt.Errorf("update: %w", err)
					return
				}
			}
		}(relIds[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	for _, relId := range relIds {
		snap := s.Snapshot(relId, nil)
		if snap.Version != updates {
			t.Errorf("relationship %s: Version = %d, want %d", relId, snap.Version, updates)
		}
	}
}
