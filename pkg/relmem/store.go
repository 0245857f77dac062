package relmem

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	trustBaseline = 0.5

	defaultHalfLife = 72 * time.Hour
	defaultTopK     = 5
)

// Store owns every RelationshipMemory. Mutations for a given relationship are
// mutually exclusive (one writer per key); distinct relationships proceed
// independently.
type Store struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*record

	halfLife time.Duration
	topK     int
	weights  RankWeights
	now      func() time.Time
}

type record struct {
	mu          sync.Mutex
	entries     []ContextEntry
	version     int64
	lastUpdated time.Time
}

// StoreOptions tunes decay and retrieval. Zero values fall back to defaults.
type StoreOptions struct {
	HalfLife time.Duration // trust decay half-life, default 72h
	TopK     int           // recalled entries per snapshot, default 5
	Weights  RankWeights
	Now      func() time.Time // injectable clock for tests
}

// NewStore creates an empty relational memory store.
func NewStore(opts StoreOptions) *Store {
	if opts.HalfLife <= 0 {
		opts.HalfLife = defaultHalfLife
	}
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		records:  make(map[uuid.UUID]*record),
		halfLife: opts.HalfLife,
		topK:     opts.TopK,
		weights:  opts.Weights.orDefaults(),
		now:      opts.Now,
	}
}

// Update appends a context entry for the relationship and returns a fresh
// snapshot: decayed trust, bumped version and the top-K recalled entries
// ranked against queryTags. extra holds candidate entries from the external
// similarity collaborator; they participate in ranking but are not stored.
//
// If ctx is already cancelled the entry is not committed and the memory is
// left untouched.
func (s *Store) Update(ctx context.Context, relationshipId uuid.UUID, entry ContextEntry, queryTags []string, extra []ContextEntry) (Snapshot, error) {
	rec := s.record(relationshipId)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	// Cancellation must land before the commit point: a half-applied
	// memory update is worse than a lost turn.
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	if entry.Id == uuid.Nil {
		entry.Id = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	rec.entries = append(rec.entries, entry)
	rec.version++
	rec.lastUpdated = s.now()

	return s.snapshotLocked(relationshipId, rec, queryTags, extra), nil
}

// Snapshot returns the current read model without mutating anything.
func (s *Store) Snapshot(relationshipId uuid.UUID, queryTags []string) Snapshot {
	s.mu.RLock()
	rec, ok := s.records[relationshipId]
	s.mu.RUnlock()
	if !ok {
		return DefaultSnapshot(relationshipId)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return s.snapshotLocked(relationshipId, rec, queryTags, nil)
}

// Trust returns the current decayed trust score for the relationship.
func (s *Store) Trust(relationshipId uuid.UUID) float64 {
	return s.Snapshot(relationshipId, nil).Trust
}

func (s *Store) record(relationshipId uuid.UUID) *record {
	s.mu.RLock()
	rec, ok := s.records[relationshipId]
	s.mu.RUnlock()
	if ok {
		return rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok = s.records[relationshipId]; ok {
		return rec
	}
	rec = &record{}
	s.records[relationshipId] = rec
	return rec
}

// snapshotLocked assumes rec.mu is held.
func (s *Store) snapshotLocked(relationshipId uuid.UUID, rec *record, queryTags []string, extra []ContextEntry) Snapshot {
	now := s.now()
	return Snapshot{
		RelationshipId: relationshipId,
		Trust:          s.trustAt(rec.entries, now),
		Version:        rec.version,
		LastUpdated:    rec.lastUpdated,
		Recalled:       s.rank(rec.entries, extra, queryTags, now),
	}
}

// trustAt computes the trust trajectory: an exponentially time-decayed
// aggregate of entry trust deltas around the neutral baseline. Longer gaps
// decay faster; the result is always clamped to [0,1].
func (s *Store) trustAt(entries []ContextEntry, now time.Time) float64 {
	trust := trustBaseline
	for _, e := range entries {
		trust += e.TrustDelta * s.decay(e.Timestamp, now)
	}
	return clamp01(trust)
}

// decay returns 2^(-age/halfLife).
func (s *Store) decay(at, now time.Time) float64 {
	age := now.Sub(at)
	if age <= 0 {
		return 1
	}
	return math.Exp2(-float64(age) / float64(s.halfLife))
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
