package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/prosody"
	"ai-companion-be/pkg/relmem"
	"ai-companion-be/pkg/scoring"
)

// Trust delta contributed by one turn, keyed by its emotional state and
// scaled by classification confidence before it reaches memory.
var trustDeltaByState = map[emotion.State]float64{
	emotion.StateCalm:    0.02,
	emotion.StateGuarded: -0.02,
	emotion.StateLit:     0.04,
}

// ProsodyMapper is what the orchestrator needs from the prosody stage.
type ProsodyMapper interface {
	Map(state emotion.State, severity scoring.Severity, trust float64, replyText string) prosody.Parameters
	Neutral(replyText string) prosody.Parameters
}

// Orchestrator runs the per-turn pipeline: classify emotion, update
// relational memory, score any health signal, and map prosody. Stages degrade
// independently; a turn always yields a usable ResponseBundle.
type Orchestrator struct {
	classifier *emotion.Classifier
	store      *relmem.Store
	scorer     *scoring.Scorer
	mapper     ProsodyMapper
	searcher   ContextSearcher
	cache      SnapshotCache
	logger     *log.Logger

	timeout time.Duration
	topK    int

	mu       sync.RWMutex
	previous map[uuid.UUID]emotion.EmotionState
}

// Options configures the orchestrator. Searcher and Cache are optional;
// Timeout bounds each external collaborator call.
type Options struct {
	Classifier *emotion.Classifier
	Store      *relmem.Store
	Scorer     *scoring.Scorer
	Mapper     ProsodyMapper
	Searcher   ContextSearcher
	Cache      SnapshotCache
	Logger     *log.Logger
	Timeout    time.Duration
	TopK       int
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(opts Options) *Orchestrator {
	if opts.Timeout <= 0 {
		opts.Timeout = 1500 * time.Millisecond
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Orchestrator{
		classifier: opts.Classifier,
		store:      opts.Store,
		scorer:     opts.Scorer,
		mapper:     opts.Mapper,
		searcher:   opts.Searcher,
		cache:      opts.Cache,
		logger:     opts.Logger,
		timeout:    opts.Timeout,
		topK:       opts.TopK,
		previous:   make(map[uuid.UUID]emotion.EmotionState),
	}
}

// RunTurn processes one interaction end to end. It returns an error only for
// malformed input; every downstream failure degrades the affected stage and
// is reported in the bundle's Fallbacks.
func (o *Orchestrator) RunTurn(ctx context.Context, in Interaction) (ResponseBundle, error) {
	started := time.Now()

	if in.RelationshipId == uuid.Nil {
		return ResponseBundle{}, fmt.Errorf("%w: relationship id is required", ErrInvalidInput)
	}
	if in.TurnId == uuid.Nil {
		in.TurnId = uuid.New()
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now()
	}

	bundle := ResponseBundle{TurnId: in.TurnId}

	state := o.classify(in, &bundle)
	snapshot := o.updateMemory(ctx, in, state, &bundle)
	scored := o.score(in, state, snapshot, &bundle)
	bundle.Prosody = o.mapProsody(in, state, scored, snapshot, &bundle)

	o.mu.Lock()
	o.previous[in.RelationshipId] = state
	o.mu.Unlock()

	bundle.Emotion = state
	bundle.Snapshot = snapshot
	bundle.Scored = scored
	bundle.Elapsed = time.Since(started)

	o.logger.Printf("[TURN] turn=%s relationship=%s state=%s fallbacks=%d elapsed=%s",
		in.TurnId, in.RelationshipId, state.State, len(bundle.Fallbacks), bundle.Elapsed)
	return bundle, nil
}

func (o *Orchestrator) classify(in Interaction, bundle *ResponseBundle) (state emotion.EmotionState) {
	defer func() {
		if r := recover(); r != nil {
			o.fallback(bundle, StageClassify, fmt.Errorf("panic: %v", r))
			state = emotion.EmotionState{State: emotion.StateCalm, Confidence: 0.34}
		}
	}()

	o.mu.RLock()
	prev, hasPrev := o.previous[in.RelationshipId]
	o.mu.RUnlock()

	input := emotion.Input{Transcript: in.Transcript, Acoustic: in.Acoustic}
	if hasPrev {
		input.Previous = &prev
	}

	state, err := o.classifier.Classify(input)
	if err != nil {
		o.fallback(bundle, StageClassify, err)
	}
	return state
}

func (o *Orchestrator) updateMemory(ctx context.Context, in Interaction, state emotion.EmotionState, bundle *ResponseBundle) (snapshot relmem.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			o.fallback(bundle, StageUpdateMemory, fmt.Errorf("panic: %v", r))
			snapshot = o.cachedSnapshot(in.RelationshipId)
		}
	}()

	extra := o.searchCandidates(ctx, in, bundle)

	entry := relmem.ContextEntry{
		Tags:       in.Tags,
		Salience:   in.Salience,
		TrustDelta: trustDeltaByState[state.State] * state.Confidence,
		Emotion:    state.State,
		Timestamp:  in.Timestamp,
	}

	snapshot, err := o.store.Update(ctx, in.RelationshipId, entry, in.Tags, extra)
	if err != nil {
		o.fallback(bundle, StageUpdateMemory, err)
		return o.cachedSnapshot(in.RelationshipId)
	}

	if o.cache != nil {
		o.cache.Put(snapshot)
	}
	return snapshot
}

// searchCandidates asks the similarity collaborator for extra context under a
// deadline. A miss or timeout degrades to stored-only recall.
func (o *Orchestrator) searchCandidates(ctx context.Context, in Interaction, bundle *ResponseBundle) []relmem.ContextEntry {
	if o.searcher == nil || len(in.Tags) == 0 {
		return nil
	}

	searchCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	extra, err := o.searcher.Similar(searchCtx, in.RelationshipId, in.Tags, o.topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: context search", ErrDependencyTimeout)
		}
		o.fallback(bundle, StageUpdateMemory, err)
		return nil
	}
	return extra
}

// cachedSnapshot returns the last known-good snapshot, or the neutral default
// when nothing is cached.
func (o *Orchestrator) cachedSnapshot(relationshipId uuid.UUID) relmem.Snapshot {
	if o.cache != nil {
		if snapshot, ok := o.cache.Get(relationshipId); ok {
			return snapshot
		}
	}
	return relmem.DefaultSnapshot(relationshipId)
}

func (o *Orchestrator) score(in Interaction, state emotion.EmotionState, snapshot relmem.Snapshot, bundle *ResponseBundle) (scored *scoring.ScoredSignal) {
	if in.Signal == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			o.fallback(bundle, StageScore, fmt.Errorf("panic: %v", r))
			scored = nil
		}
	}()

	result, err := o.scorer.Score(*in.Signal, state.State, snapshot.Trust)
	if err != nil {
		o.fallback(bundle, StageScore, err)
	}
	return &result
}

func (o *Orchestrator) mapProsody(in Interaction, state emotion.EmotionState, scored *scoring.ScoredSignal, snapshot relmem.Snapshot, bundle *ResponseBundle) (params prosody.Parameters) {
	defer func() {
		if r := recover(); r != nil {
			o.fallback(bundle, StageMapProsody, fmt.Errorf("panic: %v", r))
			params = o.mapper.Neutral(in.ReplyText)
		}
	}()

	severity := scoring.SeverityUnknown
	if scored != nil {
		severity = scored.Severity
	}
	return o.mapper.Map(state.State, severity, snapshot.Trust, in.ReplyText)
}

func (o *Orchestrator) fallback(bundle *ResponseBundle, stage string, err error) {
	bundle.Fallbacks = append(bundle.Fallbacks, Fallback{Stage: stage, Reason: err.Error()})
	o.logger.Printf("[FALLBACK] turn=%s stage=%s reason=%v", bundle.TurnId, stage, err)
}
