package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/pipeline"
	"ai-companion-be/pkg/scoring"
)

type ITurnService interface {
	ProcessTurn(ctx context.Context, req *dto.ProcessTurnRequest) (*dto.ProcessTurnResponse, error)
}

type turnService struct {
	orchestrator     *pipeline.Orchestrator
	publisherService IPublisherService
	signalRepo       contract.ScoredSignalRepository // nil when running without a database
	logger           logger.ILogger
	validate         *validator.Validate
}

func NewTurnService(
	orchestrator *pipeline.Orchestrator,
	publisherService IPublisherService,
	signalRepo contract.ScoredSignalRepository,
	sysLogger logger.ILogger,
) ITurnService {
	return &turnService{
		orchestrator:     orchestrator,
		publisherService: publisherService,
		signalRepo:       signalRepo,
		logger:           sysLogger,
		validate:         validator.New(),
	}
}

func (s *turnService) ProcessTurn(ctx context.Context, req *dto.ProcessTurnRequest) (*dto.ProcessTurnResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrInvalidInput, err)
	}

	interaction := pipeline.Interaction{
		RelationshipId: req.RelationshipId,
		Transcript:     req.Transcript,
		Tags:           req.Tags,
		Salience:       req.Salience,
		ReplyText:      req.ReplyText,
		Timestamp:      time.Now(),
	}
	if req.Acoustic != nil {
		interaction.Acoustic = &emotion.AcousticFeatures{
			PitchVariance: req.Acoustic.PitchVariance,
			SpeakingRate:  req.Acoustic.SpeakingRate,
			PauseRatio:    req.Acoustic.PauseRatio,
		}
	}
	if req.Signal != nil {
		interaction.Signal = &scoring.HealthSignal{
			Type:       scoring.SignalType(req.Signal.Type),
			Value:      req.Signal.Value,
			Unit:       req.Signal.Unit,
			ObservedAt: req.Signal.ObservedAt,
		}
	}

	bundle, err := s.orchestrator.RunTurn(ctx, interaction)
	if err != nil {
		return nil, err
	}

	s.persistScoredSignal(ctx, req, bundle)
	s.publishArchive(ctx, interaction, bundle)

	return s.toResponse(bundle), nil
}

// persistScoredSignal writes the scored signal for audit and review queues.
// Persistence is auxiliary: a storage failure is logged, not surfaced.
func (s *turnService) persistScoredSignal(ctx context.Context, req *dto.ProcessTurnRequest, bundle pipeline.ResponseBundle) {
	if s.signalRepo == nil || bundle.Scored == nil {
		return
	}

	record := &model.ScoredSignalRecord{
		TurnId:         bundle.TurnId,
		RelationshipId: req.RelationshipId,
		SignalType:     string(bundle.Scored.Signal.Type),
		Value:          bundle.Scored.Signal.Value,
		Unit:           bundle.Scored.Signal.Unit,
		Score:          bundle.Scored.Score,
		Severity:       string(bundle.Scored.Severity),
		NeedsReview:    bundle.Scored.NeedsReview,
		RuleVersion:    bundle.Scored.RuleVersion,
		ObservedAt:     bundle.Scored.Signal.ObservedAt,
	}
	if record.ObservedAt.IsZero() {
		record.ObservedAt = time.Now()
	}

	if err := s.signalRepo.Create(ctx, record); err != nil {
		s.logger.Error("turn", "failed to persist scored signal", map[string]interface{}{
			"turn_id": bundle.TurnId.String(),
			"error":   err.Error(),
		})
	}
}

// publishArchive hands the turn to the archive consumer so context embedding
// happens off the hot path.
func (s *turnService) publishArchive(ctx context.Context, interaction pipeline.Interaction, bundle pipeline.ResponseBundle) {
	if s.publisherService == nil {
		return
	}

	msgPayload := dto.PublishArchiveTurnMessage{
		TurnId:         bundle.TurnId,
		RelationshipId: interaction.RelationshipId,
		Transcript:     interaction.Transcript,
		Tags:           interaction.Tags,
		Salience:       interaction.Salience,
		EmotionState:   string(bundle.Emotion.State),
		Timestamp:      interaction.Timestamp,
	}
	msgJson, err := json.Marshal(msgPayload)
	if err != nil {
		s.logger.Error("turn", "failed to marshal archive message", map[string]interface{}{
			"turn_id": bundle.TurnId.String(),
			"error":   err.Error(),
		})
		return
	}

	if err := s.publisherService.Publish(ctx, msgJson); err != nil {
		s.logger.Warn("turn", "failed to publish archive message", map[string]interface{}{
			"turn_id": bundle.TurnId.String(),
			"error":   err.Error(),
		})
	}
}

func (s *turnService) toResponse(bundle pipeline.ResponseBundle) *dto.ProcessTurnResponse {
	resp := &dto.ProcessTurnResponse{
		TurnId:         bundle.TurnId,
		EmotionState:   string(bundle.Emotion.State),
		Confidence:     bundle.Emotion.Confidence,
		Trust:          bundle.Snapshot.Trust,
		MemoryVersion:  bundle.Snapshot.Version,
		ProsodyMarkup:  bundle.Prosody.Markup,
		PitchDelta:     bundle.Prosody.PitchDelta,
		RateMultiplier: bundle.Prosody.RateMultiplier,
		VolumeDelta:    bundle.Prosody.VolumeDelta,
		Degraded:       bundle.Degraded(),
	}

	if bundle.Scored != nil {
		resp.Scored = &dto.ScoredSignalPayload{
			Type:        string(bundle.Scored.Signal.Type),
			Score:       bundle.Scored.Score,
			Severity:    string(bundle.Scored.Severity),
			NeedsReview: bundle.Scored.NeedsReview,
			RuleVersion: bundle.Scored.RuleVersion,
		}
	}
	for _, fb := range bundle.Fallbacks {
		resp.Fallbacks = append(resp.Fallbacks, dto.FallbackPayload{
			Stage:  fb.Stage,
			Reason: fb.Reason,
		})
	}
	return resp
}
