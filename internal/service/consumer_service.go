package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pgvector/pgvector-go"

	"ai-companion-be/internal/dto"
	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/model"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/pkg/embedding"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	embeddingRepo     contract.ContextEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	embeddingRepo contract.ContextEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
) IConsumerService {
	return &consumerService{
		pubSub:            pubSub,
		topicName:         topicName,
		embeddingRepo:     embeddingRepo,
		embeddingProvider: embeddingProvider,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage archives one completed turn as a context embedding row.
// Invalid payloads are Acked to prevent infinite retry; transient failures
// (embedding provider, database) are Nacked for redelivery.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishArchiveTurnMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack()
		return
	}

	if payload.Transcript == "" {
		// Nothing to embed; silent turns are not archived.
		msg.Ack()
		return
	}

	log.Printf("[INFO] Archiving turn context for TurnId: %s", payload.TurnId)

	res, err := cs.embeddingProvider.Generate(payload.Transcript, "RETRIEVAL_DOCUMENT")
	if err != nil {
		log.Printf("[ERROR] Failed to generate embedding for turn %s: %v", payload.TurnId, err)
		msg.Nack()
		return
	}

	// Replaying a redelivered message must not duplicate rows.
	if err := cs.embeddingRepo.DeleteByTurnId(ctx, payload.TurnId); err != nil {
		log.Printf("[ERROR] Failed to clear stale embeddings for turn %s: %v", payload.TurnId, err)
		msg.Nack()
		return
	}

	record := &model.ContextEmbedding{
		RelationshipId: payload.RelationshipId,
		Document:       payload.Transcript,
		Tags:           mapper.JoinTags(payload.Tags),
		Salience:       payload.Salience,
		EmotionState:   payload.EmotionState,
		EmbeddingValue: pgvector.NewVector(res.Embedding.Values),
		TurnId:         payload.TurnId,
		CreatedAt:      archiveTimestamp(payload.Timestamp),
	}

	if err := cs.embeddingRepo.Create(ctx, record); err != nil {
		log.Printf("[ERROR] Failed to store context embedding for turn %s: %v", payload.TurnId, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Turn archived: %s (relationship %s)", payload.TurnId, payload.RelationshipId)
	msg.Ack()
}

func archiveTimestamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now()
	}
	return at
}
