package bootstrap

import (
	"context"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ai-companion-be/internal/config"
	"ai-companion-be/internal/pkg/logger"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/internal/repository/implementation"
	"ai-companion-be/internal/repository/memory"
	"ai-companion-be/internal/service"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/pipeline"
	"ai-companion-be/pkg/prosody"
	"ai-companion-be/pkg/relmem"
	"ai-companion-be/pkg/scoring"
)

type Container struct {
	TurnService service.ITurnService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

// NewContainer wires the pipeline. db and rdb may be nil: the pipeline then
// runs fully in-memory with no context archive and no persistent snapshots.
func NewContainer(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Embedding Provider
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		log.Printf("[INFO] Embedding provider disabled; context recall is memory-only")
	}

	// 4. Snapshot Store (Redis-backed when available, process-local otherwise)
	var snapshotRepo contract.SnapshotRepository
	if rdb != nil {
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Using in-memory snapshots", err)
			snapshotRepo = memory.NewSnapshotCache()
		} else {
			snapshotRepo = implementation.NewRedisSnapshotRepository(rdb)
		}
	} else {
		snapshotRepo = memory.NewSnapshotCache()
	}

	// 5. Pipeline Stages
	classifier := emotion.NewClassifier(cfg.Pipeline.HysteresisMargin)

	store := relmem.NewStore(relmem.StoreOptions{
		HalfLife: time.Duration(cfg.Pipeline.TrustHalfLifeHours) * time.Hour,
		TopK:     cfg.Pipeline.MemoryTopK,
	})

	table := scoring.DefaultTable()
	if cfg.Pipeline.RuleTablePath != "" {
		loaded, err := scoring.LoadTable(cfg.Pipeline.RuleTablePath)
		if err != nil {
			log.Fatalf("[FATAL] Failed to load scoring rule table: %v", err)
		}
		table = loaded
	}
	scorer := scoring.NewScorer(table)
	log.Printf("[INFO] Scoring rule table version: %s", table.Version)

	prosodyMapper := prosody.NewMapper()

	// 6. Persistence-backed collaborators (degrade to nil without a database)
	var embeddingRepo contract.ContextEmbeddingRepository
	var signalRepo contract.ScoredSignalRepository
	var searcher pipeline.ContextSearcher
	if db != nil {
		embeddingRepo = implementation.NewContextEmbeddingRepository(db)
		signalRepo = implementation.NewScoredSignalRepository(db)
		if embeddingProvider != nil {
			searcher = service.NewSimilarityService(embeddingRepo, embeddingProvider)
		}
	}

	orchestrator := pipeline.NewOrchestrator(pipeline.Options{
		Classifier: classifier,
		Store:      store,
		Scorer:     scorer,
		Mapper:     prosodyMapper,
		Searcher:   searcher,
		Cache:      snapshotRepo,
		Timeout:    time.Duration(cfg.Pipeline.CollaboratorTimeoutMs) * time.Millisecond,
		TopK:       cfg.Pipeline.MemoryTopK,
	})

	// 7. Services
	publisherService := service.NewPublisherService(cfg.App.TurnTopic, pubSub)

	var consumerService service.IConsumerService
	if embeddingRepo != nil && embeddingProvider != nil {
		consumerService = service.NewConsumerService(
			pubSub,
			cfg.App.TurnTopic,
			embeddingRepo,
			embeddingProvider,
		)
	}

	turnService := service.NewTurnService(
		orchestrator,
		publisherService,
		signalRepo,
		sysLogger,
	)

	return &Container{
		TurnService:     turnService,
		ConsumerService: consumerService,
		Logger:          sysLogger,
	}
}
