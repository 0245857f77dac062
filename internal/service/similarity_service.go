package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"ai-companion-be/internal/mapper"
	"ai-companion-be/internal/repository/contract"
	"ai-companion-be/pkg/embedding"
	"ai-companion-be/pkg/relmem"
)

type ISimilarityService interface {
	Similar(ctx context.Context, relationshipId uuid.UUID, tags []string, limit int) ([]relmem.ContextEntry, error)
}

// similarityService is the external similarity collaborator: it embeds the
// turn's topic tags and pulls the nearest archived context from pgvector.
type similarityService struct {
	embeddingRepo     contract.ContextEmbeddingRepository
	embeddingProvider embedding.EmbeddingProvider
	embeddingMapper   *mapper.ContextEmbeddingMapper
}

func NewSimilarityService(
	embeddingRepo contract.ContextEmbeddingRepository,
	embeddingProvider embedding.EmbeddingProvider,
) ISimilarityService {
	return &similarityService{
		embeddingRepo:     embeddingRepo,
		embeddingProvider: embeddingProvider,
		embeddingMapper:   mapper.NewContextEmbeddingMapper(),
	}
}

func (s *similarityService) Similar(ctx context.Context, relationshipId uuid.UUID, tags []string, limit int) ([]relmem.ContextEntry, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	res, err := s.embeddingProvider.Generate(strings.Join(tags, " "), "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}

	models, err := s.embeddingRepo.SearchSimilar(ctx, res.Embedding.Values, relationshipId, limit)
	if err != nil {
		return nil, err
	}

	return s.embeddingMapper.ToContextEntries(models), nil
}
