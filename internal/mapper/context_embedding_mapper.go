package mapper

import (
	"strings"

	"ai-companion-be/internal/model"
	"ai-companion-be/pkg/emotion"
	"ai-companion-be/pkg/relmem"
)

type ContextEmbeddingMapper struct{}

func NewContextEmbeddingMapper() *ContextEmbeddingMapper {
	return &ContextEmbeddingMapper{}
}

// ToContextEntry projects a stored embedding row into the shape relational
// memory ranks. The vector itself stays behind; recall only needs the
// metadata.
func (m *ContextEmbeddingMapper) ToContextEntry(e *model.ContextEmbedding) relmem.ContextEntry {
	var tags []string
	if e.Tags != "" {
		tags = strings.Split(e.Tags, ",")
	}
	return relmem.ContextEntry{
		Id:        e.Id,
		Tags:      tags,
		Salience:  e.Salience,
		Emotion:   emotion.State(e.EmotionState),
		Timestamp: e.CreatedAt,
	}
}

func (m *ContextEmbeddingMapper) ToContextEntries(models []*model.ContextEmbedding) []relmem.ContextEntry {
	entries := make([]relmem.ContextEntry, len(models))
	for i, e := range models {
		entries[i] = m.ToContextEntry(e)
	}
	return entries
}

// JoinTags flattens a tag list into the comma-joined column format.
func JoinTags(tags []string) string {
	return strings.Join(tags, ",")
}
