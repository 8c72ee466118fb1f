package mapper

import (
	"encoding/json"
	"time"

	"ai-kindergarten-be/internal/entity"
	"ai-kindergarten-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) ToEntity(e *model.KnowledgeEntry) *entity.KnowledgeEntry {
	if e == nil {
		return nil
	}

	var deletedAt *time.Time
	if e.DeletedAt.Valid {
		t := e.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	var metadata map[string]interface{}
	if len(e.Metadata) > 0 {
		_ = json.Unmarshal(e.Metadata, &metadata)
	}

	var embedding []float32
	if e.Embedding != nil {
		embedding = e.Embedding.Slice()
	}

	return &entity.KnowledgeEntry{
		Id:          e.Id,
		Type:        e.Type,
		Question:    e.Question,
		Answer:      e.Answer,
		ContentHash: e.ContentHash,
		Embedding:   embedding,
		Metadata:    metadata,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
		IsDeleted:   e.DeletedAt.Valid,
	}
}

func (m *KnowledgeMapper) ToModel(e *entity.KnowledgeEntry) *model.KnowledgeEntry {
	if e == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if e.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *e.DeletedAt, Valid: true}
	} else if e.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	var metadata []byte
	if e.Metadata != nil {
		metadata, _ = json.Marshal(e.Metadata)
	}

	var embedding *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		embedding = &v
	}

	return &model.KnowledgeEntry{
		Id:          e.Id,
		Type:        e.Type,
		Question:    e.Question,
		Answer:      e.Answer,
		ContentHash: e.ContentHash,
		Embedding:   embedding,
		Metadata:    metadata,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   updatedAt,
		DeletedAt:   deletedAt,
	}
}

func (m *KnowledgeMapper) ToEntities(models []*model.KnowledgeEntry) []*entity.KnowledgeEntry {
	entities := make([]*entity.KnowledgeEntry, len(models))
	for i, e := range models {
		entities[i] = m.ToEntity(e)
	}
	return entities
}
