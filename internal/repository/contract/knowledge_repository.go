package contract

import (
	"context"

	"ai-kindergarten-be/internal/entity"

	"github.com/google/uuid"
)

type KnowledgeRepository interface {
	Create(ctx context.Context, entry *entity.KnowledgeEntry) error
	CreateBulk(ctx context.Context, entries []*entity.KnowledgeEntry) error
	// FindAllActive returns every non-deleted entry, in insertion order.
	// The vector index rebuild consumes this as its corpus.
	FindAllActive(ctx context.Context) ([]*entity.KnowledgeEntry, error)
	// UpdateEmbedding persists a freshly computed embedding and its content
	// hash so the next rebuild can warm-start.
	UpdateEmbedding(ctx context.Context, id uuid.UUID, contentHash string, embedding []float32) error
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
