package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeEntry is one corpus item the vector index is built from: a
// canonical question with its curated answer.
type KnowledgeEntry struct {
	Id          uuid.UUID
	Type        string // "faq", "policy", "operation", ...
	Question    string
	Answer      string
	ContentHash string
	Embedding   []float32
	Metadata    map[string]interface{}
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
	IsDeleted   bool
}
