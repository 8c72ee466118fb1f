// FILE: internal/service/corpus_source.go
// PURPOSE: Feed the vector index from the knowledge repository

package service

import (
	"context"
	"fmt"

	"ai-kindergarten-be/internal/repository/contract"
	"ai-kindergarten-be/pkg/ai/vectorindex"

	"github.com/google/uuid"
)

// knowledgeCorpusSource adapts the gorm knowledge repository to the
// vector index corpus contract.
type knowledgeCorpusSource struct {
	repo contract.KnowledgeRepository
}

func NewKnowledgeCorpusSource(repo contract.KnowledgeRepository) vectorindex.CorpusSource {
	return &knowledgeCorpusSource{repo: repo}
}

func (s *knowledgeCorpusSource) LoadCorpus(ctx context.Context) ([]vectorindex.Entry, error) {
	entries, err := s.repo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load knowledge corpus: %w", err)
	}

	out := make([]vectorindex.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, vectorindex.Entry{
			ID:        e.Id.String(),
			Type:      e.Type,
			Content:   e.Question,
			Answer:    e.Answer,
			Hash:      e.ContentHash,
			Embedding: e.Embedding,
		})
	}
	return out, nil
}

func (s *knowledgeCorpusSource) SaveEmbedding(ctx context.Context, id string, hash string, vec []float32) error {
	entryId, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid knowledge entry id %q: %w", id, err)
	}
	return s.repo.UpdateEmbedding(ctx, entryId, hash, vec)
}
