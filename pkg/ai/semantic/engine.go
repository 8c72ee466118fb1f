// FILE: pkg/ai/semantic/engine.go
// PURPOSE: Semantic tier: cached answers backed by vector similarity search

package semantic

import (
	"context"
	"errors"
	"log"
	"time"

	"ai-kindergarten-be/pkg/ai/vectorindex"
	"ai-kindergarten-be/pkg/embedding"
)

// ErrNoConfidentMatch reports that the semantic tier cannot answer with
// enough confidence. The caller falls over to the complex tier.
var ErrNoConfidentMatch = errors.New("semantic: no match above similarity threshold")

// Answer is a served semantic-tier result.
type Answer struct {
	Response   string
	Similarity float64
	EntryID    string
	FromCache  bool
	Tokens     int
}

// Config holds the semantic tier knobs.
type Config struct {
	SimilarityThreshold float64
	TopK                int
	HitTokens           int
}

// Engine answers queries from the vector index, memoizing answers in the
// two-level cache so repeated queries inside the TTL window cost a lookup
// instead of an embedding call.
type Engine struct {
	provider embedding.Provider
	index    *vectorindex.Index
	cache    *Cache
	cfg      Config
	logger   *log.Logger
}

func NewEngine(provider embedding.Provider, index *vectorindex.Index, cache *Cache, cfg Config, logger *log.Logger) *Engine {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.HitTokens <= 0 {
		cfg.HitTokens = 30
	}
	return &Engine{
		provider: provider,
		index:    index,
		cache:    cache,
		cfg:      cfg,
		logger:   logger,
	}
}

// Answer resolves a normalized query. Cache hits cost the fixed lookup
// tokens; a miss pays one embedding call plus the index search. Embedding
// failures are downgraded to ErrNoConfidentMatch so the caller fails over
// instead of surfacing an upstream error from the cheap tier.
func (e *Engine) Answer(ctx context.Context, normalizedQuery string) (Answer, error) {
	if cached, found := e.cache.Get(ctx, normalizedQuery); found {
		return Answer{
			Response:   cached.Response,
			Similarity: cached.Similarity,
			EntryID:    cached.EntryID,
			FromCache:  true,
			Tokens:     e.cfg.HitTokens,
		}, nil
	}

	vec, err := e.provider.Generate(ctx, normalizedQuery, embedding.TaskQuery)
	if err != nil {
		e.logger.Printf("[SEMANTIC] Embedding failed, failing over: %v", err)
		return Answer{}, ErrNoConfidentMatch
	}

	matches := e.index.Search(vec, e.cfg.TopK, e.cfg.SimilarityThreshold)
	if len(matches) == 0 {
		return Answer{}, ErrNoConfidentMatch
	}

	top := matches[0]
	ans := Answer{
		Response:   top.Entry.Answer,
		Similarity: top.Score,
		EntryID:    top.Entry.ID,
		Tokens:     e.cfg.HitTokens + embedCost(normalizedQuery),
	}
	e.cache.Set(ctx, normalizedQuery, CachedAnswer{
		Response:   ans.Response,
		Similarity: ans.Similarity,
		EntryID:    ans.EntryID,
		CreatedAt:  time.Now(),
	})
	return ans, nil
}

// CacheStats exposes the cache counters for the stats endpoint.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}

// Purge drops all cached answers.
func (e *Engine) Purge(ctx context.Context) {
	e.cache.Flush(ctx)
}

// embedCost estimates the token cost of the embedding call for a miss.
func embedCost(query string) int {
	return 20 + len([]rune(query))/4
}
