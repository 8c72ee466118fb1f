// FILE: pkg/ai/direct/service.go
// PURPOSE: Precomputed answers for high-frequency simple queries

package direct

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"ai-kindergarten-be/pkg/ai/keyword"

	"github.com/patrickmn/go-cache"
)

// ErrNoTemplate reports a direct-match rule whose response template is
// missing from the registry. The caller treats this as a configuration gap
// and falls over to the next tier.
var ErrNoTemplate = errors.New("direct: no response template registered for action")

// Response is a rendered direct-tier answer.
type Response struct {
	Answer string
	Action string
	Tokens int
}

// Stats is a point-in-time counter snapshot for the stats endpoint.
type Stats struct {
	Actions           int     `json:"actions"`
	Hits              int64   `json:"hits"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

// Service answers direct-tier queries from a registry of cached actions
// seeded from the dictionary direct-match table. Lookup never touches an
// upstream model, so the token cost is the fixed small cost of the rule.
type Service struct {
	provider *keyword.Provider
	registry *cache.Cache
	logger   *log.Logger

	hits        atomic.Int64
	totalTimeMs atomic.Int64
}

func NewService(provider *keyword.Provider, logger *log.Logger) *Service {
	s := &Service{
		provider: provider,
		registry: cache.New(cache.NoExpiration, 0),
		logger:   logger,
	}
	s.seed()
	return s
}

// seed loads every direct-match rule into the registry, keyed by action
// signature. Rules without an action are unreachable and skipped.
func (s *Service) seed() {
	dict, ok := s.provider.Current()
	if !ok {
		s.logger.Printf("[DIRECT] No dictionary available, registry left empty")
		return
	}
	n := 0
	for _, m := range dict.DirectMatches {
		if m.Action == "" {
			continue
		}
		s.registry.Set(m.Action, m, cache.NoExpiration)
		n++
	}
	s.logger.Printf("[DIRECT] Seeded %d cached actions", n)
}

// Respond renders the cached answer for an action signature. The query is
// interpolated when the template carries a {query} placeholder.
func (s *Service) Respond(ctx context.Context, action, query string) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	start := time.Now()

	raw, found := s.registry.Get(action)
	if !found {
		return Response{}, ErrNoTemplate
	}
	m := raw.(keyword.DirectMatch)

	answer := strings.ReplaceAll(m.Response, "{query}", query)

	s.hits.Add(1)
	s.totalTimeMs.Add(time.Since(start).Milliseconds())

	return Response{
		Answer: answer,
		Action: m.Action,
		Tokens: m.Tokens,
	}, nil
}

// Stats returns the registry size and hit counters.
func (s *Service) Stats() Stats {
	hits := s.hits.Load()
	var avg float64
	if hits > 0 {
		avg = float64(s.totalTimeMs.Load()) / float64(hits)
	}
	return Stats{
		Actions:           s.registry.ItemCount(),
		Hits:              hits,
		AvgResponseTimeMs: avg,
	}
}

// Purge resets counters and re-seeds the registry from the current
// dictionary. Used by /optimize and /reset.
func (s *Service) Purge() {
	s.registry.Flush()
	s.hits.Store(0)
	s.totalTimeMs.Store(0)
	s.seed()
}
