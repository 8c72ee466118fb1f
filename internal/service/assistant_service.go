// FILE: internal/service/assistant_service.go
// PURPOSE: Facade over the routing engine for the HTTP boundary

package service

import (
	"context"
	"sort"

	"ai-kindergarten-be/internal/dto"
	"ai-kindergarten-be/internal/pkg/logger"
	"ai-kindergarten-be/pkg/ai/contextasm"
	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/keyword"
	"ai-kindergarten-be/pkg/ai/router"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/stats"
	"ai-kindergarten-be/pkg/ai/vectorindex"
	"ai-kindergarten-be/pkg/events"
)

// OpsPublisher sends engine lifecycle events to the ops bus. Nil-safe
// wrapper lives in the container; implementations may be NATS-backed.
type OpsPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IAssistantService interface {
	Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error)
	TestRoute(ctx context.Context, query string) (*dto.RouteDecisionDTO, error)
	TestDirect(ctx context.Context, req *dto.TestDirectRequest) (*dto.QueryResponse, error)
	Keywords(ctx context.Context) (*dto.KeywordsResponse, error)
	Stats(ctx context.Context) (*dto.StatsResponse, error)
	Reset(ctx context.Context) error
	CountersSnapshot() stats.Counters
}

type assistantService struct {
	router    *router.Router
	keywords  *keyword.Provider
	directSvc *direct.Service
	semantics *semantic.Engine
	assembler *contextasm.Assembler
	index     *vectorindex.Index
	counters  *stats.Aggregator
	ops       OpsPublisher
	logger    logger.ILogger
}

func NewAssistantService(
	queryRouter *router.Router,
	keywords *keyword.Provider,
	directSvc *direct.Service,
	semantics *semantic.Engine,
	assembler *contextasm.Assembler,
	index *vectorindex.Index,
	counters *stats.Aggregator,
	ops OpsPublisher,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		router:    queryRouter,
		keywords:  keywords,
		directSvc: directSvc,
		semantics: semantics,
		assembler: assembler,
		index:     index,
		counters:  counters,
		ops:       ops,
		logger:    log,
	}
}

func (s *assistantService) Query(ctx context.Context, req *dto.QueryRequest) (*dto.QueryResponse, error) {
	res, err := s.router.Route(ctx, req.Query, req.ConversationId)
	if err != nil {
		s.logger.Error("Assistant", "Query routing failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Assistant", "Query served", map[string]interface{}{
		"level":        string(res.ServedLevel),
		"tokens_used":  res.TokensUsed,
		"tokens_saved": res.TokensSaved,
		"failed_over":  res.FailedOver,
	})

	return routeResultToDTO(&res), nil
}

func (s *assistantService) TestRoute(ctx context.Context, query string) (*dto.RouteDecisionDTO, error) {
	d, err := s.router.Decide(query)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// TestDirect exercises the direct tier in isolation: the action signature
// is taken from the request, no classification happens.
func (s *assistantService) TestDirect(ctx context.Context, req *dto.TestDirectRequest) (*dto.QueryResponse, error) {
	resp, err := s.directSvc.Respond(ctx, req.Action, keyword.Normalize(req.Query))
	if err != nil {
		return nil, err
	}
	return &dto.QueryResponse{
		Response:      resp.Answer,
		Level:         string(stats.TierDirect),
		IntendedLevel: string(stats.TierDirect),
		Confidence:    1,
		TokensUsed:    resp.Tokens,
	}, nil
}

func (s *assistantService) Keywords(ctx context.Context) (*dto.KeywordsResponse, error) {
	res := &dto.KeywordsResponse{Healthy: s.keywords.Healthy()}

	d, ok := s.keywords.Current()
	if !ok {
		return res, nil
	}

	actions, entities, modifiers, directCount := d.Counts()
	res.ActionTerms = actions
	res.EntityTerms = entities
	res.ModifierTerms = modifiers
	res.DirectMatchCount = directCount
	res.Groups = dto.KeywordGroupsDTO{
		Actions:   d.Actions,
		Entities:  d.Entities,
		Modifiers: d.Modifiers,
	}

	for _, m := range d.DirectMatches {
		res.DirectMatches = append(res.DirectMatches, dto.DirectMatchDTO{
			Phrase:   m.Phrase,
			Response: m.Response,
			Action:   m.Action,
			Tokens:   m.Tokens,
		})
	}
	sort.Slice(res.DirectMatches, func(i, j int) bool {
		return res.DirectMatches[i].Phrase < res.DirectMatches[j].Phrase
	})
	return res, nil
}

func (s *assistantService) Stats(ctx context.Context) (*dto.StatsResponse, error) {
	return &dto.StatsResponse{
		Router:        s.counters.Snapshot(),
		Direct:        s.directSvc.Stats(),
		SemanticCache: s.semantics.CacheStats(),
		Index:         s.index.Stats(),
		Context:       s.assembler.Stats(),
	}, nil
}

// Reset purges every cache and zeroes the counters. The vector index
// snapshot is kept; it is rebuilt through /optimize, not /reset.
func (s *assistantService) Reset(ctx context.Context) error {
	s.semantics.Purge(ctx)
	s.assembler.Purge()
	s.directSvc.Purge()
	s.counters.Reset()

	s.logger.Warn("Assistant", "Engine reset: caches purged, counters zeroed", nil)

	if s.ops != nil {
		if err := s.ops.Publish(ctx, events.NewEngineReset("admin")); err != nil {
			s.logger.Error("Assistant", "Failed to publish reset event", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (s *assistantService) CountersSnapshot() stats.Counters {
	return s.counters.Snapshot()
}

func routeResultToDTO(res *router.Result) *dto.QueryResponse {
	return &dto.QueryResponse{
		Response:         res.Response,
		Level:            string(res.ServedLevel),
		IntendedLevel:    string(res.Decision.Level),
		Confidence:       res.Decision.Confidence,
		TokensUsed:       res.TokensUsed,
		TokensSaved:      res.TokensSaved,
		ProcessingTimeMs: res.ProcessingTime.Milliseconds(),
		MatchedKeywords:  res.Decision.MatchedKeywords,
		FromCache:        res.FromCache,
		FailedOver:       res.FailedOver,
	}
}
