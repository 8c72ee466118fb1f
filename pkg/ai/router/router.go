// FILE: pkg/ai/router/router.go
// PURPOSE: Classify queries into cost tiers and dispatch with sequential failover

package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ai-kindergarten-be/pkg/ai/complexity"
	"ai-kindergarten-be/pkg/ai/contextasm"
	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/keyword"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/stats"
	"ai-kindergarten-be/pkg/llm"
)

var (
	// ErrEmptyQuery reports a query that is empty after normalization.
	ErrEmptyQuery = errors.New("router: empty query")

	// ErrUpstreamUnavailable reports a complex-tier upstream failure. There
	// is no tier above complex, so the caller sees a retryable error.
	ErrUpstreamUnavailable = errors.New("router: llm upstream unavailable")
)

// Decision explains how a query was classified, before any dispatch.
type Decision struct {
	NormalizedQuery string     `json:"normalized_query"`
	Level           stats.Tier `json:"level"`
	Score           float64    `json:"score"`
	Confidence      float64    `json:"confidence"`
	MatchedKeywords []string   `json:"matched_keywords"`
	DirectAction    string     `json:"direct_action,omitempty"`
	Escalated       bool       `json:"escalated"`
	EstimatedTokens int        `json:"estimated_tokens"`
	Reason          string     `json:"reason"`
}

// Result is a completed routed query.
type Result struct {
	Response       string
	Decision       Decision
	ServedLevel    stats.Tier
	FailedOver     bool
	FromCache      bool
	TokensUsed     int
	TokensSaved    int
	ProcessingTime time.Duration
}

// Config holds the routing knobs.
type Config struct {
	ConfidenceFloor  float64
	DirectDeadline   time.Duration
	SemanticDeadline time.Duration
	ComplexDeadline  time.Duration
}

// DirectTier serves precomputed answers.
type DirectTier interface {
	Respond(ctx context.Context, action, query string) (direct.Response, error)
}

// SemanticTier serves cached vector-search answers.
type SemanticTier interface {
	Answer(ctx context.Context, normalizedQuery string) (semantic.Answer, error)
}

// ContextSource builds the complex-tier prompt context.
type ContextSource interface {
	Assemble(ctx context.Context, conversationID, normalizedQuery string) (contextasm.Assembled, error)
	Remember(conversationID, query, response string)
}

// Router owns tier selection. Classification is read-only over the shared
// dictionary and evaluator, so Route is safe for concurrent use.
type Router struct {
	keywords  *keyword.Provider
	evaluator *complexity.Evaluator
	directly  DirectTier
	semantics SemanticTier
	contexts  ContextSource
	upstream  llm.LLMProvider
	counters  *stats.Aggregator
	cfg       Config
	logger    *log.Logger
}

func New(
	keywords *keyword.Provider,
	evaluator *complexity.Evaluator,
	directly DirectTier,
	semantics SemanticTier,
	contexts ContextSource,
	upstream llm.LLMProvider,
	counters *stats.Aggregator,
	cfg Config,
	logger *log.Logger,
) *Router {
	if cfg.ConfidenceFloor <= 0 {
		cfg.ConfidenceFloor = 0.6
	}
	return &Router{
		keywords:  keywords,
		evaluator: evaluator,
		directly:  directly,
		semantics: semantics,
		contexts:  contexts,
		upstream:  upstream,
		counters:  counters,
		cfg:       cfg,
		logger:    logger,
	}
}

// Decide classifies a query without dispatching it. The /test-route
// boundary uses this for dry runs.
func (r *Router) Decide(query string) (Decision, error) {
	normalized := keyword.Normalize(query)
	if normalized == "" {
		return Decision{}, ErrEmptyQuery
	}

	dict, ok := r.keywords.Current()
	if !ok {
		// Fail closed: without a dictionary every heuristic is blind, so
		// the only safe tier is the one that always works.
		return Decision{
			NormalizedQuery: normalized,
			Level:           stats.TierComplex,
			Confidence:      1,
			Reason:          "dictionary unavailable",
		}, nil
	}

	// A whole-phrase dictionary hit is trusted over the heuristics.
	if m, found := dict.FindDirectMatch(normalized); found {
		return Decision{
			NormalizedQuery: normalized,
			Level:           stats.TierDirect,
			Confidence:      1,
			DirectAction:    m.Action,
			EstimatedTokens: m.Tokens,
			Reason:          "direct match: " + m.Phrase,
		}, nil
	}

	eval := r.evaluator.Evaluate(dict, normalized)
	d := Decision{
		NormalizedQuery: normalized,
		Level:           tierOf(eval.LevelHint),
		Score:           eval.Score,
		Confidence:      eval.Confidence,
		MatchedKeywords: eval.MatchedKeywords,
		EstimatedTokens: eval.EstimatedTokens,
		Reason:          "complexity score",
	}

	// A shaky classification escalates one tier; paying more beats
	// serving a wrong cheap answer. Complex has nowhere to go.
	if d.Confidence < r.cfg.ConfidenceFloor && d.Level != stats.TierComplex {
		d.Level = escalate(d.Level)
		d.Escalated = true
		d.Reason = fmt.Sprintf("escalated: confidence %.2f below floor %.2f", d.Confidence, r.cfg.ConfidenceFloor)
	}
	return d, nil
}

// Route classifies and serves a query. Tiers fail over sequentially
// (direct -> semantic -> complex); only a complex upstream failure is
// surfaced to the caller.
func (r *Router) Route(ctx context.Context, query, conversationID string) (Result, error) {
	start := time.Now()

	decision, err := r.Decide(query)
	if err != nil {
		return Result{}, err
	}

	result := Result{Decision: decision, ServedLevel: decision.Level}
	normalized := decision.NormalizedQuery
	served := false

	if result.ServedLevel == stats.TierDirect {
		resp, err := r.respondDirect(ctx, decision.DirectAction, normalized)
		if err != nil {
			r.logger.Printf("[ROUTER] Direct tier failed (%v), trying semantic", err)
			result.ServedLevel = stats.TierSemantic
			result.FailedOver = true
		} else {
			result.Response = resp.Answer
			result.TokensUsed = resp.Tokens
			served = true
		}
	}

	if result.ServedLevel == stats.TierSemantic && !served {
		ans, err := r.respondSemantic(ctx, normalized)
		if err != nil {
			r.logger.Printf("[ROUTER] Semantic tier failed (%v), trying complex", err)
			result.ServedLevel = stats.TierComplex
			result.FailedOver = true
		} else {
			result.Response = ans.Response
			result.TokensUsed = ans.Tokens
			result.FromCache = ans.FromCache
			served = true
		}
	}

	if result.ServedLevel == stats.TierComplex && !served {
		completion, assembled, err := r.respondComplex(ctx, conversationID, normalized)
		if err != nil {
			r.counters.RecordUpstreamFailure()
			return Result{}, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
		result.Response = completion.Content
		result.TokensUsed = completion.TotalTokens()
		if result.TokensUsed == 0 {
			// Backend reported no usage, estimate from prompt + answer.
			result.TokensUsed = assembled.Tokens + len([]rune(normalized)) + len([]rune(completion.Content))
		}
	}

	result.TokensSaved = tokensSaved(result.ServedLevel, normalized, result.TokensUsed)
	result.ProcessingTime = time.Since(start)

	if conversationID != "" {
		r.contexts.Remember(conversationID, query, result.Response)
	}

	r.counters.Add(stats.Record{
		IntendedTier: decision.Level,
		ServedTier:   result.ServedLevel,
		TokensUsed:   result.TokensUsed,
		TokensSaved:  result.TokensSaved,
		Elapsed:      result.ProcessingTime,
		Escalated:    decision.Escalated,
	})
	return result, nil
}

func (r *Router) respondDirect(ctx context.Context, action, normalized string) (direct.Response, error) {
	ctx, cancel := withDeadline(ctx, r.cfg.DirectDeadline)
	defer cancel()
	return r.directly.Respond(ctx, action, normalized)
}

func (r *Router) respondSemantic(ctx context.Context, normalized string) (semantic.Answer, error) {
	ctx, cancel := withDeadline(ctx, r.cfg.SemanticDeadline)
	defer cancel()
	return r.semantics.Answer(ctx, normalized)
}

func (r *Router) respondComplex(ctx context.Context, conversationID, normalized string) (llm.Completion, contextasm.Assembled, error) {
	ctx, cancel := withDeadline(ctx, r.cfg.ComplexDeadline)
	defer cancel()

	assembled, err := r.contexts.Assemble(ctx, conversationID, normalized)
	if err != nil {
		return llm.Completion{}, contextasm.Assembled{}, err
	}

	completion, err := r.upstream.Chat(ctx, []llm.Message{
		{Role: "system", Content: assembled.Prompt},
		{Role: "user", Content: normalized},
	})
	if err != nil {
		return llm.Completion{}, assembled, err
	}
	return completion, assembled, nil
}

// tokensSaved compares the actual cost against what the complex tier would
// have billed for the same query. Cheap tiers never go negative; the
// complex tier by definition saves nothing.
func tokensSaved(served stats.Tier, normalized string, used int) int {
	if served == stats.TierComplex {
		return 0
	}
	saved := baselineComplexCost(normalized) - used
	if saved < 0 {
		return 0
	}
	return saved
}

// baselineComplexCost estimates what the complex tier would have billed
// for this query: fixed prompt overhead plus a length-dependent term.
func baselineComplexCost(normalized string) int {
	return 800 + len([]rune(normalized))/10
}

func escalate(level stats.Tier) stats.Tier {
	switch level {
	case stats.TierDirect:
		return stats.TierSemantic
	default:
		return stats.TierComplex
	}
}

func tierOf(level complexity.Level) stats.Tier {
	switch level {
	case complexity.LevelDirect:
		return stats.TierDirect
	case complexity.LevelSemantic:
		return stats.TierSemantic
	default:
		return stats.TierComplex
	}
}

func withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
