package dto

import (
	"ai-kindergarten-be/pkg/ai/contextasm"
	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/router"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/stats"
	"ai-kindergarten-be/pkg/ai/vectorindex"
)

type QueryRequest struct {
	Query          string `json:"query" validate:"required,min=1,max=500"`
	ConversationId string `json:"conversation_id" validate:"omitempty,max=64"`
}

type QueryResponse struct {
	Response         string   `json:"response"`
	Level            string   `json:"level"`
	IntendedLevel    string   `json:"intended_level"`
	Confidence       float64  `json:"confidence"`
	TokensUsed       int      `json:"tokens_used"`
	TokensSaved      int      `json:"tokens_saved"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	MatchedKeywords  []string `json:"matched_keywords"`
	FromCache        bool     `json:"from_cache"`
	FailedOver       bool     `json:"failed_over"`
}

type TestRouteRequest struct {
	Query string `json:"query" validate:"required,min=1,max=500"`
}

type TestDirectRequest struct {
	Action string `json:"action" validate:"required,max=64"`
	Query  string `json:"query" validate:"omitempty,max=500"`
}

type OptimizeRequest struct {
	Type string `json:"type" validate:"required,oneof=cache index keywords all"`
}

type OptimizeResponse struct {
	JobId  string `json:"job_id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

type KeywordGroupsDTO struct {
	Actions   map[string][]string `json:"actions"`
	Entities  map[string][]string `json:"entities"`
	Modifiers map[string][]string `json:"modifiers"`
}

type KeywordsResponse struct {
	Groups           KeywordGroupsDTO `json:"groups"`
	DirectMatches    []DirectMatchDTO `json:"direct_matches"`
	ActionTerms      int              `json:"action_terms"`
	EntityTerms      int              `json:"entity_terms"`
	ModifierTerms    int              `json:"modifier_terms"`
	DirectMatchCount int              `json:"direct_match_count"`
	Healthy          bool             `json:"healthy"`
}

type DirectMatchDTO struct {
	Phrase   string `json:"phrase"`
	Response string `json:"response"`
	Action   string `json:"action"`
	Tokens   int    `json:"tokens"`
}

// StatsResponse aggregates the per-subcomponent counter snapshots.
type StatsResponse struct {
	Router        stats.Counters      `json:"router"`
	Direct        direct.Stats        `json:"direct"`
	SemanticCache semantic.CacheStats `json:"semantic_cache"`
	Index         vectorindex.Stats   `json:"index"`
	Context       contextasm.Stats    `json:"context"`
}

// RouteDecisionDTO is the dry-run classification result.
type RouteDecisionDTO = router.Decision

// PublishOptimizeMessage is the watermill payload for async optimize jobs.
type PublishOptimizeMessage struct {
	JobId string `json:"job_id"`
	Type  string `json:"type"`
}
