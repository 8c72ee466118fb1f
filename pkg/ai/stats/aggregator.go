// FILE: pkg/ai/stats/aggregator.go
// PURPOSE: Lock-free performance counters for the routing engine

package stats

import (
	"sync/atomic"
	"time"
)

// Tier names the serving tier of a recorded query.
type Tier string

const (
	TierDirect   Tier = "direct"
	TierSemantic Tier = "semantic"
	TierComplex  Tier = "complex"
)

// Record describes one completed query for accounting.
type Record struct {
	IntendedTier Tier
	ServedTier   Tier
	TokensUsed   int
	TokensSaved  int
	Elapsed      time.Duration
	Escalated    bool
}

// Counters is a consistent copy of the aggregator state plus rates derived
// at read time.
type Counters struct {
	TotalQueries      int64   `json:"total_queries"`
	DirectQueries     int64   `json:"direct_queries"`
	SemanticQueries   int64   `json:"semantic_queries"`
	ComplexQueries    int64   `json:"complex_queries"`
	FallbackToComplex int64   `json:"fallback_to_complex"`
	Escalations       int64   `json:"escalations"`
	TokensUsed        int64   `json:"tokens_used"`
	TokensSaved       int64   `json:"tokens_saved"`
	UpstreamFailures  int64   `json:"upstream_failures"`
	TotalTimeMs       int64   `json:"total_response_time_ms"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
	TokenSavingRate   float64 `json:"token_saving_rate"`
	DirectQueryRate   float64 `json:"direct_query_rate"`
	SemanticQueryRate float64 `json:"semantic_query_rate"`
	ComplexQueryRate  float64 `json:"complex_query_rate"`
}

// Aggregator accumulates counters with atomics only; Add never blocks the
// request path.
type Aggregator struct {
	total    atomic.Int64
	direct   atomic.Int64
	semantic atomic.Int64
	complexq atomic.Int64
	fallback atomic.Int64
	escalate atomic.Int64
	used     atomic.Int64
	saved    atomic.Int64
	timeMs   atomic.Int64
	failures atomic.Int64
}

func New() *Aggregator {
	return &Aggregator{}
}

// Add records one completed query. The serving tier counter and the total
// move together so tier counts always sum to the total.
func (a *Aggregator) Add(r Record) {
	a.total.Add(1)
	switch r.ServedTier {
	case TierDirect:
		a.direct.Add(1)
	case TierSemantic:
		a.semantic.Add(1)
	case TierComplex:
		a.complexq.Add(1)
		if r.IntendedTier != TierComplex {
			a.fallback.Add(1)
		}
	}
	if r.Escalated {
		a.escalate.Add(1)
	}
	a.used.Add(int64(r.TokensUsed))
	a.saved.Add(int64(r.TokensSaved))
	a.timeMs.Add(r.Elapsed.Milliseconds())
}

// RecordUpstreamFailure counts a complex-tier query that produced no
// response. Failed queries stay out of the tier counters and rates, so
// this is tracked separately to keep total traffic observable.
func (a *Aggregator) RecordUpstreamFailure() {
	a.failures.Add(1)
}

// Snapshot copies the counters and computes the derived rates.
func (a *Aggregator) Snapshot() Counters {
	c := Counters{
		TotalQueries:      a.total.Load(),
		DirectQueries:     a.direct.Load(),
		SemanticQueries:   a.semantic.Load(),
		ComplexQueries:    a.complexq.Load(),
		FallbackToComplex: a.fallback.Load(),
		Escalations:       a.escalate.Load(),
		UpstreamFailures:  a.failures.Load(),
		TokensUsed:        a.used.Load(),
		TokensSaved:       a.saved.Load(),
		TotalTimeMs:       a.timeMs.Load(),
	}
	if c.TotalQueries > 0 {
		c.AvgResponseTimeMs = float64(c.TotalTimeMs) / float64(c.TotalQueries)
		c.DirectQueryRate = float64(c.DirectQueries) / float64(c.TotalQueries)
		c.SemanticQueryRate = float64(c.SemanticQueries) / float64(c.TotalQueries)
		c.ComplexQueryRate = float64(c.ComplexQueries) / float64(c.TotalQueries)
	}
	if denom := c.TokensUsed + c.TokensSaved; denom > 0 {
		c.TokenSavingRate = float64(c.TokensSaved) / float64(denom)
	}
	return c
}

// Reset zeroes every counter. Only the /reset boundary calls this.
func (a *Aggregator) Reset() {
	a.total.Store(0)
	a.direct.Store(0)
	a.semantic.Store(0)
	a.complexq.Store(0)
	a.fallback.Store(0)
	a.escalate.Store(0)
	a.used.Store(0)
	a.saved.Store(0)
	a.timeMs.Store(0)
	a.failures.Store(0)
}
