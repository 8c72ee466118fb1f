// FILE: pkg/ai/complexity/evaluator.go
// PURPOSE: Deterministic query complexity scoring for tier selection

package complexity

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"ai-kindergarten-be/pkg/ai/keyword"
)

// Level is the tier hint produced by scoring.
type Level string

const (
	LevelDirect   Level = "direct"
	LevelSemantic Level = "semantic"
	LevelComplex  Level = "complex"
)

// Weights are the fixed scoring weights. They are configuration, not state:
// an Evaluator never mutates them.
type Weights struct {
	LengthCap      float64 // max contribution of query length
	MissingAction  float64
	MultiAction    float64
	MissingEntity  float64
	MultiEntity    float64
	ManyModifiers  float64
	AnalysisMarker float64
	CompareMarker  float64
	ReasonMarker   float64
	MultiClause    float64
	NumericRange   float64
}

// DefaultWeights mirrors the tuning of the production scoring table.
func DefaultWeights() Weights {
	return Weights{
		LengthCap:      0.25,
		MissingAction:  0.15,
		MultiAction:    0.2,
		MissingEntity:  0.1,
		MultiEntity:    0.2,
		ManyModifiers:  0.1,
		AnalysisMarker: 0.4,
		CompareMarker:  0.25,
		ReasonMarker:   0.2,
		MultiClause:    0.2,
		NumericRange:   0.15,
	}
}

// Thresholds map a score to a tier: score < T1 is direct-eligible,
// T1 <= score < T2 is semantic-eligible, score >= T2 is complex.
type Thresholds struct {
	T1 float64
	T2 float64
}

// Evaluation is the scoring result for one query.
type Evaluation struct {
	Score           float64
	LevelHint       Level
	Confidence      float64
	EstimatedTokens int
	MatchedKeywords []string
}

var (
	analysisMarkers = []string{"分析", "报告", "建议", "整改", "相关性", "满意度"}
	compareMarkers  = []string{"比较", "对比", "趋势", "预测"}
	reasonMarkers   = []string{"为什么", "如何", "怎么", "原因"}
	clauseMarkers   = []string{"和", "并", "以及", "同时", "还有", "然后"}

	digitRangeRe = regexp.MustCompile(`[0-9０-９]+\s*[-~到至]\s*[0-9０-９]+|[0-9０-９]+(年|月|日|号|岁|人|元)`)
)

// Evaluator scores queries against a dictionary. Pure function of its inputs
// and the configured weights, so it is independently testable.
type Evaluator struct {
	weights    Weights
	thresholds Thresholds
}

func NewEvaluator(weights Weights, thresholds Thresholds) (*Evaluator, error) {
	if thresholds.T1 <= 0 || thresholds.T2 <= thresholds.T1 || thresholds.T2 >= 1 {
		return nil, fmt.Errorf("invalid thresholds: need 0 < T1 < T2 < 1, got T1=%.2f T2=%.2f",
			thresholds.T1, thresholds.T2)
	}
	return &Evaluator{weights: weights, thresholds: thresholds}, nil
}

func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate scores a normalized query. The dictionary supplies the
// action/entity/modifier term sets; the caller owns normalization.
func (e *Evaluator) Evaluate(dict *keyword.Dictionary, normalizedQuery string) Evaluation {
	runes := []rune(normalizedQuery)
	groups := dict.MatchGroups(normalizedQuery)
	w := e.weights

	score := math.Min(float64(len(runes))/60.0, w.LengthCap)

	if groups.ActionHits == 0 {
		score += w.MissingAction
	} else if groups.ActionHits > 1 {
		score += w.MultiAction
	}

	if groups.EntityHits == 0 {
		score += w.MissingEntity
	} else if groups.EntityHits > 2 {
		score += w.MultiEntity
	}

	if groups.ModifierHits > 2 {
		score += w.ManyModifiers
	}

	if containsAny(normalizedQuery, analysisMarkers) {
		score += w.AnalysisMarker
	}
	if containsAny(normalizedQuery, compareMarkers) {
		score += w.CompareMarker
	}
	if containsAny(normalizedQuery, reasonMarkers) {
		score += w.ReasonMarker
	}
	if countClauses(normalizedQuery) > 1 {
		score += w.MultiClause
	}
	if digitRangeRe.MatchString(normalizedQuery) {
		score += w.NumericRange
	}

	score = math.Min(score, 1.0)

	level := LevelDirect
	switch {
	case score >= e.thresholds.T2:
		level = LevelComplex
	case score >= e.thresholds.T1:
		level = LevelSemantic
	}

	return Evaluation{
		Score:           score,
		LevelHint:       level,
		Confidence:      e.confidence(score),
		EstimatedTokens: estimateTokens(len(runes), len(groups.Matched), score, level),
		MatchedKeywords: groups.Matched,
	}
}

// confidence grows with distance from the nearest tier boundary: a score
// sitting right on a threshold is a coin flip, one deep inside a band is
// trustworthy. Range [0.5, 1].
func (e *Evaluator) confidence(score float64) float64 {
	d := math.Min(math.Abs(score-e.thresholds.T1), math.Abs(score-e.thresholds.T2))
	return 0.5 + math.Min(d/0.25, 1.0)*0.5
}

// estimateTokens is a linear function of query length plus an expected
// response-length constant per tier.
func estimateTokens(runeCount, matchedCount int, score float64, level Level) int {
	tokens := 100 + runeCount*5 + matchedCount*20 + int(score*500)
	switch level {
	case LevelSemantic:
		tokens += 100
	case LevelComplex:
		tokens += 500
	}
	return tokens
}

func countClauses(query string) int {
	n := strings.Count(query, "？") + strings.Count(query, "?")
	for _, marker := range clauseMarkers {
		n += strings.Count(query, marker)
	}
	return n
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
