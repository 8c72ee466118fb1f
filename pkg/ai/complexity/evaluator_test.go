package complexity

import (
	"testing"

	"ai-kindergarten-be/pkg/ai/keyword"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	e, err := NewEvaluator(DefaultWeights(), Thresholds{T1: 0.35, T2: 0.8})
	require.NoError(t, err)
	return e
}

func TestNewEvaluatorRejectsBadThresholds(t *testing.T) {
	_, err := NewEvaluator(DefaultWeights(), Thresholds{T1: 0.7, T2: 0.3})
	assert.Error(t, err)

	_, err = NewEvaluator(DefaultWeights(), Thresholds{T1: 0, T2: 0.5})
	assert.Error(t, err)
}

func TestEvaluateIsDeterministic(t *testing.T) {
	e := newTestEvaluator(t)
	dict := keyword.DefaultDictionary()
	q := keyword.Normalize("分析本学期招生和考勤的相关性")

	first := e.Evaluate(dict, q)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Evaluate(dict, q))
	}
}

func TestEvaluateTierBands(t *testing.T) {
	e := newTestEvaluator(t)
	dict := keyword.DefaultDictionary()

	tests := []struct {
		name  string
		query string
		want  Level
	}{
		{
			name:  "simple lookup stays cheap",
			query: "查询学生总数",
			want:  LevelDirect,
		},
		{
			name:  "comparison lands in semantic band",
			query: "这个月和上个月的转化率对比趋势是什么",
			want:  LevelSemantic,
		},
		{
			name:  "multi-entity analysis is complex",
			query: "帮我综合分析本学期招生、考勤和家长满意度的相关性并给出整改建议",
			want:  LevelComplex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(dict, keyword.Normalize(tt.query))
			assert.Equal(t, tt.want, got.LevelHint, "score=%.2f", got.Score)
			assert.GreaterOrEqual(t, got.Score, 0.0)
			assert.LessOrEqual(t, got.Score, 1.0)
			assert.Positive(t, got.EstimatedTokens)
		})
	}
}

func TestConfidenceDropsNearBoundary(t *testing.T) {
	e := newTestEvaluator(t)

	nearBoundary := e.confidence(0.36)
	deepInBand := e.confidence(0.05)

	assert.Less(t, nearBoundary, deepInBand)
	assert.GreaterOrEqual(t, nearBoundary, 0.5)
	assert.LessOrEqual(t, deepInBand, 1.0)
}

func TestComplexCostsMoreThanDirect(t *testing.T) {
	e := newTestEvaluator(t)
	dict := keyword.DefaultDictionary()

	direct := e.Evaluate(dict, keyword.Normalize("查询学生总数"))
	complexEval := e.Evaluate(dict, keyword.Normalize("帮我综合分析本学期招生、考勤和家长满意度的相关性并给出整改建议"))

	assert.Greater(t, complexEval.EstimatedTokens, direct.EstimatedTokens)
}
