package router

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"ai-kindergarten-be/pkg/ai/complexity"
	"ai-kindergarten-be/pkg/ai/contextasm"
	"ai-kindergarten-be/pkg/ai/direct"
	"ai-kindergarten-be/pkg/ai/keyword"
	"ai-kindergarten-be/pkg/ai/semantic"
	"ai-kindergarten-be/pkg/ai/stats"
	"ai-kindergarten-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDirect struct {
	err error
}

func (f *fakeDirect) Respond(ctx context.Context, action, query string) (direct.Response, error) {
	if f.err != nil {
		return direct.Response{}, f.err
	}
	return direct.Response{Answer: "正在查询...", Action: action, Tokens: 10}, nil
}

type fakeSemantic struct {
	err error
	ans semantic.Answer
}

func (f *fakeSemantic) Answer(ctx context.Context, q string) (semantic.Answer, error) {
	if f.err != nil {
		return semantic.Answer{}, f.err
	}
	return f.ans, nil
}

type fakeContexts struct {
	remembered []string
}

func (f *fakeContexts) Assemble(ctx context.Context, conversationID, q string) (contextasm.Assembled, error) {
	return contextasm.Assembled{Prompt: "系统提示", Tokens: 4}, nil
}

func (f *fakeContexts) Remember(conversationID, query, response string) {
	f.remembered = append(f.remembered, conversationID)
}

type fakeLLM struct {
	err        error
	completion llm.Completion
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (llm.Completion, error) {
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return f.completion, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (llm.Completion, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

type fixture struct {
	router    *Router
	keywords  *keyword.Provider
	directly  *fakeDirect
	semantics *fakeSemantic
	contexts  *fakeContexts
	upstream  *fakeLLM
	counters  *stats.Aggregator
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	keywords := keyword.NewProvider("", logger)
	require.True(t, keywords.Healthy())
	evaluator, err := complexity.NewEvaluator(complexity.DefaultWeights(), complexity.Thresholds{T1: 0.35, T2: 0.8})
	require.NoError(t, err)

	f := &fixture{
		keywords:  keywords,
		directly:  &fakeDirect{},
		semantics: &fakeSemantic{ans: semantic.Answer{Response: "语义答案", Tokens: 60}},
		contexts:  &fakeContexts{},
		upstream:  &fakeLLM{completion: llm.Completion{Content: "完整分析回答", PromptTokens: 500, CompletionTokens: 400}},
		counters:  stats.New(),
	}
	f.router = New(keywords, evaluator, f.directly, f.semantics, f.contexts, f.upstream, f.counters, cfg, logger)
	return f
}

func TestRouteDirectMatchSavesTokens(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})

	res, err := f.router.Route(context.Background(), "学生总数", "")
	require.NoError(t, err)

	assert.Equal(t, stats.TierDirect, res.ServedLevel)
	assert.Equal(t, "count_students", res.Decision.DirectAction)
	assert.Equal(t, 10, res.TokensUsed)
	assert.Equal(t, 790, res.TokensSaved)
	assert.False(t, res.FailedOver)
}

func TestRouteComplexSavesNothing(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})

	res, err := f.router.Route(context.Background(), "帮我综合分析本学期招生、考勤和家长满意度的相关性并给出整改建议", "")
	require.NoError(t, err)

	assert.Equal(t, stats.TierComplex, res.ServedLevel)
	assert.Equal(t, 900, res.TokensUsed)
	assert.Zero(t, res.TokensSaved)
}

func TestRouteFailsOverDirectToSemantic(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})
	f.directly.err = direct.ErrNoTemplate

	res, err := f.router.Route(context.Background(), "学生总数", "")
	require.NoError(t, err)

	assert.Equal(t, stats.TierSemantic, res.ServedLevel)
	assert.Equal(t, "语义答案", res.Response)
	assert.True(t, res.FailedOver)
	assert.Positive(t, res.TokensSaved, "semantic failover still beats the complex baseline")
}

func TestRouteFailsOverSemanticToComplex(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})
	f.directly.err = direct.ErrNoTemplate
	f.semantics.err = semantic.ErrNoConfidentMatch

	res, err := f.router.Route(context.Background(), "学生总数", "")
	require.NoError(t, err)

	assert.Equal(t, stats.TierComplex, res.ServedLevel)
	assert.Equal(t, "完整分析回答", res.Response)
	assert.Zero(t, res.TokensSaved)

	c := f.counters.Snapshot()
	assert.EqualValues(t, 1, c.FallbackToComplex)
}

func TestRouteComplexUpstreamFailureIsRetryable(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})
	f.upstream.err = errors.New("connection refused")

	_, err := f.router.Route(context.Background(), "帮我综合分析本学期招生、考勤和家长满意度的相关性并给出整改建议", "")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	c := f.counters.Snapshot()
	assert.Zero(t, c.TotalQueries, "failed queries are not recorded")
	assert.Equal(t, int64(1), c.UpstreamFailures)
}

func TestDecideEscalatesOnLowConfidence(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.99})

	d, err := f.router.Decide("这个月和上个月的转化率对比趋势是什么")
	require.NoError(t, err)

	assert.True(t, d.Escalated)
	assert.Equal(t, stats.TierComplex, d.Level)
}

func TestDecideFailsClosedWithoutDictionary(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	keywords := keyword.NewProvider("/nonexistent/dict/dir", logger)
	require.False(t, keywords.Healthy())
	evaluator, err := complexity.NewEvaluator(complexity.DefaultWeights(), complexity.Thresholds{T1: 0.35, T2: 0.8})
	require.NoError(t, err)

	r := New(keywords, evaluator, &fakeDirect{}, &fakeSemantic{}, &fakeContexts{}, &fakeLLM{}, stats.New(), Config{}, logger)

	d, err := r.Decide("学生总数")
	require.NoError(t, err)
	assert.Equal(t, stats.TierComplex, d.Level, "every query routes complex when the dictionary is down")
}

func TestRouteRejectsEmptyQuery(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})

	_, err := f.router.Route(context.Background(), "   ", "conv-1")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestRouteRemembersConversationTurns(t *testing.T) {
	f := newFixture(t, Config{ConfidenceFloor: 0.6})

	_, err := f.router.Route(context.Background(), "学生总数", "conv-7")
	require.NoError(t, err)
	_, err = f.router.Route(context.Background(), "教师总数", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"conv-7"}, f.contexts.remembered)
}
