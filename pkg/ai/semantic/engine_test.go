package semantic

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"ai-kindergarten-be/pkg/ai/vectorindex"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls   atomic.Int64
	failing bool
	vectors map[string][]float32
}

func (p *fakeProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	p.calls.Add(1)
	if p.failing {
		return nil, errors.New("embedding backend down")
	}
	if vec, ok := p.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

type fakeSource struct {
	corpus []vectorindex.Entry
}

func (s *fakeSource) LoadCorpus(ctx context.Context) ([]vectorindex.Entry, error) {
	return s.corpus, nil
}

func (s *fakeSource) SaveEmbedding(ctx context.Context, id string, hash string, vec []float32) error {
	return nil
}

func newTestEngine(t *testing.T, provider *fakeProvider) *Engine {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	source := &fakeSource{corpus: []vectorindex.Entry{
		{ID: "faq-1", Type: "faq", Content: "招生流程", Answer: "招生分咨询、登记、录取三步。"},
		{ID: "faq-2", Type: "faq", Content: "考勤规则", Answer: "每日到校需在入口签到。"},
	}}
	idx := vectorindex.New(provider, source, logger)
	require.NoError(t, idx.Rebuild(context.Background()))

	cache := NewCache(time.Minute, nil, logger)
	return NewEngine(provider, idx, cache, Config{SimilarityThreshold: 0.8, TopK: 3}, logger)
}

func TestAnswerServesConfidentMatch(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"招生流程": {1, 0, 0},
		"考勤规则": {0, 1, 0},
		"招生怎么办": {1, 0, 0},
	}}
	e := newTestEngine(t, provider)

	ans, err := e.Answer(context.Background(), "招生怎么办")
	require.NoError(t, err)

	assert.Equal(t, "faq-1", ans.EntryID)
	assert.Equal(t, "招生分咨询、登记、录取三步。", ans.Response)
	assert.GreaterOrEqual(t, ans.Similarity, 0.8)
	assert.False(t, ans.FromCache)
	assert.Positive(t, ans.Tokens)
}

func TestAnswerBelowThresholdFailsOver(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"招生流程": {1, 0, 0},
		"考勤规则": {0, 1, 0},
		"食堂菜单": {0, 0, 1},
	}}
	e := newTestEngine(t, provider)

	_, err := e.Answer(context.Background(), "食堂菜单")
	assert.ErrorIs(t, err, ErrNoConfidentMatch)
}

func TestAnswerEmbeddingFailureMapsToFailover(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"招生流程": {1, 0, 0},
		"考勤规则": {0, 1, 0},
	}}
	e := newTestEngine(t, provider)

	provider.failing = true
	_, err := e.Answer(context.Background(), "招生流程")
	assert.ErrorIs(t, err, ErrNoConfidentMatch, "upstream errors never surface from the semantic tier")
}

func TestRepeatQueryHitsCacheWithoutReEmbedding(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"招生流程": {1, 0, 0},
		"考勤规则": {0, 1, 0},
	}}
	e := newTestEngine(t, provider)

	first, err := e.Answer(context.Background(), "招生流程")
	require.NoError(t, err)
	embedCalls := provider.calls.Load()

	second, err := e.Answer(context.Background(), "招生流程")
	require.NoError(t, err)

	assert.True(t, second.FromCache)
	assert.Equal(t, first.Response, second.Response)
	assert.Equal(t, embedCalls, provider.calls.Load(), "cache hit must not trigger an embedding call")
	assert.Less(t, second.Tokens, first.Tokens, "cache hit costs the lookup constant only")

	stats := e.CacheStats()
	assert.EqualValues(t, 1, stats.L1Hits)
}

func TestPurgeForcesReEmbedding(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"招生流程": {1, 0, 0},
		"考勤规则": {0, 1, 0},
	}}
	e := newTestEngine(t, provider)

	_, err := e.Answer(context.Background(), "招生流程")
	require.NoError(t, err)

	e.Purge(context.Background())
	before := provider.calls.Load()

	ans, err := e.Answer(context.Background(), "招生流程")
	require.NoError(t, err)
	assert.False(t, ans.FromCache)
	assert.Greater(t, provider.calls.Load(), before)
	assert.Zero(t, e.CacheStats().L1Hits, "purge resets counters")
}
