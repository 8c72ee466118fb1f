package vectorindex

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	calls   atomic.Int64
	failing atomic.Bool
	vectors map[string][]float32
}

func (p *fakeProvider) Generate(ctx context.Context, text string, taskType string) ([]float32, error) {
	p.calls.Add(1)
	if p.failing.Load() {
		return nil, errors.New("embedding backend down")
	}
	if vec, ok := p.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

type fakeSource struct {
	mu     sync.Mutex
	corpus []Entry
	saved  map[string][]float32
	err    error
}

func (s *fakeSource) LoadCorpus(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Entry, len(s.corpus))
	copy(out, s.corpus)
	return out, nil
}

func (s *fakeSource) SaveEmbedding(ctx context.Context, id string, hash string, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		s.saved = make(map[string][]float32)
	}
	s.saved[id] = vec
	return nil
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestSearchRanksByScoreWithStableTies(t *testing.T) {
	provider := &fakeProvider{vectors: map[string][]float32{
		"招生流程":  {1, 0, 0},
		"考勤规则a": {0, 1, 0},
		"考勤规则b": {0, 1, 0},
	}}
	source := &fakeSource{corpus: []Entry{
		{ID: "a", Type: "faq", Content: "招生流程", Answer: "招生分三步"},
		{ID: "b", Type: "faq", Content: "考勤规则a", Answer: "考勤答案a"},
		{ID: "c", Type: "policy", Content: "考勤规则b", Answer: "考勤答案b"},
	}}

	idx := New(provider, source, testLogger())
	require.NoError(t, idx.Rebuild(context.Background()))

	matches := idx.Search([]float32{0, 1, 0}, 10, 0.5)
	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].Entry.ID, "equal scores keep insertion order")
	assert.Equal(t, "c", matches[1].Entry.ID)

	matches = idx.Search([]float32{1, 0, 0}, 1, 0.0)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Entry.ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestSearchBeforeFirstRebuildReturnsNothing(t *testing.T) {
	idx := New(&fakeProvider{}, &fakeSource{}, testLogger())
	assert.Nil(t, idx.Search([]float32{1, 0, 0}, 5, 0))
}

func TestRebuildIsSingleFlight(t *testing.T) {
	idx := New(&fakeProvider{}, &fakeSource{}, testLogger())

	require.True(t, idx.building.CompareAndSwap(false, true))
	err := idx.Rebuild(context.Background())
	assert.ErrorIs(t, err, ErrRebuildInProgress)
	idx.building.Store(false)

	assert.NoError(t, idx.Rebuild(context.Background()))
}

func TestFailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	provider := &fakeProvider{}
	source := &fakeSource{corpus: []Entry{
		{ID: "a", Type: "faq", Content: "招生流程"},
	}}
	idx := New(provider, source, testLogger())
	require.NoError(t, idx.Rebuild(context.Background()))
	previous := idx.Current()
	require.NotNil(t, previous)

	source.mu.Lock()
	source.corpus = append(source.corpus, Entry{ID: "b", Type: "faq", Content: "新条目"})
	source.mu.Unlock()
	provider.failing.Store(true)

	err := idx.Rebuild(context.Background())
	require.Error(t, err)
	assert.Same(t, previous, idx.Current(), "failed rebuild must not touch the served snapshot")

	// The builder flag must reset so a later rebuild can run.
	provider.failing.Store(false)
	assert.NoError(t, idx.Rebuild(context.Background()))
	assert.Equal(t, 2, idx.Current().TotalItems)
}

func TestRebuildReusesPersistedEmbeddings(t *testing.T) {
	content := "招生流程"
	provider := &fakeProvider{}
	source := &fakeSource{corpus: []Entry{
		{
			ID:        "a",
			Type:      "faq",
			Content:   content,
			Hash:      ContentHash(content),
			Embedding: []float32{0, 0, 1},
		},
		{ID: "b", Type: "faq", Content: "考勤规则"},
	}}

	idx := New(provider, source, testLogger())
	require.NoError(t, idx.Rebuild(context.Background()))

	assert.EqualValues(t, 1, provider.calls.Load(), "unchanged entries must not be re-embedded")
	assert.Contains(t, source.saved, "b")
	assert.NotContains(t, source.saved, "a")
}

func TestConcurrentSearchDuringRebuild(t *testing.T) {
	provider := &fakeProvider{}
	source := &fakeSource{corpus: []Entry{
		{ID: "a", Type: "faq", Content: "招生流程"},
		{ID: "b", Type: "faq", Content: "考勤规则"},
	}}
	idx := New(provider, source, testLogger())
	require.NoError(t, idx.Rebuild(context.Background()))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				matches := idx.Search([]float32{1, 0, 0}, 10, -1)
				// Every search sees a complete snapshot, never a partial one.
				assert.Len(t, matches, 2)
			}
		}()
	}

	for i := 0; i < 10; i++ {
		err := idx.Rebuild(context.Background())
		if err != nil {
			assert.ErrorIs(t, err, ErrRebuildInProgress)
		}
	}
	close(stop)
	wg.Wait()
}
