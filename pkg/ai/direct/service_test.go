package direct

import (
	"context"
	"io"
	"log"
	"testing"

	"ai-kindergarten-be/pkg/ai/keyword"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	provider := keyword.NewProvider("", logger)
	require.True(t, provider.Healthy())
	return NewService(provider, logger)
}

func TestRespondRendersCachedAction(t *testing.T) {
	s := newTestService(t)

	resp, err := s.Respond(context.Background(), "count_students", "学生总数")
	require.NoError(t, err)

	assert.Equal(t, "count_students", resp.Action)
	assert.NotEmpty(t, resp.Answer)
	assert.Positive(t, resp.Tokens)
}

func TestRespondUnknownActionIsConfigGap(t *testing.T) {
	s := newTestService(t)

	_, err := s.Respond(context.Background(), "no_such_action", "随便问问")
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestRespondHonorsContextCancellation(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Respond(ctx, "count_students", "学生总数")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatsCountHits(t *testing.T) {
	s := newTestService(t)

	for i := 0; i < 3; i++ {
		_, err := s.Respond(context.Background(), "count_teachers", "教师总数")
		require.NoError(t, err)
	}
	// Misses must not count as hits.
	_, _ = s.Respond(context.Background(), "missing", "x")

	stats := s.Stats()
	assert.EqualValues(t, 3, stats.Hits)
	assert.Positive(t, stats.Actions)
}

func TestPurgeResetsCountersAndReseeds(t *testing.T) {
	s := newTestService(t)

	_, err := s.Respond(context.Background(), "count_students", "学生总数")
	require.NoError(t, err)

	s.Purge()

	stats := s.Stats()
	assert.Zero(t, stats.Hits)
	assert.Positive(t, stats.Actions, "registry must be re-seeded after purge")

	_, err = s.Respond(context.Background(), "count_students", "学生总数")
	assert.NoError(t, err)
}
