package contextasm

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"ai-kindergarten-be/pkg/ai/keyword"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssembler(t *testing.T, contextTTL time.Duration) *Assembler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	provider := keyword.NewProvider("", logger)
	require.True(t, provider.Healthy())
	return New(provider, contextTTL, time.Hour, 3, logger)
}

func TestAssembleSelectsEntitySections(t *testing.T) {
	a := newTestAssembler(t, time.Minute)

	got, err := a.Assemble(context.Background(), "conv-1", keyword.Normalize("分析学生考勤情况"))
	require.NoError(t, err)

	assert.Equal(t, []string{"attendance", "student"}, got.Sections)
	assert.Contains(t, got.Prompt, sectionPrompts["student"])
	assert.Contains(t, got.Prompt, sectionPrompts["attendance"])
	assert.NotContains(t, got.Prompt, sectionPrompts["fee"])
	assert.Equal(t, len([]rune(got.Prompt)), got.Tokens)
}

func TestAssembleCachesBySignature(t *testing.T) {
	a := newTestAssembler(t, time.Minute)

	first, err := a.Assemble(context.Background(), "conv-1", keyword.Normalize("学生考勤分析"))
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	// Different wording, same entity shape.
	second, err := a.Assemble(context.Background(), "conv-1", keyword.Normalize("看看学生的考勤"))
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Prompt, second.Prompt)

	// Another conversation never shares the cache entry.
	third, err := a.Assemble(context.Background(), "conv-2", keyword.Normalize("学生考勤分析"))
	require.NoError(t, err)
	assert.False(t, third.FromCache)
}

func TestAssembleCacheExpires(t *testing.T) {
	a := newTestAssembler(t, 20*time.Millisecond)

	_, err := a.Assemble(context.Background(), "conv-1", "学生考勤")
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	got, err := a.Assemble(context.Background(), "conv-1", "学生考勤")
	require.NoError(t, err)
	assert.False(t, got.FromCache)
}

func TestRememberBoundsConversationMemory(t *testing.T) {
	a := newTestAssembler(t, time.Minute)

	a.Remember("conv-1", "问题一", "回答一")
	a.Remember("conv-1", "问题二", "回答二")
	a.Remember("conv-1", "问题三", "回答三")
	a.Remember("conv-1", "问题四", "回答四")

	turns := a.recentTurns("conv-1")
	require.Len(t, turns, 3, "memory keeps only the most recent turns")
	assert.Equal(t, "问题二", turns[0].Query)
	assert.Equal(t, "问题四", turns[2].Query)

	got, err := a.Assemble(context.Background(), "conv-1", "学生情况")
	require.NoError(t, err)
	assert.Contains(t, got.Prompt, "回答四")
	assert.NotContains(t, got.Prompt, "回答一")
}

func TestStatsTrackAverageTokens(t *testing.T) {
	a := newTestAssembler(t, time.Minute)

	_, err := a.Assemble(context.Background(), "conv-1", "学生总数")
	require.NoError(t, err)
	_, err = a.Assemble(context.Background(), "conv-2", "费用统计")
	require.NoError(t, err)

	stats := a.Stats()
	assert.EqualValues(t, 2, stats.Assembles)
	assert.Positive(t, stats.AverageTokens)

	a.Purge()
	assert.Zero(t, a.Stats().Assembles)
}

func TestRememberConcurrentWritersLoseNoTurns(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	provider := keyword.NewProvider("", logger)
	require.True(t, provider.Healthy())
	a := New(provider, time.Minute, time.Hour, 64, logger)

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.Remember("conv-1", fmt.Sprintf("问题%d", i), fmt.Sprintf("回答%d", i))
		}(i)
	}
	wg.Wait()

	turns := a.recentTurns("conv-1")
	assert.Len(t, turns, writers)
}
