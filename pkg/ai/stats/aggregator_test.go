package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTierCountsSumToTotal(t *testing.T) {
	a := New()

	tiers := []Tier{TierDirect, TierSemantic, TierComplex, TierDirect, TierComplex}
	for _, tier := range tiers {
		a.Add(Record{IntendedTier: tier, ServedTier: tier, TokensUsed: 100, Elapsed: 10 * time.Millisecond})
	}

	c := a.Snapshot()
	assert.EqualValues(t, 5, c.TotalQueries)
	assert.Equal(t, c.TotalQueries, c.DirectQueries+c.SemanticQueries+c.ComplexQueries)
	assert.EqualValues(t, 2, c.DirectQueries)
	assert.EqualValues(t, 1, c.SemanticQueries)
	assert.EqualValues(t, 2, c.ComplexQueries)
}

func TestInvariantHoldsUnderConcurrentLoad(t *testing.T) {
	a := New()
	tiers := []Tier{TierDirect, TierSemantic, TierComplex}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				tier := tiers[(w+i)%len(tiers)]
				a.Add(Record{IntendedTier: tier, ServedTier: tier, TokensUsed: 10, TokensSaved: 5})
			}
		}(w)
	}
	wg.Wait()

	c := a.Snapshot()
	assert.EqualValues(t, 8*500, c.TotalQueries)
	assert.Equal(t, c.TotalQueries, c.DirectQueries+c.SemanticQueries+c.ComplexQueries)
}

func TestFallbackCountsOnlyDemotedQueries(t *testing.T) {
	a := New()

	a.Add(Record{IntendedTier: TierSemantic, ServedTier: TierComplex, TokensUsed: 900})
	a.Add(Record{IntendedTier: TierComplex, ServedTier: TierComplex, TokensUsed: 900})

	c := a.Snapshot()
	assert.EqualValues(t, 1, c.FallbackToComplex)
}

func TestDerivedRates(t *testing.T) {
	a := New()

	a.Add(Record{IntendedTier: TierDirect, ServedTier: TierDirect, TokensUsed: 50, TokensSaved: 750, Elapsed: 4 * time.Millisecond})
	a.Add(Record{IntendedTier: TierComplex, ServedTier: TierComplex, TokensUsed: 800, Elapsed: 100 * time.Millisecond})

	c := a.Snapshot()
	assert.InDelta(t, 0.5, c.DirectQueryRate, 1e-9)
	assert.InDelta(t, 0.5, c.ComplexQueryRate, 1e-9)
	assert.InDelta(t, 750.0/(750+850), c.TokenSavingRate, 1e-9)
	assert.InDelta(t, 52.0, c.AvgResponseTimeMs, 1e-9)
}

func TestSnapshotOfEmptyAggregatorHasNoRates(t *testing.T) {
	c := New().Snapshot()
	assert.Zero(t, c.TokenSavingRate)
	assert.Zero(t, c.DirectQueryRate)
	assert.Zero(t, c.AvgResponseTimeMs)
}

func TestUpstreamFailuresStayOutOfTierCounters(t *testing.T) {
	a := New()
	a.RecordUpstreamFailure()
	a.RecordUpstreamFailure()

	c := a.Snapshot()
	assert.Equal(t, int64(2), c.UpstreamFailures)
	assert.Zero(t, c.TotalQueries)
	assert.Zero(t, c.ComplexQueries)
}

func TestReset(t *testing.T) {
	a := New()
	a.Add(Record{IntendedTier: TierDirect, ServedTier: TierDirect, TokensUsed: 10, TokensSaved: 790, Escalated: true})
	a.RecordUpstreamFailure()

	a.Reset()

	c := a.Snapshot()
	assert.Zero(t, c.TotalQueries)
	assert.Zero(t, c.TokensSaved)
	assert.Zero(t, c.Escalations)
	assert.Zero(t, c.UpstreamFailures)
}
