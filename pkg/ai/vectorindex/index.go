// FILE: pkg/ai/vectorindex/index.go
// PURPOSE: In-memory vector index with immutable snapshots and atomic swap

package vectorindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"ai-kindergarten-be/pkg/embedding"

	"github.com/google/uuid"
)

// ErrRebuildInProgress reports a rebuild request while another rebuild is
// still running. Callers treat it as retryable.
var ErrRebuildInProgress = errors.New("vectorindex: rebuild already in progress")

// Entry is one indexed corpus item. The embedding is unit-length.
type Entry struct {
	ID        string
	Type      string
	Content   string
	Answer    string
	Hash      string
	Embedding []float32
}

// Match pairs an entry with its cosine similarity to the search vector.
type Match struct {
	Entry Entry
	Score float64
}

// Snapshot is an immutable view of the index. Searches run against one
// snapshot for their whole duration; rebuilds publish a new one.
type Snapshot struct {
	ID               string
	Entries          []Entry
	TotalItems       int
	TypeDistribution map[string]int
	BuildTime        time.Time
	BuildDuration    time.Duration
}

// CorpusSource supplies the raw corpus for a rebuild and persists freshly
// computed embeddings for warm starts.
type CorpusSource interface {
	LoadCorpus(ctx context.Context) ([]Entry, error)
	SaveEmbedding(ctx context.Context, id string, hash string, vec []float32) error
}

// Stats is a counter snapshot for the stats endpoint.
type Stats struct {
	SnapshotID        string         `json:"snapshot_id"`
	TotalItems        int            `json:"total_items"`
	TypeDistribution  map[string]int `json:"type_distribution"`
	BuildTime         time.Time      `json:"build_time"`
	BuildDurationMs   int64          `json:"build_duration_ms"`
	Searches          int64          `json:"searches"`
	AvgResultsPerHit  float64        `json:"avg_results_per_search"`
	RebuildInProgress bool           `json:"rebuild_in_progress"`
}

// Index owns the current snapshot. All mutation goes through Rebuild; reads
// never block.
type Index struct {
	snapshot atomic.Pointer[Snapshot]
	building atomic.Bool

	provider embedding.Provider
	source   CorpusSource
	logger   *log.Logger

	searches atomic.Int64
	results  atomic.Int64
}

func New(provider embedding.Provider, source CorpusSource, logger *log.Logger) *Index {
	return &Index{
		provider: provider,
		source:   source,
		logger:   logger,
	}
}

// Current returns the active snapshot, nil before the first rebuild.
func (idx *Index) Current() *Snapshot {
	return idx.snapshot.Load()
}

// Search scans the current snapshot for the topK entries most similar to
// the query vector, discarding scores below minSimilarity. Both sides are
// unit-length so cosine similarity is a dot product. Results come back in
// descending score order; equal scores keep corpus insertion order.
func (idx *Index) Search(queryVec []float32, topK int, minSimilarity float64) []Match {
	snap := idx.snapshot.Load()
	if snap == nil || topK <= 0 {
		return nil
	}

	var matches []Match
	for _, e := range snap.Entries {
		if len(e.Embedding) != len(queryVec) {
			continue
		}
		score := dot(e.Embedding, queryVec)
		if score < minSimilarity {
			continue
		}
		matches = append(matches, Match{Entry: e, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	idx.searches.Add(1)
	idx.results.Add(int64(len(matches)))
	return matches
}

// Rebuild recomputes the whole index off to the side and swaps it in. Only
// one rebuild runs at a time; a second caller gets ErrRebuildInProgress.
// Any corpus or embedding failure aborts the rebuild, leaving the previous
// snapshot in place.
func (idx *Index) Rebuild(ctx context.Context) error {
	if !idx.building.CompareAndSwap(false, true) {
		return ErrRebuildInProgress
	}
	defer idx.building.Store(false)

	start := time.Now()
	corpus, err := idx.source.LoadCorpus(ctx)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	entries := make([]Entry, 0, len(corpus))
	dist := make(map[string]int)
	reused, embedded := 0, 0

	for _, item := range corpus {
		hash := ContentHash(item.Content)
		if item.Hash == hash && len(item.Embedding) > 0 {
			item.Embedding = embedding.Normalize(item.Embedding)
			reused++
		} else {
			vec, err := idx.provider.Generate(ctx, item.Content, embedding.TaskDocument)
			if err != nil {
				return fmt.Errorf("embed corpus item %s: %w", item.ID, err)
			}
			item.Embedding = vec
			item.Hash = hash
			embedded++

			// Persist for warm starts. The in-memory index stays
			// authoritative, so a failed write only costs the next
			// rebuild one extra embedding call.
			if err := idx.source.SaveEmbedding(ctx, item.ID, hash, vec); err != nil {
				idx.logger.Printf("[INDEX] Persist embedding for %s failed: %v", item.ID, err)
			}
		}
		dist[item.Type]++
		entries = append(entries, item)
	}

	snap := &Snapshot{
		ID:               uuid.New().String(),
		Entries:          entries,
		TotalItems:       len(entries),
		TypeDistribution: dist,
		BuildTime:        time.Now(),
		BuildDuration:    time.Since(start),
	}
	idx.snapshot.Store(snap)
	idx.searches.Store(0)
	idx.results.Store(0)

	idx.logger.Printf("[INDEX] Rebuilt snapshot %s: %d items (%d reused, %d embedded) in %s",
		snap.ID, snap.TotalItems, reused, embedded, snap.BuildDuration)
	return nil
}

// Stats reports the current snapshot shape plus search counters.
func (idx *Index) Stats() Stats {
	stats := Stats{
		Searches:          idx.searches.Load(),
		RebuildInProgress: idx.building.Load(),
	}
	if stats.Searches > 0 {
		stats.AvgResultsPerHit = float64(idx.results.Load()) / float64(stats.Searches)
	}

	snap := idx.snapshot.Load()
	if snap == nil {
		return stats
	}
	stats.SnapshotID = snap.ID
	stats.TotalItems = snap.TotalItems
	stats.TypeDistribution = snap.TypeDistribution
	stats.BuildTime = snap.BuildTime
	stats.BuildDurationMs = snap.BuildDuration.Milliseconds()
	return stats
}

// ContentHash is the change-detection hash used to decide whether a
// persisted embedding is still valid for its content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
