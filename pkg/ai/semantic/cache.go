// FILE: pkg/ai/semantic/cache.go
// PURPOSE: Two-level answer cache for the semantic tier (go-cache L1, optional redis L2)

package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// CachedAnswer is the stored payload for one normalized query.
type CachedAnswer struct {
	Response   string    `json:"response"`
	Similarity float64   `json:"similarity"`
	EntryID    string    `json:"entry_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// CacheStats is a point-in-time counter snapshot.
type CacheStats struct {
	Entries int     `json:"entries"`
	L1Hits  int64   `json:"l1_hits"`
	L2Hits  int64   `json:"l2_hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Cache is the semantic answer cache. L1 is in-process with TTL eviction by
// the go-cache janitor; L2 is an optional redis backend shared between
// instances. rdb may be nil.
type Cache struct {
	l1     *cache.Cache
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger

	l1Hits atomic.Int64
	l2Hits atomic.Int64
	misses atomic.Int64
}

func NewCache(ttl time.Duration, rdb *redis.Client, logger *log.Logger) *Cache {
	return &Cache{
		l1:     cache.New(ttl, ttl/2+time.Second),
		rdb:    rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Get looks up a normalized query, L1 first. An L2 hit is promoted into L1
// so the next lookup stays in-process.
func (c *Cache) Get(ctx context.Context, normalizedQuery string) (CachedAnswer, bool) {
	key := cacheKey(normalizedQuery)

	if raw, found := c.l1.Get(key); found {
		c.l1Hits.Add(1)
		return raw.(CachedAnswer), true
	}

	if c.rdb != nil {
		payload, err := c.rdb.Get(ctx, "semcache:"+key).Bytes()
		if err == nil {
			var ans CachedAnswer
			if err := json.Unmarshal(payload, &ans); err == nil {
				c.l2Hits.Add(1)
				c.l1.Set(key, ans, cache.DefaultExpiration)
				return ans, true
			}
			c.logger.Printf("[SEMCACHE] Corrupt L2 entry for %s, dropping", key)
			c.rdb.Del(ctx, "semcache:"+key)
		} else if err != redis.Nil {
			c.logger.Printf("[SEMCACHE] L2 read failed: %v", err)
		}
	}

	c.misses.Add(1)
	return CachedAnswer{}, false
}

// Set stores an answer in both levels. L2 write failures are logged, not
// surfaced; the L1 entry still serves this instance.
func (c *Cache) Set(ctx context.Context, normalizedQuery string, ans CachedAnswer) {
	key := cacheKey(normalizedQuery)
	c.l1.Set(key, ans, cache.DefaultExpiration)

	if c.rdb != nil {
		payload, err := json.Marshal(ans)
		if err != nil {
			return
		}
		if err := c.rdb.Set(ctx, "semcache:"+key, payload, c.ttl).Err(); err != nil {
			c.logger.Printf("[SEMCACHE] L2 write failed: %v", err)
		}
	}
}

// Flush drops every entry and resets counters.
func (c *Cache) Flush(ctx context.Context) {
	c.l1.Flush()
	c.l1Hits.Store(0)
	c.l2Hits.Store(0)
	c.misses.Store(0)

	if c.rdb != nil {
		iter := c.rdb.Scan(ctx, 0, "semcache:*", 0).Iterator()
		for iter.Next(ctx) {
			c.rdb.Del(ctx, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.Printf("[SEMCACHE] L2 flush failed: %v", err)
		}
	}
}

// Stats reports entry count and hit counters.
func (c *Cache) Stats() CacheStats {
	l1, l2, misses := c.l1Hits.Load(), c.l2Hits.Load(), c.misses.Load()
	stats := CacheStats{
		Entries: c.l1.ItemCount(),
		L1Hits:  l1,
		L2Hits:  l2,
		Misses:  misses,
	}
	if total := l1 + l2 + misses; total > 0 {
		stats.HitRate = float64(l1+l2) / float64(total)
	}
	return stats
}

func cacheKey(normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return hex.EncodeToString(sum[:16])
}
