package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"cosim/internal/domain"
	"cosim/internal/metrics"
)

// QueryCache holds ranked results keyed by query text and ranking options.
// Entries expire after the TTL; Invalidate drops everything and bumps the
// generation so results computed against an older snapshot are never stored.
type QueryCache struct {
	lru      *expirable.LRU[string, cacheEntry]
	indexGen atomic.Uint64
}

type cacheEntry struct {
	results  []domain.ScoredDoc
	indexGen uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		lru: expirable.NewLRU[string, cacheEntry](maxSize, nil, ttl),
	}
}

func cacheKey(method, query string, topK int, minScore float64) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(query))
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(topK))
	binary.BigEndian.PutUint64(buf[8:], math.Float64bits(minScore))
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Generation identifies the current snapshot. Callers read it before
// scoring and pass it to Put.
func (c *QueryCache) Generation() uint64 {
	return c.indexGen.Load()
}

func (c *QueryCache) Get(method, query string, topK int, minScore float64) ([]domain.ScoredDoc, bool) {
	key := cacheKey(method, query, topK, minScore)
	entry, ok := c.lru.Get(key)
	if !ok || entry.indexGen != c.indexGen.Load() {
		metrics.QueryCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.QueryCacheTotal.WithLabelValues("hit").Inc()
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(gen uint64, method, query string, topK int, minScore float64, results []domain.ScoredDoc) {
	if gen != c.indexGen.Load() {
		return
	}
	c.lru.Add(cacheKey(method, query, topK, minScore), cacheEntry{
		results:  cloneResults(results),
		indexGen: gen,
	})
}

func (c *QueryCache) Invalidate() {
	c.indexGen.Add(1)
	c.lru.Purge()
}

func (c *QueryCache) Size() int {
	return c.lru.Len()
}

func cloneResults(results []domain.ScoredDoc) []domain.ScoredDoc {
	if results == nil {
		return nil
	}
	out := make([]domain.ScoredDoc, len(results))
	copy(out, results)
	return out
}
