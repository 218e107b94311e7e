package analyzer

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kljensen/snowball/english"

	"cosim/internal/metrics"
)

// DefaultStemCacheSize bounds the stem memo when no size is configured.
const DefaultStemCacheSize = 10000

// Stemmer reduces words to their English Snowball stem. Stemming dominates
// preprocessing cost, so results are memoized in a fixed-size LRU cache
// keyed by the raw token. Safe for concurrent use.
type Stemmer struct {
	cache *lru.Cache[string, string]
}

// NewStemmer creates a stemmer whose memo holds up to cacheSize entries.
func NewStemmer(cacheSize int) (*Stemmer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultStemCacheSize
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create stem cache: %w", err)
	}
	return &Stemmer{cache: cache}, nil
}

// Stem returns the stem of a lower-cased word.
func (s *Stemmer) Stem(word string) string {
	if stem, ok := s.cache.Get(word); ok {
		metrics.StemCacheTotal.WithLabelValues("hit").Inc()
		return stem
	}
	metrics.StemCacheTotal.WithLabelValues("miss").Inc()

	stem := english.Stem(word, false)
	s.cache.Add(word, stem)
	return stem
}

// Cached returns the number of memoized stems.
func (s *Stemmer) Cached() int {
	return s.cache.Len()
}
