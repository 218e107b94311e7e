package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"cosim/config"
	"cosim/internal/adapter/analyzer"
	"cosim/internal/adapter/cache"
	"cosim/internal/adapter/similarity"
	"cosim/internal/domain"
	"cosim/internal/port"
)

// RetrieveOptions overrides the configured ranking settings for one call.
// Zero values fall back to the configuration.
type RetrieveOptions struct {
	Method   string
	TopK     int
	MinScore float64
}

// TermWeight describes one vocabulary entry of the loaded snapshot.
type TermWeight struct {
	Term    string  `json:"term"`
	DocFreq int     `json:"doc_freq"`
	IDF     float64 `json:"idf"`
}

// RetrieveUseCase scores text queries against a postings snapshot loaded
// from the store. Scorers are built lazily per method and shared by all
// queries until Reload replaces the snapshot.
type RetrieveUseCase struct {
	store     port.IndexStore
	tokenizer port.Tokenizer
	cache     *cache.QueryCache
	cfg       config.ScoreConfig
	logger    *zap.Logger

	mu       sync.RWMutex
	postings *domain.Postings
	scorers  map[string]port.Scorer
	group    singleflight.Group
}

// NewRetrieveUseCase creates a new retrieve use case. queryCache may be nil.
func NewRetrieveUseCase(
	store port.IndexStore,
	tokenizer port.Tokenizer,
	cfg config.ScoreConfig,
	queryCache *cache.QueryCache,
	logger *zap.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrieveUseCase{
		store:     store,
		tokenizer: tokenizer,
		cache:     queryCache,
		cfg:       cfg,
		logger:    logger,
		scorers:   make(map[string]port.Scorer),
	}
}

// Reload takes a fresh postings snapshot from the store, drops the scorers
// built for the previous one and invalidates cached results.
func (u *RetrieveUseCase) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	postings, err := u.store.LoadPostings()
	if err != nil {
		return fmt.Errorf("failed to load postings: %w", err)
	}
	if err := postings.Validate(); err != nil {
		return err
	}

	u.mu.Lock()
	u.postings = postings
	u.scorers = make(map[string]port.Scorer)
	u.mu.Unlock()

	if u.cache != nil {
		u.cache.Invalidate()
	}
	u.logger.Debug("postings loaded",
		zap.Int("docs", postings.DocCount()),
		zap.Int("terms", len(postings.Terms())),
	)
	return nil
}

func (u *RetrieveUseCase) snapshot(ctx context.Context) (*domain.Postings, error) {
	u.mu.RLock()
	postings := u.postings
	u.mu.RUnlock()
	if postings != nil {
		return postings, nil
	}
	if err := u.Reload(ctx); err != nil {
		return nil, err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.postings, nil
}

// scorer returns the scorer for method over the current snapshot. Concurrent
// first calls for the same method and snapshot share one construction.
func (u *RetrieveUseCase) scorer(ctx context.Context, method string) (port.Scorer, error) {
	postings, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	u.mu.RLock()
	s, ok := u.scorers[method]
	current := u.postings
	u.mu.RUnlock()
	if ok && current == postings {
		return s, nil
	}

	key := fmt.Sprintf("%s@%p", method, postings)
	v, err, _ := u.group.Do(key, func() (any, error) {
		inner, err := similarity.New(method, postings)
		if err != nil {
			return nil, err
		}
		s := similarity.NewInstrumented(inner, u.logger)

		u.mu.Lock()
		defer u.mu.Unlock()
		if u.postings == postings {
			u.scorers[method] = s
		}
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(port.Scorer), nil
}

// QueryFromText turns query text into a term-weight vector using the same
// preprocessing as indexing.
func (u *RetrieveUseCase) QueryFromText(text string) domain.Query {
	counts := analyzer.TermFrequencies(u.tokenizer.Tokenize(text))
	q := make(domain.Query, len(counts))
	for term, n := range counts {
		q[term] = float64(n)
	}
	return q
}

// ScoreQuery scores a prepared query with the given method and returns the
// raw, unranked scores.
func (u *RetrieveUseCase) ScoreQuery(ctx context.Context, method string, q domain.Query) (domain.Scores, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	s, err := u.scorer(ctx, method)
	if err != nil {
		return nil, err
	}
	return s.Score(q), nil
}

// Retrieve ranks documents for query text.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, text string, opts RetrieveOptions) ([]domain.ScoredDoc, error) {
	opts = u.withDefaults(opts)

	// Load before reading the generation: a lazy load invalidates the cache.
	if _, err := u.snapshot(ctx); err != nil {
		return nil, err
	}

	var gen uint64
	if u.cache != nil {
		gen = u.cache.Generation()
		if results, ok := u.cache.Get(opts.Method, text, opts.TopK, opts.MinScore); ok {
			return results, nil
		}
	}

	scores, err := u.ScoreQuery(ctx, opts.Method, u.QueryFromText(text))
	if err != nil {
		return nil, err
	}

	ranked := similarity.Rank(scores, opts.TopK, opts.MinScore)
	results := ranked[:0]
	for _, r := range ranked {
		doc, err := u.store.GetDoc(r.DocID)
		if err != nil {
			if errors.Is(err, domain.ErrDocumentNotFound) {
				u.logger.Warn("scored document missing from store", zap.String("doc_id", r.DocID))
				continue
			}
			return nil, fmt.Errorf("failed to resolve document: %w", err)
		}
		r.Path = doc.Path
		results = append(results, r)
	}

	if u.cache != nil {
		u.cache.Put(gen, opts.Method, text, opts.TopK, opts.MinScore, results)
	}
	return results, nil
}

// Search ranks with the configured method and threshold.
func (u *RetrieveUseCase) Search(ctx context.Context, text string, k int) ([]domain.ScoredDoc, error) {
	return u.Retrieve(ctx, text, RetrieveOptions{TopK: k})
}

// TopTerms returns up to n vocabulary terms ordered by idf descending, then
// term ascending. n <= 0 returns all terms.
func (u *RetrieveUseCase) TopTerms(ctx context.Context, n int) ([]TermWeight, error) {
	postings, err := u.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	total := postings.DocCount()
	terms := postings.Terms()
	weights := make([]TermWeight, 0, len(terms))
	for _, term := range terms {
		df := postings.DocumentFrequency(term)
		weights = append(weights, TermWeight{
			Term:    term,
			DocFreq: df,
			IDF:     similarity.InverseDocumentFrequency(total, df),
		})
	}
	sort.SliceStable(weights, func(i, j int) bool {
		return weights[i].IDF > weights[j].IDF
	})
	if n > 0 && n < len(weights) {
		weights = weights[:n]
	}
	return weights, nil
}

func (u *RetrieveUseCase) withDefaults(opts RetrieveOptions) RetrieveOptions {
	if opts.Method == "" {
		opts.Method = u.cfg.Method
	}
	if opts.TopK <= 0 {
		opts.TopK = u.cfg.TopK
	}
	if opts.MinScore <= 0 {
		opts.MinScore = u.cfg.MinScore
	}
	return opts
}
