package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"cosim/config"
	"cosim/internal/adapter/analyzer"
	"cosim/internal/adapter/cache"
	"cosim/internal/adapter/fs"
	"cosim/internal/adapter/memstore"
	"cosim/internal/adapter/store"
	"cosim/internal/domain"
	"cosim/internal/logger"
	"cosim/internal/port"
	"cosim/internal/usecase"
)

func newTokenizer(cfg *config.Config) (*analyzer.Tokenizer, error) {
	if !cfg.Index.Stemming {
		return analyzer.NewTokenizer(nil), nil
	}
	stemmer, err := analyzer.NewStemmer(cfg.Index.StemCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create stemmer: %w", err)
	}
	return analyzer.NewTokenizer(stemmer), nil
}

// openIndex opens the persisted index under dir. A missing index is
// reported as domain.ErrNoIndex.
func openIndex(dir string) (*store.BoltStore, error) {
	dbPath := config.IndexDBPath(dir)
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w. Run 'cosim index' first", domain.ErrNoIndex)
	}
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return st, nil
}

// buildInMemoryIndex indexes dir into a fresh in-memory store without
// touching the persisted index.
func buildInMemoryIndex(ctx context.Context, dir string, cfg *config.Config, tokenizer port.Tokenizer) (port.IndexStore, error) {
	walker, err := fs.NewWalker(cfg.Index.Includes, cfg.Index.Excludes)
	if err != nil {
		return nil, err
	}
	st := memstore.NewMemoryStore()
	uc := usecase.NewIndexUseCase(st, walker, tokenizer, cfg.Index.Workers, logger.FromContext(ctx))
	if _, err := uc.Index(ctx, dir, nil); err != nil {
		return nil, fmt.Errorf("indexing failed: %w", err)
	}
	return st, nil
}

// newRetriever opens the persisted index (or builds one in memory) and
// wires the retrieve use case. The returned close func releases the store.
func newRetriever(ctx context.Context, inMemory bool) (*usecase.RetrieveUseCase, port.IndexStore, func(), error) {
	cfg := GetConfig()

	tokenizer, err := newTokenizer(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	var st port.IndexStore
	if inMemory {
		st, err = buildInMemoryIndex(ctx, GetRootDir(), cfg, tokenizer)
	} else {
		st, err = openIndex(GetRootDir())
	}
	if err != nil {
		return nil, nil, nil, err
	}

	var queryCache *cache.QueryCache
	if cfg.Score.CacheSize > 0 {
		queryCache = cache.NewQueryCache(cfg.Score.CacheSize, cfg.Score.CacheTTL)
	}

	uc := usecase.NewRetrieveUseCase(st, tokenizer, cfg.Score, queryCache, logger.FromContext(ctx))
	if err := uc.Reload(ctx); err != nil {
		st.Close()
		return nil, nil, nil, err
	}
	return uc, st, func() { st.Close() }, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
