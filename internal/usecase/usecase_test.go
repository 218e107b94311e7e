package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"cosim/config"
	"cosim/internal/adapter/analyzer"
	"cosim/internal/adapter/cache"
	"cosim/internal/adapter/fs"
	"cosim/internal/adapter/memstore"
	"cosim/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newIndexer(t *testing.T, st *memstore.MemoryStore) *IndexUseCase {
	t.Helper()
	walker, err := fs.NewWalker(nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewIndexUseCase(st, walker, analyzer.NewTokenizer(nil), 2, nil)
}

func petDir(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "cats.txt", "cat cat dog")
	writeFile(t, dir, "dogs.txt", "dog fish")
	writeFile(t, dir, "birds.md", "bird bird bird")
	writeFile(t, dir, "ignored.go", "cat")
	return dir
}

func TestIndex_Incremental(t *testing.T) {
	ctx := context.Background()
	dir := petDir(t)
	st := memstore.NewMemoryStore()
	uc := newIndexer(t, st)

	calls := 0
	res, err := uc.Index(ctx, dir, func(done, total int, path string) {
		calls++
		if done > total {
			t.Errorf("progress %d/%d", done, total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesIndexed != 3 || calls != 3 {
		t.Errorf("expected 3 files indexed with 3 progress calls, got %d and %d", res.FilesIndexed, calls)
	}
	if res.Stats.TotalDocs != 3 || res.Stats.TotalTerms != 4 {
		t.Errorf("unexpected stats %+v", res.Stats)
	}
	if res.Stats.AvgDocLen != 8.0/3.0 {
		t.Errorf("expected avg doc len 8/3, got %v", res.Stats.AvgDocLen)
	}

	res, err = uc.Index(ctx, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesSkipped != 3 || res.FilesIndexed != 0 {
		t.Errorf("second run should skip everything, got %+v", res)
	}

	cats := writeFile(t, dir, "cats.txt", "bird")
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(cats, future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(filepath.Join(dir, "dogs.txt")); err != nil {
		t.Fatal(err)
	}

	res, err = uc.Index(ctx, dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.FilesIndexed != 1 || res.FilesSkipped != 1 || res.FilesDeleted != 1 {
		t.Errorf("unexpected result %+v", res)
	}

	p, _ := st.LoadPostings()
	if p.DocumentFrequency("cat") != 0 || p.DocumentFrequency("dog") != 0 {
		t.Errorf("stale postings remain: cat=%v dog=%v", p.TermDocs("cat"), p.TermDocs("dog"))
	}
	if p.DocumentFrequency("bird") != 2 {
		t.Errorf("expected df(bird)=2, got %d", p.DocumentFrequency("bird"))
	}
	if err := p.Validate(); err != nil {
		t.Error(err)
	}
}

func TestIndex_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := newIndexer(t, memstore.NewMemoryStore())
	if _, err := uc.Index(ctx, petDir(t), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func newRetriever(t *testing.T, qc *cache.QueryCache) (*RetrieveUseCase, string) {
	t.Helper()
	dir := petDir(t)
	st := memstore.NewMemoryStore()
	if _, err := newIndexer(t, st).Index(context.Background(), dir, nil); err != nil {
		t.Fatal(err)
	}
	return NewRetrieveUseCase(st, analyzer.NewTokenizer(nil), config.DefaultConfig().Score, qc, nil), dir
}

func TestRetrieve_RanksAndResolvesPaths(t *testing.T) {
	uc, dir := newRetriever(t, nil)
	ctx := context.Background()

	for _, method := range []string{"tf", "tfidf"} {
		results, err := uc.Retrieve(ctx, "cat", RetrieveOptions{Method: method})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].Path != filepath.Join(dir, "cats.txt") {
			t.Errorf("%s: unexpected results %+v", method, results)
		}
	}

	results, err := uc.Retrieve(ctx, "dog", RetrieveOptions{Method: "tf"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Path != filepath.Join(dir, "dogs.txt") {
		t.Errorf("expected dogs.txt first, got %+v", results)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by score")
	}

	results, _ = uc.Retrieve(ctx, "dog", RetrieveOptions{Method: "tf", TopK: 1})
	if len(results) != 1 {
		t.Errorf("expected top-1, got %d", len(results))
	}

	results, _ = uc.Retrieve(ctx, "unicorn", RetrieveOptions{})
	if len(results) != 0 {
		t.Errorf("unknown term should match nothing, got %+v", results)
	}
}

func TestRetrieve_UnknownMethod(t *testing.T) {
	uc, _ := newRetriever(t, nil)
	_, err := uc.Retrieve(context.Background(), "cat", RetrieveOptions{Method: "bm25"})
	if !errors.Is(err, domain.ErrUnknownMethod) {
		t.Errorf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestRetrieve_InvalidQuery(t *testing.T) {
	uc, _ := newRetriever(t, nil)
	_, err := uc.ScoreQuery(context.Background(), "tf", domain.Query{"cat": -1})
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRetrieve_CacheInvalidatedOnReload(t *testing.T) {
	qc := cache.NewQueryCache(10, time.Minute)
	uc, _ := newRetriever(t, qc)
	ctx := context.Background()

	if _, err := uc.Retrieve(ctx, "cat", RetrieveOptions{}); err != nil {
		t.Fatal(err)
	}
	if qc.Size() != 1 {
		t.Fatalf("expected cached result, size=%d", qc.Size())
	}
	if err := uc.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	if qc.Size() != 0 {
		t.Errorf("reload must invalidate cache, size=%d", qc.Size())
	}
}

func TestRetrieve_FirstQueryIsCached(t *testing.T) {
	qc := cache.NewQueryCache(10, time.Minute)
	uc, _ := newRetriever(t, qc)
	ctx := context.Background()

	if _, err := uc.Retrieve(ctx, "cat", RetrieveOptions{}); err != nil {
		t.Fatal(err)
	}
	if qc.Size() != 1 {
		t.Fatalf("first query after lazy load should be cached, size=%d", qc.Size())
	}
	gen := qc.Generation()
	if _, err := uc.Retrieve(ctx, "cat", RetrieveOptions{}); err != nil {
		t.Fatal(err)
	}
	if qc.Size() != 1 || qc.Generation() != gen {
		t.Errorf("repeat query should hit the cache, size=%d gen=%d->%d", qc.Size(), gen, qc.Generation())
	}
}

// lossyStore forgets the metadata of one document while keeping its postings.
type lossyStore struct {
	*memstore.MemoryStore
	missing string
}

func (s lossyStore) GetDoc(id string) (domain.Document, error) {
	if id == s.missing {
		return domain.Document{}, domain.ErrDocumentNotFound
	}
	return s.MemoryStore.GetDoc(id)
}

func TestRetrieve_DropsDocumentsMissingFromStore(t *testing.T) {
	st := memstore.NewMemoryStore()
	st.PutDocument(domain.Document{ID: "doc1", Path: "a.txt"}, domain.TermCounts{"dog": 1})
	st.PutDocument(domain.Document{ID: "doc2", Path: "b.txt"}, domain.TermCounts{"dog": 2, "fish": 1})

	qc := cache.NewQueryCache(10, time.Minute)
	uc := NewRetrieveUseCase(lossyStore{MemoryStore: st, missing: "doc2"},
		analyzer.NewTokenizer(nil), config.DefaultConfig().Score, qc, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		results, err := uc.Retrieve(ctx, "dog", RetrieveOptions{Method: "tf"})
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != 1 || results[0].DocID != "doc1" || results[0].Path != "a.txt" {
			t.Errorf("run %d: expected only doc1, got %+v", i, results)
		}
	}
}

func TestRetrieve_ConcurrentQueries(t *testing.T) {
	uc, _ := newRetriever(t, cache.NewQueryCache(10, time.Minute))
	ctx := context.Background()

	want, err := uc.Retrieve(ctx, "dog fish", RetrieveOptions{Method: "tfidf"})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := uc.Retrieve(ctx, "dog fish", RetrieveOptions{Method: "tfidf"})
			if err != nil {
				t.Error(err)
				return
			}
			if len(got) != len(want) || got[0] != want[0] {
				t.Errorf("concurrent result differs: %+v vs %+v", got, want)
			}
		}()
	}
	wg.Wait()
}

func TestTopTerms(t *testing.T) {
	uc, _ := newRetriever(t, nil)
	terms, err := uc.TopTerms(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(terms) != 4 {
		t.Fatalf("expected 4 terms, got %+v", terms)
	}
	if terms[len(terms)-1].Term != "dog" || terms[len(terms)-1].DocFreq != 2 {
		t.Errorf("expected dog (df=2) last, got %+v", terms[len(terms)-1])
	}
	if terms[0].Term != "bird" {
		t.Errorf("expected ties broken alphabetically, got %+v", terms[0])
	}

	top, _ := uc.TopTerms(context.Background(), 2)
	if len(top) != 2 {
		t.Errorf("expected 2 terms, got %d", len(top))
	}
}
