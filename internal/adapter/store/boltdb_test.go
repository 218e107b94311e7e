package store

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"cosim/config"
	"cosim/internal/domain"
	"cosim/internal/port"
)

func openStore(t *testing.T) *BoltStore {
	t.Helper()
	st, err := NewBoltStore(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func doc(id string) domain.Document {
	return domain.Document{ID: id, Path: "/corpus/" + id + ".txt", ModTime: time.Unix(1700000000, 0), Length: 3}
}

func TestBoltStore_PutDocumentWritesBothViews(t *testing.T) {
	st := openStore(t)

	if err := st.PutDocument(doc("doc1"), domain.TermCounts{"cat": 2, "dog": 1}); err != nil {
		t.Fatal(err)
	}
	if err := st.PutDocument(doc("doc2"), domain.TermCounts{"dog": 3, "none": 0}); err != nil {
		t.Fatal(err)
	}

	p, err := st.LoadPostings()
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("loaded postings inconsistent: %v", err)
	}
	if p.DocCount() != 2 {
		t.Errorf("expected 2 docs, got %d", p.DocCount())
	}
	if p.TermDocs("dog")["doc2"] != 3 || p.DocTerms("doc1")["cat"] != 2 {
		t.Errorf("unexpected counts: dog=%v doc1=%v", p.TermDocs("dog"), p.DocTerms("doc1"))
	}
	if p.DocumentFrequency("none") != 0 {
		t.Error("zero counts must not be persisted")
	}

	got, err := st.GetDoc("doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Path != "/corpus/doc1.txt" || got.Length != 3 || !got.ModTime.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("unexpected document %+v", got)
	}
}

func TestBoltStore_ReplaceDocument(t *testing.T) {
	st := openStore(t)

	st.PutDocument(doc("doc1"), domain.TermCounts{"cat": 2})
	st.PutDocument(doc("doc1"), domain.TermCounts{"bird": 1})

	p, err := st.LoadPostings()
	if err != nil {
		t.Fatal(err)
	}
	if p.DocumentFrequency("cat") != 0 {
		t.Error("old term survived replacement")
	}
	if p.TermDocs("bird")["doc1"] != 1 {
		t.Error("replacement term missing")
	}
	if err := p.Validate(); err != nil {
		t.Error(err)
	}
}

func TestBoltStore_DeleteDocument(t *testing.T) {
	st := openStore(t)

	st.PutDocument(doc("doc1"), domain.TermCounts{"cat": 2, "dog": 1})
	st.PutDocument(doc("doc2"), domain.TermCounts{"dog": 3})

	if err := st.DeleteDocument("doc1"); err != nil {
		t.Fatal(err)
	}
	if err := st.DeleteDocument("missing"); err != nil {
		t.Errorf("deleting a missing document must not fail: %v", err)
	}

	if _, err := st.GetDoc("doc1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound, got %v", err)
	}
	p, _ := st.LoadPostings()
	if p.DocumentFrequency("cat") != 0 || p.DocumentFrequency("dog") != 1 {
		t.Errorf("unexpected postings after delete: cat=%v dog=%v", p.TermDocs("cat"), p.TermDocs("dog"))
	}
	if err := p.Validate(); err != nil {
		t.Error(err)
	}
}

func TestBoltStore_BatchIndex(t *testing.T) {
	st := openStore(t)
	st.PutDocument(doc("old"), domain.TermCounts{"dog": 1})

	files := []port.IndexedFile{
		{Doc: doc("doc1"), Counts: domain.TermCounts{"cat": 2, "dog": 1}},
		{Doc: doc("doc2"), Counts: domain.TermCounts{"dog": 3}},
	}
	if err := st.BatchIndex(files); err != nil {
		t.Fatal(err)
	}

	p, _ := st.LoadPostings()
	if df := p.DocumentFrequency("dog"); df != 3 {
		t.Errorf("expected df(dog)=3 after merge, got %d", df)
	}
	if err := p.Validate(); err != nil {
		t.Error(err)
	}

	docs, err := st.ListDocs()
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 3 {
		t.Errorf("expected 3 docs, got %d", len(docs))
	}
}

func TestBoltStore_Stats(t *testing.T) {
	st := openStore(t)

	stats, err := st.GetStats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalDocs != 0 {
		t.Errorf("expected empty stats, got %+v", stats)
	}

	want := domain.Stats{TotalDocs: 2, TotalTerms: 5, AvgDocLen: 4.5}
	if err := st.UpdateStats(want); err != nil {
		t.Fatal(err)
	}
	got, _ := st.GetStats()
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestBoltStore_EmptyIndexLoadsEmptyPostings(t *testing.T) {
	st := openStore(t)
	p, err := st.LoadPostings()
	if err != nil {
		t.Fatal(err)
	}
	if p.DocCount() != 0 {
		t.Errorf("expected empty postings, got %d docs", p.DocCount())
	}
}

func TestMigration_FreshAndConfigChange(t *testing.T) {
	st := openStore(t)
	cfg := config.DefaultConfig()

	res, err := st.CheckMigration(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.NeedsMigration || res.NeedsRebuild {
		t.Errorf("fresh store: expected migration only, got %+v", res)
	}
	if err := st.Migrate(cfg); err != nil {
		t.Fatal(err)
	}

	res, _ = st.CheckMigration(cfg)
	if res.NeedsMigration || res.NeedsRebuild {
		t.Errorf("migrated store: expected no action, got %+v", res)
	}

	changed := config.DefaultConfig()
	changed.Index.Stemming = false
	res, _ = st.CheckMigration(changed)
	if !res.NeedsRebuild {
		t.Errorf("stemming change must force a rebuild, got %+v", res)
	}

	method := config.DefaultConfig()
	method.Score.Method = "tf"
	res, _ = st.CheckMigration(method)
	if res.NeedsRebuild {
		t.Error("scoring method must not force a rebuild")
	}
}

func TestMigration_V1RebuildsDocumentView(t *testing.T) {
	st := openStore(t)
	err := st.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketDocTerms); err != nil {
			return err
		}
		terms := tx.Bucket(bucketTerms)
		data, _ := json.Marshal(map[string]int{"doc1": 2, "doc2": 1})
		if err := terms.Put([]byte("cat"), data); err != nil {
			return err
		}
		version, _ := json.Marshal(1)
		return tx.Bucket(bucketStats).Put(keySchemaVersion, version)
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := st.Migrate(config.DefaultConfig()); err != nil {
		t.Fatal(err)
	}

	p, err := st.LoadPostings()
	if err != nil {
		t.Fatal(err)
	}
	if p.DocTerms("doc1")["cat"] != 2 || p.DocTerms("doc2")["cat"] != 1 {
		t.Errorf("document view not rebuilt: %v %v", p.DocTerms("doc1"), p.DocTerms("doc2"))
	}
	info, _ := st.GetSchemaInfo()
	if info.Version != CurrentSchemaVersion {
		t.Errorf("expected version %d, got %d", CurrentSchemaVersion, info.Version)
	}
}

func TestClear(t *testing.T) {
	st := openStore(t)
	cfg := config.DefaultConfig()
	st.Migrate(cfg)
	st.PutDocument(doc("doc1"), domain.TermCounts{"cat": 1})
	st.UpdateStats(domain.Stats{TotalDocs: 1})

	if err := st.Clear(); err != nil {
		t.Fatal(err)
	}

	p, _ := st.LoadPostings()
	if p.DocCount() != 0 || len(p.Terms()) != 0 {
		t.Error("expected empty index after clear")
	}
	info, _ := st.GetSchemaInfo()
	if info.Version != CurrentSchemaVersion || info.ConfigHash == "" {
		t.Errorf("schema info must survive clear, got %+v", info)
	}
}
