package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"cosim/internal/domain"
	"cosim/internal/port"
)

var (
	bucketDocs     = []byte("docs")
	bucketDocTerms = []byte("doc_terms")
	bucketTerms    = []byte("terms")
	bucketStats    = []byte("stats")
	keyStats       = []byte("corpus_stats")
)

// BoltStore persists both postings views in bbolt. The document view lives
// in doc_terms (docID -> term counts) and the term view in terms
// (term -> docID -> count); every write updates both in one transaction.
type BoltStore struct {
	db *bbolt.DB
}

var _ port.IndexStore = (*BoltStore)(nil)

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketDocs, bucketDocTerms, bucketTerms, bucketStats} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type docMeta struct {
	Path    string `json:"path"`
	ModTime int64  `json:"mod_time"`
	Length  int    `json:"length"`
}

func (s *BoltStore) PutDocument(doc domain.Document, counts domain.TermCounts) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := deleteDocument(tx, doc.ID); err != nil {
			return err
		}
		return putDocument(tx, doc, counts)
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = meta.toDocument(id)
		return nil
	})
	return doc, err
}

func (s *BoltStore) DeleteDocument(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteDocument(tx, id)
	})
}

func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, meta.toDocument(string(k)))
			return nil
		})
	})
	return docs, err
}

// BatchIndex writes many documents in a single transaction. Term view
// entries are merged per term so each term key is rewritten once.
func (s *BoltStore) BatchIndex(files []port.IndexedFile) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		docsBucket := tx.Bucket(bucketDocs)
		docTermsBucket := tx.Bucket(bucketDocTerms)

		pending := make(map[string]map[string]int)
		for _, file := range files {
			if err := deleteDocument(tx, file.Doc.ID); err != nil {
				return err
			}
			if err := putJSON(docsBucket, file.Doc.ID, newDocMeta(file.Doc)); err != nil {
				return err
			}
			counts := positive(file.Counts)
			if err := putJSON(docTermsBucket, file.Doc.ID, counts); err != nil {
				return err
			}
			for term, count := range counts {
				if pending[term] == nil {
					pending[term] = make(map[string]int)
				}
				pending[term][file.Doc.ID] = count
			}
		}

		termsBucket := tx.Bucket(bucketTerms)
		for term, docs := range pending {
			existing, err := getTermDocs(termsBucket, term)
			if err != nil {
				return err
			}
			for docID, count := range docs {
				existing[docID] = count
			}
			if err := putJSON(termsBucket, term, existing); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadPostings reads both views into a postings snapshot.
func (s *BoltStore) LoadPostings() (*domain.Postings, error) {
	docToTerms := make(map[string]domain.TermCounts)
	termToDocs := make(map[string]map[string]int)

	err := s.db.View(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketDocTerms).ForEach(func(k, v []byte) error {
			var counts domain.TermCounts
			if err := json.Unmarshal(v, &counts); err != nil {
				return fmt.Errorf("decode terms of %s: %w", k, err)
			}
			docToTerms[string(k)] = counts
			return nil
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTerms).ForEach(func(k, v []byte) error {
			var docs map[string]int
			if err := json.Unmarshal(v, &docs); err != nil {
				return fmt.Errorf("decode postings of %q: %w", k, err)
			}
			termToDocs[string(k)] = docs
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return domain.PostingsFromViews(docToTerms, termToDocs), nil
}

func (s *BoltStore) GetStats() (domain.Stats, error) {
	var stats domain.Stats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketStats).Get(keyStats)
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &stats)
	})
	return stats, err
}

func (s *BoltStore) UpdateStats(stats domain.Stats) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putJSON(tx.Bucket(bucketStats), string(keyStats), stats)
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func putDocument(tx *bbolt.Tx, doc domain.Document, counts domain.TermCounts) error {
	counts = positive(counts)
	if err := putJSON(tx.Bucket(bucketDocs), doc.ID, newDocMeta(doc)); err != nil {
		return err
	}
	if err := putJSON(tx.Bucket(bucketDocTerms), doc.ID, counts); err != nil {
		return err
	}

	terms := tx.Bucket(bucketTerms)
	for term, count := range counts {
		docs, err := getTermDocs(terms, term)
		if err != nil {
			return err
		}
		docs[doc.ID] = count
		if err := putJSON(terms, term, docs); err != nil {
			return err
		}
	}
	return nil
}

// deleteDocument removes a document from both views. Missing documents are
// not an error.
func deleteDocument(tx *bbolt.Tx, id string) error {
	docTerms := tx.Bucket(bucketDocTerms)
	data := docTerms.Get([]byte(id))
	if data != nil {
		var counts domain.TermCounts
		if err := json.Unmarshal(data, &counts); err != nil {
			return fmt.Errorf("decode terms of %s: %w", id, err)
		}
		terms := tx.Bucket(bucketTerms)
		for term := range counts {
			docs, err := getTermDocs(terms, term)
			if err != nil {
				return err
			}
			delete(docs, id)
			if len(docs) == 0 {
				if err := terms.Delete([]byte(term)); err != nil {
					return err
				}
				continue
			}
			if err := putJSON(terms, term, docs); err != nil {
				return err
			}
		}
		if err := docTerms.Delete([]byte(id)); err != nil {
			return err
		}
	}
	return tx.Bucket(bucketDocs).Delete([]byte(id))
}

func getTermDocs(b *bbolt.Bucket, term string) (map[string]int, error) {
	docs := make(map[string]int)
	data := b.Get([]byte(term))
	if data == nil {
		return docs, nil
	}
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode postings of %q: %w", term, err)
	}
	return docs, nil
}

func putJSON(b *bbolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func positive(counts domain.TermCounts) domain.TermCounts {
	out := make(domain.TermCounts, len(counts))
	for term, count := range counts {
		if count > 0 {
			out[term] = count
		}
	}
	return out
}

func newDocMeta(doc domain.Document) docMeta {
	return docMeta{
		Path:    doc.Path,
		ModTime: doc.ModTime.Unix(),
		Length:  doc.Length,
	}
}

func (m docMeta) toDocument(id string) domain.Document {
	return domain.Document{
		ID:      id,
		Path:    m.Path,
		ModTime: time.Unix(m.ModTime, 0),
		Length:  m.Length,
	}
}
