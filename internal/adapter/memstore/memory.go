package memstore

import (
	"fmt"
	"sync"

	"cosim/internal/domain"
	"cosim/internal/port"
)

// MemoryStore is an in-process port.IndexStore. Postings are kept in a
// domain.Postings value so both views stay aligned on every write.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	postings *domain.Postings
	stats    domain.Stats
}

var _ port.IndexStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     make(map[string]domain.Document),
		postings: domain.NewPostings(),
	}
}

func (s *MemoryStore) PutDocument(doc domain.Document, counts domain.TermCounts) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = doc
	s.postings.AddDocument(doc.ID, counts)
	return nil
}

func (s *MemoryStore) GetDoc(id string) (domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, id)
	}
	return doc, nil
}

func (s *MemoryStore) DeleteDocument(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, id)
	s.postings.RemoveDocument(id)
	return nil
}

func (s *MemoryStore) ListDocs() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *MemoryStore) BatchIndex(files []port.IndexedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, file := range files {
		s.docs[file.Doc.ID] = file.Doc
		s.postings.AddDocument(file.Doc.ID, file.Counts)
	}
	return nil
}

// LoadPostings returns a copy so later writes never touch a snapshot that a
// scorer is reading.
func (s *MemoryStore) LoadPostings() (*domain.Postings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := domain.NewPostings()
	s.postings.EachDocument(func(docID string, counts domain.TermCounts) {
		snapshot.AddDocument(docID, counts)
	})
	return snapshot, nil
}

func (s *MemoryStore) GetStats() (domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats, nil
}

func (s *MemoryStore) UpdateStats(stats domain.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
