package port

import "cosim/internal/domain"

type IndexStore interface {
	PutDocument(doc domain.Document, counts domain.TermCounts) error

	GetDoc(id string) (domain.Document, error)

	DeleteDocument(id string) error

	ListDocs() ([]domain.Document, error)

	BatchIndex(files []IndexedFile) error

	LoadPostings() (*domain.Postings, error)

	GetStats() (domain.Stats, error)

	UpdateStats(stats domain.Stats) error

	Close() error
}

// IndexedFile is one preprocessed document ready to be stored.
type IndexedFile struct {
	Doc    domain.Document
	Counts domain.TermCounts
}
