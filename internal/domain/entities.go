package domain

import (
	"fmt"
	"math"
	"time"
)

// Document is an indexed file.
type Document struct {
	ID      string
	Path    string
	ModTime time.Time
	Length  int // number of tokens after preprocessing
}

// TermCounts is a sparse term-frequency vector for one document.
// Terms with a zero count are never stored.
type TermCounts map[string]int

// Query is a sparse term-weight vector. Weights are usually raw counts from
// the query text but any non-negative value is accepted.
type Query map[string]float64

// Validate reports negative or non-finite weights.
func (q Query) Validate() error {
	for term, w := range q {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %v for term %q", ErrInvalidQuery, w, term)
		}
	}
	return nil
}

// Scores maps a document ID to its accumulated similarity score. Documents
// that share no term with the query are absent.
type Scores map[string]float64

type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Path  string  `json:"path,omitempty"`
	Score float64 `json:"score"`
}

type Stats struct {
	TotalDocs  int     `json:"total_docs"`
	TotalTerms int     `json:"total_terms"`
	AvgDocLen  float64 `json:"avg_doc_len"`
}
