package port

import "cosim/internal/domain"

// Scorer computes the similarity of every document to a query.
// Implementations precompute their per-document state at construction and
// must be safe for concurrent Score calls.
type Scorer interface {
	Score(query domain.Query) domain.Scores

	// Method returns the scoring policy name ("tf", "tfidf").
	Method() string
}
