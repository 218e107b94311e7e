// Package similarity implements cosine similarity between a query and the
// documents of a postings snapshot. Two policies are provided: raw
// term-frequency weighting (TF) and idf-weighted term frequencies (TF-IDF).
//
// Both policies divide by the document norm only; the query norm is omitted
// because it is constant for a given query and does not change the ranking.
// Per-document norms (and for TF-IDF the idf table) are computed once at
// construction and never change afterwards, so one scorer can serve any
// number of concurrent Score calls. If the postings change after
// construction the cached statistics are stale; build a new scorer.
package similarity

import (
	"fmt"

	"cosim/internal/domain"
	"cosim/internal/port"
)

const (
	MethodTF    = "tf"
	MethodTFIDF = "tfidf"
)

// Methods lists the supported scoring policies.
var Methods = []string{MethodTF, MethodTFIDF}

// New builds the scorer for method over postings.
func New(method string, postings *domain.Postings) (port.Scorer, error) {
	switch method {
	case MethodTF:
		return NewTF(postings), nil
	case MethodTFIDF:
		return NewTFIDF(postings), nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}
}

// accumulate adds q_t * tf(d,t) * termWeight(t) / norm(d) to the score of
// every document d containing a query term t. Documents with a zero norm
// contribute nothing.
func accumulate(
	postings *domain.Postings,
	norms map[string]float64,
	query domain.Query,
	termWeight func(term string) float64,
) domain.Scores {
	scores := make(domain.Scores)
	for term, queryTF := range query {
		docs := postings.TermDocs(term)
		if len(docs) == 0 {
			continue
		}
		weight := termWeight(term)
		for docID, docTF := range docs {
			norm := norms[docID]
			if norm == 0 {
				continue
			}
			scores[docID] += queryTF * float64(docTF) * weight / norm
		}
	}
	return scores
}
