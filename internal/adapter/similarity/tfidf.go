package similarity

import (
	"math"

	"cosim/internal/domain"
)

// TFIDFSimilarity scores with idf-weighted term frequencies:
//
//	idf(t)   = log2(N / df(t)), 0 when df(t) = 0
//	norm(d)  = sqrt(sum_t (tf(d,t) * idf(t))^2)
//	score(d) = sum_t q_t * tf(d,t) * idf(t)^2 / norm(d)
//
// Query weights are not idf-weighted; idf appears squared on the document
// side only. The idf table depends on the corpus alone and is built once,
// together with the norms.
type TFIDFSimilarity struct {
	postings *domain.Postings
	norms    map[string]float64
	idf      map[string]float64
}

// NewTFIDF computes the idf table and document norms of postings.
func NewTFIDF(postings *domain.Postings) *TFIDFSimilarity {
	s := &TFIDFSimilarity{postings: postings}
	s.setDocumentNorms()
	return s
}

func (s *TFIDFSimilarity) setDocumentNorms() {
	s.idf = computeIDF(s.postings)
	s.norms = make(map[string]float64, s.postings.DocCount())
	s.postings.EachDocument(func(docID string, counts domain.TermCounts) {
		sum := 0.0
		for term, tf := range counts {
			w := float64(tf) * s.idf[term]
			sum += w * w
		}
		s.norms[docID] = math.Sqrt(sum)
	})
}

func (s *TFIDFSimilarity) Score(query domain.Query) domain.Scores {
	return accumulate(s.postings, s.norms, query, s.squaredIDF)
}

func (s *TFIDFSimilarity) Method() string { return MethodTFIDF }

// Norm returns the cached norm of a document.
func (s *TFIDFSimilarity) Norm(docID string) (float64, bool) {
	n, ok := s.norms[docID]
	return n, ok
}

// IDF returns the cached idf of term; 0 for terms outside the corpus.
func (s *TFIDFSimilarity) IDF(term string) float64 {
	return s.idf[term]
}

func (s *TFIDFSimilarity) squaredIDF(term string) float64 {
	idf := s.idf[term]
	return idf * idf
}

func computeIDF(postings *domain.Postings) map[string]float64 {
	n := postings.DocCount()
	idf := make(map[string]float64)
	if n == 0 {
		return idf
	}
	postings.EachTerm(func(term string, docs map[string]int) {
		if df := len(docs); df > 0 {
			idf[term] = InverseDocumentFrequency(n, df)
		}
	})
	return idf
}

// InverseDocumentFrequency returns log2(n/df), or 0 when either count is
// not positive.
func InverseDocumentFrequency(n, df int) float64 {
	if n <= 0 || df <= 0 {
		return 0
	}
	return math.Log2(float64(n) / float64(df))
}
