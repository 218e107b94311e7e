package similarity

import (
	"math"

	"cosim/internal/domain"
)

// TFSimilarity scores with raw term frequencies:
//
//	norm(d)  = sqrt(sum_t tf(d,t)^2)
//	score(d) = sum_t q_t * tf(d,t) / norm(d)
type TFSimilarity struct {
	postings *domain.Postings
	norms    map[string]float64
}

// NewTF computes the document norms of postings and returns a ready scorer.
func NewTF(postings *domain.Postings) *TFSimilarity {
	s := &TFSimilarity{postings: postings}
	s.setDocumentNorms()
	return s
}

func (s *TFSimilarity) setDocumentNorms() {
	s.norms = make(map[string]float64, s.postings.DocCount())
	s.postings.EachDocument(func(docID string, counts domain.TermCounts) {
		sum := 0.0
		for _, tf := range counts {
			f := float64(tf)
			sum += f * f
		}
		s.norms[docID] = math.Sqrt(sum)
	})
}

func (s *TFSimilarity) Score(query domain.Query) domain.Scores {
	return accumulate(s.postings, s.norms, query, unitWeight)
}

func (s *TFSimilarity) Method() string { return MethodTF }

// Norm returns the cached norm of a document.
func (s *TFSimilarity) Norm(docID string) (float64, bool) {
	n, ok := s.norms[docID]
	return n, ok
}

func unitWeight(string) float64 { return 1 }
