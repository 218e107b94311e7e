package similarity

import (
	"sort"

	"cosim/internal/domain"
)

// Rank orders scores by descending score, breaking ties by document ID.
// Scores below minScore are dropped; k <= 0 keeps every result.
func Rank(scores domain.Scores, k int, minScore float64) []domain.ScoredDoc {
	results := make([]domain.ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		if minScore > 0 && score < minScore {
			continue
		}
		results = append(results, domain.ScoredDoc{DocID: docID, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results
}
