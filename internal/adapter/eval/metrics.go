// Package eval measures ranking quality against relevance judgments.
// Relevance is binary: a retrieved item is relevant when its identifier
// appears in the judgment's relevant list.
package eval

import "math"

func PrecisionAtK(retrieved, relevant []string) float64 {
	if len(retrieved) == 0 {
		return 0
	}
	return float64(hits(retrieved, toSet(relevant))) / float64(len(retrieved))
}

func RecallAtK(retrieved, relevant []string) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(hits(retrieved, toSet(relevant))) / float64(len(toSet(relevant)))
}

// ReciprocalRank is 1/rank of the first relevant item, 0 when none was retrieved.
func ReciprocalRank(retrieved, relevant []string) float64 {
	relevantSet := toSet(relevant)
	for i, r := range retrieved {
		if relevantSet[r] {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// AveragePrecision averages precision at each relevant hit over the number
// of relevant items, so unretrieved relevant items count as zero.
func AveragePrecision(retrieved, relevant []string) float64 {
	relevantSet := toSet(relevant)
	if len(relevantSet) == 0 {
		return 0
	}
	found, sum := 0, 0.0
	seen := make(map[string]bool)
	for i, r := range retrieved {
		if relevantSet[r] && !seen[r] {
			seen[r] = true
			found++
			sum += float64(found) / float64(i+1)
		}
	}
	return sum / float64(len(relevantSet))
}

// NDCG normalizes the discounted cumulative gain of scores by that of ideal.
func NDCG(scores, ideal []float64) float64 {
	dcg := calculateDCG(scores)
	idcg := calculateDCG(ideal)
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// BinaryNDCG computes NDCG with gain 1 for relevant items and an ideal
// ranking that places every relevant item first, cut at len(retrieved).
func BinaryNDCG(retrieved, relevant []string) float64 {
	relevantSet := toSet(relevant)
	gains := make([]float64, len(retrieved))
	for i, r := range retrieved {
		if relevantSet[r] {
			gains[i] = 1
		}
	}
	n := len(relevantSet)
	if n > len(retrieved) {
		n = len(retrieved)
	}
	ideal := make([]float64, n)
	for i := range ideal {
		ideal[i] = 1
	}
	return NDCG(gains, ideal)
}

func calculateDCG(scores []float64) float64 {
	dcg := 0.0
	for i, score := range scores {
		dcg += score / math.Log2(float64(i+2))
	}
	return dcg
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}

func hits(retrieved []string, relevantSet map[string]bool) int {
	n := 0
	for _, r := range retrieved {
		if relevantSet[r] {
			n++
		}
	}
	return n
}
