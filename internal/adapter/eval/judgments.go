package eval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"cosim/internal/domain"
)

// Judgment lists the documents relevant to one query.
type Judgment struct {
	Query    string   `yaml:"query"`
	Relevant []string `yaml:"relevant"`
}

type judgmentFile struct {
	Judgments []Judgment `yaml:"judgments"`
}

// LoadJudgments reads a YAML judgments file. Relative paths in relevant
// lists are resolved against baseDir so they compare equal to indexed paths.
func LoadJudgments(path, baseDir string) ([]Judgment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read judgments: %w", err)
	}

	var file judgmentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse judgments: %w", err)
	}

	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, err
	}

	for i, j := range file.Judgments {
		if j.Query == "" {
			return nil, fmt.Errorf("judgment %d: empty query", i)
		}
		for k, rel := range j.Relevant {
			if !filepath.IsAbs(rel) {
				rel = filepath.Join(base, filepath.FromSlash(rel))
			}
			file.Judgments[i].Relevant[k] = filepath.Clean(rel)
		}
	}
	return file.Judgments, nil
}

// Searcher runs a ranked text query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.ScoredDoc, error)
}

type Metrics struct {
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	ReciprocalRank   float64 `json:"reciprocal_rank"`
	AveragePrecision float64 `json:"average_precision"`
	NDCG             float64 `json:"ndcg"`
}

type QueryReport struct {
	Query     string   `json:"query"`
	Retrieved []string `json:"retrieved"`
	Metrics
}

type Report struct {
	K       int           `json:"k"`
	Queries []QueryReport `json:"queries"`
	Mean    Metrics       `json:"mean"`
}

// Evaluate runs every judged query through s and scores the top k paths.
func Evaluate(ctx context.Context, s Searcher, judgments []Judgment, k int) (*Report, error) {
	report := &Report{K: k, Queries: make([]QueryReport, 0, len(judgments))}

	for _, j := range judgments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results, err := s.Search(ctx, j.Query, k)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", j.Query, err)
		}
		retrieved := make([]string, len(results))
		for i, r := range results {
			retrieved[i] = r.Path
		}

		qr := QueryReport{
			Query:     j.Query,
			Retrieved: retrieved,
			Metrics: Metrics{
				Precision:        PrecisionAtK(retrieved, j.Relevant),
				Recall:           RecallAtK(retrieved, j.Relevant),
				ReciprocalRank:   ReciprocalRank(retrieved, j.Relevant),
				AveragePrecision: AveragePrecision(retrieved, j.Relevant),
				NDCG:             BinaryNDCG(retrieved, j.Relevant),
			},
		}
		report.Queries = append(report.Queries, qr)

		report.Mean.Precision += qr.Precision
		report.Mean.Recall += qr.Recall
		report.Mean.ReciprocalRank += qr.ReciprocalRank
		report.Mean.AveragePrecision += qr.AveragePrecision
		report.Mean.NDCG += qr.NDCG
	}

	if n := float64(len(report.Queries)); n > 0 {
		report.Mean.Precision /= n
		report.Mean.Recall /= n
		report.Mean.ReciprocalRank /= n
		report.Mean.AveragePrecision /= n
		report.Mean.NDCG /= n
	}
	return report, nil
}
