package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cosim/internal/adapter/eval"
	"cosim/internal/logger"
)

var (
	evalJudgments string
	evalMethod    string
	evalTopK      int
	evalJSON      bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Evaluate ranking quality against relevance judgments",
	Long: `Run every judged query against the index and report precision, recall,
reciprocal rank, average precision and NDCG at k.

The judgments file is YAML; relative paths resolve against the root directory:

  judgments:
    - query: cat food
      relevant: [pets/cats.txt, pets/feeding.md]

Examples:
  cosim eval --judgments judged.yaml
  cosim eval --judgments judged.yaml --method tf -k 5 --json`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalJudgments, "judgments", "", "YAML relevance judgments (required)")
	evalCmd.Flags().StringVarP(&evalMethod, "method", "m", "", "scoring method: tf or tfidf (default from config)")
	evalCmd.Flags().IntVarP(&evalTopK, "top-k", "k", 0, "cutoff k (default from config)")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "output as JSON")
	evalCmd.MarkFlagRequired("judgments")
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	if evalMethod != "" {
		cfg.Score.Method = evalMethod
	}
	k := cfg.Score.TopK
	if evalTopK > 0 {
		k = evalTopK
	}

	judgments, err := eval.LoadJudgments(evalJudgments, GetRootDir())
	if err != nil {
		return err
	}

	retrieveUC, _, closeStore, err := newRetriever(ctx, false)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := eval.Evaluate(ctx, retrieveUC, judgments, k)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.FromContext(ctx).Info("evaluation finished",
		zap.String("method", cfg.Score.Method),
		zap.Int("queries", len(report.Queries)),
		zap.Float64("map", report.Mean.AveragePrecision),
	)

	if evalJSON {
		output, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Method: %s, k=%d, queries=%d\n\n", cfg.Score.Method, report.K, len(report.Queries))
	fmt.Printf("%-32s %6s %6s %6s %6s %6s\n", "query", "P@k", "R@k", "RR", "AP", "nDCG")
	for _, q := range report.Queries {
		fmt.Printf("%-32s %6.3f %6.3f %6.3f %6.3f %6.3f\n",
			truncate(q.Query, 32), q.Precision, q.Recall, q.ReciprocalRank, q.AveragePrecision, q.NDCG)
	}
	m := report.Mean
	fmt.Printf("%-32s %6.3f %6.3f %6.3f %6.3f %6.3f\n", "MEAN", m.Precision, m.Recall, m.ReciprocalRank, m.AveragePrecision, m.NDCG)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
