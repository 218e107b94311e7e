package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cosim/internal/domain"
	"cosim/internal/usecase"
)

var (
	queryTexts    []string
	queryMethod   string
	queryTopK     int
	queryMinScore float64
	queryJSON     bool
	queryInMemory bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Rank indexed documents for a query",
	Long: `Rank documents by cosine similarity to one or more queries.

Examples:
  cosim query -q "cat food"
  cosim query -q "cat" -q "dog" --method tf --top-k 3 --json
  cosim query -q "cat" --in-memory      # Index into memory, do not persist`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringArrayVarP(&queryTexts, "query", "q", nil, "query text, repeatable (required)")
	queryCmd.Flags().StringVarP(&queryMethod, "method", "m", "", "scoring method: tf or tfidf (default from config)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float64Var(&queryMinScore, "min-score", 0, "drop results scoring below this value (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryInMemory, "in-memory", false, "index the root directory in memory instead of reading .cosim/index.db")
	queryCmd.MarkFlagRequired("query")
}

type queryOutput struct {
	Query   string             `json:"query"`
	Method  string             `json:"method"`
	Results []domain.ScoredDoc `json:"results"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()

	retrieveUC, _, closeStore, err := newRetriever(ctx, queryInMemory)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := usecase.RetrieveOptions{
		Method:   queryMethod,
		TopK:     queryTopK,
		MinScore: queryMinScore,
	}
	method := queryMethod
	if method == "" {
		method = cfg.Score.Method
	}

	outputs := make([]queryOutput, 0, len(queryTexts))
	for _, text := range queryTexts {
		results, err := retrieveUC.Retrieve(ctx, text, opts)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		if results == nil {
			results = []domain.ScoredDoc{}
		}
		outputs = append(outputs, queryOutput{Query: text, Method: method, Results: results})
	}

	if queryJSON {
		output, err := json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	for _, out := range outputs {
		if len(out.Results) == 0 {
			fmt.Printf("No results found for: %s\n\n", out.Query)
			continue
		}
		fmt.Printf("Found %d results for: %s (%s)\n\n", len(out.Results), out.Query, out.Method)
		for i, r := range out.Results {
			fmt.Printf("  [%d] %.4f  %s\n", i+1, r.Score, r.Path)
		}
		fmt.Println()
	}
	return nil
}
