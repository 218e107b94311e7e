package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"cosim/internal/domain"
	"cosim/internal/usecase"
)

var (
	statsTop  int
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Show document and term counts of the index and the terms with the
highest inverse document frequency.

Examples:
  cosim stats
  cosim stats --top 25 --json`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "number of highest-idf terms to list")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

type statsOutput struct {
	domain.Stats
	TopTerms []usecase.TermWeight `json:"top_terms"`
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	retrieveUC, st, closeStore, err := newRetriever(ctx, false)
	if err != nil {
		return err
	}
	defer closeStore()

	stats, err := st.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}
	top, err := retrieveUC.TopTerms(ctx, statsTop)
	if err != nil {
		return err
	}

	if statsJSON {
		output, err := json.MarshalIndent(statsOutput{Stats: stats, TopTerms: top}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Documents:       %d\n", stats.TotalDocs)
	fmt.Printf("Distinct terms:  %d\n", stats.TotalTerms)
	fmt.Printf("Avg doc length:  %.1f tokens\n", stats.AvgDocLen)
	if len(top) > 0 {
		fmt.Printf("\nTop %d terms by idf:\n", len(top))
		for _, tw := range top {
			fmt.Printf("  %-24s idf=%.3f df=%d\n", tw.Term, tw.IDF, tw.DocFreq)
		}
	}
	return nil
}
