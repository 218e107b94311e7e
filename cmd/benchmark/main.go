package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cosim/config"
	"cosim/internal/adapter/analyzer"
	"cosim/internal/adapter/similarity"
	"cosim/internal/adapter/store"
	"cosim/internal/domain"
)

func main() {
	indexPath := flag.String("index", ".", "Path to indexed directory")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	iterations := flag.Int("n", 1000, "Scoring iterations per method")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -index ./corpus -q \"query\"")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Scorer construction time (norms, idf table)")
		fmt.Println("  2. Per-query scoring latency for tf and tfidf")
		fmt.Println("  3. Overlap of the top-k lists of both methods")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := openIndex(*indexPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	postings, err := st.LoadPostings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading postings: %v\n", err)
		os.Exit(1)
	}
	if err := postings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Index is inconsistent: %v\n", err)
		os.Exit(1)
	}

	var stemmer *analyzer.Stemmer
	if cfg.Index.Stemming {
		stemmer, err = analyzer.NewStemmer(cfg.Index.StemCacheSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating stemmer: %v\n", err)
			os.Exit(1)
		}
	}
	q := analyzer.NewTokenizer(stemmer).QueryFromText(*query)

	fmt.Println("SCORING BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Documents: %d\n", postings.DocCount())
	fmt.Printf("Terms:     %d\n", len(postings.Terms()))
	fmt.Printf("Query:     %q -> %d terms\n\n", *query, len(q))

	ranked := make(map[string][]domain.ScoredDoc)
	for _, method := range similarity.Methods {
		start := time.Now()
		scorer, err := similarity.New(method, postings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building %s scorer: %v\n", method, err)
			os.Exit(1)
		}
		build := time.Since(start)

		var scores domain.Scores
		start = time.Now()
		for i := 0; i < *iterations; i++ {
			scores = scorer.Score(q)
		}
		perQuery := time.Since(start) / time.Duration(max(*iterations, 1))

		results := similarity.Rank(scores, *topK, 0)
		ranked[method] = results

		fmt.Printf("%s\n", strings.ToUpper(method))
		fmt.Println(strings.Repeat("-", 70))
		fmt.Printf("  Build:     %s\n", build)
		fmt.Printf("  Per query: %s (%d matched)\n", perQuery, len(scores))
		for i, r := range results {
			fmt.Printf("  %2d. %.4f  %s\n", i+1, r.Score, docLabel(st, r.DocID))
		}
		fmt.Println()
	}

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Top-%d overlap (tf vs tfidf): %.2f\n", *topK, overlap(ranked[similarity.MethodTF], ranked[similarity.MethodTFIDF]))
}

// openIndex opens an existing index without creating one.
func openIndex(dir string) (*store.BoltStore, error) {
	dbPath := config.IndexDBPath(dir)
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s - run 'cosim index' first", domain.ErrNoIndex, dbPath)
		}
		return nil, err
	}
	return store.NewBoltStore(dbPath)
}

// docLabel returns the file name of a document, or a marker with its ID
// when the store cannot resolve it.
func docLabel(st *store.BoltStore, docID string) string {
	doc, err := st.GetDoc(docID)
	if err != nil {
		return fmt.Sprintf("<unresolved %s: %v>", docID, err)
	}
	return filepath.Base(doc.Path)
}

func overlap(a, b []domain.ScoredDoc) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	seen := make(map[string]bool, len(a))
	for _, r := range a {
		seen[r.DocID] = true
	}
	shared := 0
	for _, r := range b {
		if seen[r.DocID] {
			shared++
		}
	}
	return float64(shared) / float64(max(len(a), len(b)))
}
