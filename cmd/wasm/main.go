//go:build js && wasm

package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"syscall/js"
	"time"

	"cosim/config"
	"cosim/internal/adapter/analyzer"
	"cosim/internal/adapter/memstore"
	"cosim/internal/domain"
	"cosim/internal/usecase"
)

var (
	store     *memstore.MemoryStore
	tokenizer *analyzer.Tokenizer
	retrieve  *usecase.RetrieveUseCase
	scoreCfg  = config.DefaultConfig().Score
)

func init() {
	stemmer, err := analyzer.NewStemmer(analyzer.DefaultStemCacheSize)
	if err != nil {
		panic(err)
	}
	tokenizer = analyzer.NewTokenizer(stemmer)
	reset()
}

func reset() {
	store = memstore.NewMemoryStore()
	retrieve = usecase.NewRetrieveUseCase(store, tokenizer, scoreCfg, nil, nil)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("cosimIndex", js.FuncOf(indexContent))
	js.Global().Set("cosimQuery", js.FuncOf(queryContent))
	js.Global().Set("cosimClear", js.FuncOf(clearIndex))
	js.Global().Set("cosimStats", js.FuncOf(getStats))

	<-c
}

func indexContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: cosimIndex(filename, content)")
	}

	filename := args[0].String()
	content := args[1].String()

	tokens := tokenizer.Tokenize(content)
	doc := domain.Document{
		ID:      generateDocID(filename),
		Path:    filename,
		ModTime: time.Now(),
		Length:  len(tokens),
	}
	if err := store.PutDocument(doc, analyzer.TermFrequencies(tokens)); err != nil {
		return makeError("indexing failed: " + err.Error())
	}

	postings, _ := store.LoadPostings()
	docs, _ := store.ListDocs()
	totalLen := 0
	for _, d := range docs {
		totalLen += d.Length
	}
	store.UpdateStats(domain.Stats{
		TotalDocs:  len(docs),
		TotalTerms: len(postings.Terms()),
		AvgDocLen:  float64(totalLen) / float64(len(docs)),
	})

	if err := retrieve.Reload(context.Background()); err != nil {
		return makeError("reload failed: " + err.Error())
	}

	return makeResult(map[string]interface{}{
		"success":  true,
		"tokens":   len(tokens),
		"filename": filename,
	})
}

func queryContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: cosimQuery(query, [topK], [method])")
	}

	query := args[0].String()
	opts := usecase.RetrieveOptions{TopK: 5}
	if len(args) > 1 {
		opts.TopK = args[1].Int()
	}
	if len(args) > 2 {
		opts.Method = args[2].String()
	}

	results, err := retrieve.Retrieve(context.Background(), query, opts)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		output = append(output, map[string]interface{}{
			"path":  r.Path,
			"score": r.Score,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   query,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	reset()
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	stats, _ := store.GetStats()
	docs, _ := store.ListDocs()

	filenames := make([]string, len(docs))
	for i, doc := range docs {
		filenames[i] = doc.Path
	}

	return makeResult(map[string]interface{}{
		"totalDocs":  stats.TotalDocs,
		"totalTerms": stats.TotalTerms,
		"avgDocLen":  stats.AvgDocLen,
		"files":      filenames,
	})
}

func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
