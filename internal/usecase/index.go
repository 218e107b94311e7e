package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cosim/internal/adapter/analyzer"
	"cosim/internal/adapter/fs"
	"cosim/internal/domain"
	"cosim/internal/metrics"
	"cosim/internal/port"
)

// ProgressFunc is called after each changed file is preprocessed.
type ProgressFunc func(done, total int, path string)

// IndexUseCase handles file indexing operations.
type IndexUseCase struct {
	store     port.IndexStore
	walker    port.FileWalker
	tokenizer port.Tokenizer
	workers   int
	logger    *zap.Logger
}

// NewIndexUseCase creates a new index use case.
func NewIndexUseCase(
	store port.IndexStore,
	walker port.FileWalker,
	tokenizer port.Tokenizer,
	workers int,
	logger *zap.Logger,
) *IndexUseCase {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexUseCase{
		store:     store,
		walker:    walker,
		tokenizer: tokenizer,
		workers:   workers,
		logger:    logger,
	}
}

// IndexResult contains the results of an indexing operation.
type IndexResult struct {
	FilesIndexed int
	FilesSkipped int
	FilesDeleted int
	Stats        domain.Stats
	Errors       []string
}

type fileOutcome struct {
	file port.IndexedFile
	err  error
}

// Index brings the store in line with the files under root. Unchanged files
// are skipped by modification time, vanished files are removed, and changed
// files are preprocessed in parallel and written in one batch.
func (u *IndexUseCase) Index(ctx context.Context, root string, progress ProgressFunc) (*IndexResult, error) {
	result := &IndexResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	existingDocs, err := u.store.ListDocs()
	if err != nil {
		return nil, fmt.Errorf("failed to list existing docs: %w", err)
	}
	existingMap := make(map[string]domain.Document, len(existingDocs))
	for _, doc := range existingDocs {
		existingMap[doc.Path] = doc
	}

	seenPaths := make(map[string]bool, len(files))
	var changed []port.FileInfo
	for _, file := range files {
		seenPaths[file.Path] = true
		if existing, ok := existingMap[file.Path]; ok && existing.ModTime.Unix() >= file.ModTime {
			result.FilesSkipped++
			continue
		}
		changed = append(changed, file)
	}

	outcomes, err := u.preprocess(ctx, changed, progress)
	if err != nil {
		return nil, err
	}

	batch := make([]port.IndexedFile, 0, len(outcomes))
	for i, out := range outcomes {
		if out.err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to index %s: %v", changed[i].Path, out.err))
			continue
		}
		batch = append(batch, out.file)
	}
	if len(batch) > 0 {
		if err := u.store.BatchIndex(batch); err != nil {
			return nil, fmt.Errorf("failed to store batch: %w", err)
		}
	}
	result.FilesIndexed = len(batch)
	metrics.DocsIndexedTotal.Add(float64(len(batch)))

	for path, doc := range existingMap {
		if seenPaths[path] {
			continue
		}
		if err := u.store.DeleteDocument(doc.ID); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("failed to delete %s: %v", path, err))
			continue
		}
		result.FilesDeleted++
	}

	stats, err := u.computeStats()
	if err != nil {
		return nil, err
	}
	if err := u.store.UpdateStats(stats); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}
	result.Stats = stats

	u.logger.Info("index updated",
		zap.String("root", root),
		zap.Int("indexed", result.FilesIndexed),
		zap.Int("skipped", result.FilesSkipped),
		zap.Int("deleted", result.FilesDeleted),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// preprocess tokenizes files with at most u.workers in flight. Per-file
// failures are reported in the outcome; only cancellation aborts the run.
func (u *IndexUseCase) preprocess(ctx context.Context, files []port.FileInfo, progress ProgressFunc) ([]fileOutcome, error) {
	outcomes := make([]fileOutcome, len(files))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.workers)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = u.indexFile(file)

			if progress != nil {
				mu.Lock()
				done++
				progress(done, len(files), file.Path)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (u *IndexUseCase) indexFile(file port.FileInfo) fileOutcome {
	content, err := fs.ReadFile(file.Path)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("failed to read file: %w", err)}
	}

	tokens := u.tokenizer.Tokenize(content)
	u.logger.Debug("preprocessed file", zap.String("path", file.Path), zap.Int("tokens", len(tokens)))

	return fileOutcome{file: port.IndexedFile{
		Doc: domain.Document{
			ID:      generateDocID(file.Path),
			Path:    file.Path,
			ModTime: time.Unix(file.ModTime, 0),
			Length:  len(tokens),
		},
		Counts: analyzer.TermFrequencies(tokens),
	}}
}

func (u *IndexUseCase) computeStats() (domain.Stats, error) {
	docs, err := u.store.ListDocs()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to list docs: %w", err)
	}
	postings, err := u.store.LoadPostings()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("failed to load postings: %w", err)
	}

	totalLen := 0
	for _, doc := range docs {
		totalLen += doc.Length
	}
	stats := domain.Stats{
		TotalDocs:  len(docs),
		TotalTerms: len(postings.Terms()),
	}
	if len(docs) > 0 {
		stats.AvgDocLen = float64(totalLen) / float64(len(docs))
	}
	return stats, nil
}

// generateDocID creates a unique ID for a document based on its path.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}
