// Package indexer drives incremental indexing: discovering files, detecting
// changes via content hashes, chunking and embedding changed files, and
// keeping the vector store and the persisted state in sync.
package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raglite/raglite/internal/chunking"
	"github.com/raglite/raglite/internal/config"
	"github.com/raglite/raglite/internal/embedding"
	"github.com/raglite/raglite/internal/logger"
	"github.com/raglite/raglite/internal/processor"
	"github.com/raglite/raglite/internal/vectorstore"
	"github.com/raglite/raglite/pkg/types"
)

// Indexer owns the index lifecycle. It is safe for concurrent single-file
// updates, but only one IndexProject pass should run at a time; the manager
// enforces that.
type Indexer struct {
	cfg      *config.Config
	proc     *processor.Processor
	selector *chunking.Selector
	provider embedding.Provider
	store    vectorstore.Store

	mu    sync.Mutex // guards state
	state *types.IndexState
}

// New creates an Indexer and loads the persisted state from disk.
func New(cfg *config.Config, proc *processor.Processor, selector *chunking.Selector, provider embedding.Provider, store vectorstore.Store) (*Indexer, error) {
	state, err := loadState(cfg.StatePath())
	if err != nil {
		logger.Warn("index state unreadable, starting fresh: %v", err)
		state = types.NewIndexState()
	}
	return &Indexer{
		cfg:      cfg,
		proc:     proc,
		selector: selector,
		provider: provider,
		store:    store,
		state:    state,
	}, nil
}

// State returns a snapshot copy of the current index state.
func (ix *Indexer) State() *types.IndexState {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	snap := types.NewIndexState()
	for k, v := range ix.state.Files {
		snap.Files[k] = v
	}
	snap.EmbeddingModel = ix.state.EmbeddingModel
	if ix.state.LastFullIndex != nil {
		t := *ix.state.LastFullIndex
		snap.LastFullIndex = &t
	}
	return snap
}

// IndexProject runs one indexing pass: full when forced or when the
// embedding model changed, incremental otherwise. Per-file failures are
// recorded in the stats and never abort the pass.
func (ix *Indexer) IndexProject(ctx context.Context, force bool) (*types.IndexStats, error) {
	start := time.Now()
	stats := &types.IndexStats{
		ByType:         make(map[types.DocumentType]int),
		EmbeddingModel: ix.provider.ModelName(),
	}

	if err := ix.prepareState(ctx, force, stats); err != nil {
		return nil, err
	}

	files, err := ix.proc.Discover()
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	stats.DeletedFiles, err = ix.removeVanished(ctx, files)
	if err != nil {
		return nil, err
	}

	var (
		indexed, skipped, failed int64
		embCalls                 int64
		errMu                    sync.Mutex
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers())

	for _, relPath := range files {
		relPath := relPath
		g.Go(func() error {
			res, err := ix.indexOne(gctx, relPath, stats.FullReindex)
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
				errMu.Lock()
				stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", relPath, err))
				errMu.Unlock()
				logger.Warn("indexing %s failed: %v", relPath, err)
			case res == nil:
				atomic.AddInt64(&skipped, 1)
			default:
				atomic.AddInt64(&indexed, 1)
				atomic.AddInt64(&embCalls, int64(res.embedCalls))
				errMu.Lock()
				stats.ByType[res.docType]++
				errMu.Unlock()
			}
			// Only context cancellation stops the group.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.IndexedFiles = int(indexed)
	stats.SkippedFiles = int(skipped)
	stats.FailedFiles = int(failed)
	stats.EmbeddingCalls = int(embCalls)

	ix.mu.Lock()
	ix.state.EmbeddingModel = ix.provider.ModelName()
	if stats.FullReindex {
		now := time.Now()
		ix.state.LastFullIndex = &now
	}
	err = saveState(ix.cfg.StatePath(), ix.state)
	ix.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Totals are index-wide, not per-pass: a no-change pass must report the
	// same counts as the pass that built the index.
	st, err := ix.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	stats.TotalDocuments = st.TotalDocuments
	stats.TotalChunks = st.TotalChunks
	stats.TotalTokens = st.TotalTokens
	stats.VectorStoreSize = st.TotalChunks

	stats.Duration = time.Since(start)
	logger.Info("indexed %d files (%d skipped, %d deleted, %d failed) in %s",
		stats.IndexedFiles, stats.SkippedFiles, stats.DeletedFiles, stats.FailedFiles, stats.Duration)
	return stats, nil
}

// prepareState invalidates the whole index when forced or when the stored
// vectors came from a different embedding model. Vectors from different
// models live in different spaces and must never be mixed.
func (ix *Indexer) prepareState(ctx context.Context, force bool, stats *types.IndexStats) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	model := ix.provider.ModelName()
	modelChanged := ix.state.EmbeddingModel != "" && ix.state.EmbeddingModel != model
	if !force && !modelChanged {
		return nil
	}

	if modelChanged {
		logger.Info("embedding model changed (%s -> %s), rebuilding index", ix.state.EmbeddingModel, model)
	}
	if err := ix.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}
	ix.state.Reset()
	stats.FullReindex = true
	return nil
}

// removeVanished deletes chunks for files recorded in the state but no
// longer present on disk.
func (ix *Indexer) removeVanished(ctx context.Context, current []string) (int, error) {
	present := make(map[string]bool, len(current))
	for _, f := range current {
		present[f] = true
	}

	ix.mu.Lock()
	var vanished []string
	for relPath := range ix.state.Files {
		if !present[relPath] {
			vanished = append(vanished, relPath)
		}
	}
	ix.mu.Unlock()

	for _, relPath := range vanished {
		if _, err := ix.store.DeleteByDocument(ctx, types.DocumentID(relPath)); err != nil {
			return 0, fmt.Errorf("delete vanished file %s: %w", relPath, err)
		}
		ix.mu.Lock()
		ix.state.Remove(relPath)
		ix.mu.Unlock()
		logger.Debug("removed vanished file %s", relPath)
	}
	return len(vanished), nil
}

// fileResult summarizes one successfully indexed file.
type fileResult struct {
	chunks     int
	tokens     int
	embedCalls int
	docType    types.DocumentType
}

// indexOne indexes a single file. A nil result with nil error means the file
// was skipped (unchanged, unreadable, or binary).
func (ix *Indexer) indexOne(ctx context.Context, relPath string, force bool) (*fileResult, error) {
	content, ok := ix.proc.ReadFile(relPath)
	if !ok {
		return nil, nil
	}

	hash := processor.ComputeHash([]byte(content))

	ix.mu.Lock()
	prev, known := ix.state.Hash(relPath)
	ix.mu.Unlock()
	if known && prev == hash && !force {
		return nil, nil
	}

	docID := types.DocumentID(relPath)

	// Replace wholesale: stale chunks of the previous version must not
	// survive a re-chunk that emits fewer chunks. Unconditional because the
	// store can hold chunks for files the state no longer knows about (a
	// lost state file with a surviving store); a no-op delete is cheap.
	if _, err := ix.store.DeleteByDocument(ctx, docID); err != nil {
		return nil, fmt.Errorf("delete stale chunks: %w", err)
	}

	doc := ix.buildDocument(relPath, content, hash)
	strategy := ix.selector.ForPath(relPath)
	chunks, err := strategy.Chunk(content, relPath, docID)
	if err != nil {
		return nil, fmt.Errorf("chunk (%s): %w", strategy.Name(), err)
	}

	if len(chunks) == 0 {
		// Nothing embeddable; record the hash so the file is not revisited.
		ix.mu.Lock()
		ix.state.SetHash(relPath, hash)
		ix.mu.Unlock()
		return &fileResult{docType: doc.Type}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := ix.provider.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}

	tokens := 0
	for i, c := range chunks {
		c.Embedding = vectors[i]
		attachDocumentMetadata(c, doc)
		tokens += c.TokenCount
	}

	if _, err := ix.store.Add(ctx, chunks); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	ix.mu.Lock()
	ix.state.SetHash(relPath, hash)
	ix.mu.Unlock()

	logger.Debug("indexed %s: %d chunks, %d tokens", relPath, len(chunks), tokens)
	return &fileResult{chunks: len(chunks), tokens: tokens, embedCalls: 1, docType: doc.Type}, nil
}

// IndexFile indexes or re-indexes one file immediately, outside a project
// pass. Used by the watcher and the manager's single-file path.
func (ix *Indexer) IndexFile(ctx context.Context, relPath string) error {
	size, err := ix.proc.Stat(relPath)
	if err != nil {
		return fmt.Errorf("stat %s: %w", relPath, err)
	}
	if !ix.proc.ShouldProcess(relPath, size) {
		return nil
	}

	if _, err := ix.indexOne(ctx, relPath, false); err != nil {
		return err
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	return saveState(ix.cfg.StatePath(), ix.state)
}

// RemoveFile deletes a file's chunks and forgets it in the state.
func (ix *Indexer) RemoveFile(ctx context.Context, relPath string) error {
	if _, err := ix.store.DeleteByDocument(ctx, types.DocumentID(relPath)); err != nil {
		return fmt.Errorf("remove %s: %w", relPath, err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.state.Remove(relPath)
	return saveState(ix.cfg.StatePath(), ix.state)
}

// Clear empties the vector store and resets the persisted state.
func (ix *Indexer) Clear(ctx context.Context) error {
	if err := ix.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear vector store: %w", err)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.state.Reset()
	return saveState(ix.cfg.StatePath(), ix.state)
}

func (ix *Indexer) buildDocument(relPath, content, hash string) *types.Document {
	return &types.Document{
		ID:          types.DocumentID(relPath),
		Path:        relPath,
		AbsPath:     filepath.Join(ix.proc.Root(), relPath),
		Type:        processor.DetectType(relPath),
		ContentHash: hash,
		FileSize:    int64(len(content)),
		Language:    processor.DetectLanguage(relPath),
	}
}

// attachDocumentMetadata stamps the owning document's identity onto a chunk
// so search results can be reconstructed without a separate document table.
func attachDocumentMetadata(c *types.Chunk, doc *types.Document) {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[vectorstore.MetaPath] = doc.Path
	c.Metadata[vectorstore.MetaAbsPath] = doc.AbsPath
	c.Metadata[vectorstore.MetaDocType] = string(doc.Type)
	c.Metadata[vectorstore.MetaLanguage] = doc.Language
	c.Metadata[vectorstore.MetaHash] = doc.ContentHash
	c.Metadata[vectorstore.MetaFileSize] = strconv.FormatInt(doc.FileSize, 10)
	if len(doc.Tags) > 0 {
		c.Metadata[vectorstore.MetaTags] = strings.Join(doc.Tags, ",")
	}
}

func (ix *Indexer) workers() int {
	if ix.cfg.Workers > 0 {
		return ix.cfg.Workers
	}
	return runtime.NumCPU()
}
