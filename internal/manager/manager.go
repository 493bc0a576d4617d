// Package manager is the facade over the retrieval engine. It owns component
// construction and lifecycle; callers see a handful of high-level operations
// and never touch the underlying processor, indexer, or store directly.
package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/raglite/raglite/internal/chunking"
	"github.com/raglite/raglite/internal/config"
	"github.com/raglite/raglite/internal/embedding"
	"github.com/raglite/raglite/internal/indexer"
	"github.com/raglite/raglite/internal/logger"
	"github.com/raglite/raglite/internal/processor"
	"github.com/raglite/raglite/internal/retriever"
	"github.com/raglite/raglite/internal/vectorstore"
	"github.com/raglite/raglite/internal/watcher"
	"github.com/raglite/raglite/pkg/types"
)

// Manager wires the engine together lazily: nothing heavier than config
// parsing happens until the first operation needs the components. When the
// engine is disabled every operation fails fast with types.ErrDisabled.
type Manager struct {
	cfg *config.Config

	initOnce sync.Once
	initErr  error

	proc      *processor.Processor
	provider  embedding.Provider
	store     vectorstore.Store
	indexer   *indexer.Indexer
	retriever *retriever.Retriever

	indexMu sync.Mutex // serializes project-wide passes
}

// New creates a Manager. Construction never fails; initialization errors
// surface on first use.
func New(cfg *config.Config) *Manager {
	return &Manager{cfg: cfg}
}

// init builds the component graph exactly once. Concurrent first calls block
// until one initialization finishes; all of them observe the same outcome.
func (m *Manager) init(ctx context.Context) error {
	if !m.cfg.Enabled {
		return types.ErrDisabled
	}

	m.initOnce.Do(func() {
		m.initErr = m.build(ctx)
	})
	return m.initErr
}

func (m *Manager) build(_ context.Context) error {
	proc, err := processor.New(processor.Options{
		Root:             m.cfg.ProjectRoot,
		IncludeGlobs:     m.cfg.IncludeGlobs,
		ExcludeGlobs:     m.cfg.ExcludeGlobs,
		MaxFileSize:      m.cfg.MaxFileSize,
		RespectGitignore: m.cfg.RespectGitignore,
	})
	if err != nil {
		return &types.InitializationError{Component: "processor", Err: err}
	}

	provider, err := embedding.New(m.cfg)
	if err != nil {
		return err
	}

	store, err := vectorstore.New(m.cfg)
	if err != nil {
		_ = provider.Close()
		return err
	}

	selector := chunking.NewSelector(chunking.Config{
		ChunkSize:    m.cfg.ChunkSize,
		ChunkOverlap: m.cfg.ChunkOverlap,
	})

	ix, err := indexer.New(m.cfg, proc, selector, provider, store)
	if err != nil {
		_ = provider.Close()
		_ = store.Close()
		return &types.InitializationError{Component: "indexer", Err: err}
	}

	ret, err := retriever.New(m.cfg, provider, store)
	if err != nil {
		_ = provider.Close()
		_ = store.Close()
		return &types.InitializationError{Component: "retriever", Err: err}
	}

	m.proc = proc
	m.provider = provider
	m.store = store
	m.indexer = ix
	m.retriever = ret
	logger.Debug("engine initialized: provider=%s store=%s root=%s",
		provider.ModelName(), m.cfg.VectorStore, proc.Root())
	return nil
}

// IndexProject runs a full or incremental indexing pass. Passes are
// serialized; a second caller waits rather than racing the first.
func (m *Manager) IndexProject(ctx context.Context, force bool) (*types.IndexStats, error) {
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	m.indexMu.Lock()
	defer m.indexMu.Unlock()
	return m.indexer.IndexProject(ctx, force)
}

// IndexFile indexes or re-indexes one file by project-relative path.
func (m *Manager) IndexFile(ctx context.Context, relPath string) error {
	if err := m.init(ctx); err != nil {
		return err
	}
	return m.indexer.IndexFile(ctx, relPath)
}

// RemoveFile drops one file from the index.
func (m *Manager) RemoveFile(ctx context.Context, relPath string) error {
	if err := m.init(ctx); err != nil {
		return err
	}
	return m.indexer.RemoveFile(ctx, relPath)
}

// Search runs a semantic query over the whole index.
func (m *Manager) Search(ctx context.Context, query string, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	return m.retriever.Search(ctx, query, filter)
}

// SearchCode restricts a query to code documents.
func (m *Manager) SearchCode(ctx context.Context, query string, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	return m.retriever.SearchCode(ctx, query, filter)
}

// SearchDocs restricts a query to documentation.
func (m *Manager) SearchDocs(ctx context.Context, query string, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	return m.retriever.SearchDocs(ctx, query, filter)
}

// SearchByType restricts a query to the given document types.
func (m *Manager) SearchByType(ctx context.Context, query string, docTypes []types.DocumentType, filter *types.SearchFilter) ([]*types.SearchResult, error) {
	if err := m.init(ctx); err != nil {
		return nil, err
	}
	return m.retriever.SearchByType(ctx, query, docTypes, filter)
}

// AugmentContext retrieves context for a query and renders it as a text
// block within the configured token budget. An empty index yields an empty
// string, not an error.
func (m *Manager) AugmentContext(ctx context.Context, query string) (string, error) {
	if err := m.init(ctx); err != nil {
		return "", err
	}
	results, err := m.retriever.Search(ctx, query, &types.SearchFilter{
		MaxTokens: m.cfg.ContextTokens,
	})
	if err != nil {
		return "", err
	}
	return retriever.FormatResultsForContext(query, results), nil
}

// ClearIndex empties the vector store and resets the persisted state.
func (m *Manager) ClearIndex(ctx context.Context) error {
	if err := m.init(ctx); err != nil {
		return err
	}
	m.indexMu.Lock()
	defer m.indexMu.Unlock()
	return m.indexer.Clear(ctx)
}

// Watch blocks, keeping the index current as project files change.
func (m *Manager) Watch(ctx context.Context) error {
	if err := m.init(ctx); err != nil {
		return err
	}
	w, err := watcher.New(m.proc, m.indexer)
	if err != nil {
		return err
	}
	return w.Start(ctx)
}

// Status describes the engine for display.
type Status struct {
	Enabled        bool
	ProjectRoot    string
	StoreBackend   string
	EmbeddingModel string
	IndexedFiles   int
	TotalChunks    int
	TotalDocuments int
	TotalTokens    int
	LastFullIndex  *time.Time
}

// Status reports current engine and index state.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if !m.cfg.Enabled {
		return &Status{Enabled: false}, nil
	}
	if err := m.init(ctx); err != nil {
		return nil, err
	}

	st, err := m.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("store stats: %w", err)
	}
	state := m.indexer.State()

	return &Status{
		Enabled:        true,
		ProjectRoot:    m.proc.Root(),
		StoreBackend:   st.Backend,
		EmbeddingModel: m.provider.ModelName(),
		IndexedFiles:   len(state.Files),
		TotalChunks:    st.TotalChunks,
		TotalDocuments: st.TotalDocuments,
		TotalTokens:    st.TotalTokens,
		LastFullIndex:  state.LastFullIndex,
	}, nil
}

// Close releases provider and store resources. Safe to call without prior
// initialization.
func (m *Manager) Close() error {
	var firstErr error
	if m.provider != nil {
		if err := m.provider.Close(); err != nil {
			firstErr = err
		}
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
