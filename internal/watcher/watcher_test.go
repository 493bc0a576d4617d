package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raglite/raglite/internal/chunking"
	"github.com/raglite/raglite/internal/config"
	"github.com/raglite/raglite/internal/embedding"
	"github.com/raglite/raglite/internal/indexer"
	"github.com/raglite/raglite/internal/processor"
	"github.com/raglite/raglite/internal/vectorstore"
)

func newWatcherFixture(t *testing.T) (*Watcher, vectorstore.Store, string) {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.ProjectRoot = root
	cfg.IndexDir = filepath.Join(root, ".raglite")

	proc, err := processor.New(processor.Options{
		Root:         root,
		IncludeGlobs: cfg.IncludeGlobs,
		ExcludeGlobs: cfg.ExcludeGlobs,
		MaxFileSize:  cfg.MaxFileSize,
	})
	require.NoError(t, err)

	store := vectorstore.NewMemoryStore()
	ix, err := indexer.New(cfg, proc,
		chunking.NewSelector(chunking.Config{ChunkSize: 512, ChunkOverlap: 64}),
		embedding.NewMockProvider(), store)
	require.NoError(t, err)

	w, err := New(proc, ix)
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	return w, store, root
}

func waitForChunks(t *testing.T, store vectorstore.Store, want func(int) bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st, err := store.Stats(context.Background())
		require.NoError(t, err)
		if want(st.TotalChunks) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("store never reached expected chunk count")
}

func TestWatcherIndexesNewFile(t *testing.T) {
	w, store, root := newWatcherFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	time.Sleep(100 * time.Millisecond) // let the watch registration settle

	content := "package demo\n\n// Answer is the canonical test constant used across the demo package.\nconst Answer = 42\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "demo.go"), []byte(content), 0o644))

	waitForChunks(t, store, func(n int) bool { return n > 0 })

	cancel()
	<-done
}

func TestWatcherRemovesDeletedFile(t *testing.T) {
	w, store, root := newWatcherFixture(t)
	path := filepath.Join(root, "gone.go")
	require.NoError(t, os.WriteFile(path, []byte("package demo\n\nfunc Gone() {}\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Start(ctx)
	}()
	time.Sleep(100 * time.Millisecond)

	// Touch the file so the watcher indexes it first.
	require.NoError(t, os.WriteFile(path, []byte("package demo\n\n// Gone is removed by the test right after being indexed.\nfunc Gone() {}\n"), 0o644))
	waitForChunks(t, store, func(n int) bool { return n > 0 })

	require.NoError(t, os.Remove(path))
	waitForChunks(t, store, func(n int) bool { return n == 0 })

	cancel()
	<-done
}

func TestWatcherDebouncesBursts(t *testing.T) {
	w, _, _ := newWatcherFixture(t)

	fired := make(chan struct{}, 10)
	for i := 0; i < 5; i++ {
		w.schedule("same.go", func() { fired <- struct{}{} })
	}

	time.Sleep(200 * time.Millisecond)
	assert.Len(t, fired, 1, "a burst of events must collapse to one run")
}
