package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/raglite/raglite/internal/logger"
	"github.com/raglite/raglite/pkg/types"
)

// OllamaProvider embeds text through a local Ollama instance. The model is
// loaded lazily: the first Embed call triggers exactly one warmup even under
// concurrent first callers, guarded by sync.Once.
type OllamaProvider struct {
	client *api.Client
	model  string

	loadOnce  sync.Once
	loadErr   error
	dimension int
}

// NewOllamaProvider creates the local provider. The connection is not probed
// here; model load happens on first use.
func NewOllamaProvider(host, model string) (*OllamaProvider, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, &types.InitializationError{Component: "ollama provider", Err: err}
	}

	return &OllamaProvider{
		client: api.NewClient(u, http.DefaultClient),
		model:  model,
	}, nil
}

// ensureLoaded performs the one-time model warmup. Ollama loads the model
// into memory on the first embed request; doing it behind Once keeps N
// racing first callers from loading it N times.
func (o *OllamaProvider) ensureLoaded(ctx context.Context) error {
	o.loadOnce.Do(func() {
		probeCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()

		resp, err := o.client.Embed(probeCtx, &api.EmbedRequest{
			Model: o.model,
			Input: "warmup",
		})
		if err != nil {
			o.loadErr = &types.InitializationError{Component: "ollama model " + o.model, Err: err}
			return
		}
		if len(resp.Embeddings) == 0 {
			o.loadErr = &types.InitializationError{
				Component: "ollama model " + o.model,
				Err:       fmt.Errorf("no embedding returned from warmup"),
			}
			return
		}
		o.dimension = len(resp.Embeddings[0])
		logger.Debug("ollama model %s loaded, dimension %d", o.model, o.dimension)
	})
	return o.loadErr
}

// Embed implements Provider.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := o.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.model,
		Input: text,
	})
	if err != nil {
		return nil, &types.EmbeddingError{Provider: "ollama", Err: err}
	}
	if len(resp.Embeddings) == 0 {
		return nil, &types.EmbeddingError{Provider: "ollama", Err: fmt.Errorf("no embedding returned")}
	}
	return resp.Embeddings[0], nil
}

// EmbedBatch implements Provider. The whole batch goes in one request; the
// API returns one embedding per input in input order, so a file's chunks
// cost a single round trip. A failed call fails the whole batch.
func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := validateBatch(texts); err != nil {
		return nil, err
	}
	if err := o.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	resp, err := o.client.Embed(ctx, &api.EmbedRequest{
		Model: o.model,
		Input: texts,
	})
	if err != nil {
		return nil, &types.EmbeddingError{Provider: "ollama", Err: err}
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, &types.EmbeddingError{
			Provider: "ollama",
			Err:      fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings)),
		}
	}
	return resp.Embeddings, nil
}

// Dimension implements Provider. Zero until the first successful load.
func (o *OllamaProvider) Dimension() int { return o.dimension }

// ModelName implements Provider.
func (o *OllamaProvider) ModelName() string { return "ollama/" + o.model }

// Close implements Provider.
func (o *OllamaProvider) Close() error { return nil }
