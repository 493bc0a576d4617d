package embedding

import (
	"fmt"

	"github.com/raglite/raglite/internal/config"
)

// New constructs the configured provider, wrapped in the embedding cache.
// The backend set is closed: there is no runtime plugin discovery.
func New(cfg *config.Config) (Provider, error) {
	var (
		p   Provider
		err error
	)

	switch cfg.EmbeddingProvider {
	case config.ProviderOllama:
		p, err = NewOllamaProvider(cfg.OllamaHost, cfg.EmbeddingModel)
	case config.ProviderOpenAI:
		p, err = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
	case config.ProviderMock:
		p = NewMockProvider()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.EmbeddingProvider)
	}
	if err != nil {
		return nil, err
	}

	return WithCache(p, defaultCacheSize), nil
}
