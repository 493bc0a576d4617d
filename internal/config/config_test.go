package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, ProviderOllama, cfg.EmbeddingProvider)
	assert.Equal(t, StoreSQLite, cfg.VectorStore)
	assert.Equal(t, 512, cfg.ChunkSize)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, "raglite.yaml")

	content := `
enabled: false
embedding_provider: mock
vector_store: memory
chunk_size: 256
chunk_overlap: 32
min_score: 0.5
`
	require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0644))

	cfg, err := Load(cfgFile)
	require.NoError(t, err)

	assert.False(t, cfg.Enabled)
	assert.Equal(t, ProviderMock, cfg.EmbeddingProvider)
	assert.Equal(t, StoreMemory, cfg.VectorStore)
	assert.Equal(t, 256, cfg.ChunkSize)
	assert.Equal(t, 0.5, cfg.MinScore)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown provider", func(c *Config) { c.EmbeddingProvider = "cohere" }},
		{"unknown store", func(c *Config) { c.VectorStore = "pinecone" }},
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"overlap >= chunk size", func(c *Config) { c.ChunkOverlap = 512 }},
		{"min score out of range", func(c *Config) { c.MinScore = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStatePath(t *testing.T) {
	cfg := Default()
	cfg.IndexDir = "/tmp/idx"
	assert.Equal(t, filepath.Join("/tmp/idx", "state.json"), cfg.StatePath())
}
