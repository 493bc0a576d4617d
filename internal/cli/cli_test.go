package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T) (root, cfgPath string) {
	t.Helper()
	root = t.TempDir()

	source := `package demo

// ResolveHost looks up the service host for an environment name, falling
// back to localhost when the environment is unknown to the resolver.
func ResolveHost(env string) string {
	return "localhost"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "resolve.go"), []byte(source), 0o644))

	cfgPath = filepath.Join(root, "raglite.yaml")
	cfg := fmt.Sprintf(`project_root: %s
index_dir: %s
embedding_provider: mock
vector_store: sqlite
min_score: 0
`, root, filepath.Join(root, ".raglite"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	return root, cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { cfgFile, verbose, projectRoot = "", false, "" })

	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexThenSearchCommand(t *testing.T) {
	_, cfgPath := writeProject(t)

	out, err := runCommand(t, "index", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed: 1")

	out, err = runCommand(t, "search", "resolve service host", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "resolve.go")
}

func TestSearchContextOutput(t *testing.T) {
	_, cfgPath := writeProject(t)

	_, err := runCommand(t, "index", "--config", cfgPath)
	require.NoError(t, err)

	out, err := runCommand(t, "search", "resolve host", "--context", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Relevant context for: resolve host")
	assert.Contains(t, out, "resolve.go")
}

func TestStatusCommand(t *testing.T) {
	_, cfgPath := writeProject(t)

	_, err := runCommand(t, "index", "--force", "--config", cfgPath)
	require.NoError(t, err)

	out, err := runCommand(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "store backend:   sqlite")
	assert.Contains(t, out, "indexed files:   1")
}

func TestClearCommand(t *testing.T) {
	_, cfgPath := writeProject(t)

	_, err := runCommand(t, "index", "--config", cfgPath)
	require.NoError(t, err)

	out, err := runCommand(t, "clear", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "index cleared")

	out, err = runCommand(t, "status", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "indexed files:   0")
}

func TestSearchRequiresQuery(t *testing.T) {
	_, cfgPath := writeProject(t)
	_, err := runCommand(t, "search", "--config", cfgPath)
	assert.Error(t, err)
}
