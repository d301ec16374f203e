package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo initializes an unversioned Loam repository in a temporary
// directory and returns its absolute path. Extra options are applied last.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	dir, err := filepath.Abs(t.TempDir())
	require.NoError(t, err)

	repo, err := loam.Init(dir, append([]loam.Option{loam.WithVersioning(false)}, opts...)...)
	require.NoError(t, err, "failed to init loam repo")

	return dir, repo
}

// WriteFiles writes raw files under dir, creating parent directories.
// Keys are slash separated paths relative to dir.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}
