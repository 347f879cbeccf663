package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touch creates empty files under root, creating parent directories
func touch(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
}

func TestDiscoverSources(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "z/y/x.cpp", "b.cpp", "sub/c.h", "sub/a.cpp", "d.cc")

	files, err := DiscoverSources(root, DefaultSourceExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.cpp", "sub/a.cpp", "z/y/x.cpp"}, files)

	files, err = DiscoverSources(root, []string{".cc", ".cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.cpp", "d.cc", "sub/a.cpp", "z/y/x.cpp"}, files)
}

func TestDiscoverSourcesMissing(t *testing.T) {
	_, err := DiscoverSources(filepath.Join(t.TempDir(), "nope"), DefaultSourceExtensions)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
