package cmd

import (
	"path/filepath"
	"testing"

	"github.com/qobs-build/cmakegen/internal/builder"
	"github.com/qobs-build/cmakegen/internal/builder/gen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitBin(t *testing.T) {
	dir := t.TempDir()
	initIn(dir, "demo", gen.KindBin)

	assert.FileExists(t, filepath.Join(dir, "src", "main.cpp"))
	assert.DirExists(t, filepath.Join(dir, "lib"))
	assert.NoDirExists(t, filepath.Join(dir, "test"))

	def, err := builder.ParseDefinitionFromFile(filepath.Join(dir, builder.DefinitionFilename))
	require.NoError(t, err)
	require.NoError(t, def.Validate())
	assert.Equal(t, "demo", def.Name())
	assert.Empty(t, def.Libraries())
}

func TestInitLib(t *testing.T) {
	dir := t.TempDir()
	initIn(dir, "vec", gen.KindSharedLib)

	for _, f := range []string{"src/vec.cpp", "include/vec.h", "test/test.h", "test/example/main.cpp", ".gitignore"} {
		assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(f)))
	}

	def, err := builder.ParseDefinitionFromFile(filepath.Join(dir, builder.DefinitionFilename))
	require.NoError(t, err)
	assert.Equal(t, gen.KindSharedLib, def.Kind())

	tests, err := builder.DiscoverSources(filepath.Join(dir, "test"), builder.DefaultSourceExtensions)
	require.NoError(t, err)
	assert.Equal(t, []string{"example/main.cpp"}, tests)
}
