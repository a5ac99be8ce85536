package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeProject creates a temp directory with a manifest at its root and a
// nested directory below it.
func makeProject(t *testing.T, manifest string) (root, nested string) {
	t.Helper()
	root = t.TempDir()
	nested = filepath.Join(root, "pages", "blog")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, manifest), []byte("module example\n"), 0644))
	return root, nested
}

func TestFindProjectRoot(t *testing.T) {
	root, nested := makeProject(t, "runesmith.manifest")

	got, ok := FindProjectRoot(nested, "runesmith.manifest")
	require.True(t, ok)
	assert.Equal(t, root, got)

	got, ok = FindProjectRoot(root, "runesmith.manifest")
	require.True(t, ok, "manifest in the starting directory itself")
	assert.Equal(t, root, got)
}

func TestFindProjectRoot_StartIsFile(t *testing.T) {
	root, nested := makeProject(t, "runesmith.manifest")
	file := filepath.Join(nested, "index.html")
	require.NoError(t, os.WriteFile(file, []byte("<p></p>"), 0644))

	got, ok := FindProjectRoot(file, "runesmith.manifest")
	require.True(t, ok)
	assert.Equal(t, root, got)
}

func TestFindProjectRoot_Missing(t *testing.T) {
	_, nested := makeProject(t, "runesmith.manifest")
	_, ok := FindProjectRoot(nested, "no-such-manifest-7f3a.json")
	assert.False(t, ok)
}

func TestProjectRoot_ModuleRoot(t *testing.T) {
	// Tests run inside the module, so go.mod is somewhere above.
	root, ok := ProjectRoot()
	require.True(t, ok)
	_, err := os.Stat(filepath.Join(root, DefaultManifest))
	assert.NoError(t, err)
}

func TestResolveToProjectPath(t *testing.T) {
	abs := filepath.FromSlash("/already/absolute.html")
	got, err := ResolveToProjectPath(abs)
	require.NoError(t, err)
	assert.Equal(t, abs, got)

	root, ok := ProjectRoot()
	require.True(t, ok)
	got, err = ResolveToProjectPath("pkg", "fsutil/doc.go")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "pkg", "fsutil", "doc.go"), got)
}
