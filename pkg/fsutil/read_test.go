package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_ReadTextFile(t *testing.T) {
	dir := t.TempDir()
	htmlPath := filepath.Join(dir, "page.html")
	txtPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(htmlPath, []byte("<p>hello</p>"), 0644))
	require.NoError(t, os.WriteFile(txtPath, []byte("hello"), 0644))

	fsys := NewOSFileSystem()

	content, err := fsys.ReadTextFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", content)

	_, err = fsys.ReadTextFile(txtPath)
	assert.ErrorIs(t, err, ErrNotHTML)

	_, err = fsys.ReadTextFile(filepath.Join(dir, "missing.html"))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	assert.True(t, fsys.PathExists(txtPath))
	assert.False(t, fsys.PathExists(filepath.Join(dir, "missing.html")))
}

func TestOSFileSystem_CustomExtensions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.rune")
	require.NoError(t, os.WriteFile(path, []byte("<div></div>"), 0644))

	_, err := NewOSFileSystem().ReadTextFile(path)
	assert.ErrorIs(t, err, ErrNotHTML)

	content, err := NewOSFileSystem(".rune").ReadTextFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<div></div>", content)
}

func TestIsHTMLFile(t *testing.T) {
	assert.True(t, IsHTMLFile("a/b.html"))
	assert.True(t, IsHTMLFile("a/b.HTM"))
	assert.False(t, IsHTMLFile("a/b.html.txt"))
	assert.False(t, IsHTMLFile("a/b"))
}
