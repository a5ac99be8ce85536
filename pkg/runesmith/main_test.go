package runesmith

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/CTAG07/Runesmith/pkg/document"
	"github.com/CTAG07/Runesmith/pkg/fsutil"
)

// countingFS wraps the host filesystem and counts reads per path.
type countingFS struct {
	fsutil.FileSystem
	mu    sync.Mutex
	reads map[string]int
}

func newCountingFS() *countingFS {
	return &countingFS{FileSystem: fsutil.NewOSFileSystem(), reads: make(map[string]int)}
}

func (c *countingFS) ReadTextFile(path string) (string, error) {
	c.mu.Lock()
	c.reads[path]++
	c.mu.Unlock()
	return c.FileSystem.ReadTextFile(path)
}

func (c *countingFS) count(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[path]
}

// setupTestRunesmith creates a Runesmith that trims whitespace and discards logs.
func setupTestRunesmith(tb testing.TB, opts ...Option) *Runesmith {
	tb.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	config := DefaultConfig()
	config.TrimWhitespace = true
	return New(logger, config, opts...)
}

// writeFiles creates files (relative path -> content) under dir.
func writeFiles(tb testing.TB, dir string, files map[string]string) {
	tb.Helper()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			tb.Fatalf("failed to create dir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			tb.Fatalf("failed to write %s: %v", name, err)
		}
	}
}

func parseTrimmed(tb testing.TB, markup string) *document.Document {
	tb.Helper()
	doc, err := document.Parse(markup, document.Config{TrimWhitespace: true})
	if err != nil {
		tb.Fatalf("failed to parse markup: %v", err)
	}
	return doc
}

// inscribeBuiltin runs the first rune registered on tag against doc.
func inscribeBuiltin(tb testing.TB, rs *Runesmith, tag string, doc *document.Document) error {
	tb.Helper()
	runes := rs.Runes(tag)
	if len(runes) == 0 {
		tb.Fatalf("no rune registered for %q", tag)
	}
	_, err := runes[0].Inscribe(context.Background(), doc).Wait(context.Background())
	return err
}
