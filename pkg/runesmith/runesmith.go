package runesmith

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/CTAG07/Runesmith/pkg/document"
	"github.com/CTAG07/Runesmith/pkg/fsutil"
)

// Tags of the built-in directives.
const (
	NamespaceTag = "namespace"
	VarTag       = "var"
	ImportTag    = "import"
	ContentTag   = "content"
)

var builtinTags = []string{NamespaceTag, VarTag, ImportTag}

// Runesmith owns a rune registry, a cache of raw file contents and the compile
// map, and compiles documents through the fixed namespace, var, import,
// custom runes pipeline.
// All methods are concurrent-safe. Two concurrent compiles of the same
// uncached file may both read it; the cache keeps whichever finishes last.
type Runesmith struct {
	logger     *slog.Logger
	config     *Config
	fs         fsutil.FileSystem
	recorder   Recorder
	runes      map[string][]*Rune
	tags       []string
	cache      map[string]string
	compileMap map[string]MapEntry
	mu         sync.RWMutex
}

// Option configures a Runesmith at creation.
type Option func(*Runesmith)

// WithFileSystem makes the Runesmith read files through fsys instead of the
// host filesystem.
func WithFileSystem(fsys fsutil.FileSystem) Option {
	return func(rs *Runesmith) {
		rs.fs = fsys
	}
}

// WithRecorder hands every compile map entry to rec as it is produced.
func WithRecorder(rec Recorder) Option {
	return func(rs *Runesmith) {
		rs.recorder = rec
	}
}

// CompileOptions are the per-call settings of Compile.
type CompileOptions struct {
	// CurrentDir is the directory file and its imports are resolved against.
	CurrentDir string
	// Namespace seeds the document namespace. It is used, and extended, in
	// place.
	Namespace document.Namespace
	// FileStack lists files already being compiled by the caller.
	FileStack []string
}

type compileTask struct {
	target     string
	fileStack  []string
	namespace  document.Namespace
	currentDir string
}

// New creates a Runesmith with the built-in namespace, var and import runes
// registered. A nil logger discards all logs and a nil config means
// DefaultConfig.
func New(logger *slog.Logger, config *Config, opts ...Option) *Runesmith {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if config == nil {
		config = DefaultConfig()
	}
	rs := &Runesmith{
		logger:     logger,
		config:     config,
		runes:      make(map[string][]*Rune),
		cache:      make(map[string]string),
		compileMap: make(map[string]MapEntry),
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.fs == nil {
		rs.fs = fsutil.NewOSFileSystem(config.Extensions...)
	}

	rs.register(NamespaceTag, HandlerFunc(rs.inscribeNamespaces))
	rs.register(VarTag, HandlerFunc(rs.inscribeVars))
	rs.register(ImportTag, HandlerFunc(rs.inscribeImports))

	logger.Debug("Runesmith initialized")
	return rs
}

// Rune binds handler to tag. Runes on the same tag run in registration
// order, and tags run in the order they were first registered, after the
// built-in directives.
func (rs *Runesmith) Rune(tag string, handler Handler) (*Rune, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if normalized == "" {
		return nil, &InvalidTagError{Tag: tag}
	}
	if !validHandler(handler) {
		return nil, ErrInvalidHandler
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	r := rs.register(normalized, handler)
	rs.logger.Debug("Rune registered", "tag", normalized, "count", len(rs.runes[normalized]))
	return r, nil
}

// register appends a rune without validation. Callers other than New must
// hold mu.
func (rs *Runesmith) register(tag string, handler Handler) *Rune {
	r := &Rune{tag: tag, handler: handler}
	if _, ok := rs.runes[tag]; !ok {
		rs.tags = append(rs.tags, tag)
	}
	rs.runes[tag] = append(rs.runes[tag], r)
	return r
}

// Runes returns the runes bound to tag in registration order.
func (rs *Runesmith) Runes(tag string) []*Rune {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return slices.Clone(rs.runes[strings.ToLower(strings.TrimSpace(tag))])
}

// Tags returns every tag with runes bound, in pipeline order.
func (rs *Runesmith) Tags() []string {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	tags := slices.Clone(builtinTags)
	for _, tag := range rs.tags {
		if !slices.Contains(builtinTags, tag) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// pipeline returns a snapshot of every rune in the order they run.
func (rs *Runesmith) pipeline() []*Rune {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	var runes []*Rune
	for _, tag := range builtinTags {
		runes = append(runes, rs.runes[tag]...)
	}
	for _, tag := range rs.tags {
		if !slices.Contains(builtinTags, tag) {
			runes = append(runes, rs.runes[tag]...)
		}
	}
	return runes
}

// Compile reads file, runs it through the rune pipeline and returns the
// resulting markup. Relative paths are resolved against opts.CurrentDir, or
// the configured root when that is empty. Compile fails without reading
// anything if file is already on opts.FileStack.
func (rs *Runesmith) Compile(ctx context.Context, file string, opts *CompileOptions) (string, error) {
	if opts == nil {
		opts = &CompileOptions{}
	}

	currentDir := opts.CurrentDir
	if currentDir == "" {
		currentDir = rs.rootDir()
	}
	if abs, err := filepath.Abs(currentDir); err == nil {
		currentDir = abs
	}

	path := resolvePath(currentDir, file)
	if slices.Contains(opts.FileStack, path) {
		return "", &CircularImportError{Stack: slices.Clone(opts.FileStack), Path: path}
	}

	ns := opts.Namespace
	if ns == nil {
		ns = document.Namespace{}
	}

	rs.logger.DebugContext(ctx, "Compiling file", "file", path, "dir", currentDir)
	out, err := rs.compile(ctx, compileTask{
		target:     path,
		fileStack:  append(slices.Clone(opts.FileStack), path),
		namespace:  ns,
		currentDir: currentDir,
	})
	if err != nil {
		return "", err
	}
	rs.logger.InfoContext(ctx, "Compiled file", "file", path, "bytes", len(out))
	return out, nil
}

func (rs *Runesmith) compile(ctx context.Context, task compileTask) (string, error) {
	content, err := rs.load(task.target)
	if err != nil {
		return "", err
	}

	doc, err := document.Parse(content, document.Config{TrimWhitespace: rs.GetConfig().TrimWhitespace})
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", task.target, err)
	}
	doc.Namespace = task.namespace
	doc.FileStack = task.fileStack
	doc.CurrentDir = task.currentDir

	for _, r := range rs.pipeline() {
		if _, err = r.Inscribe(ctx, doc).Wait(ctx); err != nil {
			return "", fmt.Errorf("%s rune failed in %s: %w", r.Tag(), task.target, err)
		}
	}

	out := doc.Stringify()
	rs.record(ctx, MapEntry{
		Target:       task.target,
		Namespace:    doc.Namespace.Clone(),
		OutputLength: len(out),
		Created:      time.Now(),
	})
	return out, nil
}

// load returns the raw contents of path, reading it at most once until the
// cache is emptied.
func (rs *Runesmith) load(path string) (string, error) {
	rs.mu.RLock()
	content, ok := rs.cache[path]
	rs.mu.RUnlock()
	if ok {
		return content, nil
	}

	content, err := rs.fs.ReadTextFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	rs.mu.Lock()
	rs.cache[path] = content
	rs.mu.Unlock()
	return content, nil
}

func (rs *Runesmith) record(ctx context.Context, entry MapEntry) {
	rs.mu.Lock()
	rs.compileMap[entry.Target] = entry
	rec := rs.recorder
	rs.mu.Unlock()

	if rec == nil {
		return
	}
	if err := rec.Record(ctx, entry); err != nil {
		rs.logger.WarnContext(ctx, "Failed to record compile entry", "file", entry.Target, "error", err)
	}
}

// rootDir is where top-level compiles start when the caller names no
// directory.
func (rs *Runesmith) rootDir() string {
	cfg := rs.GetConfig()
	if cfg.RootDir != "" {
		return cfg.RootDir
	}
	if root, ok := fsutil.ProjectRoot(cfg.Manifests...); ok {
		return root
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	rs.logger.Debug("No project root found, using working directory", "dir", wd)
	return wd
}

// EmptyCache drops every cached file. Registered runes and the compile map
// are untouched.
func (rs *Runesmith) EmptyCache() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	clear(rs.cache)
}

// CacheSize returns the number of cached files.
func (rs *Runesmith) CacheSize() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return len(rs.cache)
}

// ClearMap drops every compile map entry. Registered runes and the cache are
// untouched.
func (rs *Runesmith) ClearMap() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	clear(rs.compileMap)
}

// Map returns a copy of the compile map, keyed by absolute file path.
func (rs *Runesmith) Map() map[string]MapEntry {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return maps.Clone(rs.compileMap)
}

// SetConfig swaps the configuration used by subsequent compiles.
func (rs *Runesmith) SetConfig(config *Config) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.config = config
}

// GetConfig returns a copy of the current configuration.
func (rs *Runesmith) GetConfig() Config {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return *rs.config
}

// resolvePath turns a file reference into an absolute path relative to dir.
func resolvePath(dir, file string) string {
	if fsutil.IsAbs(file) {
		return fsutil.Normalize(file)
	}
	return fsutil.MergePaths(dir, file)
}

func currentFile(doc *document.Document) string {
	if len(doc.FileStack) == 0 {
		return ""
	}
	return doc.FileStack[len(doc.FileStack)-1]
}
