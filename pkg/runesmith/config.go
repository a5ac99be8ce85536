package runesmith

import "github.com/CTAG07/Runesmith/pkg/fsutil"

// Config holds all configuration options for a Runesmith.
type Config struct {
	// TrimWhitespace trims text nodes and drops whitespace-only ones when
	// parsing, which makes output independent of source indentation.
	TrimWhitespace bool `json:"trim_whitespace"`

	// RootDir is the directory top-level compiles resolve against when the
	// caller gives no directory. Empty means the project root, falling back
	// to the working directory.
	RootDir string `json:"root_dir"`

	// Manifests are the file names that mark a project root.
	Manifests []string `json:"manifests"`

	// Extensions lists the file extensions that may be read. It is only
	// consulted when the Runesmith is created with the default filesystem.
	Extensions []string `json:"extensions"`

	// IsolateImports gives every imported file a copy of the caller's
	// namespace instead of the caller's namespace itself, so definitions made
	// inside an import stay inside it.
	IsolateImports bool `json:"isolate_imports"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		TrimWhitespace: false,
		RootDir:        "",
		Manifests:      []string{fsutil.DefaultManifest},
		Extensions:     append([]string{}, fsutil.DefaultExtensions...),
		IsolateImports: false,
	}
}
