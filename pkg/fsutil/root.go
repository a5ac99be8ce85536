package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultManifest marks the root of a project when no other manifest is given.
const DefaultManifest = "go.mod"

// ErrNoProjectRoot is returned when no manifest is found between the working
// directory and the filesystem root.
var ErrNoProjectRoot = errors.New("fsutil: no project root found")

// FindProjectRoot walks upward from start and returns the first directory
// containing one of the manifests (DefaultManifest when none are given).
// If start is a file, the walk begins at its directory.
func FindProjectRoot(start string, manifests ...string) (string, bool) {
	if len(manifests) == 0 {
		manifests = []string{DefaultManifest}
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", false
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		for _, manifest := range manifests {
			info, err := os.Stat(filepath.Join(dir, manifest))
			if err == nil && !info.IsDir() {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ProjectRoot is FindProjectRoot starting at the working directory.
func ProjectRoot(manifests ...string) (string, bool) {
	wd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	return FindProjectRoot(wd, manifests...)
}

// ResolveToProjectPath resolves paths and, unless the result is already
// absolute, merges it onto the project root.
func ResolveToProjectPath(paths ...string) (string, error) {
	p := Resolve(paths...)
	if IsAbs(p) {
		return p, nil
	}
	root, ok := ProjectRoot()
	if !ok {
		return "", fmt.Errorf("resolving %s: %w", p, ErrNoProjectRoot)
	}
	return MergePaths(root, p), nil
}
