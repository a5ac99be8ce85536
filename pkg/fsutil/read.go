package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotHTML is returned when reading a file whose extension is not accepted.
var ErrNotHTML = errors.New("fsutil: not an html file")

// DefaultExtensions are the file extensions OSFileSystem reads by default.
var DefaultExtensions = []string{".html", ".htm"}

// FileSystem is the read side of the filesystem the compiler works against.
type FileSystem interface {
	// PathExists reports whether something exists at path.
	PathExists(path string) bool
	// ReadTextFile returns the contents of the file at path. It fails if the
	// file is missing or is not of an accepted type.
	ReadTextFile(path string) (string, error)
}

// OSFileSystem reads from the host filesystem, restricted to a set of file
// extensions.
type OSFileSystem struct {
	Extensions []string
}

// NewOSFileSystem returns an OSFileSystem accepting the given extensions, or
// DefaultExtensions when none are given.
func NewOSFileSystem(extensions ...string) *OSFileSystem {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	return &OSFileSystem{Extensions: extensions}
}

func (f *OSFileSystem) PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (f *OSFileSystem) ReadTextFile(path string) (string, error) {
	if !f.PathExists(path) {
		return "", &fs.PathError{Op: "read", Path: path, Err: fs.ErrNotExist}
	}
	extensions := f.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if !HasExtension(path, extensions...) {
		return "", fmt.Errorf("%s is not a valid html file path: %w", path, ErrNotHTML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// IsHTMLFile reports whether path carries an .html or .htm extension.
func IsHTMLFile(path string) bool {
	return HasExtension(path, DefaultExtensions...)
}

// HasExtension reports whether path ends in one of extensions, ignoring case.
func HasExtension(path string, extensions ...string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
