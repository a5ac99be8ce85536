package runesmith

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is matched by every rune registration error.
	ErrInvalidArgument = errors.New("runesmith: invalid argument")
	// ErrInvalidHandler is returned when a rune is given a nil handler.
	ErrInvalidHandler = fmt.Errorf("%w: rune handler must be a non-nil function", ErrInvalidArgument)
	// ErrCircularImport is matched by every *CircularImportError.
	ErrCircularImport = errors.New("runesmith: circular import")
	// ErrHandlerPanic wraps a panic recovered from a synchronous handler.
	ErrHandlerPanic = errors.New("runesmith: rune handler panicked")
)

// InvalidTagError is returned when a rune is registered under a blank tag.
type InvalidTagError struct {
	Tag string
}

func (e *InvalidTagError) Error() string {
	return fmt.Sprintf("runesmith: received invalid tag %q, a tag must be a non-blank string", e.Tag)
}

func (e *InvalidTagError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// CircularImportError reports a file that imports one of its own ancestors.
type CircularImportError struct {
	// Stack is the chain of files being compiled when the cycle was found.
	Stack []string
	// Path is the file that would have closed the cycle.
	Path string
}

func (e *CircularImportError) Error() string {
	chain := append(append([]string{}, e.Stack...), e.Path)
	return fmt.Sprintf("runesmith: circular import of %s: %s", e.Path, strings.Join(chain, " -> "))
}

func (e *CircularImportError) Is(target error) bool {
	return target == ErrCircularImport
}
