package runesmith

import (
	"context"
	"fmt"

	"github.com/CTAG07/Runesmith/pkg/document"
)

// Handler transforms a document in place.
type Handler interface {
	Inscribe(ctx context.Context, doc *document.Document) *Future
}

// HandlerFunc adapts a synchronous function to Handler. A panic inside the
// function is turned into an error wrapping ErrHandlerPanic.
type HandlerFunc func(ctx context.Context, doc *document.Document) error

func (f HandlerFunc) Inscribe(ctx context.Context, doc *document.Document) (fut *Future) {
	defer func() {
		if r := recover(); r != nil {
			fut = Resolved(doc, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
		}
	}()
	return Resolved(doc, f(ctx, doc))
}

// AsyncHandlerFunc adapts a function that finishes in the background to
// Handler. The returned channel delivers the outcome; closing it without a
// value means success.
type AsyncHandlerFunc func(ctx context.Context, doc *document.Document) <-chan error

func (f AsyncHandlerFunc) Inscribe(ctx context.Context, doc *document.Document) (fut *Future) {
	defer func() {
		if r := recover(); r != nil {
			fut = Resolved(doc, fmt.Errorf("%w: %v", ErrHandlerPanic, r))
		}
	}()
	return Await(doc, f(ctx, doc))
}

// Rune is a handler bound to a tag.
type Rune struct {
	tag     string
	handler Handler
}

// Tag returns the tag the rune is bound to.
func (r *Rune) Tag() string {
	return r.tag
}

// Inscribe runs the handler against doc. The Future always yields doc itself,
// mutated by the handler.
func (r *Rune) Inscribe(ctx context.Context, doc *document.Document) *Future {
	if !validHandler(r.handler) {
		return Resolved(doc, ErrInvalidHandler)
	}
	fut := r.handler.Inscribe(ctx, doc)
	if fut == nil {
		return Resolved(doc, nil)
	}
	fut.doc = doc
	return fut
}

func validHandler(h Handler) bool {
	switch fn := h.(type) {
	case nil:
		return false
	case HandlerFunc:
		return fn != nil
	case AsyncHandlerFunc:
		return fn != nil
	}
	return true
}
