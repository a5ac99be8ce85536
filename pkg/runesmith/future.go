package runesmith

import (
	"context"
	"sync"

	"github.com/CTAG07/Runesmith/pkg/document"
)

// Future is the outcome of inscribing a rune on a document. Whether the
// handler finished synchronously or is still running, callers wait on it the
// same way.
type Future struct {
	doc     *document.Document
	result  <-chan error
	mu      sync.Mutex
	settled bool
	err     error
}

// Resolved returns a Future that has already finished with err.
func Resolved(doc *document.Document, err error) *Future {
	return &Future{doc: doc, settled: true, err: err}
}

// Await returns a Future that finishes with the first value received from
// result, or successfully when result is closed. A nil channel counts as
// already finished.
func Await(doc *document.Document, result <-chan error) *Future {
	if result == nil {
		return Resolved(doc, nil)
	}
	return &Future{doc: doc, result: result}
}

// Wait blocks until the handler has finished or ctx is done, and returns the
// inscribed document. Once settled, later calls return the same result.
func (f *Future) Wait(ctx context.Context) (*document.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.settled {
		select {
		case err := <-f.result:
			f.err = err
			f.settled = true
		case <-ctx.Done():
			return f.doc, ctx.Err()
		}
	}
	return f.doc, f.err
}
