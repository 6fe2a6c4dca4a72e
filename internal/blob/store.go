// Package blob stores photo content addressed by its hash.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Open for a key the store does not hold
var ErrNotFound = errors.New("blob not found")

// Store persists photo content and hands back a locator that is kept on the
// item record.
type Store interface {
	// Put stores the content. name is the uploaded file name; only its
	// extension is kept.
	Put(ctx context.Context, r io.Reader, name string) (locator string, err error)

	// Delete releases the content behind a locator. Unknown locators are
	// ignored.
	Delete(ctx context.Context, locator string) error

	// Open returns the content stored under key (the last path segment of
	// a locator).
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
