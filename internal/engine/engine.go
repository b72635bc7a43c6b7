// Package engine defines the boundary to the per-user record store. A
// Collection is stateful and must not be used from more than one goroutine
// at a time; the server serializes access through collections.Handle.
package engine

import "errors"

var (
	ErrNotFound = errors.New("record not found")
	ErrEmptyKey = errors.New("record key must not be empty")
)

// Collection is one user's record store.
type Collection interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// Keys lists keys with the given prefix in lexical order.
	Keys(prefix string) ([]string, error)
	Count() (int, error)
	// Close releases the underlying files. The collection is unusable after.
	Close() error
}

// Opener opens (creating if needed) the collection stored at path.
type Opener func(path string) (Collection, error)
