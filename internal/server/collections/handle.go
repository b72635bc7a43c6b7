package collections

import (
	"errors"
	"sync"

	"github.com/dmitrijs2005/cardkeeper/internal/engine"
)

var ErrHandleClosed = errors.New("collection handle closed")

// Handle owns one user's open collection. All engine access goes through
// Do, which holds the handle lock for the duration of fn.
type Handle struct {
	mu     sync.Mutex
	userID int64
	path   string
	coll   engine.Collection
	closed bool
}

func (h *Handle) UserID() int64 { return h.userID }
func (h *Handle) Path() string  { return h.path }

// Do runs fn with exclusive access to the collection. fn must not retain
// the collection after it returns.
func (h *Handle) Do(fn func(engine.Collection) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHandleClosed
	}
	return fn(h.coll)
}

// close waits for an in-flight Do, then releases the engine. Safe to call
// more than once.
func (h *Handle) close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	err := h.coll.Close()
	h.coll = nil
	return err
}
