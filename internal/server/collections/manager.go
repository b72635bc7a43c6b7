// Package collections manages one exclusively owned engine collection per
// user: opened lazily on first use, shared by that user's concurrent
// requests, and closed on logout, revocation or shutdown.
package collections

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/cardkeeper/internal/common"
	"github.com/dmitrijs2005/cardkeeper/internal/engine"
	"github.com/dmitrijs2005/cardkeeper/internal/filex"
	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
)

// PathRecorder persists where a user's collection lives.
type PathRecorder interface {
	UpdateCollectionPath(ctx context.Context, userID int64, path string) error
}

// Manager is the registry of open collections keyed by user id.
//
// The registry lock guards the maps only. It is held across the first open
// of a user's collection so that concurrent first callers share one engine
// instance, but never while an engine call runs. A user whose engine is
// being released stays in closing until the release finishes; GetOrCreate
// waits on that channel instead of opening a second instance.
type Manager struct {
	mu      sync.Mutex
	handles map[int64]*Handle
	closing map[int64]chan struct{}

	baseDir  string
	open     engine.Opener
	logger   logging.Logger
	recorder PathRecorder
	metrics  *metrics.Metrics
}

type Option func(*Manager)

// WithPathRecorder stores the collection path on first open. Failures are
// logged and otherwise ignored.
func WithPathRecorder(r PathRecorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

func NewManager(baseDir string, open engine.Opener, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		handles: make(map[int64]*Handle),
		closing: make(map[int64]chan struct{}),
		baseDir: baseDir,
		open:    open,
		logger:  logger.With("module", "collections"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Path returns <base>/users/user_<id>/<username>.collection.
func (m *Manager) Path(userID int64, username string) string {
	return filepath.Join(m.baseDir, "users",
		fmt.Sprintf("user_%d", userID),
		filex.SafeName(username)+".collection")
}

// GetOrCreate returns the user's handle, opening the collection if this is
// the first request since it was last closed. If the previous engine is
// still being released it waits for that first. Failures are
// common.ErrorInternal.
func (m *Manager) GetOrCreate(ctx context.Context, userID int64, username string) (*Handle, error) {
	m.mu.Lock()
	for {
		if h, ok := m.handles[userID]; ok {
			m.mu.Unlock()
			return h, nil
		}
		done, ok := m.closing[userID]
		if !ok {
			break
		}
		m.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return nil, common.Internal("failed to open collection", ctx.Err())
		}
		m.mu.Lock()
	}

	path := m.Path(userID, username)
	h, err := m.openLocked(userID, path)
	if err != nil {
		m.mu.Unlock()
		m.countOpen("error")
		m.logger.Error(ctx, "failed to open collection", "user_id", userID, "error", err)
		return nil, common.Internal("failed to open collection", err)
	}
	m.handles[userID] = h
	m.setActive(len(m.handles))
	m.mu.Unlock()

	m.countOpen("ok")
	m.logger.Info(ctx, "collection opened", "user_id", userID, "username", username, "path", path)

	if m.recorder != nil {
		if err := m.recorder.UpdateCollectionPath(ctx, userID, path); err != nil {
			m.logger.Warn(ctx, "failed to record collection path", "user_id", userID, "error", err)
		}
	}

	return h, nil
}

func (m *Manager) openLocked(userID int64, path string) (*Handle, error) {
	if err := filex.EnsureParent(path); err != nil {
		return nil, err
	}
	coll, err := m.open(path)
	if err != nil {
		return nil, err
	}
	return &Handle{userID: userID, path: path, coll: coll}, nil
}

// Get returns the user's handle without opening anything.
func (m *Manager) Get(userID int64) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.handles[userID]
	return h, ok
}

// Close removes the user's handle and releases its engine once any
// in-flight call finishes. It returns after the engine is released, also
// when another Close is already releasing it. Closing an absent user is a
// no-op.
func (m *Manager) Close(userID int64) error {
	m.mu.Lock()
	h, ok := m.handles[userID]
	if !ok {
		done, closing := m.closing[userID]
		m.mu.Unlock()
		if closing {
			<-done
		}
		return nil
	}
	delete(m.handles, userID)
	done := make(chan struct{})
	m.closing[userID] = done
	m.setActive(len(m.handles))
	m.mu.Unlock()

	err := h.close()
	m.finishClose(userID, done)

	if err != nil {
		m.logger.Error(context.Background(), "failed to close collection", "user_id", userID, "error", err)
		return common.Internal("failed to close collection", err)
	}
	m.logger.Info(context.Background(), "collection closed", "user_id", userID)
	return nil
}

func (m *Manager) finishClose(userID int64, done chan struct{}) {
	m.mu.Lock()
	delete(m.closing, userID)
	m.mu.Unlock()
	close(done)
}

func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handles)
}

// CloseAll closes every open collection. It is used at shutdown and is
// safe to call repeatedly.
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	handles := m.handles
	m.handles = make(map[int64]*Handle)
	pending := make(map[int64]chan struct{}, len(handles))
	for uid := range handles {
		done := make(chan struct{})
		m.closing[uid] = done
		pending[uid] = done
	}
	m.setActive(0)
	m.mu.Unlock()

	var errs []error
	for uid, h := range handles {
		if err := h.close(); err != nil {
			errs = append(errs, fmt.Errorf("user %d: %w", uid, err))
		}
		m.finishClose(uid, pending[uid])
	}
	if len(handles) > 0 {
		m.logger.Info(context.Background(), "closed collections", "count", len(handles))
	}
	return errors.Join(errs...)
}

// setActive is called with m.mu held.
func (m *Manager) setActive(n int) {
	if m.metrics != nil {
		m.metrics.ActiveCollections.Set(float64(n))
	}
}

func (m *Manager) countOpen(result string) {
	if m.metrics != nil {
		m.metrics.CollectionOpens.WithLabelValues(result).Inc()
	}
}
