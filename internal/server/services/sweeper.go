package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/logging"
	"github.com/dmitrijs2005/cardkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/cardkeeper/internal/server/repositories/sessions"
)

// SessionSweeper periodically removes expired sessions from the ledger.
type SessionSweeper struct {
	sessions sessions.Repository
	interval time.Duration
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewSessionSweeper(repo sessions.Repository, interval time.Duration, logger logging.Logger, m *metrics.Metrics) *SessionSweeper {
	return &SessionSweeper{
		sessions: repo,
		interval: interval,
		logger:   logger.With("module", "session_sweeper"),
		metrics:  m,
	}
}

// Sweep runs one cleanup pass and returns the number of rows removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.sessions.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error(ctx, "session sweep failed", "error", err)
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "expired sessions removed", "count", n)
		if s.metrics != nil {
			s.metrics.SessionsSwept.Add(float64(n))
		}
	}
	return n, nil
}

// Run sweeps once at start and then every interval until ctx is done. A
// non-positive interval disables the sweeper. Failed passes are retried on
// the next tick.
func (s *SessionSweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info(ctx, "session sweeper disabled")
		return nil
	}

	_, _ = s.Sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}
