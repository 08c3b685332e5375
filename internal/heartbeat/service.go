// Package heartbeat keeps the warehouse session warm while the gateway is
// idle and notices a lost session before the next user turn does.
package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/snowwise/snowwise/internal/warehouse"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 30 * time.Minute

// Pinger verifies the warehouse session. Implemented by warehouse.Cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnLostFunc is called when a ping fails with a connection error.
type OnLostFunc func(ctx context.Context, err error)

// Service pings the warehouse on a fixed interval.
type Service struct {
	pinger   Pinger
	interval time.Duration
	timeout  time.Duration
	onLost   OnLostFunc
}

// NewService creates a heartbeat. interval defaults to DefaultInterval if
// zero; onLost may be nil.
func NewService(pinger Pinger, interval time.Duration, onLost OnLostFunc) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Service{
		pinger:   pinger,
		interval: interval,
		timeout:  30 * time.Second,
		onLost:   onLost,
	}
}

// Start runs the heartbeat loop until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("heartbeat: started", "interval", s.interval)

	for {
		select {
		case <-ticker.C:
			s.check(ctx)
		case <-ctx.Done():
			slog.Info("heartbeat: stopped")
			return ctx.Err()
		}
	}
}

// check pings once. Query-level failures are only logged; the session is
// still usable.
func (s *Service) check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.pinger.Ping(pingCtx)
	switch {
	case err == nil:
		slog.Debug("heartbeat: warehouse ok")
		return true
	case warehouse.IsConnectionError(err):
		slog.Warn("heartbeat: warehouse session lost", "err", err)
		if s.onLost != nil {
			s.onLost(ctx, err)
		}
	default:
		slog.Warn("heartbeat: ping failed", "err", err)
	}
	return false
}
