// Package worker holds background maintenance loops.
package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/martin13396/secure-media-library/internal/repository"
	"github.com/martin13396/secure-media-library/pkg/logger"
)

// SessionSweeper periodically removes sessions past their durable expiry.
// The cache mirrors need no sweeping; their TTL handles that.
type SessionSweeper struct {
	repo     repository.SessionRepository
	interval time.Duration
	log      *logger.Logger
}

// NewSessionSweeper creates a new SessionSweeper
func NewSessionSweeper(repo repository.SessionRepository, interval time.Duration, log *logger.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = logger.Get()
	}
	return &SessionSweeper{repo: repo, interval: interval, log: log}
}

// Start runs the sweep loop until ctx is canceled
func (w *SessionSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("session sweeper started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *SessionSweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	removed, err := w.repo.DeleteExpired(ctx)
	if err != nil {
		w.log.Error("session sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		w.log.Info("expired sessions removed", zap.Int64("count", removed))
	}
}
