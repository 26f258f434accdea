package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/martin13396/secure-media-library/internal/domain"
)

// sweepCountingRepo counts DeleteExpired calls
type sweepCountingRepo struct {
	calls atomic.Int64
}

func (r *sweepCountingRepo) Upsert(context.Context, *domain.Session) error { return nil }
func (r *sweepCountingRepo) GetByID(context.Context, string) (*domain.Session, error) {
	return nil, nil
}
func (r *sweepCountingRepo) GetByRefreshTokenHash(context.Context, string) (*domain.Session, error) {
	return nil, nil
}
func (r *sweepCountingRepo) GetByUserID(context.Context, string) ([]*domain.Session, error) {
	return nil, nil
}
func (r *sweepCountingRepo) TouchActivity(context.Context, string, time.Time) error { return nil }
func (r *sweepCountingRepo) Delete(context.Context, string) error                   { return nil }
func (r *sweepCountingRepo) DeleteByUserID(context.Context, string) ([]string, error) {
	return nil, nil
}

func (r *sweepCountingRepo) DeleteExpired(context.Context) (int64, error) {
	r.calls.Add(1)
	return 2, nil
}

func TestSessionSweeper_SweepsUntilCanceled(t *testing.T) {
	repo := &sweepCountingRepo{}
	sweeper := NewSessionSweeper(repo, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for repo.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestNewSessionSweeper_IntervalDefault(t *testing.T) {
	sweeper := NewSessionSweeper(&sweepCountingRepo{}, 0, nil)
	if sweeper.interval != time.Hour {
		t.Errorf("interval = %v, want 1h", sweeper.interval)
	}
}
