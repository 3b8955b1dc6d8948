package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samhotchkiss/trackshare/internal/logging"
)

const defaultSweepTimeout = 30 * time.Second

// ExpiredLinkDeleter removes share links that expired at or before now.
type ExpiredLinkDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// ShareLinkSweeper periodically deletes expired share links.
type ShareLinkSweeper struct {
	Store    ExpiredLinkDeleter
	Schedule Schedule
	Timeout  time.Duration
	Now      func() time.Time
	Logger   *log.Logger
}

func NewShareLinkSweeper(store ExpiredLinkDeleter, schedule Schedule, logger *log.Logger) *ShareLinkSweeper {
	return &ShareLinkSweeper{
		Store:    store,
		Schedule: schedule,
		Timeout:  defaultSweepTimeout,
		Now: func() time.Time {
			return time.Now().UTC()
		},
		Logger: logging.OrDiscard(logger),
	}
}

// Start sweeps until ctx is done.
func (w *ShareLinkSweeper) Start(ctx context.Context) {
	logger := logging.OrDiscard(w.Logger)
	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("share link sweep failed", "err", err)
		}
		now := w.now()
		if err := sleepWithContext(ctx, w.Schedule.Next(now).Sub(now)); err != nil {
			return
		}
	}
}

// RunOnce deletes expired links and returns how many were removed.
func (w *ShareLinkSweeper) RunOnce(ctx context.Context) (int, error) {
	if w == nil || w.Store == nil {
		return 0, fmt.Errorf("share link sweeper is not configured")
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = defaultSweepTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	deleted, err := w.Store.DeleteExpired(runCtx, w.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logging.OrDiscard(w.Logger).Info("swept expired share links", "deleted", deleted)
	}
	return deleted, nil
}

func (w *ShareLinkSweeper) now() time.Time {
	if w.Now == nil {
		return time.Now().UTC()
	}
	return w.Now().UTC()
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
