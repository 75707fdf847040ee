package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type expiryReclaimer interface {
	ReclaimExpired(ctx context.Context) (int, error)
}

type reservationArchiver interface {
	ArchiveEnded(ctx context.Context, now time.Time) (int64, error)
}

// ExpiryWorker periodically reclaims expired holds and archives ended
// reservations.  Lazy reclamation in CreateHold remains the primary
// mechanism; the worker frees units during quiet periods when nobody is
// creating holds.  Running it on several instances at once is safe
// because reclamation locks the rows it deletes.
type ExpiryWorker struct {
	holds    expiryReclaimer
	archiver reservationArchiver
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// NewExpiryWorker returns a worker that ticks every interval.  archiver
// may be nil to disable archival.
func NewExpiryWorker(holds *HoldManager, archiver *ReminderSweeper, interval time.Duration, log *zap.Logger) *ExpiryWorker {
	w := &ExpiryWorker{holds: holds, interval: interval, log: log.Named("expiry"), now: time.Now}
	if archiver != nil {
		w.archiver = archiver
	}
	if w.interval <= 0 {
		w.interval = time.Minute
	}
	return w
}

// Run ticks until ctx is cancelled and then returns nil.  Errors of a
// single tick are logged and do not stop the loop.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.log.Info("expiry worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.log.Info("expiry worker stopped")
			return nil
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	if n, err := w.holds.ReclaimExpired(ctx); err != nil {
		w.log.Error("reclaim expired holds", zap.Error(err))
	} else if n > 0 {
		w.log.Debug("reclaimed expired holds", zap.Int("count", n))
	}
	if w.archiver != nil {
		if _, err := w.archiver.ArchiveEnded(ctx, w.now()); err != nil {
			w.log.Error("archive ended reservations", zap.Error(err))
		}
	}
}
