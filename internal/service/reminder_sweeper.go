package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/metrics"
	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/queue"
)

//go:generate mockgen -source ./reminder_sweeper.go -destination=./mocks/reminder_sweeper.go -package=mocks

// ReminderStore is the subset of the reservation repository the sweeper
// needs.
type ReminderStore interface {
	DueReminders(ctx context.Context, now time.Time, limit int) ([]model.DueReminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error)
	RecordReminderFailure(ctx context.Context, id string, giveUp bool) error
	ArchiveEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Mailer sends one message and reports the recipients the server
// refused.  A non-nil error means the message was not handed over at all.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (rejected []string, err error)
}

// ReminderRenderer turns a due reminder into a subject and a body.
type ReminderRenderer interface {
	RenderReminder(r model.DueReminder) (subject, body string, err error)
}

// Locker grants an exclusive, expiring lock.  ok is false when somebody
// else holds it.  release must be called once the work is done.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// SweepFailure describes one reminder that could not be delivered.
type SweepFailure struct {
	ReservationID string `json:"reservation_id"`
	Email         string `json:"email"`
	Error         string `json:"error"`
}

// SweepResult summarizes one SendDueReminders run.
type SweepResult struct {
	Sent     int            `json:"sent"`
	Failed   int            `json:"failed"`
	Failures []SweepFailure `json:"failures"`
}

// SweeperOptions configures a ReminderSweeper.
type SweeperOptions struct {
	BatchSize    int           // maximum reminders per run
	LockTTL      time.Duration // lifetime of the sweep lock
	ArchiveAfter time.Duration // how long after its start a reservation is archived
}

const sweepLockKey = "reminders:sweep"

// ReminderSweeper sends reservation reminders when asked to.  It owns no
// timer; an external scheduler calls SendDueReminders periodically.
type ReminderSweeper struct {
	store    ReminderStore
	mailer   Mailer
	renderer ReminderRenderer
	locker   Locker
	events   Publisher
	log      *zap.Logger
	opts     SweeperOptions
}

// NewReminderSweeper constructs a sweeper.  locker and events may be nil.
func NewReminderSweeper(store ReminderStore, mailer Mailer, renderer ReminderRenderer, locker Locker, events Publisher, log *zap.Logger, opts SweeperOptions) *ReminderSweeper {
	if store == nil || mailer == nil || renderer == nil || log == nil {
		panic("nil dependency passed to NewReminderSweeper")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 5 * time.Minute
	}
	if opts.ArchiveAfter <= 0 {
		opts.ArchiveAfter = 24 * time.Hour
	}
	return &ReminderSweeper{
		store:    store,
		mailer:   mailer,
		renderer: renderer,
		locker:   locker,
		events:   events,
		log:      log.Named("reminders"),
		opts:     opts,
	}
}

// SendDueReminders delivers every reminder due at now.  A failure on one
// reservation is recorded in the result and the sweep continues with the
// next one.  Only a failure to list the due reminders aborts the run.
//
// Runs are serialized through the locker when one is configured.  If the
// lock backend itself fails the sweep runs unlocked; the guarded
// reminder_sent update still prevents a second mark.
func (s *ReminderSweeper) SendDueReminders(ctx context.Context, now time.Time) (SweepResult, error) {
	now = now.UTC()
	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, sweepLockKey, s.opts.LockTTL)
		switch {
		case err != nil:
			s.log.Warn("sweep lock unavailable; running unlocked", zap.Error(err))
		case !ok:
			return SweepResult{}, ErrSweepInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.log.Warn("sweep lock release failed", zap.Error(err))
				}
			}()
		}
	}

	due, err := s.store.DueReminders(ctx, now, s.opts.BatchSize)
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("send_reminders").Inc()
		return SweepResult{}, fmt.Errorf("list due reminders: %w", err)
	}

	res := SweepResult{Failures: []SweepFailure{}}
	var events []queue.Event
	for _, r := range due {
		if err := s.deliver(ctx, r, now); err != nil {
			res.Failed++
			res.Failures = append(res.Failures, SweepFailure{ReservationID: r.ID, Email: r.Email, Error: err.Error()})
			metrics.RemindersFailedTotal.Inc()
			s.log.Warn("reminder failed", zap.String("reservation_id", r.ID), zap.String("email", r.Email),
				zap.Int("attempts", r.Attempts+1), zap.Error(err))
			s.recordFailure(ctx, r, err)
			continue
		}
		res.Sent++
		metrics.RemindersSentTotal.Inc()
		events = append(events, queue.Event{
			Type:          queue.EventReminderSent,
			OccurredAt:    now,
			UserID:        r.UserID,
			ReservationID: r.ID,
			UnitID:        r.UnitID,
			Email:         r.Email,
		})
	}
	s.log.Info("reminder sweep finished", zap.Int("due", len(due)), zap.Int("sent", res.Sent), zap.Int("failed", res.Failed))
	publishAll(ctx, s.events, s.log, events...)
	return res, nil
}

// errNotMarked means the mail went out but reminder_sent could not be set.
var errNotMarked = errors.New("sent but not marked")

// permanentError is a delivery failure that retrying cannot fix.
type permanentError struct{ error }

func (e permanentError) Unwrap() error { return e.error }

// recordFailure pushes a failed reminder behind fresh ones, or retires it
// when the failure is permanent.  A reminder that was sent but not marked
// is left alone: the next sweep resends it.
func (s *ReminderSweeper) recordFailure(ctx context.Context, r model.DueReminder, cause error) {
	if errors.Is(cause, errNotMarked) {
		return
	}
	var perm permanentError
	giveUp := errors.As(cause, &perm)
	if err := s.store.RecordReminderFailure(ctx, r.ID, giveUp); err != nil {
		s.log.Warn("record reminder failure", zap.String("reservation_id", r.ID), zap.Error(err))
	}
}

func (s *ReminderSweeper) deliver(ctx context.Context, r model.DueReminder, now time.Time) error {
	if strings.TrimSpace(r.Email) == "" {
		return permanentError{errors.New("recipient has no email address")}
	}
	subject, body, err := s.renderer.RenderReminder(r)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	rejected, err := s.mailer.Send(ctx, r.Email, subject, body)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	if len(rejected) > 0 {
		return permanentError{fmt.Errorf("rejected recipients: %s", strings.Join(rejected, ", "))}
	}
	marked, err := s.store.MarkReminderSent(ctx, r.ID, now)
	if err != nil {
		return fmt.Errorf("%w: %w", errNotMarked, err)
	}
	if !marked {
		s.log.Debug("reminder already marked by another sweep", zap.String("reservation_id", r.ID))
	}
	return nil
}

// ArchiveEnded archives reservations that started more than ArchiveAfter
// before now.
func (s *ReminderSweeper) ArchiveEnded(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.store.ArchiveEndedBefore(ctx, now.UTC().Add(-s.opts.ArchiveAfter))
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("archive_ended").Inc()
		return 0, fmt.Errorf("archive ended reservations: %w", err)
	}
	if n > 0 {
		s.log.Info("reservations archived", zap.Int64("count", n))
	}
	return n, nil
}
