// Package service implements the lease manager that turns console units
// into short lived holds and holds into reservations, and the reminder
// sweeper that notifies users before their booking starts.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medialab/equipment-booking/internal/metrics"
	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/queue"
	"github.com/medialab/equipment-booking/internal/repository"
)

// LeaseStore is the transactional storage the manager runs on.  Every
// callback passed to WithinTx runs in one database transaction which is
// committed only when the callback returns nil.
type LeaseStore interface {
	WithinTx(ctx context.Context, fn func(repository.LeaseTx) error) error
	GetHold(ctx context.Context, holdID string) (*model.Hold, error)
	ActiveHoldByUser(ctx context.Context, userID uint64, now time.Time) (*model.Hold, error)
}

// HoldOptions configures a HoldManager.
type HoldOptions struct {
	DefaultMinutes int            // lease used when the caller passes 0
	MaxMinutes     int            // longest lease a caller may request
	Location       *time.Location // lab wall-clock zone for booking dates
}

// HoldManager coordinates holds and reservations.  It keeps no state of
// its own: all exclusivity comes from row locks and unique keys in the
// store, so any number of instances may run side by side.
type HoldManager struct {
	store  LeaseStore
	events Publisher
	log    *zap.Logger
	opts   HoldOptions
	now    func() time.Time
	newID  func() string
}

// NewHoldManager constructs a HoldManager.  events may be nil, in which
// case nothing is published.
func NewHoldManager(store LeaseStore, events Publisher, log *zap.Logger, opts HoldOptions) *HoldManager {
	if store == nil || log == nil {
		panic("nil dependency passed to NewHoldManager")
	}
	if opts.DefaultMinutes <= 0 {
		opts.DefaultMinutes = 15
	}
	if opts.MaxMinutes < opts.DefaultMinutes {
		opts.MaxMinutes = 120
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &HoldManager{
		store:  store,
		events: events,
		log:    log.Named("holds"),
		opts:   opts,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

// HoldView is the client facing representation of a hold.  Remaining
// seconds are always computed from the stored expiry at read time.
type HoldView struct {
	HoldID           string    `json:"hold_id"`
	UserID           uint64    `json:"user_id"`
	UnitID           uint64    `json:"unit_id"`
	ConsoleTypeID    uint64    `json:"console_type_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int64     `json:"remaining_seconds"`
	GameIDs          []uint64  `json:"game_ids"`
	AccessoryID      *uint64   `json:"accessory_id,omitempty"`
}

func viewOf(h model.Hold, now time.Time) HoldView {
	games := h.GameIDs
	if games == nil {
		games = []uint64{}
	}
	return HoldView{
		HoldID:           h.ID,
		UserID:           h.UserID,
		UnitID:           h.UnitID,
		ConsoleTypeID:    h.ConsoleTypeID,
		ExpiresAt:        h.ExpiresAt.UTC(),
		RemainingSeconds: h.RemainingSeconds(now),
		GameIDs:          games,
		AccessoryID:      h.AccessoryID,
	}
}

// CancelResult reports the outcome of CancelHold.  Released is false when
// the hold had already disappeared by the time the delete ran.
type CancelResult struct {
	Released bool   `json:"released"`
	UnitID   uint64 `json:"released_unit_id"`
}

// BookingDetails is what the user supplies when converting a hold into
// a reservation.  Date and TimeSlot are lab local time.
type BookingDetails struct {
	Date                string `json:"date"`      // YYYY-MM-DD
	TimeSlot            string `json:"time_slot"` // HH:MM
	ReminderEnabled     bool   `json:"reminder_enabled"`
	ReminderHoursBefore int    `json:"reminder_hours_before"`
}

const (
	minReminderHours = 1
	maxReminderHours = 168
)

// CreateHold leases one free unit of consoleTypeID to userID for
// leaseMinutes (0 selects the default).  The boolean result is false
// when the user already had a live hold, which is then returned
// unchanged.
//
// Everything happens in one transaction: expired holds system-wide are
// reclaimed first, then the caller's existing hold is looked up, then a
// free unit is locked and leased.
func (m *HoldManager) CreateHold(ctx context.Context, userID, consoleTypeID uint64, leaseMinutes int) (HoldView, bool, error) {
	defer observe("create_hold")()

	if userID == 0 {
		return HoldView{}, false, invalidf("user id is required")
	}
	if consoleTypeID == 0 {
		return HoldView{}, false, invalidf("console_type_id is required")
	}
	if leaseMinutes == 0 {
		leaseMinutes = m.opts.DefaultMinutes
	}
	if leaseMinutes < 1 || leaseMinutes > m.opts.MaxMinutes {
		return HoldView{}, false, invalidf("lease_minutes must be between 1 and %d", m.opts.MaxMinutes)
	}

	now := m.now().UTC()
	var (
		hold      model.Hold
		created   bool
		reclaimed []model.Hold
	)
	attempt := func() error {
		return m.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
			var err error
			if reclaimed, err = tx.ReclaimExpired(ctx, now); err != nil {
				return fmt.Errorf("reclaim expired holds: %w", err)
			}
			existing, err := tx.ActiveHoldByUser(ctx, userID, now)
			switch {
			case err == nil:
				hold, created = *existing, false
				return nil
			case !errors.Is(err, repository.ErrNotFound):
				return fmt.Errorf("lookup active hold: %w", err)
			}
			if err := tx.EnsureConsoleType(ctx, consoleTypeID); err != nil {
				return err
			}
			h := model.Hold{
				ID:            m.newID(),
				UserID:        userID,
				ConsoleTypeID: consoleTypeID,
				CreatedAt:     now,
				ExpiresAt:     now.Add(time.Duration(leaseMinutes) * time.Minute),
			}
			if err := tx.AcquireUnit(ctx, &h); err != nil {
				return err
			}
			hold, created = h, true
			return nil
		})
	}

	err := attempt()
	if errors.Is(err, repository.ErrConflict) {
		// The same user raced itself and lost on the per-user key.  The
		// second pass finds the winner's hold through the idempotent
		// lookup.
		m.log.Debug("hold insert conflicted; retrying", zap.Uint64("user_id", userID))
		err = attempt()
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNoUnitsAvailable):
			metrics.NoUnitsAvailableTotal.Inc()
		case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrConflict):
		default:
			metrics.OperationErrorsTotal.WithLabelValues("create_hold").Inc()
			m.log.Error("create hold failed", zap.Uint64("user_id", userID),
				zap.Uint64("console_type_id", consoleTypeID), zap.Error(err))
		}
		return HoldView{}, false, err
	}

	view := viewOf(hold, m.now().UTC())
	m.afterReclaim(ctx, reclaimed, now)
	if created {
		metrics.HoldsCreatedTotal.Inc()
		m.log.Info("hold created", zap.String("hold_id", hold.ID), zap.Uint64("user_id", userID),
			zap.Uint64("unit_id", hold.UnitID), zap.Time("expires_at", hold.ExpiresAt))
		expires := hold.ExpiresAt
		publishAll(ctx, m.events, m.log, queue.Event{
			Type:          queue.EventHoldCreated,
			OccurredAt:    now,
			UserID:        userID,
			HoldID:        hold.ID,
			UnitID:        hold.UnitID,
			ConsoleTypeID: consoleTypeID,
			ExpiresAt:     &expires,
		})
	}
	return view, created, nil
}

// GetHold returns a hold to its owner or to an administrator.  A hold
// whose expiry has passed is reported as not found even if its row has
// not been reclaimed yet.
func (m *HoldManager) GetHold(ctx context.Context, holdID string, p model.Principal) (HoldView, error) {
	h, err := m.store.GetHold(ctx, holdID)
	if err != nil {
		return HoldView{}, err
	}
	if !p.CanAccess(h.UserID) {
		return HoldView{}, repository.ErrForbidden
	}
	now := m.now().UTC()
	if h.Expired(now) {
		return HoldView{}, repository.ErrNotFound
	}
	return viewOf(*h, now), nil
}

// CurrentHold returns the caller's live hold, or ErrNotFound.
func (m *HoldManager) CurrentHold(ctx context.Context, userID uint64) (HoldView, error) {
	now := m.now().UTC()
	h, err := m.store.ActiveHoldByUser(ctx, userID, now)
	if err != nil {
		return HoldView{}, err
	}
	return viewOf(*h, now), nil
}

// AttachExtras replaces the games and accessory soft-held for the booking
// flow of holdID.  Only the owner may change them and only while the hold
// is live.  An unavailable item fails the whole call with ErrConflict and
// nothing changes.
func (m *HoldManager) AttachExtras(ctx context.Context, holdID string, p model.Principal, gameIDs []uint64, accessoryID *uint64) (HoldView, error) {
	defer observe("attach_extras")()

	if len(gameIDs) > model.MaxGamesPerBooking {
		return HoldView{}, invalidf("at most %d games may be selected", model.MaxGamesPerBooking)
	}
	seen := make(map[uint64]struct{}, len(gameIDs))
	for _, id := range gameIDs {
		if id == 0 {
			return HoldView{}, invalidf("game ids must be positive")
		}
		if _, dup := seen[id]; dup {
			return HoldView{}, invalidf("game %d selected twice", id)
		}
		seen[id] = struct{}{}
	}
	if accessoryID != nil && *accessoryID == 0 {
		return HoldView{}, invalidf("accessory id must be positive")
	}

	now := m.now().UTC()
	var hold model.Hold
	err := m.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
		h, err := tx.HoldForUpdate(ctx, holdID)
		if err != nil {
			return err
		}
		if h.UserID != p.UserID {
			return repository.ErrForbidden
		}
		if h.Expired(now) {
			return ErrHoldExpired
		}
		if err := tx.AttachExtras(ctx, h, gameIDs, accessoryID); err != nil {
			if errors.Is(err, repository.ErrItemUnavailable) {
				return fmt.Errorf("%w: %w", repository.ErrConflict, err)
			}
			return err
		}
		hold = *h
		return nil
	})
	if err != nil {
		m.logUnexpected("attach_extras", err, zap.String("hold_id", holdID))
		return HoldView{}, err
	}
	return viewOf(hold, now), nil
}

// CancelHold releases a hold on behalf of its owner or an administrator.
// The unit flag and any soft-held extras are cleared in the same
// transaction.
func (m *HoldManager) CancelHold(ctx context.Context, holdID string, p model.Principal) (CancelResult, error) {
	defer observe("cancel_hold")()

	now := m.now().UTC()
	var (
		hold model.Hold
		res  CancelResult
	)
	err := m.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
		h, err := tx.HoldForUpdate(ctx, holdID)
		if err != nil {
			return err
		}
		if !p.CanAccess(h.UserID) {
			return repository.ErrForbidden
		}
		released, err := tx.Release(ctx, *h)
		if err != nil {
			return fmt.Errorf("release hold: %w", err)
		}
		hold = *h
		res = CancelResult{Released: released, UnitID: h.UnitID}
		return nil
	})
	if err != nil {
		m.logUnexpected("cancel_hold", err, zap.String("hold_id", holdID))
		return CancelResult{}, err
	}
	if res.Released {
		metrics.HoldsReleasedTotal.WithLabelValues("cancelled").Inc()
		m.log.Info("hold cancelled", zap.String("hold_id", hold.ID), zap.Uint64("unit_id", hold.UnitID),
			zap.Uint64("by_user", p.UserID))
		publishAll(ctx, m.events, m.log, queue.Event{
			Type:          queue.EventHoldReleased,
			OccurredAt:    now,
			UserID:        hold.UserID,
			HoldID:        hold.ID,
			UnitID:        hold.UnitID,
			ConsoleTypeID: hold.ConsoleTypeID,
		})
	}
	return res, nil
}

// ConfirmHold converts a live hold into a reservation.  The reservation
// insert, the hold delete and the flag clears commit together or not at
// all.  Confirming an expired hold releases it and returns
// ErrHoldExpired without writing a reservation.
func (m *HoldManager) ConfirmHold(ctx context.Context, holdID string, p model.Principal, d BookingDetails) (*model.Reservation, error) {
	defer observe("confirm_hold")()

	now := m.now().UTC()
	var (
		res     *model.Reservation
		hold    model.Hold
		expired bool
	)
	err := m.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
		h, err := tx.HoldForUpdate(ctx, holdID)
		if err != nil {
			return err
		}
		if !p.CanAccess(h.UserID) {
			return repository.ErrForbidden
		}
		hold = *h
		if h.Expired(now) {
			expired = true
			if _, err := tx.Release(ctx, *h); err != nil {
				return fmt.Errorf("release expired hold: %w", err)
			}
			return nil
		}
		// An expired hold wins over invalid details.
		startsAt, err := m.validateBooking(d, now)
		if err != nil {
			return err
		}

		r := &model.Reservation{
			ID:                  m.newID(),
			UserID:              h.UserID,
			UnitID:              h.UnitID,
			ConsoleTypeID:       h.ConsoleTypeID,
			Date:                d.Date,
			TimeSlot:            d.TimeSlot,
			StartsAt:            startsAt,
			AccessoryID:         h.AccessoryID,
			ReminderEnabled:     d.ReminderEnabled,
			CreatedAt:           now,
		}
		r.SetGames(h.GameIDs)
		if d.ReminderEnabled {
			remindAt := startsAt.Add(-time.Duration(d.ReminderHoursBefore) * time.Hour)
			r.ReminderHoursBefore = d.ReminderHoursBefore
			r.RemindAt = &remindAt
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return err
		}
		released, err := tx.Release(ctx, *h)
		if err != nil {
			return fmt.Errorf("release confirmed hold: %w", err)
		}
		if !released {
			return fmt.Errorf("hold %s vanished while locked", h.ID)
		}
		res = r
		return nil
	})
	if err != nil {
		m.logUnexpected("confirm_hold", err, zap.String("hold_id", holdID))
		return nil, err
	}

	if expired {
		metrics.HoldsReleasedTotal.WithLabelValues("expired").Inc()
		m.afterReclaim(ctx, []model.Hold{hold}, now)
		return nil, ErrHoldExpired
	}

	metrics.HoldsReleasedTotal.WithLabelValues("confirmed").Inc()
	metrics.ReservationsConfirmedTotal.Inc()
	m.log.Info("reservation confirmed", zap.String("reservation_id", res.ID), zap.String("hold_id", hold.ID),
		zap.Uint64("unit_id", res.UnitID), zap.Time("starts_at", res.StartsAt))
	starts := res.StartsAt
	publishAll(ctx, m.events, m.log, queue.Event{
		Type:          queue.EventReservationConfirmed,
		OccurredAt:    now,
		UserID:        res.UserID,
		HoldID:        hold.ID,
		ReservationID: res.ID,
		UnitID:        res.UnitID,
		ConsoleTypeID: res.ConsoleTypeID,
		StartsAt:      &starts,
	})
	return res, nil
}

// ReclaimExpired runs the same expiry pass as CreateHold on its own.  It
// returns the number of holds removed.
func (m *HoldManager) ReclaimExpired(ctx context.Context) (int, error) {
	defer observe("reclaim_expired")()

	now := m.now().UTC()
	var reclaimed []model.Hold
	err := m.store.WithinTx(ctx, func(tx repository.LeaseTx) error {
		var err error
		reclaimed, err = tx.ReclaimExpired(ctx, now)
		return err
	})
	if err != nil {
		metrics.OperationErrorsTotal.WithLabelValues("reclaim_expired").Inc()
		return 0, fmt.Errorf("reclaim expired holds: %w", err)
	}
	m.afterReclaim(ctx, reclaimed, now)
	return len(reclaimed), nil
}

func (m *HoldManager) afterReclaim(ctx context.Context, reclaimed []model.Hold, now time.Time) {
	if len(reclaimed) == 0 {
		return
	}
	metrics.HoldsReleasedTotal.WithLabelValues("expired").Add(float64(len(reclaimed)))
	events := make([]queue.Event, 0, len(reclaimed))
	for _, h := range reclaimed {
		expires := h.ExpiresAt
		events = append(events, queue.Event{
			Type:          queue.EventHoldExpired,
			OccurredAt:    now,
			UserID:        h.UserID,
			HoldID:        h.ID,
			UnitID:        h.UnitID,
			ConsoleTypeID: h.ConsoleTypeID,
			ExpiresAt:     &expires,
		})
	}
	m.log.Info("expired holds reclaimed", zap.Int("count", len(reclaimed)))
	publishAll(ctx, m.events, m.log, events...)
}

// validateBooking checks the booking details and returns the slot start
// as an instant.
func (m *HoldManager) validateBooking(d BookingDetails, now time.Time) (time.Time, error) {
	if _, err := time.Parse("2006-01-02", d.Date); err != nil || len(d.Date) != len("2006-01-02") {
		return time.Time{}, invalidf("date must be YYYY-MM-DD")
	}
	if _, err := time.Parse("15:04", d.TimeSlot); err != nil || len(d.TimeSlot) != len("15:04") {
		return time.Time{}, invalidf("time_slot must be HH:MM")
	}
	startsAt, err := time.ParseInLocation("2006-01-02 15:04", d.Date+" "+d.TimeSlot, m.opts.Location)
	if err != nil {
		return time.Time{}, invalidf("invalid date or time_slot")
	}
	if !startsAt.After(now) {
		return time.Time{}, invalidf("booking must start in the future")
	}
	if d.ReminderEnabled && (d.ReminderHoursBefore < minReminderHours || d.ReminderHoursBefore > maxReminderHours) {
		return time.Time{}, invalidf("reminder_hours_before must be between %d and %d", minReminderHours, maxReminderHours)
	}
	return startsAt.UTC(), nil
}

// logUnexpected logs and counts errors that are not ordinary business
// outcomes.
func (m *HoldManager) logUnexpected(op string, err error, fields ...zap.Field) {
	for _, expected := range []error{
		repository.ErrNotFound, repository.ErrForbidden, repository.ErrConflict,
		ErrHoldExpired, ErrInvalidInput,
	} {
		if errors.Is(err, expected) {
			return
		}
	}
	metrics.OperationErrorsTotal.WithLabelValues(op).Inc()
	m.log.Error(op+" failed", append(fields, zap.Error(err))...)
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
