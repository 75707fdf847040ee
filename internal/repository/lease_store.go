package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medialab/equipment-booking/internal/model"
)

// LeaseTx is the set of operations the lease manager may run inside one
// transaction.  Implementations must make every method part of the
// same atomic unit: either all of them commit or none do.
type LeaseTx interface {
	ReclaimExpired(ctx context.Context, now time.Time) ([]model.Hold, error)
	ActiveHoldByUser(ctx context.Context, userID uint64, now time.Time) (*model.Hold, error)
	HoldForUpdate(ctx context.Context, holdID string) (*model.Hold, error)
	EnsureConsoleType(ctx context.Context, consoleTypeID uint64) error
	AcquireUnit(ctx context.Context, h *model.Hold) error
	AttachExtras(ctx context.Context, h *model.Hold, gameIDs []uint64, accessoryID *uint64) error
	Release(ctx context.Context, h model.Hold) (bool, error)
	CreateReservation(ctx context.Context, res *model.Reservation) error
}

// LeaseStore runs lease transactions against the relational database.
// It binds HoldRepo and ReservationRepo to a single *sqlx.Tx.
type LeaseStore struct {
	db           *sqlx.DB
	holds        *HoldRepo
	reservations *ReservationRepo
}

// NewLeaseStore constructs a LeaseStore.  All dependencies must be
// non-nil.
func NewLeaseStore(db *sqlx.DB, holds *HoldRepo, reservations *ReservationRepo) *LeaseStore {
	if db == nil || holds == nil || reservations == nil {
		panic("nil dependency passed to NewLeaseStore")
	}
	return &LeaseStore{db: db, holds: holds, reservations: reservations}
}

// WithinTx begins a transaction, runs fn and commits when fn returns
// nil.  Any error from fn, or a panic, rolls the transaction back.  The
// error returned by fn is passed through unchanged so callers can match
// sentinel values.
func (s *LeaseStore) WithinTx(ctx context.Context, fn func(LeaseTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&leaseTx{tx: tx, holds: s.holds, reservations: s.reservations}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// GetHold loads a hold without locking it.
func (s *LeaseStore) GetHold(ctx context.Context, holdID string) (*model.Hold, error) {
	return s.holds.GetByID(ctx, holdID)
}

// ActiveHoldByUser returns the user's non-expired hold without locking it.
func (s *LeaseStore) ActiveHoldByUser(ctx context.Context, userID uint64, now time.Time) (*model.Hold, error) {
	return s.holds.ActiveByUser(ctx, userID, now)
}

type leaseTx struct {
	tx           *sqlx.Tx
	holds        *HoldRepo
	reservations *ReservationRepo
}

func (t *leaseTx) ReclaimExpired(ctx context.Context, now time.Time) ([]model.Hold, error) {
	return t.holds.ReclaimExpiredTx(ctx, t.tx, now)
}

func (t *leaseTx) ActiveHoldByUser(ctx context.Context, userID uint64, now time.Time) (*model.Hold, error) {
	return t.holds.ActiveByUserTx(ctx, t.tx, userID, now)
}

func (t *leaseTx) HoldForUpdate(ctx context.Context, holdID string) (*model.Hold, error) {
	return t.holds.GetForUpdateTx(ctx, t.tx, holdID)
}

func (t *leaseTx) EnsureConsoleType(ctx context.Context, consoleTypeID uint64) error {
	return t.holds.ConsoleTypeActiveTx(ctx, t.tx, consoleTypeID)
}

func (t *leaseTx) AcquireUnit(ctx context.Context, h *model.Hold) error {
	return t.holds.AcquireUnitTx(ctx, t.tx, h)
}

func (t *leaseTx) AttachExtras(ctx context.Context, h *model.Hold, gameIDs []uint64, accessoryID *uint64) error {
	return t.holds.AttachExtrasTx(ctx, t.tx, h, gameIDs, accessoryID)
}

func (t *leaseTx) Release(ctx context.Context, h model.Hold) (bool, error) {
	return t.holds.ReleaseTx(ctx, t.tx, h)
}

func (t *leaseTx) CreateReservation(ctx context.Context, res *model.Reservation) error {
	return t.reservations.CreateTx(ctx, t.tx, res)
}
