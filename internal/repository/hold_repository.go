package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medialab/equipment-booking/internal/model"
)

// HoldRepo provides data access to the holds table and to the holding
// flags that mirror it (units.holding, games.holding,
// accessories.holding).  Every mutation of a holding flag goes through
// this type and always happens in the same transaction as the matching
// holds/hold_extras mutation, so the flags cannot drift from the table
// that is their source of truth.
//
// All timestamps are UTC and supplied by the caller.
type HoldRepo struct {
	db *sqlx.DB
}

// NewHoldRepo returns a new HoldRepo bound to the provided database.
func NewHoldRepo(db *sqlx.DB) *HoldRepo { return &HoldRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions.
func (r *HoldRepo) DB() *sqlx.DB { return r.db }

const holdColumns = `id, user_id, unit_id, console_type_id, expires_at, created_at`

// GetByID loads a hold and its extras outside of a transaction.  It
// returns ErrNotFound when no row exists; expired rows are returned as
// is and the caller decides what an expired hold means.
func (r *HoldRepo) GetByID(ctx context.Context, id string) (*model.Hold, error) {
	var h model.Hold
	q := r.db.Rebind(`SELECT ` + holdColumns + ` FROM holds WHERE id = ?`)
	if err := r.db.GetContext(ctx, &h, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := loadExtras(ctx, r.db, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ActiveByUser returns the caller's non-expired hold outside of a
// transaction, or ErrNotFound.
func (r *HoldRepo) ActiveByUser(ctx context.Context, userID uint64, now time.Time) (*model.Hold, error) {
	return activeByUser(ctx, r.db, userID, now)
}

// ActiveByUserTx is ActiveByUser within the provided transaction.
func (r *HoldRepo) ActiveByUserTx(ctx context.Context, tx *sqlx.Tx, userID uint64, now time.Time) (*model.Hold, error) {
	return activeByUser(ctx, tx, userID, now)
}

func activeByUser(ctx context.Context, q sqlx.ExtContext, userID uint64, now time.Time) (*model.Hold, error) {
	var h model.Hold
	query := q.Rebind(`SELECT ` + holdColumns + ` FROM holds WHERE user_id = ? AND expires_at > ?`)
	if err := sqlx.GetContext(ctx, q, &h, query, userID, now.UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := loadExtras(ctx, q, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetForUpdateTx loads a hold and locks its row until the transaction
// ends.  Cancel and confirm use it so that two requests on the same
// hold are serialized.
func (r *HoldRepo) GetForUpdateTx(ctx context.Context, tx *sqlx.Tx, id string) (*model.Hold, error) {
	var h model.Hold
	q := tx.Rebind(`SELECT ` + holdColumns + ` FROM holds WHERE id = ? FOR UPDATE`)
	if err := tx.GetContext(ctx, &h, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := loadExtras(ctx, tx, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ReclaimExpiredTx deletes every hold whose expires_at is at or before
// now, system-wide, and clears the flags of the units and extras they
// referenced.  It returns the reclaimed holds.  The rows are locked
// before deletion so that a concurrent confirm of the same hold either
// finishes first or observes the row gone.
func (r *HoldRepo) ReclaimExpiredTx(ctx context.Context, tx *sqlx.Tx, now time.Time) ([]model.Hold, error) {
	var expired []model.Hold
	q := tx.Rebind(`SELECT ` + holdColumns + ` FROM holds WHERE expires_at <= ? ORDER BY id FOR UPDATE`)
	if err := tx.SelectContext(ctx, &expired, q, now.UTC()); err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return []model.Hold{}, nil
	}
	if _, err := releaseHoldsTx(ctx, tx, expired); err != nil {
		return nil, err
	}
	return expired, nil
}

// ConsoleTypeActiveTx verifies that the console type exists and accepts
// holds.  It returns ErrNotFound otherwise.
func (r *HoldRepo) ConsoleTypeActiveTx(ctx context.Context, tx *sqlx.Tx, consoleTypeID uint64) error {
	var active bool
	q := tx.Rebind(`SELECT active FROM console_types WHERE id = ?`)
	if err := tx.GetContext(ctx, &active, q, consoleTypeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if !active {
		return ErrNotFound
	}
	return nil
}

// AcquireUnitTx picks one free unit of h.ConsoleTypeID, inserts h for
// it and flags the unit as holding.  The selection locks the chosen row
// and skips rows other allocators have locked, so concurrent callers
// never receive the same unit.  h.UnitID is populated on success.
//
// It returns ErrNoUnitsAvailable when nothing qualifies and ErrConflict
// when the insert collides with the per-user or per-unit unique key.
func (r *HoldRepo) AcquireUnitTx(ctx context.Context, tx *sqlx.Tx, h *model.Hold) error {
	const sel = `SELECT u.id FROM units u
	             WHERE u.console_type_id = ? AND u.active = TRUE AND u.holding = FALSE
	               AND NOT EXISTS (SELECT 1 FROM holds h WHERE h.unit_id = u.id AND h.expires_at > ?)
	             ORDER BY u.id
	             LIMIT 1
	             FOR UPDATE SKIP LOCKED`
	var unitID uint64
	if err := tx.GetContext(ctx, &unitID, tx.Rebind(sel), h.ConsoleTypeID, h.CreatedAt.UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoUnitsAvailable
		}
		return err
	}
	h.UnitID = unitID

	const ins = `INSERT INTO holds (id, user_id, unit_id, console_type_id, expires_at, created_at)
	             VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, tx.Rebind(ins),
		h.ID, h.UserID, h.UnitID, h.ConsoleTypeID, h.ExpiresAt.UTC(), h.CreatedAt.UTC()); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE units SET holding = TRUE WHERE id = ?`), h.UnitID); err != nil {
		return err
	}
	return nil
}

// AttachExtrasTx replaces the games and accessory soft-held by h.
// Previously attached extras are released first.  The requested items
// are locked and must be active and not held by another flow; otherwise
// ErrItemUnavailable is returned and the caller must roll back.
func (r *HoldRepo) AttachExtrasTx(ctx context.Context, tx *sqlx.Tx, h *model.Hold, gameIDs []uint64, accessoryID *uint64) error {
	if err := releaseExtrasTx(ctx, tx, []string{h.ID}); err != nil {
		return err
	}
	h.GameIDs = nil
	h.AccessoryID = nil

	if len(gameIDs) > 0 {
		if err := lockItemsTx(ctx, tx, "games", gameIDs); err != nil {
			return err
		}
	}
	if accessoryID != nil {
		if err := lockItemsTx(ctx, tx, "accessories", []uint64{*accessoryID}); err != nil {
			return err
		}
	}

	extras := make([]model.HoldExtra, 0, len(gameIDs)+1)
	for _, id := range gameIDs {
		extras = append(extras, model.HoldExtra{HoldID: h.ID, Kind: model.ExtraGame, ItemID: id})
	}
	if accessoryID != nil {
		extras = append(extras, model.HoldExtra{HoldID: h.ID, Kind: model.ExtraAccessory, ItemID: *accessoryID})
	}
	if len(extras) == 0 {
		return nil
	}
	if _, err := tx.NamedExecContext(ctx,
		`INSERT INTO hold_extras (hold_id, kind, item_id) VALUES (:hold_id, :kind, :item_id)`, extras); err != nil {
		if isDuplicate(err) {
			return ErrItemUnavailable
		}
		return err
	}
	if len(gameIDs) > 0 {
		if err := setItemsHoldingTx(ctx, tx, "games", gameIDs); err != nil {
			return err
		}
	}
	if accessoryID != nil {
		if err := setItemsHoldingTx(ctx, tx, "accessories", []uint64{*accessoryID}); err != nil {
			return err
		}
	}
	h.GameIDs = append([]uint64(nil), gameIDs...)
	if accessoryID != nil {
		id := *accessoryID
		h.AccessoryID = &id
	}
	return nil
}

// ReleaseTx deletes h and clears the flags it set.  It reports whether
// a hold row was actually deleted; false means it was already released.
func (r *HoldRepo) ReleaseTx(ctx context.Context, tx *sqlx.Tx, h model.Hold) (bool, error) {
	n, err := releaseHoldsTx(ctx, tx, []model.Hold{h})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// releaseHoldsTx is the single place where holds are deleted.  Extras
// are released first, then the hold rows, then the unit flags.  A unit
// flag is only cleared when no hold row references the unit any more.
func releaseHoldsTx(ctx context.Context, tx *sqlx.Tx, holds []model.Hold) (int64, error) {
	if len(holds) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(holds))
	unitIDs := make([]uint64, 0, len(holds))
	for _, h := range holds {
		ids = append(ids, h.ID)
		unitIDs = append(unitIDs, h.UnitID)
	}
	if err := releaseExtrasTx(ctx, tx, ids); err != nil {
		return 0, err
	}

	del, args, err := sqlx.In(`DELETE FROM holds WHERE id IN (?)`, ids)
	if err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(del), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	upd, args, err := sqlx.In(`UPDATE units SET holding = FALSE
	                            WHERE id IN (?) AND NOT EXISTS (SELECT 1 FROM holds h WHERE h.unit_id = units.id)`, unitIDs)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(upd), args...); err != nil {
		return 0, err
	}
	return n, nil
}

// releaseExtrasTx removes the hold_extras rows of the given holds and
// clears the holding flag of every game/accessory they referenced.
func releaseExtrasTx(ctx context.Context, tx *sqlx.Tx, holdIDs []string) error {
	sel, args, err := sqlx.In(`SELECT hold_id, kind, item_id FROM hold_extras WHERE hold_id IN (?)`, holdIDs)
	if err != nil {
		return err
	}
	var extras []model.HoldExtra
	if err := tx.SelectContext(ctx, &extras, tx.Rebind(sel), args...); err != nil {
		return err
	}
	if len(extras) == 0 {
		return nil
	}
	var games, accessories []uint64
	for _, e := range extras {
		switch e.Kind {
		case model.ExtraGame:
			games = append(games, e.ItemID)
		case model.ExtraAccessory:
			accessories = append(accessories, e.ItemID)
		}
	}

	del, args, err := sqlx.In(`DELETE FROM hold_extras WHERE hold_id IN (?)`, holdIDs)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(del), args...); err != nil {
		return err
	}
	if len(games) > 0 {
		if err := clearItemsHoldingTx(ctx, tx, "games", model.ExtraGame, games); err != nil {
			return err
		}
	}
	if len(accessories) > 0 {
		if err := clearItemsHoldingTx(ctx, tx, "accessories", model.ExtraAccessory, accessories); err != nil {
			return err
		}
	}
	return nil
}

// lockItemsTx locks the requested rows of table (games or accessories)
// and verifies that all of them are active and free.
func lockItemsTx(ctx context.Context, tx *sqlx.Tx, table string, ids []uint64) error {
	q, args, err := sqlx.In(`SELECT id FROM `+table+` WHERE id IN (?) AND active = TRUE AND holding = FALSE FOR UPDATE`, ids)
	if err != nil {
		return err
	}
	var free []uint64
	if err := tx.SelectContext(ctx, &free, tx.Rebind(q), args...); err != nil {
		return err
	}
	if len(free) != len(ids) {
		return ErrItemUnavailable
	}
	return nil
}

func setItemsHoldingTx(ctx context.Context, tx *sqlx.Tx, table string, ids []uint64) error {
	q, args, err := sqlx.In(`UPDATE `+table+` SET holding = TRUE WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(q), args...)
	return err
}

func clearItemsHoldingTx(ctx context.Context, tx *sqlx.Tx, table, kind string, ids []uint64) error {
	q, args, err := sqlx.In(`UPDATE `+table+` SET holding = FALSE
	                          WHERE id IN (?) AND NOT EXISTS (
	                              SELECT 1 FROM hold_extras e WHERE e.kind = ? AND e.item_id = `+table+`.id)`, ids, kind)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, tx.Rebind(q), args...)
	return err
}

// loadExtras fills h.GameIDs and h.AccessoryID from hold_extras.
func loadExtras(ctx context.Context, q sqlx.QueryerContext, h *model.Hold) error {
	var extras []model.HoldExtra
	query := `SELECT hold_id, kind, item_id FROM hold_extras WHERE hold_id = ? ORDER BY kind, item_id`
	if err := sqlx.SelectContext(ctx, q, &extras, rebind(q, query), h.ID); err != nil {
		return err
	}
	h.GameIDs = nil
	h.AccessoryID = nil
	for _, e := range extras {
		switch e.Kind {
		case model.ExtraGame:
			h.GameIDs = append(h.GameIDs, e.ItemID)
		case model.ExtraAccessory:
			id := e.ItemID
			h.AccessoryID = &id
		}
	}
	return nil
}

// rebind converts ? placeholders when q knows its driver's bind type.
func rebind(q sqlx.QueryerContext, query string) string {
	if b, ok := q.(interface{ Rebind(string) string }); ok {
		return b.Rebind(query)
	}
	return query
}
