package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medialab/equipment-booking/internal/model"
)

// ReservationRepo provides access to permanent bookings.  Reservations
// are created from confirmed holds and later mutated only by the
// reminder sweeper (reminder_sent) and by archival.  All timestamp
// fields are stored in UTC.
type ReservationRepo struct {
	db *sqlx.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sqlx.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, user_id, unit_id, console_type_id, reservation_date, time_slot, starts_at,
	game1_id, game2_id, game3_id, accessory_id, archived,
	reminder_enabled, reminder_hours_before, remind_at, reminder_sent, reminder_sent_at, created_at`

// CreateTx inserts a reservation within the scope of an existing
// transaction.  The caller must commit or roll back.  A collision on
// the (unit, date, slot) unique key is reported as ErrConflict.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (` + reservationColumns + `)
	           VALUES (:id, :user_id, :unit_id, :console_type_id, :reservation_date, :time_slot, :starts_at,
	                   :game1_id, :game2_id, :game3_id, :accessory_id, :archived,
	                   :reminder_enabled, :reminder_hours_before, :remind_at, :reminder_sent, :reminder_sent_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, q, res); err != nil {
		if isDuplicate(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// ListByUser returns the user's non-archived reservations, soonest
// first.  When none exist an empty slice is returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := r.db.Rebind(`SELECT ` + reservationColumns + `
	                  FROM reservations
	                  WHERE user_id = ? AND archived = FALSE
	                  ORDER BY starts_at`)
	out := make([]model.Reservation, 0)
	if err := r.db.SelectContext(ctx, &out, q, userID); err != nil {
		return nil, err
	}
	return out, nil
}

// MaxReminderAttempts is the number of failed deliveries after which a
// reminder is no longer selected.
const MaxReminderAttempts = 5

// DueReminders returns up to limit reservations whose reminder is
// enabled, not yet sent, not archived and due at now, together with
// the owner's email address.  Reservations whose owner has no users
// row are skipped.  Reminders that failed before come after fresh ones
// and drop out after MaxReminderAttempts failures.
func (r *ReservationRepo) DueReminders(ctx context.Context, now time.Time, limit int) ([]model.DueReminder, error) {
	q := r.db.Rebind(`SELECT r.id, r.user_id, r.unit_id, r.console_type_id, r.reservation_date, r.time_slot, r.starts_at,
	                         r.game1_id, r.game2_id, r.game3_id, r.accessory_id, r.archived,
	                         r.reminder_enabled, r.reminder_hours_before, r.remind_at, r.reminder_sent, r.reminder_sent_at, r.created_at,
	                         r.reminder_attempts, u.email, u.display_name, ct.name AS console_type_name
	                  FROM reservations r
	                  JOIN users u ON u.id = r.user_id
	                  JOIN console_types ct ON ct.id = r.console_type_id
	                  WHERE r.reminder_enabled = TRUE AND r.reminder_sent = FALSE AND r.archived = FALSE
	                    AND r.remind_at <= ? AND r.reminder_attempts < ?
	                  ORDER BY r.reminder_attempts, r.remind_at
	                  LIMIT ?`)
	out := make([]model.DueReminder, 0)
	if err := r.db.SelectContext(ctx, &out, q, now.UTC(), MaxReminderAttempts, limit); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkReminderSent flags the reminder of a reservation as delivered.
// The update is guarded by reminder_sent = FALSE so a concurrent sweep
// cannot mark it twice; the boolean reports whether this call did.
func (r *ReservationRepo) MarkReminderSent(ctx context.Context, id string, at time.Time) (bool, error) {
	q := r.db.Rebind(`UPDATE reservations SET reminder_sent = TRUE, reminder_sent_at = ?
	                  WHERE id = ? AND reminder_sent = FALSE`)
	res, err := r.db.ExecContext(ctx, q, at.UTC(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordReminderFailure counts a failed delivery.  With giveUp the
// reminder is retired at once, which is how permanent rejections are
// recorded.
func (r *ReservationRepo) RecordReminderFailure(ctx context.Context, id string, giveUp bool) error {
	q := `UPDATE reservations SET reminder_attempts = reminder_attempts + 1
	      WHERE id = ? AND reminder_sent = FALSE`
	args := []any{id}
	if giveUp {
		q = `UPDATE reservations SET reminder_attempts = ?
		     WHERE id = ? AND reminder_sent = FALSE`
		args = []any{MaxReminderAttempts, id}
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(q), args...)
	return err
}

// ArchiveEndedBefore archives every reservation that started before
// cutoff and returns how many rows changed.
func (r *ReservationRepo) ArchiveEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	q := r.db.Rebind(`UPDATE reservations SET archived = TRUE WHERE archived = FALSE AND starts_at < ?`)
	res, err := r.db.ExecContext(ctx, q, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
