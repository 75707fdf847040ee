package model

import "time"

// Reservation is a permanent booking created from a confirmed hold.
// The unit, console type and extras are snapshotted at confirmation
// time.  RemindAt is StartsAt minus the reminder lead time and is nil
// when reminders are disabled.
//
// Fields:
//  ID                  – opaque identifier.
//  UserID              – owner of the booking.
//  UnitID              – unit booked.
//  ConsoleTypeID       – console type of the unit.
//  Date                – booking day (YYYY-MM-DD, lab local time).
//  TimeSlot            – slot start (HH:MM, lab local time).
//  StartsAt            – absolute start of the slot in UTC.
//  Game1ID..Game3ID    – selected games, if any.
//  AccessoryID         – selected accessory set, if any.
//  Archived            – excluded from reminders and listings.
//  ReminderEnabled     – whether a reminder email is wanted.
//  ReminderHoursBefore – lead time of the reminder.
//  RemindAt            – when the reminder becomes due.
//  ReminderSent        – whether the reminder went out.
//  ReminderSentAt      – when the reminder went out.
//  CreatedAt           – creation timestamp.
type Reservation struct {
	ID                  string     `db:"id" json:"id"`                                       // reservations.id
	UserID              uint64     `db:"user_id" json:"user_id"`                             // reservations.user_id
	UnitID              uint64     `db:"unit_id" json:"unit_id"`                             // reservations.unit_id
	ConsoleTypeID       uint64     `db:"console_type_id" json:"console_type_id"`             // reservations.console_type_id
	Date                string     `db:"reservation_date" json:"date"`                       // reservations.reservation_date
	TimeSlot            string     `db:"time_slot" json:"time_slot"`                         // reservations.time_slot
	StartsAt            time.Time  `db:"starts_at" json:"starts_at"`                         // reservations.starts_at
	Game1ID             *uint64    `db:"game1_id" json:"game1_id,omitempty"`                 // reservations.game1_id
	Game2ID             *uint64    `db:"game2_id" json:"game2_id,omitempty"`                 // reservations.game2_id
	Game3ID             *uint64    `db:"game3_id" json:"game3_id,omitempty"`                 // reservations.game3_id
	AccessoryID         *uint64    `db:"accessory_id" json:"accessory_id,omitempty"`         // reservations.accessory_id
	Archived            bool       `db:"archived" json:"archived"`                           // reservations.archived
	ReminderEnabled     bool       `db:"reminder_enabled" json:"reminder_enabled"`           // reservations.reminder_enabled
	ReminderHoursBefore int        `db:"reminder_hours_before" json:"reminder_hours_before"` // reservations.reminder_hours_before
	RemindAt            *time.Time `db:"remind_at" json:"remind_at,omitempty"`               // reservations.remind_at
	ReminderSent        bool       `db:"reminder_sent" json:"reminder_sent"`                 // reservations.reminder_sent
	ReminderSentAt      *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"` // reservations.reminder_sent_at
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`                       // reservations.created_at
}

// SetGames spreads ids over the three game columns.  Extra ids beyond
// MaxGamesPerBooking are ignored.
func (r *Reservation) SetGames(ids []uint64) {
	slots := []**uint64{&r.Game1ID, &r.Game2ID, &r.Game3ID}
	for i := range slots {
		*slots[i] = nil
		if i < len(ids) {
			id := ids[i]
			*slots[i] = &id
		}
	}
}

// Games returns the non-empty game columns in order.
func (r Reservation) Games() []uint64 {
	out := make([]uint64, 0, MaxGamesPerBooking)
	for _, g := range []*uint64{r.Game1ID, r.Game2ID, r.Game3ID} {
		if g != nil {
			out = append(out, *g)
		}
	}
	return out
}

// DueReminder is a reservation whose reminder should be sent, joined
// with the owner's address.
type DueReminder struct {
	Reservation
	Email           string `db:"email"`             // users.email
	DisplayName     string `db:"display_name"`      // users.display_name
	ConsoleTypeName string `db:"console_type_name"` // console_types.name
	Attempts        int    `db:"reminder_attempts"` // failed deliveries so far
}
