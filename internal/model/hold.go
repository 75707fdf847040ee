package model

import "time"

// MaxGamesPerBooking is the number of game slots a reservation carries.
const MaxGamesPerBooking = 3

// Hold is a temporary lease on one unit while its owner completes the
// booking flow.  The expiry is computed by the server and is the only
// authority on how long the lease lasts; a hold whose ExpiresAt is at
// or before "now" no longer exists logically and is deleted by the
// next reclamation pass.
//
// Fields:
//  ID            – opaque token returned to the client.
//  UserID        – owner of the hold.
//  UnitID        – unit being leased.
//  ConsoleTypeID – console type of the unit (denormalized for lookup).
//  ExpiresAt     – when the lease ends.
//  CreatedAt     – when the lease was taken.
//  GameIDs       – games soft-held for the same booking flow.
//  AccessoryID   – accessory soft-held for the same booking flow.
type Hold struct {
	ID            string    `db:"id"`              // holds.id
	UserID        uint64    `db:"user_id"`         // holds.user_id
	UnitID        uint64    `db:"unit_id"`         // holds.unit_id
	ConsoleTypeID uint64    `db:"console_type_id"` // holds.console_type_id
	ExpiresAt     time.Time `db:"expires_at"`      // holds.expires_at
	CreatedAt     time.Time `db:"created_at"`      // holds.created_at
	GameIDs       []uint64  `db:"-"`               // hold_extras kind=GAME
	AccessoryID   *uint64   `db:"-"`               // hold_extras kind=ACCESSORY
}

// Expired reports whether the lease has ended at now.
func (h Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}

// Remaining returns the lease time left at now, never negative.
func (h Hold) Remaining(now time.Time) time.Duration {
	d := h.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RemainingSeconds rounds Remaining up to whole seconds so that a
// freshly created 15 minute hold reports 900.
func (h Hold) RemainingSeconds(now time.Time) int64 {
	d := h.Remaining(now)
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Extra kinds stored in hold_extras.kind.
const (
	ExtraGame      = "GAME"
	ExtraAccessory = "ACCESSORY"
)

// HoldExtra links a soft-held game or accessory to a hold.
type HoldExtra struct {
	HoldID string `db:"hold_id"` // hold_extras.hold_id
	Kind   string `db:"kind"`    // hold_extras.kind (GAME, ACCESSORY)
	ItemID uint64 `db:"item_id"` // hold_extras.item_id
}
