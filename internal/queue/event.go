// Package queue defines the domain events exchanged over RabbitMQ and the
// publisher and consumer that move them.
package queue

import "time"

// Event types published after a lease transaction commits.
const (
	EventHoldCreated          = "hold.created"
	EventHoldReleased         = "hold.released"
	EventHoldExpired          = "hold.expired"
	EventReservationConfirmed = "reservation.confirmed"
	EventReminderSent         = "reminder.sent"
)

// DefaultQueue is the durable queue all events are routed to.
const DefaultQueue = "equipment.events"

// Event carries enough information for downstream consumers to log,
// notify or trigger analytics without querying the primary database.
// Fields that do not apply to a given Type are left empty.
type Event struct {
	Type          string     `json:"type"`
	OccurredAt    time.Time  `json:"occurred_at"`
	UserID        uint64     `json:"user_id,omitempty"`
	HoldID        string     `json:"hold_id,omitempty"`
	ReservationID string     `json:"reservation_id,omitempty"`
	UnitID        uint64     `json:"unit_id,omitempty"`
	ConsoleTypeID uint64     `json:"console_type_id,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	Email         string     `json:"email,omitempty"`
}
