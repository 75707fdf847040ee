package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medialab/equipment-booking/internal/model"
)

// ConsoleRepo exposes read-only inventory queries used by the public
// availability listing.
type ConsoleRepo struct {
	db *sqlx.DB
}

// NewConsoleRepo constructs a ConsoleRepo with the given DB handle.
func NewConsoleRepo(db *sqlx.DB) *ConsoleRepo { return &ConsoleRepo{db: db} }

// ListAvailability returns every active console type with its number of
// active units and of units that could be held at now.  Availability is
// derived from the holds table rather than the holding flag.
func (r *ConsoleRepo) ListAvailability(ctx context.Context, now time.Time) ([]model.ConsoleAvailability, error) {
	q := r.db.Rebind(`SELECT ct.id, ct.name, ct.active,
	                         COUNT(u.id) AS total_units,
	                         COUNT(u.id) - COUNT(h.id) AS available_units
	                  FROM console_types ct
	                  LEFT JOIN units u ON u.console_type_id = ct.id AND u.active = TRUE
	                  LEFT JOIN holds h ON h.unit_id = u.id AND h.expires_at > ?
	                  WHERE ct.active = TRUE
	                  GROUP BY ct.id, ct.name, ct.active
	                  ORDER BY ct.name`)
	out := make([]model.ConsoleAvailability, 0)
	if err := r.db.SelectContext(ctx, &out, q, now.UTC()); err != nil {
		return nil, err
	}
	return out, nil
}
