// Package repository defines the data access layer and the error types
// that are reused across repositories.  These sentinel values allow
// higher layers such as handlers to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// ErrNotFound is returned when a referenced hold, reservation, unit or
// console type does not exist.  Handlers translate it into 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with a unique key or
// with conflicting state (e.g. the same unit booked twice for one
// slot).  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrNoUnitsAvailable signals that every unit of the requested
// console type is inactive or currently held.  It is an expected
// outcome, not a failure of the service.
var ErrNoUnitsAvailable = errors.New("no units available")

// ErrItemUnavailable is returned when a requested game or accessory is
// inactive or already soft-held by another booking flow.
var ErrItemUnavailable = errors.New("item unavailable")

const (
	mysqlDuplicateEntry = 1062
	pgUniqueViolation   = "23505"
)

// isDuplicate reports whether err is a unique key violation from either
// supported driver.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	return false
}
