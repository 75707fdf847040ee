package service

import (
	"errors"
	"fmt"
)

// ErrHoldExpired is returned when an operation needs a live hold but the
// hold's expiry has passed.  The caller must restart the booking flow.
var ErrHoldExpired = errors.New("hold expired")

// ErrInvalidInput wraps every validation failure.  The wrapped message is
// safe to show to the caller.
var ErrInvalidInput = errors.New("invalid input")

// ErrSweepInProgress is returned by SendDueReminders when another sweep
// holds the lock.
var ErrSweepInProgress = errors.New("reminder sweep already in progress")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
