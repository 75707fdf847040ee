package handler

import (
	"context"
	"time"

	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/service"
)

//go:generate mockgen -source ./services.go -destination=./mocks/services.go -package=mocks

// HoldService is implemented by *service.HoldManager.
type HoldService interface {
	CreateHold(ctx context.Context, userID, consoleTypeID uint64, leaseMinutes int) (service.HoldView, bool, error)
	GetHold(ctx context.Context, holdID string, p model.Principal) (service.HoldView, error)
	CurrentHold(ctx context.Context, userID uint64) (service.HoldView, error)
	AttachExtras(ctx context.Context, holdID string, p model.Principal, gameIDs []uint64, accessoryID *uint64) (service.HoldView, error)
	CancelHold(ctx context.Context, holdID string, p model.Principal) (service.CancelResult, error)
	ConfirmHold(ctx context.Context, holdID string, p model.Principal, d service.BookingDetails) (*model.Reservation, error)
}

// ReminderService is implemented by *service.ReminderSweeper.
type ReminderService interface {
	SendDueReminders(ctx context.Context, now time.Time) (service.SweepResult, error)
}

// InventoryReader is implemented by *repository.ConsoleRepo.
type InventoryReader interface {
	ListAvailability(ctx context.Context, now time.Time) ([]model.ConsoleAvailability, error)
}

// ReservationLister is implemented by *repository.ReservationRepo.
type ReservationLister interface {
	ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
}
