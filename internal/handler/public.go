package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medialab/equipment-booking/internal/middleware"
)

// PublicHandler serves read-only listings: the console availability
// (no authentication) and the caller's own reservations.
type PublicHandler struct {
	inventory    InventoryReader
	reservations ReservationLister
	now          func() time.Time
}

func NewPublicHandler(inventory InventoryReader, reservations ReservationLister) *PublicHandler {
	if inventory == nil || reservations == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{inventory: inventory, reservations: reservations, now: time.Now}
}

// ConsoleTypes handles GET /v1/console-types.
func (h *PublicHandler) ConsoleTypes(c echo.Context) error {
	list, err := h.inventory.ListAvailability(c.Request().Context(), h.now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"console_types": list})
}

// MyReservations handles GET /v1/my-reservations.
func (h *PublicHandler) MyReservations(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.reservations.ListByUser(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}
