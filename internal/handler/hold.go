package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/medialab/equipment-booking/internal/middleware"
	"github.com/medialab/equipment-booking/internal/service"
)

// HoldHandler exposes the hold lifecycle under /v1/holds.  All routes
// require JWTAuth.
type HoldHandler struct {
	holds HoldService
}

// NewHoldHandler constructs a HoldHandler.  holds must be non-nil.
func NewHoldHandler(holds HoldService) *HoldHandler {
	if holds == nil {
		panic("nil service passed to NewHoldHandler")
	}
	return &HoldHandler{holds: holds}
}

type createHoldRequest struct {
	ConsoleTypeID uint64 `json:"console_type_id"`
	LeaseMinutes  int    `json:"lease_minutes"`
}

// Create handles POST /v1/holds.  It answers 201 with the new hold, or
// 200 with the caller's existing live hold.
func (h *HoldHandler) Create(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	var body createHoldRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, created, err := h.holds.CreateHold(c.Request().Context(), p.UserID, body.ConsoleTypeID, body.LeaseMinutes)
	if err != nil {
		return writeError(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, view)
}

// Current handles GET /v1/holds/current.
func (h *HoldHandler) Current(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	view, err := h.holds.CurrentHold(c.Request().Context(), p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Get handles GET /v1/holds/:id.
func (h *HoldHandler) Get(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := holdID(c)
	if !ok {
		return badRequest(c, "invalid hold id")
	}
	view, err := h.holds.GetHold(c.Request().Context(), id, p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Cancel handles DELETE /v1/holds/:id.
func (h *HoldHandler) Cancel(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := holdID(c)
	if !ok {
		return badRequest(c, "invalid hold id")
	}
	res, err := h.holds.CancelHold(c.Request().Context(), id, p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type extrasRequest struct {
	GameIDs     []uint64 `json:"game_ids"`
	AccessoryID *uint64  `json:"accessory_id"`
}

// AttachExtras handles PUT /v1/holds/:id/extras.  The request replaces
// whatever was attached before; an empty body detaches everything.
func (h *HoldHandler) AttachExtras(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := holdID(c)
	if !ok {
		return badRequest(c, "invalid hold id")
	}
	var body extrasRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	view, err := h.holds.AttachExtras(c.Request().Context(), id, p, body.GameIDs, body.AccessoryID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Confirm handles POST /v1/holds/:id/confirm and answers 201 with the
// reservation.
func (h *HoldHandler) Confirm(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := holdID(c)
	if !ok {
		return badRequest(c, "invalid hold id")
	}
	var body service.BookingDetails
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	res, err := h.holds.ConfirmHold(c.Request().Context(), id, p, body)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// holdID reads the :id path parameter.  Hold ids are opaque but never
// blank and never longer than a UUID.
func holdID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	return id, id != "" && len(id) <= 36
}
