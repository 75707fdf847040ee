package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medialab/equipment-booking/internal/repository"
	"github.com/medialab/equipment-booking/internal/service"
)

// writeError translates a service error into the JSON error response.
// Unknown errors become 500 without leaking their text.
func writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrNoUnitsAvailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no units available", "code": "no_units_available"})
	case errors.Is(err, repository.ErrItemUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "requested game or accessory is unavailable", "code": "item_unavailable"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, service.ErrHoldExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "hold expired", "code": "hold_expired"})
	case errors.Is(err, service.ErrSweepInProgress):
		return c.JSON(http.StatusConflict, echo.Map{"error": "reminder sweep already in progress", "code": "sweep_in_progress"})
	case errors.Is(err, context.Canceled):
		return c.NoContent(499)
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}
