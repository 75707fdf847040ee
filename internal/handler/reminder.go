package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/medialab/equipment-booking/internal/utils"
)

// CronSecretHeader carries the shared secret of the reminder cron client.
const CronSecretHeader = "X-Cron-Secret"

// ReminderHandler lets an external scheduler trigger the reminder sweep.
type ReminderHandler struct {
	sweeper    ReminderService
	secretHash string
	now        func() time.Time
}

// NewReminderHandler constructs a ReminderHandler.  secretHash is the
// bcrypt hash of the shared cron secret.
func NewReminderHandler(sweeper ReminderService, secretHash string) *ReminderHandler {
	if sweeper == nil {
		panic("nil service passed to NewReminderHandler")
	}
	return &ReminderHandler{sweeper: sweeper, secretHash: secretHash, now: time.Now}
}

// Send handles POST /v1/reminders/send.  It returns the sweep summary;
// per-reservation failures are part of a 200 response.
func (h *ReminderHandler) Send(c echo.Context) error {
	if !utils.VerifySecret(h.secretHash, c.Request().Header.Get(CronSecretHeader)) {
		return unauthorized(c)
	}
	res, err := h.sweeper.SendDueReminders(c.Request().Context(), h.now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
