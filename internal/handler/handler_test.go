package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/medialab/equipment-booking/internal/handler/mocks"
	"github.com/medialab/equipment-booking/internal/middleware"
	"github.com/medialab/equipment-booking/internal/model"
	"github.com/medialab/equipment-booking/internal/repository"
	"github.com/medialab/equipment-booking/internal/service"
	"github.com/medialab/equipment-booking/internal/utils"
)

// newContext builds an Echo context as if JWTAuth had authenticated p.
func newContext(method, target, body string, p *model.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(middleware.CtxUserID, p.UserID)
		role := model.RoleUser
		if p.IsAdmin {
			role = model.RoleAdmin
		}
		c.Set(middleware.CtxRole, role)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

var alice = &model.Principal{UserID: 7}

func sampleView() service.HoldView {
	return service.HoldView{
		HoldID: "h1", UserID: 7, UnitID: 11, ConsoleTypeID: 1,
		ExpiresAt:        time.Date(2026, 5, 4, 9, 15, 0, 0, time.UTC),
		RemainingSeconds: 900,
		GameIDs:          []uint64{},
	}
}

func TestCreateHold(t *testing.T) {
	ctrl := gomock.NewController(t)
	holds := mocks.NewMockHoldService(ctrl)
	h := NewHoldHandler(holds)

	holds.EXPECT().CreateHold(gomock.Any(), uint64(7), uint64(1), 20).Return(sampleView(), true, nil)
	c, rec := newContext(http.MethodPost, "/v1/holds", `{"console_type_id":1,"lease_minutes":20}`, alice)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"hold_id":"h1","user_id":7,"unit_id":11,"console_type_id":1,
		"expires_at":"2026-05-04T09:15:00Z","remaining_seconds":900,"game_ids":[]}`, rec.Body.String())

	holds.EXPECT().CreateHold(gomock.Any(), uint64(7), uint64(1), 0).Return(sampleView(), false, nil)
	c, rec = newContext(http.MethodPost, "/v1/holds", `{"console_type_id":1}`, alice)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateHold_BadRequestAndAuth(t *testing.T) {
	h := NewHoldHandler(mocks.NewMockHoldService(gomock.NewController(t)))

	c, rec := newContext(http.MethodPost, "/v1/holds", `{"console_type_id":`, alice)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/holds", `{"console_type_id":1}`, nil)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		contains string
	}{
		{fmt.Errorf("%w: lease_minutes must be between 1 and 120", service.ErrInvalidInput), http.StatusBadRequest, "lease_minutes"},
		{repository.ErrForbidden, http.StatusForbidden, "forbidden"},
		{repository.ErrNotFound, http.StatusNotFound, "not found"},
		{repository.ErrNoUnitsAvailable, http.StatusConflict, `"code":"no_units_available"`},
		{fmt.Errorf("%w: %w", repository.ErrConflict, repository.ErrItemUnavailable), http.StatusConflict, `"code":"item_unavailable"`},
		{repository.ErrConflict, http.StatusConflict, "conflict"},
		{service.ErrHoldExpired, http.StatusGone, `"code":"hold_expired"`},
		{service.ErrSweepInProgress, http.StatusConflict, "sweep_in_progress"},
		{errors.New("dial tcp 10.0.0.5:3306: i/o timeout"), http.StatusInternalServerError, "internal error"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/", "", nil)
			require.NoError(t, writeError(c, tc.err))
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.contains)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		})
	}
}

func TestGetCancelCurrent(t *testing.T) {
	ctrl := gomock.NewController(t)
	holds := mocks.NewMockHoldService(ctrl)
	h := NewHoldHandler(holds)

	holds.EXPECT().GetHold(gomock.Any(), "h1", *alice).Return(sampleView(), nil)
	c, rec := newContext(http.MethodGet, "/v1/holds/h1", "", alice)
	require.NoError(t, h.Get(withID(c, "h1")))
	assert.Equal(t, http.StatusOK, rec.Code)

	holds.EXPECT().GetHold(gomock.Any(), "h2", *alice).Return(service.HoldView{}, repository.ErrForbidden)
	c, rec = newContext(http.MethodGet, "/v1/holds/h2", "", alice)
	require.NoError(t, h.Get(withID(c, "h2")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	c, rec = newContext(http.MethodGet, "/v1/holds/x", "", alice)
	require.NoError(t, h.Get(withID(c, strings.Repeat("x", 37))))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	holds.EXPECT().CancelHold(gomock.Any(), "h1", *alice).Return(service.CancelResult{Released: true, UnitID: 11}, nil)
	c, rec = newContext(http.MethodDelete, "/v1/holds/h1", "", alice)
	require.NoError(t, h.Cancel(withID(c, "h1")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":true,"released_unit_id":11}`, rec.Body.String())

	holds.EXPECT().CurrentHold(gomock.Any(), uint64(7)).Return(service.HoldView{}, repository.ErrNotFound)
	c, rec = newContext(http.MethodGet, "/v1/holds/current", "", alice)
	require.NoError(t, h.Current(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAttachExtrasAndConfirm(t *testing.T) {
	ctrl := gomock.NewController(t)
	holds := mocks.NewMockHoldService(ctrl)
	h := NewHoldHandler(holds)

	acc := uint64(41)
	holds.EXPECT().AttachExtras(gomock.Any(), "h1", *alice, []uint64{31, 32}, &acc).Return(sampleView(), nil)
	c, rec := newContext(http.MethodPut, "/v1/holds/h1/extras", `{"game_ids":[31,32],"accessory_id":41}`, alice)
	require.NoError(t, h.AttachExtras(withID(c, "h1")))
	assert.Equal(t, http.StatusOK, rec.Code)

	want := service.BookingDetails{Date: "2026-05-06", TimeSlot: "14:30", ReminderEnabled: true, ReminderHoursBefore: 24}
	holds.EXPECT().ConfirmHold(gomock.Any(), "h1", *alice, want).Return(&model.Reservation{ID: "r1", UnitID: 11}, nil)
	c, rec = newContext(http.MethodPost, "/v1/holds/h1/confirm",
		`{"date":"2026-05-06","time_slot":"14:30","reminder_enabled":true,"reminder_hours_before":24}`, alice)
	require.NoError(t, h.Confirm(withID(c, "h1")))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"r1"`)

	holds.EXPECT().ConfirmHold(gomock.Any(), "h1", *alice, gomock.Any()).Return(nil, service.ErrHoldExpired)
	c, rec = newContext(http.MethodPost, "/v1/holds/h1/confirm", `{"date":"2026-05-06","time_slot":"14:30"}`, alice)
	require.NoError(t, h.Confirm(withID(c, "h1")))
	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestReminderSend(t *testing.T) {
	ctrl := gomock.NewController(t)
	sweeper := mocks.NewMockReminderService(ctrl)
	hash, err := utils.HashSecret("cron", bcrypt.MinCost)
	require.NoError(t, err)
	h := NewReminderHandler(sweeper, hash)
	now := time.Date(2026, 5, 5, 14, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	c, rec := newContext(http.MethodPost, "/v1/reminders/send", "", nil)
	require.NoError(t, h.Send(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	c, rec = newContext(http.MethodPost, "/v1/reminders/send", "", nil)
	c.Request().Header.Set(CronSecretHeader, "nope")
	require.NoError(t, h.Send(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	sweeper.EXPECT().SendDueReminders(gomock.Any(), now).Return(service.SweepResult{
		Sent: 2, Failed: 1,
		Failures: []service.SweepFailure{{ReservationID: "r3", Email: "c@lab.test", Error: "send: timeout"}},
	}, nil)
	c, rec = newContext(http.MethodPost, "/v1/reminders/send", "", nil)
	c.Request().Header.Set(CronSecretHeader, "cron")
	require.NoError(t, h.Send(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sent":2,"failed":1,"failures":[{"reservation_id":"r3","email":"c@lab.test","error":"send: timeout"}]}`, rec.Body.String())

	sweeper.EXPECT().SendDueReminders(gomock.Any(), gomock.Any()).Return(service.SweepResult{}, service.ErrSweepInProgress)
	c, rec = newContext(http.MethodPost, "/v1/reminders/send", "", nil)
	c.Request().Header.Set(CronSecretHeader, "cron")
	require.NoError(t, h.Send(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPublicHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	inventory := mocks.NewMockInventoryReader(ctrl)
	reservations := mocks.NewMockReservationLister(ctrl)
	h := NewPublicHandler(inventory, reservations)

	inventory.EXPECT().ListAvailability(gomock.Any(), gomock.Any()).Return([]model.ConsoleAvailability{
		{ConsoleType: model.ConsoleType{ID: 1, Name: "PS5", Active: true}, TotalUnits: 3, AvailableUnits: 1},
	}, nil)
	c, rec := newContext(http.MethodGet, "/v1/console-types", "", nil)
	require.NoError(t, h.ConsoleTypes(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"console_types":[{"id":1,"name":"PS5","active":true,"total_units":3,"available_units":1}]}`, rec.Body.String())

	reservations.EXPECT().ListByUser(gomock.Any(), uint64(7)).Return([]model.Reservation{}, nil)
	c, rec = newContext(http.MethodGet, "/v1/my-reservations", "", alice)
	require.NoError(t, h.MyReservations(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reservations":[]}`, rec.Body.String())

	c, rec = newContext(http.MethodGet, "/v1/my-reservations", "", nil)
	require.NoError(t, h.MyReservations(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthAndReady(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/healthz", "", nil)
	require.NoError(t, Health(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	ready := Ready(map[string]Pinger{"db": fakePinger{}, "redis": fakePinger{err: errors.New("connection refused")}})
	c, rec = newContext(http.MethodGet, "/readyz", "", nil)
	require.NoError(t, ready(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"checks":{"db":"ok","redis":"connection refused"}}`, rec.Body.String())
}
