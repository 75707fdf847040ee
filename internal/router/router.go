// Package router wires handlers and middleware into the Echo route table.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medialab/equipment-booking/internal/handler"
	"github.com/medialab/equipment-booking/internal/middleware"
	"github.com/medialab/equipment-booking/internal/model"
)

// Deps carries everything the route table needs.  RateLimit and Cache
// may be nil, in which case the routes run without them.
type Deps struct {
	Holds     *handler.HoldHandler
	Public    *handler.PublicHandler
	Reminders *handler.ReminderHandler
	Ready     echo.HandlerFunc
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
	Metrics   http.Handler
}

// RegisterRoutes registers the probes and the metrics endpoint, which
// never require authentication.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	if d.Ready != nil {
		e.GET("/readyz", d.Ready)
	}
	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	e.GET("/metrics", echo.WrapHandler(metrics))

	RegisterPublic(e, d)
	RegisterHolds(e, d)
	RegisterReminders(e, d)
}

// RegisterPublic registers the unauthenticated availability listing
// behind the response cache.
func RegisterPublic(e *echo.Echo, d Deps) {
	e.GET("/v1/console-types", d.Public.ConsoleTypes, optional(d.Cache)...)
}

// RegisterHolds registers the authenticated booking flow.  Both USER and
// ADMIN tokens are accepted; ownership is checked by the service.
func RegisterHolds(e *echo.Echo, d Deps) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin),
	}
	mw = append(mw, optional(d.RateLimit)...)
	g := e.Group("/v1", mw...)

	g.POST("/holds", d.Holds.Create)
	g.GET("/holds/current", d.Holds.Current)
	g.GET("/holds/:id", d.Holds.Get)
	g.DELETE("/holds/:id", d.Holds.Cancel)
	g.PUT("/holds/:id/extras", d.Holds.AttachExtras)
	g.POST("/holds/:id/confirm", d.Holds.Confirm)
	g.GET("/my-reservations", d.Public.MyReservations)
}

// RegisterReminders registers the cron trigger.  It authenticates with
// the shared secret header instead of a user token.
func RegisterReminders(e *echo.Echo, d Deps) {
	e.POST("/v1/reminders/send", d.Reminders.Send)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
