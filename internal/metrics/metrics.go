// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HoldsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_holds_created_total",
		Help: "Total number of holds created.",
	})

	HoldsReleasedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equipment_holds_released_total",
		Help: "Total number of holds removed, by reason (cancelled, expired, confirmed).",
	},
		[]string{"reason"},
	)

	NoUnitsAvailableTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_no_units_available_total",
		Help: "Total number of hold requests rejected because every unit was taken.",
	})

	ReservationsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_reservations_confirmed_total",
		Help: "Total number of reservations created from holds.",
	})

	RemindersSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_reminders_sent_total",
		Help: "Total number of reminder emails delivered.",
	})

	RemindersFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_reminders_failed_total",
		Help: "Total number of reminder emails that could not be delivered.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equipment_operation_errors_total",
		Help: "Total number of internal errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "equipment_operation_duration_seconds",
		Help:    "Duration of lease manager operations.",
		Buckets: prometheus.DefBuckets,
	},
		[]string{"operation"},
	)
)
