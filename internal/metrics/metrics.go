// Package metrics exposes prometheus counters for the inventory engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ReservationsCommitted counts approvals that debited inventory.
	ReservationsCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resource_reservations_committed_total",
		Help: "Number of request approvals that successfully debited inventory.",
	})

	// ReservationsRejected counts approvals refused for lack of stock.
	ReservationsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resource_reservations_rejected_total",
		Help: "Number of request approvals refused because stock ran short.",
	})

	// NotificationFailures counts best-effort notification writes that failed
	// after a committed transition.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resource_notification_failures_total",
		Help: "Number of decision notifications that could not be written.",
	})
)

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
