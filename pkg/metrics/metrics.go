package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickethub_reservations_total",
			Help: "Ticket reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	inventoryReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickethub_inventory_released_total",
			Help: "Tickets returned to inventory by cancel or expiry",
		},
	)

	ordersByStatus = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickethub_order_transitions_total",
			Help: "Order state transitions by target status",
		},
		[]string{"status"},
	)

	sweepExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickethub_sweep_expired_orders_total",
			Help: "Cash orders expired by the hold sweep",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tickethub_sweep_duration_seconds",
			Help:    "Duration of hold sweep runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)

	commissionPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickethub_commission_posted_minor_total",
			Help: "Commission posted to staff nodes, in minor currency units",
		},
	)
)

// TrackReservation records a reservation attempt outcome ("reserved",
// "insufficient", "error").
func TrackReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

// TrackInventoryRelease records tickets returned to inventory.
func TrackInventoryRelease(count int) {
	inventoryReleased.Add(float64(count))
}

// TrackOrderTransition records an order reaching the given status.
func TrackOrderTransition(status string) {
	ordersByStatus.WithLabelValues(status).Inc()
}

// TrackSweep records a sweep run.
func TrackSweep(expired int, seconds float64) {
	sweepExpirations.Add(float64(expired))
	sweepDuration.Observe(seconds)
}

// TrackCommission records posted commission in minor units.
func TrackCommission(amountMinor int64) {
	commissionPosted.Add(float64(amountMinor))
}
