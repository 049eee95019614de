package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slot_booking"

// Metrics groups the service counters.  A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	bookingsCreated prometheus.Counter
	slotConflicts   prometheus.Counter
	transitions     *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// New creates the collectors and registers them on reg.  Passing a fresh
// prometheus.NewRegistry keeps tests isolated from the default registry.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		bookingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Count of bookings created.",
		}),
		slotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slot_conflicts_total",
			Help:      "Count of booking attempts rejected because the slot was taken.",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Count of booking status changes by target status.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Count of notification attempts by outcome.",
		}, []string{"outcome"}),
		gatherer: reg,
	}
	reg.MustRegister(m.bookingsCreated, m.slotConflicts, m.transitions, m.notifications)
	return m
}

func (m *Metrics) IncBookingCreated() {
	if m != nil {
		m.bookingsCreated.Inc()
	}
}

func (m *Metrics) IncSlotConflict() {
	if m != nil {
		m.slotConflicts.Inc()
	}
}

func (m *Metrics) IncTransition(status string) {
	if m != nil {
		m.transitions.WithLabelValues(status).Inc()
	}
}

// IncNotification records a notification outcome: sent, failed or dropped.
func (m *Metrics) IncNotification(outcome string) {
	if m != nil {
		m.notifications.WithLabelValues(outcome).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
