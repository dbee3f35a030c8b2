package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SchedulingMetrics exposes counters/histograms for slot discovery and booking.
type SchedulingMetrics struct {
	discoveryLatency *prometheus.HistogramVec
	bookingsTotal    *prometheus.CounterVec
	transitionsTotal *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		discoveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicdesk",
			Subsystem: "schedule",
			Name:      "discovery_latency_seconds",
			Help:      "Latency of bookable date/time discovery",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "appointments",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"outcome"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicdesk",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Total lifecycle transition attempts",
		}, []string{"action", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.discoveryLatency, m.bookingsTotal, m.transitionsTotal)
	return m
}

// ObserveDiscovery records one discovery pass. op is "dates" or "times".
func (m *SchedulingMetrics) ObserveDiscovery(op string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.discoveryLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveBooking records one booking attempt outcome
// ("booked", "slot_unavailable", "invalid", "error").
func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

// ObserveTransition records one lifecycle transition attempt.
func (m *SchedulingMetrics) ObserveTransition(action, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}
