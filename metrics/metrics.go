// Package metrics exposes Prometheus counters and histograms for turns,
// bookings and calls to external services. All methods are safe on a nil
// *Metrics so callers and tests can skip instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "marlie"

type Metrics struct {
	turnsTotal      *prometheus.CounterVec
	turnLatency     *prometheus.HistogramVec
	inboundTotal    *prometheus.CounterVec
	bookingsTotal   *prometheus.CounterVec
	availability    *prometheus.CounterVec
	externalTotal   *prometheus.CounterVec
	externalLatency *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Conversation turns by resulting step",
		}, []string{"step"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dialog",
			Name:      "turn_latency_seconds",
			Help:      "Time to produce a reply for a turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "inbound_total",
			Help:      "Inbound WhatsApp messages by type and outcome",
		}, []string{"message_type", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking commit attempts by status",
		}, []string{"status"}),
		availability: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "availability_checks_total",
			Help:      "Availability checks by result",
		}, []string{"available"}),
		externalTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "calls_total",
			Help:      "Calls to external services",
		}, []string{"service", "operation", "status"}),
		externalLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "external",
			Name:      "call_latency_seconds",
			Help:      "Latency of calls to external services",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.turnsTotal,
		m.turnLatency,
		m.inboundTotal,
		m.bookingsTotal,
		m.availability,
		m.externalTotal,
		m.externalLatency,
	)
	return m
}

func (m *Metrics) ObserveTurn(step string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(step).Inc()
	m.turnLatency.WithLabelValues(step).Observe(seconds)
}

func (m *Metrics) ObserveInbound(messageType, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(messageType, status).Inc()
}

func (m *Metrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveAvailability(available bool) {
	if m == nil {
		return
	}
	label := "false"
	if available {
		label = "true"
	}
	m.availability.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveExternal(service, operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.externalTotal.WithLabelValues(service, operation, status).Inc()
	m.externalLatency.WithLabelValues(service, operation).Observe(seconds)
}
