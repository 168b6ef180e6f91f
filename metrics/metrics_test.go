package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveBooking("sucesso")
	m.ObserveBooking("sucesso")
	m.ObserveBooking("erro")
	m.ObserveAvailability(true)
	m.ObserveInbound("text", "ok")
	m.ObserveTurn("done", 0.2)
	m.ObserveExternal("trinks", "create_appointment", "ok", 0.1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("sucesso")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("erro")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.availability.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.inboundTotal.WithLabelValues("text", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turnsTotal.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.externalTotal.WithLabelValues("trinks", "create_appointment", "ok")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBooking("erro")
		m.ObserveAvailability(false)
		m.ObserveInbound("audio", "error")
		m.ObserveTurn("error", 1)
		m.ObserveExternal("openai", "extract", "error", 1)
	})
}
