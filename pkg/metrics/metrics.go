package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RoomsActive       prometheus.Gauge
	ConnectionsActive prometheus.Gauge
	EventsReceived    *prometheus.CounterVec
	EventsDropped     prometheus.Counter

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cowatch_rooms_active",
			Help: "Number of rooms with at least one member.",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cowatch_connections_active",
			Help: "Number of joined websocket connections.",
		}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cowatch_events_received_total",
			Help: "Inbound events by type.",
		}, []string{"type"}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cowatch_events_dropped_total",
			Help: "Outbound events that could not be delivered to a member.",
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RoomsActive,
		m.ConnectionsActive,
		m.EventsReceived,
		m.EventsDropped,
		collectors.NewGoCollector(),
	)

	return m
}

// Handler exposes the metrics at /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
