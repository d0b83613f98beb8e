// Package metrics exposes Prometheus instruments for roomdesk.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "roomdesk"

// Metrics groups the instruments recorded by the server. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	submissions   prometheus.Counter
	decisions     *prometheus.CounterVec
	wsConnections prometheus.Gauge
	pushEvents    *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
}

// New registers every instrument on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reservations",
			Name:      "submitted_total",
			Help:      "Booking requests submitted.",
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reservations",
			Name:      "decisions_total",
			Help:      "Admin decisions by resulting status.",
		}, []string{"status"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "websocket_connections",
			Help:      "Open push channel connections.",
		}),
		pushEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_total",
			Help:      "Push events published by type and source.",
		}, []string{"type", "source"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "email_deliveries_total",
			Help:      "Email delivery attempts by outcome.",
		}, []string{"outcome"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.submissions,
		m.decisions,
		m.wsConnections,
		m.pushEvents,
		m.deliveries,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ReservationSubmitted counts one submitted booking request.
func (m *Metrics) ReservationSubmitted() {
	if m == nil {
		return
	}
	m.submissions.Inc()
}

// ReservationDecided counts one admin decision.
func (m *Metrics) ReservationDecided(status string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(status).Inc()
}

// WebsocketOpened tracks a new push connection.
func (m *Metrics) WebsocketOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

// WebsocketClosed tracks a closed push connection.
func (m *Metrics) WebsocketClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

// PushEvent counts one event entering the hub. Source is "local" or "relay".
func (m *Metrics) PushEvent(eventType, source string) {
	if m == nil {
		return
	}
	m.pushEvents.WithLabelValues(eventType, source).Inc()
}

// EmailDelivery counts one delivery attempt outcome.
func (m *Metrics) EmailDelivery(outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(outcome).Inc()
}
