// Package metrics exposes the server's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapgram_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// WSConnectionsTotal counts websocket connections accepted since start.
	WSConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snapgram_ws_connections_total",
		Help: "Total number of accepted websocket connections",
	})

	// WSActiveConnections tracks currently live websocket connections.
	WSActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapgram_ws_active_connections",
		Help: "Currently open websocket connections",
	})

	// NotificationsDelivered counts events handed to a live session.
	NotificationsDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_notifications_delivered_total",
		Help: "Notifications delivered to a live session, by kind",
	}, []string{"kind"})

	// NotificationsDropped counts events dropped because the target had no
	// usable session. Drops are expected under the best-effort contract.
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapgram_notifications_dropped_total",
		Help: "Notifications dropped (recipient offline or buffer full), by kind",
	}, []string{"kind"})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
