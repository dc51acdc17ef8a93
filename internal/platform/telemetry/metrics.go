// Package telemetry holds the Prometheus collectors exported on /metrics.
// Collectors register against the default registry at init.
//
// HTTP metrics are labelled with the echo route template (c.Path()), never the
// raw URL, so entity ids do not inflate label cardinality.
package telemetry

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route template, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, by method and route template.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
)

var (
	// AuditEventsTotal counts committed audit rows by entity type and action.
	AuditEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_total",
			Help: "Total number of committed audit log rows, by entity type and action.",
		},
		[]string{"entity_type", "action"},
	)

	// AuditFanoutErrorsTotal counts failures of secondary audit sinks.
	AuditFanoutErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_fanout_errors_total",
			Help: "Total number of audit events a secondary sink failed to deliver.",
		},
		[]string{"sink"},
	)

	RateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Total number of requests rejected by the rate limiter, by backend.",
		},
		[]string{"backend"},
	)

	// PanicsRecoveredTotal counts handler panics caught by the recovery
	// middleware, by route template.
	PanicsRecoveredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Total number of handler panics recovered, by route template.",
		},
		[]string{"path"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Number of connected notification stream clients.",
		},
	)
)

// DBConnectionsOpen reports the pool snapshot taken by StartDBStatsCollector.
var DBConnectionsOpen = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_connections",
		Help: "Database pool connections by state (total, idle, acquired).",
	},
	[]string{"state"},
)

// RecordPoolStats copies the pool counters into DBConnectionsOpen.
func RecordPoolStats(stat *pgxpool.Stat) {
	DBConnectionsOpen.WithLabelValues("total").Set(float64(stat.TotalConns()))
	DBConnectionsOpen.WithLabelValues("idle").Set(float64(stat.IdleConns()))
	DBConnectionsOpen.WithLabelValues("acquired").Set(float64(stat.AcquiredConns()))
}

// StartDBStatsCollector polls the pool every interval until ctx is done.
func StartDBStatsCollector(ctx context.Context, pool *pgxpool.Pool, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		RecordPoolStats(pool.Stat())
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RecordPoolStats(pool.Stat())
			}
		}
	}()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
