package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the economy service
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Database metrics
	DatabaseConnections   prometheus.Gauge
	DatabaseQueriesTotal  *prometheus.CounterVec
	DatabaseQueryDuration *prometheus.HistogramVec

	// Redis metrics
	RedisConnections     prometheus.Gauge
	RedisCommandsTotal   *prometheus.CounterVec
	RedisCommandDuration *prometheus.HistogramVec

	// Business metrics (from specification)
	PurchasesTotal         *prometheus.CounterVec
	PurchaseDuration       *prometheus.HistogramVec
	PurchaseCostValues     prometheus.Histogram
	OfflineClaimsTotal     *prometheus.CounterVec
	OfflineMinutesApplied  prometheus.Histogram
	RegenTicksTotal        *prometheus.CounterVec
	ActiveRegenTasks       prometheus.Gauge
	ReconciliationFailures prometheus.Counter

	// Health metrics
	DependencyHealth *prometheus.GaugeVec
}

// New creates a new Metrics instance with all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eco_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eco_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eco_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),

		// Database metrics
		DatabaseConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eco_database_connections",
				Help: "Current number of database connections",
			},
		),
		DatabaseQueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eco_database_queries_total",
				Help: "Total number of database queries",
			},
			[]string{"operation", "status"},
		),
		DatabaseQueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eco_database_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eco_redis_connections",
				Help: "Current number of Redis connections",
			},
		),
		RedisCommandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eco_redis_commands_total",
				Help: "Total number of Redis commands",
			},
			[]string{"command", "status"},
		),
		RedisCommandDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eco_redis_command_duration_seconds",
				Help:    "Duration of Redis commands in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		// Business metrics
		PurchasesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eco_purchases_total",
				Help: "Total number of upgrade purchase attempts",
			},
			[]string{"status"},
		),
		PurchaseDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eco_purchase_duration_seconds",
				Help:    "Duration of upgrade purchase operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		PurchaseCostValues: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eco_purchase_cost_values",
				Help:    "Distribution of currency paid per purchase",
				Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 50000, 100000},
			},
		),
		OfflineClaimsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eco_offline_claims_total",
				Help: "Total number of offline earnings claims",
			},
			[]string{"status"},
		),
		OfflineMinutesApplied: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "eco_offline_minutes_applied",
				Help:    "Distribution of offline minutes credited per claim",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 270, 360},
			},
		),
		RegenTicksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eco_regen_ticks_total",
				Help: "Total number of energy regeneration ticks",
			},
			[]string{"status"},
		),
		ActiveRegenTasks: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "eco_regen_active_tasks",
				Help: "Current number of running regeneration tasks",
			},
		),
		ReconciliationFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "eco_reconciliation_failures_total",
				Help: "Total number of failed purchase rollbacks requiring manual repair",
			},
		),

		// Health metrics
		DependencyHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eco_dependency_health",
				Help: "Health status of dependencies (1 = healthy, 0 = unhealthy)",
			},
			[]string{"dependency"},
		),
	}
}

// Initialize sets up initial metric values
func (m *Metrics) Initialize() {
	// Set initial values for health metrics
	m.DependencyHealth.WithLabelValues("postgres").Set(0)
	m.DependencyHealth.WithLabelValues("redis").Set(0)
}

// UpdateDependencyHealth updates the health status of a dependency
func (m *Metrics) UpdateDependencyHealth(dependency string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.DependencyHealth.WithLabelValues(dependency).Set(value)
}

// Shutdown performs cleanup operations
func (m *Metrics) Shutdown() {
	// Currently no cleanup needed for Prometheus metrics
}

// RecordPurchase records the outcome and duration of a purchase attempt
func (m *Metrics) RecordPurchase(status string, durationSeconds float64) {
	m.PurchasesTotal.WithLabelValues(status).Inc()
	m.PurchaseDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordOfflineClaim records the outcome of an offline earnings claim
func (m *Metrics) RecordOfflineClaim(status string, minutesApplied int) {
	m.OfflineClaimsTotal.WithLabelValues(status).Inc()
	if minutesApplied > 0 {
		m.OfflineMinutesApplied.Observe(float64(minutesApplied))
	}
}

// RecordRegenTick records the outcome of a single regeneration tick
func (m *Metrics) RecordRegenTick(status string) {
	m.RegenTicksTotal.WithLabelValues(status).Inc()
}
