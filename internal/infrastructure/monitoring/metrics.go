package monitoring

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	gatherer prometheus.Gatherer

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Generation pipeline metrics
	generationsTotal   *prometheus.CounterVec
	generationDuration prometheus.Histogram
	stageDuration      *prometheus.HistogramVec
	stageFailures      *prometheus.CounterVec
	generationsActive  prometheus.Gauge

	// Recipe and cache metrics
	recipeOperations *prometheus.CounterVec
	cacheOperations  *prometheus.CounterVec
	dbConnections    *prometheus.GaugeVec
}

// NewMetricsCollector registers the application metrics on reg. A nil reg
// uses a fresh registry so tests and multiple collectors do not collide.
func NewMetricsCollector(reg *prometheus.Registry, logger *zap.Logger) *MetricsCollector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &MetricsCollector{
		logger:   logger.Named("metrics"),
		gatherer: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_generations_total",
				Help: "Total number of photo to recipe generations by outcome",
			},
			[]string{"outcome"},
		),
		generationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recipe_generation_duration_seconds",
				Help:    "End to end generation duration in seconds",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120, 180},
			},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipe_generation_stage_duration_seconds",
				Help:    "Duration of each generation stage in seconds",
				Buckets: []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"stage"},
		),
		stageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_generation_stage_failures_total",
				Help: "Total number of generation failures by stage",
			},
			[]string{"stage"},
		),
		generationsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recipe_generations_in_flight",
				Help: "Number of generations currently running",
			},
		),

		recipeOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_operations_total",
				Help: "Total number of recipe lifecycle events",
			},
			[]string{"event"},
		),
		cacheOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_operations_total",
				Help: "Total number of cache operations",
			},
			[]string{"operation", "status"},
		),
		dbConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "db_connections",
				Help: "Database connections by state",
			},
			[]string{"state"},
		),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.httpResponseSize,
		m.generationsTotal,
		m.generationDuration,
		m.stageDuration,
		m.stageFailures,
		m.generationsActive,
		m.recipeOperations,
		m.cacheOperations,
		m.dbConnections,
	)

	return m
}

// HTTPMiddleware creates a Gin middleware for HTTP metrics collection
func (m *MetricsCollector) HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		statusCode := strconv.Itoa(c.Writer.Status())

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, statusCode).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path, statusCode).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(c.Request.Method, path).Observe(float64(c.Writer.Size()))
	}
}

// ObserveStage records one generation stage
func (m *MetricsCollector) ObserveStage(stage string, duration time.Duration, err error) {
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageFailures.WithLabelValues(stage).Inc()
	}
}

// GenerationStarted marks a generation as in flight
func (m *MetricsCollector) GenerationStarted() {
	m.generationsActive.Inc()
}

// GenerationFinished records the outcome of a whole generation
func (m *MetricsCollector) GenerationFinished(duration time.Duration, err error) {
	m.generationsActive.Dec()
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.generationsTotal.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(duration.Seconds())
}

// RecipeEvent counts a recipe lifecycle event by name
func (m *MetricsCollector) RecipeEvent(name string) {
	m.recipeOperations.WithLabelValues(name).Inc()
}

// CacheOperation counts a cache call. Misses are reported separately from errors.
func (m *MetricsCollector) CacheOperation(operation string, err error, miss error) {
	status := "ok"
	switch {
	case err != nil && miss != nil && errors.Is(err, miss):
		status = "miss"
	case err != nil:
		status = "error"
	}
	m.cacheOperations.WithLabelValues(operation, status).Inc()
}

// UpdateDBConnections records pool usage
func (m *MetricsCollector) UpdateDBConnections(inUse, idle int) {
	m.dbConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.dbConnections.WithLabelValues("idle").Set(float64(idle))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
