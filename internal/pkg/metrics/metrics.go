package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "krishi",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "krishi",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "krishi",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Capture metrics
	CaptureOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "krishi",
		Subsystem: "capture",
		Name:      "outcomes_total",
		Help:      "Draw events handled, by outcome",
	}, []string{"kind"})

	OpenCaptures = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "krishi",
		Subsystem: "capture",
		Name:      "open_sessions",
		Help:      "Capture sessions currently open",
	})

	// Geocoding metrics
	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "krishi",
		Subsystem: "geocode",
		Name:      "requests_total",
		Help:      "Reverse geocoding lookups, by result",
	}, []string{"result"})

	GeocodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "krishi",
		Subsystem: "geocode",
		Name:      "request_duration_seconds",
		Help:      "Latency of reverse geocoding requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// Backend metrics
	BackendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "krishi",
		Subsystem: "backend",
		Name:      "request_duration_seconds",
		Help:      "Latency of Krishi backend calls",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation", "status"})

	LandRegistrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "krishi",
		Subsystem: "land",
		Name:      "registrations_total",
		Help:      "Lands registered through the gateway",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "krishi",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "krishi",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Total cache hits",
	}, []string{"operation"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "krishi",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Total cache misses",
	}, []string{"operation"})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		// Route pattern, not the raw path, keeps capture ids out of label values.
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
