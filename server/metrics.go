package server

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for one Server
type Metrics struct {
	Registry *prometheus.Registry

	// RequestDuration measures request latency
	RequestDuration *prometheus.HistogramVec

	// RequestsTotal counts requests by method, route and status code
	RequestsTotal *prometheus.CounterVec

	// CodecBytes counts bytes consumed by codec operations
	CodecBytes *prometheus.CounterVec

	// CodecErrors counts failed codec operations by error kind
	CodecErrors *prometheus.CounterVec
}

// NewMetrics registers a fresh set of collectors on their own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "b64_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b64_http_requests_total",
				Help: "Total number of HTTP requests by status code",
			},
			[]string{"method", "path", "code"},
		),
		CodecBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b64_codec_input_bytes_total",
				Help: "Input bytes processed by codec operations",
			},
			[]string{"op"},
		),
		CodecErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "b64_codec_errors_total",
				Help: "Failed codec operations by error kind",
			},
			[]string{"op", "kind"},
		),
	}
}

// Middleware returns Echo middleware which records request metrics.
// Requests for skipPath are not recorded.
func (m *Metrics) Middleware(skipPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == skipPath {
				return next(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				// Let the error handler set the status before recording it
				c.Error(err)
			}

			path := c.Path()
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			m.RequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(method, path, status).Inc()
			return nil
		}
	}
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
}

func (m *Metrics) observe(op string, inputBytes int, err error) {
	if err != nil {
		m.CodecErrors.WithLabelValues(op, errorKind(err)).Inc()
		return
	}
	m.CodecBytes.WithLabelValues(op).Add(float64(inputBytes))
}
