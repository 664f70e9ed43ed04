package ivr

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Metrics holds the webhook server's Prometheus metrics.
type Metrics struct {
	requestsTotal *prometheus.CounterVec
	requestDur    *prometheus.HistogramVec
	transfers     prometheus.Counter
	signups       prometheus.Counter
	voicemails    prometheus.Counter
}

// NewMetrics registers the IVR metrics on the given registry.
func NewMetrics(registry *prometheus.Registry, logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "capitolphone_http_requests_total",
			Help: "Total webhook requests by route and status code.",
		}, []string{"route", "status"}),
		requestDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capitolphone_http_request_duration_seconds",
			Help:    "Webhook request duration in seconds by route.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"route"}),
		transfers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capitolphone_office_transfers_total",
			Help: "Calls transferred to a legislator's office.",
		}),
		signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capitolphone_sms_signups_total",
			Help: "SMS opt-ins captured from the signup menu.",
		}),
		voicemails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "capitolphone_voicemails_total",
			Help: "Voicemail recordings captured.",
		}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDur, m.transfers, m.signups, m.voicemails)
	return m
}

// Middleware returns an Echo middleware that records request metrics.
// Routes are labeled by their registered pattern, not the raw URI, so
// /voice/next/:selection stays one time series.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "/"
			}

			m.requestsTotal.WithLabelValues(route, strconv.Itoa(c.Response().Status)).Inc()
			m.requestDur.WithLabelValues(route).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
