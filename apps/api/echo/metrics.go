package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	applicationsCreated prometheus.Counter
	interviewsScheduled prometheus.Counter
	callsCompleted      prometheus.Counter
	logins              *prometheus.CounterVec
}

func newMetrics(reg *prometheus.Registry) *metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		applicationsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobtrack_applications_created_total",
			Help: "Job applications logged",
		}),
		interviewsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobtrack_interviews_scheduled_total",
			Help: "Interviews scheduled",
		}),
		callsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "jobtrack_calls_completed_total",
			Help: "Calls completed by callers",
		}),
		logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtrack_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
	}
}

// middleware records every request under its route pattern, not the raw URL.
func (m *metrics) middleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		start := time.Now()
		err := next(ctx)
		if err != nil {
			ctx.Error(err) // commit the response so the status is known
		}

		path := ctx.Path()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Response().Status)
		m.requests.WithLabelValues(ctx.Request().Method, path, status).Inc()
		m.duration.WithLabelValues(ctx.Request().Method, path).Observe(time.Since(start).Seconds())
		return nil
	}
}

func (m *metrics) handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
