package api

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	orderOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_actions_total",
			Help: "Order actions by kind and outcome",
		},
		[]string{"action", "outcome"},
	)
)

func metricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		duration := float64(time.Since(start).Milliseconds())
		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}

		httpRequests.WithLabelValues(c.Request().Method, path, strconv.Itoa(c.Response().Status)).Inc()
		httpDuration.WithLabelValues(c.Request().Method, path).Observe(duration)
		return err
	}
}

func recordOrderOutcome(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = strconv.Itoa(statusFor(err))
	}
	orderOutcomes.WithLabelValues(action, outcome).Inc()
}
