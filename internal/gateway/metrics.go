package gateway

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/medisur/hmis-go/internal/util"
)

var (
	gatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of requests handled by the session gateway",
		},
		[]string{"method", "path", "status"},
	)

	gatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Gateway request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	sessionRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_session_refresh_total",
			Help: "Backend session refresh attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// outcomeStatus resolves the status a request will be answered with. For
// error-returning handlers the response is not written yet when the
// middleware observes it, so the status is derived from the error.
func outcomeStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}

	var respErr util.ResponseError
	if errors.As(err, &respErr) {
		return respErr.Status
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}

func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// c.Path() keeps the route template so cardinality stays bounded.
			path := c.Path()
			method := c.Request().Method
			gatewayRequestsTotal.WithLabelValues(method, path, strconv.Itoa(outcomeStatus(c, err))).Inc()
			gatewayRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return err
		}
	}
}
