// Package metrics exposes the Prometheus instruments of the service. All
// collectors are registered on the default registry and served on /metrics.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LoginsTotal counts successful logins.
	LoginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presenca_logins_total",
		Help: "Successful logins.",
	})

	// TokenReuseTotal counts refresh-token reuse detections. A nonzero rate
	// means replayed (possibly stolen) refresh tokens are being presented.
	TokenReuseTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presenca_token_reuse_detected_total",
		Help: "Refresh token reuse detections.",
	})

	// RegistrationsTotal counts committed attendance registrations.
	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presenca_registrations_total",
		Help: "Committed attendance registrations.",
	})
)

// Handler adapts the Prometheus HTTP handler to an Echo route.
func Handler() echo.HandlerFunc {
	h := promhttp.Handler()
	return func(c echo.Context) error {
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}
