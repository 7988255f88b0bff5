package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/room-booking/internal/handler"
)

// RegisterRoutes registers the operational endpoints: a liveness probe at
// /healthz and the Prometheus scrape endpoint at /metrics.
func RegisterRoutes(e *echo.Echo, g prometheus.Gatherer) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
}

// RegisterPublic registers unauthenticated read endpoints.  cache wraps
// the product view; pass a no-op middleware to disable caching.
func RegisterPublic(e *echo.Echo, h *handler.BookingHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/products/:id", h.ShowProduct, cache)
}
