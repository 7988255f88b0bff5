package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/middleware"
)

// RegisterBookings registers the booking endpoints under /v1.  Creation is
// open to guests, so it authenticates optionally; the other routes require
// a valid JWT.  All of them accept only the CUSTOMER role when a token is
// present, and limiter throttles every mutation.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	customer := middleware.RequireRole("CUSTOMER")
	authed := middleware.JWTAuth(jwtSecret)

	e.POST("/v1/bookings", h.Create, middleware.OptionalJWT(jwtSecret), customer, limiter)

	g := e.Group("/v1/bookings", authed, customer)
	g.GET("", h.Index)
	g.GET("/:id", h.Show)
	g.POST("/:id/update", h.Update, limiter)
	g.POST("/:id/destroy", h.Destroy, limiter)
}
