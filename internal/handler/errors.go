package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/service"
)

// respondError maps booking errors to HTTP responses.  Unexpected errors
// have already been logged with their stack by the manager; the client only
// gets a request id to quote.
func respondError(c echo.Context, err error) error {
	var ve *service.ValidationError
	var fe FieldErrors
	switch {
	case errors.As(err, &fe):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fe})
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": FieldErrors{ve.Field: ve.Msg}})
	case errors.Is(err, service.ErrOutOfStock):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product is out of stock."})
	case errors.Is(err, service.ErrDateConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Product is already booked for the selected date range."})
	case errors.Is(err, service.ErrProductNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found."})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Booking not found."})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Unauthorized"})
	case errors.Is(err, service.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthenticated"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"error":      "internal error",
		"request_id": logger.RequestID(c.Request().Context()),
	})
}
