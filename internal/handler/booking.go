package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// BookingService is the part of service.BookingManager the HTTP layer uses.
type BookingService interface {
	Create(ctx context.Context, in service.CreateInput) (model.Booking, error)
	Update(ctx context.Context, in service.UpdateInput) (model.Booking, error)
	Delete(ctx context.Context, bookingID, principalID uint64) error
	Get(ctx context.Context, bookingID, principalID uint64) (model.Booking, error)
	List(ctx context.Context, principalID uint64) ([]model.Booking, error)
	Product(ctx context.Context, id uint64) (model.Product, error)
}

// BookingHandler serves the /v1/bookings endpoints.  Create accepts
// anonymous callers that name a customer email; every other method
// assumes JWTAuth has run.
type BookingHandler struct {
	svc BookingService
}

// NewBookingHandler constructs a BookingHandler.  svc must be non-nil.
func NewBookingHandler(svc BookingService) *BookingHandler {
	if svc == nil {
		panic("nil booking service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

type createBookingRequest struct {
	ProductID        uint64 `json:"product_id" form:"product_id" validate:"required,gt=0"`
	StartBookingDate string `json:"start_booking_date" form:"start_booking_date" validate:"required,datetime=2006-01-02"`
	EndBookingDate   string `json:"end_booking_date" form:"end_booking_date" validate:"required,datetime=2006-01-02"`
	CustomerName     string `json:"customer_name" form:"customer_name" validate:"omitempty,max=255"`
	CustomerEmail    string `json:"customer_email" form:"customer_email" validate:"omitempty,email,max=255"`
}

type updateBookingRequest struct {
	StartBookingDate string  `json:"start_booking_date" form:"start_booking_date" validate:"required,datetime=2006-01-02"`
	EndBookingDate   string  `json:"end_booking_date" form:"end_booking_date" validate:"required,datetime=2006-01-02"`
	CustomerName     *string `json:"customer_name" form:"customer_name" validate:"omitempty,max=255"`
}

type bookingResponse struct {
	ID               uint64                `json:"id"`
	CustomerName     string                `json:"customer_name"`
	CustomerEmail    string                `json:"customer_email"`
	StartBookingDate string                `json:"start_booking_date"`
	EndBookingDate   string                `json:"end_booking_date"`
	ProductID        uint64                `json:"product_id"`
	UserID           uint64                `json:"user_id"`
	CreatedAt        string                `json:"created_at"`
	UpdatedAt        string                `json:"updated_at"`
	Product          *model.ProductSummary `json:"product,omitempty"`
}

func toBookingResponse(b model.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		CustomerName:     b.CustomerName,
		CustomerEmail:    b.CustomerEmail,
		StartBookingDate: b.StartDate.Format(model.DateLayout),
		EndBookingDate:   b.EndDate.Format(model.DateLayout),
		ProductID:        b.ProductID,
		UserID:           b.UserID,
		CreatedAt:        b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        b.UpdatedAt.UTC().Format(time.RFC3339),
		Product:          b.Product,
	}
}

// bindAndValidate binds the request body into req and runs the struct
// validator registered on the Echo instance.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return FieldErrors{"body": "invalid request body"}
	}
	return c.Validate(req)
}

func bookingID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Create handles POST /v1/bookings.  Authenticated callers book for
// themselves unless they name another customer email; anonymous callers
// must supply customer_name and customer_email and book as a guest
// account keyed by that email.  Returns 201 with the booking.
func (h *BookingHandler) Create(c echo.Context) error {
	var req createBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	dates, err := service.ParseDateRange(req.StartBookingDate, req.EndBookingDate)
	if err != nil {
		return respondError(c, err)
	}
	principal, _ := middleware.PrincipalID(c)

	b, err := h.svc.Create(c.Request().Context(), service.CreateInput{
		ProductID:     req.ProductID,
		Dates:         dates,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		PrincipalID:   principal,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Show handles GET /v1/bookings/:id.  Bookings owned by someone else are
// reported as not found.
func (h *BookingHandler) Show(c echo.Context) error {
	principal, ok := middleware.PrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.svc.Get(c.Request().Context(), id, principal)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Index handles GET /v1/bookings and lists the caller's bookings newest
// first, each with its product.
func (h *BookingHandler) Index(c echo.Context) error {
	principal, ok := middleware.PrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.svc.List(c.Request().Context(), principal)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, toBookingResponse(b))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles POST /v1/bookings/:id/update.  Only the owner may move a
// booking; customer_name is optional.
func (h *BookingHandler) Update(c echo.Context) error {
	principal, ok := middleware.PrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req updateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	dates, err := service.ParseDateRange(req.StartBookingDate, req.EndBookingDate)
	if err != nil {
		return respondError(c, err)
	}
	b, err := h.svc.Update(c.Request().Context(), service.UpdateInput{
		BookingID:    id,
		Dates:        dates,
		CustomerName: req.CustomerName,
		PrincipalID:  principal,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// Destroy handles POST /v1/bookings/:id/destroy.
func (h *BookingHandler) Destroy(c echo.Context) error {
	principal, ok := middleware.PrincipalID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := bookingID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	if err := h.svc.Delete(c.Request().Context(), id, principal); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Booking deleted successfully"})
}
