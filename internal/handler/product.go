package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type productResponse struct {
	ID           uint64  `json:"id"`
	RoomName     string  `json:"room_name"`
	RoomCapacity uint32  `json:"room_capacity"`
	Stock        int     `json:"stock"`
	Price        uint32  `json:"price"`
	Description  *string `json:"description"`
	Available    bool    `json:"available"`
}

// ProductPath is the canonical path of a product view.  Cached responses
// are stored and invalidated under this path only.
func ProductPath(id uint64) string {
	return "/v1/products/" + strconv.FormatUint(id, 10)
}

// ShowProduct handles GET /v1/products/:id, a read-only view of a room and
// its remaining stock.  Responses are cached in Redis and dropped when a
// booking event for the product arrives.  Non-canonical ids such as "007"
// are redirected so every cached copy lives under ProductPath.
func (h *BookingHandler) ShowProduct(c echo.Context) error {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if raw != strconv.FormatUint(id, 10) {
		return c.Redirect(http.StatusMovedPermanently, ProductPath(id))
	}
	p, err := h.svc.Product(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, productResponse{
		ID:           p.ID,
		RoomName:     p.RoomName,
		RoomCapacity: p.RoomCapacity,
		Stock:        p.Stock,
		Price:        p.Price,
		Description:  p.Description,
		Available:    p.Stock > 0,
	})
}
