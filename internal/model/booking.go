package model

import "time"

// DateLayout is the calendar-date format used on the wire and in DATE columns.
const DateLayout = "2006-01-02"

// Booking reserves one unit of a product for an inclusive date range.
//
// Fields:
//
//	ID            – primary key identifier.
//	UserID        – account that owns the booking.
//	ProductID     – booked product.
//	CustomerName  – display name captured at booking time.
//	CustomerEmail – contact email captured at booking time.
//	StartDate     – first booked day (UTC midnight).
//	EndDate       – last booked day, never before StartDate.
type Booking struct {
	ID            uint64    // bookings.id
	UserID        uint64    // bookings.user_id
	ProductID     uint64    // bookings.product_id
	CustomerName  string    // bookings.customer_name
	CustomerEmail string    // bookings.customer_email
	StartDate     time.Time // bookings.start_booking_date
	EndDate       time.Time // bookings.end_booking_date
	CreatedAt     time.Time // bookings.created_at
	UpdatedAt     time.Time // bookings.updated_at

	// Product is populated by listing queries only.
	Product *ProductSummary
}
