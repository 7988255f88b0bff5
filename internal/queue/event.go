// Package queue defines the messages exchanged over the broker and the
// background consumer that reacts to them.
package queue

// Booking event types, also used as routing keys on the events exchange.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

// BookingEvent is published after a booking mutation commits.  It carries
// enough for consumers to invalidate caches or notify the customer without
// querying the primary database.
type BookingEvent struct {
	Type       string `json:"type"`
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	ProductID  uint64 `json:"product_id"`
	StartDate  string `json:"start_booking_date,omitempty"`
	EndDate    string `json:"end_booking_date,omitempty"`
	OccurredAt string `json:"occurred_at"`
	RequestID  string `json:"request_id,omitempty"`
}
