package service

import (
	"context"

	"github.com/iliyamo/room-booking/internal/model"
)

// Store is the persistence seam of BookingManager.  Reads run outside any
// unit of work; every mutation goes through a Unit from Begin.
type Store interface {
	Begin(ctx context.Context) (Unit, error)
	// GetBooking returns ErrNotFound when no booking has the id.
	GetBooking(ctx context.Context, id uint64) (model.Booking, error)
	// ListBookingsByUser returns the user's bookings newest first with
	// their product summaries attached.
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error)
	// GetProduct returns ErrProductNotFound when no product has the id.
	GetProduct(ctx context.Context, id uint64) (model.Product, error)
}

// Unit is one atomic unit of work.  Locks taken through it are held until
// Commit or Rollback.  Rollback after Commit is a no-op so callers can
// defer it unconditionally.
type Unit interface {
	// LockProduct takes the exclusive per-product lock and returns the
	// product as seen under it.  Returns ErrProductNotFound for unknown ids.
	LockProduct(ctx context.Context, productID uint64) (model.Product, error)
	// DecrementStock takes one unit of stock or returns ErrOutOfStock.
	DecrementStock(ctx context.Context, productID uint64) error
	IncrementStock(ctx context.Context, productID uint64) error
	// HasOverlap reports whether any booking of the product other than
	// excludeID (0 for none) shares a day with r.
	HasOverlap(ctx context.Context, productID uint64, r DateRange, excludeID uint64) (bool, error)
	// InsertBooking stores b and fills its ID and timestamps.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// UpdateBooking writes the dates and customer name of b and refreshes
	// UpdatedAt.
	UpdateBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id uint64) error
	Commit() error
	Rollback() error
}
