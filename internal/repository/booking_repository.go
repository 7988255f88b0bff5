package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// BookingRepo provides CRUD operations for bookings.  Writes run inside a
// caller-owned transaction; the caller must commit or roll back.  Dates are
// stored as DATE columns and scanned as UTC midnight.
type BookingRepo struct{ db *sql.DB }

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, product_id, customer_name, customer_email,
	start_booking_date, end_booking_date, created_at, updated_at`

func scanBooking(row rowScanner, extra ...any) (model.Booking, error) {
	var b model.Booking
	dest := append([]any{
		&b.ID, &b.UserID, &b.ProductID, &b.CustomerName, &b.CustomerEmail,
		&b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Booking{}, service.ErrNotFound
		}
		return model.Booking{}, err
	}
	b.StartDate = b.StartDate.UTC()
	b.EndDate = b.EndDate.UTC()
	return b, nil
}

// CreateTx inserts b and populates its ID and timestamps from the stored
// row.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
		(user_id, product_id, customer_name, customer_email, start_booking_date, end_booking_date)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.ProductID, b.CustomerName, b.CustomerEmail,
		b.StartDate.Format(model.DateLayout), b.EndDate.Format(model.DateLayout))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// read back to pick up server-side defaults
	stored, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// HasOverlapTx reports whether another booking of the product shares a day
// with r.  Both bounds are inclusive.  excludeID skips the booking being
// updated; 0 excludes nothing since ids start at 1.
func (r *BookingRepo) HasOverlapTx(ctx context.Context, tx *sql.Tx, productID uint64, dr service.DateRange, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS(
		SELECT 1 FROM bookings
		WHERE product_id = ? AND id <> ?
		  AND start_booking_date <= ? AND end_booking_date >= ?)`
	var exists bool
	err := tx.QueryRowContext(ctx, q, productID, excludeID,
		dr.End.Format(model.DateLayout), dr.Start.Format(model.DateLayout)).Scan(&exists)
	return exists, err
}

// UpdateTx writes the dates and customer name of b.  A missing row is
// reported as service.ErrNotFound.
func (r *BookingRepo) UpdateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `UPDATE bookings
		SET start_booking_date = ?, end_booking_date = ?, customer_name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q,
		b.StartDate.Format(model.DateLayout), b.EndDate.Format(model.DateLayout), b.CustomerName, b.ID); err != nil {
		return err
	}
	// MySQL reports 0 affected rows for a no-op update, so existence is
	// confirmed by reading the row back.
	stored, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, b.ID))
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// DeleteTx removes a booking.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.ErrNotFound
	}
	return nil
}

// GetByID returns a booking or service.ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// ListByUser returns a user's bookings newest first, each with a summary of
// its product.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	const q = `SELECT b.id, b.user_id, b.product_id, b.customer_name, b.customer_email,
		       b.start_booking_date, b.end_booking_date, b.created_at, b.updated_at,
		       p.room_name, p.room_capacity, p.price
		FROM bookings b
		JOIN products p ON p.id = b.product_id
		WHERE b.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		var sum model.ProductSummary
		b, err := scanBooking(rows, &sum.RoomName, &sum.RoomCapacity, &sum.Price)
		if err != nil {
			return nil, err
		}
		sum.ID = b.ProductID
		b.Product = &sum
		out = append(out, b)
	}
	return out, rows.Err()
}
