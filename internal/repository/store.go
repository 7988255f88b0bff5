package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// SQLStore implements service.Store on MySQL.  A unit of work is a
// database transaction and the per-product lock is the product row lock.
type SQLStore struct {
	db       *sql.DB
	products *ProductRepo
	bookings *BookingRepo
}

// NewSQLStore returns a store backed by db.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db, products: NewProductRepo(db), bookings: NewBookingRepo(db)}
}

// Begin starts a transaction.  Cancelling ctx rolls it back.
func (s *SQLStore) Begin(ctx context.Context) (service.Unit, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlUnit{tx: tx, products: s.products, bookings: s.bookings}, nil
}

func (s *SQLStore) GetBooking(ctx context.Context, id uint64) (model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *SQLStore) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	return s.bookings.ListByUser(ctx, userID)
}

func (s *SQLStore) GetProduct(ctx context.Context, id uint64) (model.Product, error) {
	return s.products.GetByID(ctx, id)
}

type sqlUnit struct {
	tx       *sql.Tx
	products *ProductRepo
	bookings *BookingRepo
}

func (u *sqlUnit) LockProduct(ctx context.Context, productID uint64) (model.Product, error) {
	return u.products.LockForUpdateTx(ctx, u.tx, productID)
}

func (u *sqlUnit) DecrementStock(ctx context.Context, productID uint64) error {
	return u.products.DecrementStockTx(ctx, u.tx, productID)
}

func (u *sqlUnit) IncrementStock(ctx context.Context, productID uint64) error {
	return u.products.IncrementStockTx(ctx, u.tx, productID)
}

func (u *sqlUnit) HasOverlap(ctx context.Context, productID uint64, r service.DateRange, excludeID uint64) (bool, error) {
	return u.bookings.HasOverlapTx(ctx, u.tx, productID, r, excludeID)
}

func (u *sqlUnit) InsertBooking(ctx context.Context, b *model.Booking) error {
	return u.bookings.CreateTx(ctx, u.tx, b)
}

func (u *sqlUnit) UpdateBooking(ctx context.Context, b *model.Booking) error {
	return u.bookings.UpdateTx(ctx, u.tx, b)
}

func (u *sqlUnit) DeleteBooking(ctx context.Context, id uint64) error {
	return u.bookings.DeleteTx(ctx, u.tx, id)
}

func (u *sqlUnit) Commit() error { return u.tx.Commit() }

// Rollback ignores sql.ErrTxDone so it can be deferred after Commit.
func (u *sqlUnit) Rollback() error {
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
