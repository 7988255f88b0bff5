// Package service contains the booking transaction manager: every booking
// mutation runs as one unit of work that locks the product, checks stock
// and date overlap, writes, and commits or rolls back as a whole.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/metrics"
	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/queue"
)

// ManagerConfig tunes a BookingManager.
type ManagerConfig struct {
	Policy StockPolicy
	// LockTimeout bounds the wait for a product lock.  Zero waits until the
	// lock is free or the request context ends.
	LockTimeout time.Duration
}

// BookingManager orchestrates booking creation, update, deletion and reads.
type BookingManager struct {
	store    Store
	accounts AccountProvisioner
	events   EventPublisher
	cfg      ManagerConfig
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewBookingManager wires a manager.  events, log and m may be nil.
func NewBookingManager(store Store, accounts AccountProvisioner, events EventPublisher, cfg ManagerConfig, log *zap.Logger, m *metrics.Metrics) *BookingManager {
	if store == nil || accounts == nil {
		panic("nil store or account provisioner passed to NewBookingManager")
	}
	if events == nil {
		events = NopPublisher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BookingManager{store: store, accounts: accounts, events: events, cfg: cfg, log: log, metrics: m}
}

// CreateInput carries a validated create request.  PrincipalID is zero for
// anonymous callers, who must then supply CustomerEmail.
type CreateInput struct {
	ProductID     uint64
	Dates         DateRange
	CustomerName  string
	CustomerEmail string
	PrincipalID   uint64
}

// UpdateInput carries a validated update request.  A nil CustomerName
// leaves the stored name unchanged.
type UpdateInput struct {
	BookingID    uint64
	Dates        DateRange
	CustomerName *string
	PrincipalID  uint64
}

// Create books one unit of the product for the inclusive date range.
func (m *BookingManager) Create(ctx context.Context, in CreateInput) (b model.Booking, err error) {
	defer func() { m.record(ctx, "create", err) }()

	if in.ProductID == 0 {
		return b, invalid("product_id", "is required")
	}
	if err := in.Dates.Validate(); err != nil {
		return b, err
	}
	ownerID, name, email, err := m.resolveOwner(ctx, in)
	if err != nil {
		return b, err
	}

	u, err := m.store.Begin(ctx)
	if err != nil {
		return b, errors.Wrap(err, "begin unit")
	}
	committed := false
	defer func() {
		if !committed {
			_ = u.Rollback()
		}
	}()

	p, err := m.lockProduct(ctx, u, in.ProductID)
	if err != nil {
		return b, err
	}
	if p.Stock <= 0 {
		return b, ErrOutOfStock
	}
	if err := m.checkOverlap(ctx, u, p.ID, in.Dates, 0); err != nil {
		return b, err
	}
	if err := m.takeStock(ctx, u, p.ID); err != nil {
		return b, err
	}

	b = model.Booking{
		UserID:        ownerID,
		ProductID:     p.ID,
		CustomerName:  name,
		CustomerEmail: email,
		StartDate:     in.Dates.Start,
		EndDate:       in.Dates.End,
	}
	if err := u.InsertBooking(ctx, &b); err != nil {
		return model.Booking{}, errors.Wrap(err, "insert booking")
	}
	if err := u.Commit(); err != nil {
		return model.Booking{}, errors.Wrap(err, "commit create")
	}
	committed = true

	m.publish(ctx, queue.EventBookingCreated, b)
	return b, nil
}

// Update moves an owned booking to new dates, optionally renaming the
// customer.  With the legacy policy each update consumes another unit.
func (m *BookingManager) Update(ctx context.Context, in UpdateInput) (b model.Booking, err error) {
	defer func() { m.record(ctx, "update", err) }()

	if err := in.Dates.Validate(); err != nil {
		return b, err
	}
	existing, err := m.owned(ctx, in.BookingID, in.PrincipalID)
	if err != nil {
		return b, err
	}

	u, err := m.store.Begin(ctx)
	if err != nil {
		return b, errors.Wrap(err, "begin unit")
	}
	committed := false
	defer func() {
		if !committed {
			_ = u.Rollback()
		}
	}()

	p, err := m.lockProduct(ctx, u, existing.ProductID)
	if err != nil {
		return b, err
	}
	if p.Stock <= 0 {
		return b, ErrOutOfStock
	}
	if err := m.checkOverlap(ctx, u, p.ID, in.Dates, existing.ID); err != nil {
		return b, err
	}
	if m.cfg.Policy.DecrementOnUpdate {
		if err := m.takeStock(ctx, u, p.ID); err != nil {
			return b, err
		}
	}

	b = existing
	b.StartDate, b.EndDate = in.Dates.Start, in.Dates.End
	if in.CustomerName != nil {
		if name := strings.TrimSpace(*in.CustomerName); name != "" {
			b.CustomerName = name
		}
	}
	if err := u.UpdateBooking(ctx, &b); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Booking{}, err
		}
		return model.Booking{}, errors.Wrap(err, "update booking")
	}
	if err := u.Commit(); err != nil {
		return model.Booking{}, errors.Wrap(err, "commit update")
	}
	committed = true

	m.publish(ctx, queue.EventBookingUpdated, b)
	return b, nil
}

// Delete removes an owned booking.  Stock is only given back when the
// policy says so.
func (m *BookingManager) Delete(ctx context.Context, bookingID, principalID uint64) (err error) {
	defer func() { m.record(ctx, "delete", err) }()

	existing, err := m.owned(ctx, bookingID, principalID)
	if err != nil {
		return err
	}

	u, err := m.store.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin unit")
	}
	committed := false
	defer func() {
		if !committed {
			_ = u.Rollback()
		}
	}()

	if m.cfg.Policy.RestoreOnDelete {
		if _, err := m.lockProduct(ctx, u, existing.ProductID); err != nil {
			return err
		}
		if err := u.IncrementStock(ctx, existing.ProductID); err != nil {
			return errors.Wrap(err, "restore stock")
		}
	}
	if err := u.DeleteBooking(ctx, existing.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return errors.Wrap(err, "delete booking")
	}
	if err := u.Commit(); err != nil {
		return errors.Wrap(err, "commit delete")
	}
	committed = true

	m.publish(ctx, queue.EventBookingDeleted, existing)
	return nil
}

// Get returns a booking owned by principalID.  Bookings of other accounts
// are reported as not found.
func (m *BookingManager) Get(ctx context.Context, bookingID, principalID uint64) (model.Booking, error) {
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Booking{}, err
		}
		return model.Booking{}, errors.Wrap(err, "get booking")
	}
	if b.UserID != principalID {
		return model.Booking{}, ErrNotFound
	}
	return b, nil
}

// List returns the bookings owned by principalID, newest first.
func (m *BookingManager) List(ctx context.Context, principalID uint64) ([]model.Booking, error) {
	list, err := m.store.ListBookingsByUser(ctx, principalID)
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	return list, nil
}

// Product returns the current state of a product, stock included.
func (m *BookingManager) Product(ctx context.Context, id uint64) (model.Product, error) {
	p, err := m.store.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return model.Product{}, err
		}
		return model.Product{}, errors.Wrap(err, "get product")
	}
	return p, nil
}

// resolveOwner picks the account that will own a new booking.  An explicit
// email wins and provisions a guest account when unknown; otherwise the
// authenticated principal owns it.
func (m *BookingManager) resolveOwner(ctx context.Context, in CreateInput) (uint64, string, string, error) {
	name := strings.TrimSpace(in.CustomerName)
	email := strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	if email != "" {
		if name == "" {
			return 0, "", "", invalid("customer_name", "is required")
		}
		acct, err := m.accounts.FindOrCreate(ctx, name, email)
		if err != nil {
			return 0, "", "", errors.Wrap(err, "provision account")
		}
		return acct.ID, name, email, nil
	}
	if in.PrincipalID == 0 {
		return 0, "", "", invalid("customer_email", "is required")
	}
	acct, err := m.accounts.GetAccount(ctx, in.PrincipalID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, "", "", ErrUnauthenticated
		}
		return 0, "", "", errors.Wrap(err, "load principal account")
	}
	if name == "" {
		name = acct.Name
	}
	return acct.ID, name, acct.Email, nil
}

// owned loads a booking and checks that principalID owns it.
func (m *BookingManager) owned(ctx context.Context, bookingID, principalID uint64) (model.Booking, error) {
	b, err := m.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Booking{}, err
		}
		return model.Booking{}, errors.Wrap(err, "get booking")
	}
	if b.UserID != principalID {
		return model.Booking{}, ErrForbidden
	}
	return b, nil
}

func (m *BookingManager) lockProduct(ctx context.Context, u Unit, productID uint64) (model.Product, error) {
	lctx := ctx
	if m.cfg.LockTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, m.cfg.LockTimeout)
		defer cancel()
	}
	start := time.Now()
	p, err := u.LockProduct(lctx, productID)
	m.metrics.ObserveLockWait(time.Since(start))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return p, err
		}
		if ctx.Err() == nil && errors.Is(lctx.Err(), context.DeadlineExceeded) {
			return p, ErrLockTimeout
		}
		return p, errors.Wrap(err, "lock product")
	}
	return p, nil
}

func (m *BookingManager) checkOverlap(ctx context.Context, u Unit, productID uint64, r DateRange, excludeID uint64) error {
	overlap, err := u.HasOverlap(ctx, productID, r, excludeID)
	if err != nil {
		return errors.Wrap(err, "check overlap")
	}
	if overlap {
		return ErrDateConflict
	}
	return nil
}

func (m *BookingManager) takeStock(ctx context.Context, u Unit, productID uint64) error {
	if err := u.DecrementStock(ctx, productID); err != nil {
		if errors.Is(err, ErrOutOfStock) {
			return err
		}
		return errors.Wrap(err, "decrement stock")
	}
	return nil
}

// publish emits ev after commit.  The request may already be cancelled, so
// delivery gets its own short deadline.
func (m *BookingManager) publish(ctx context.Context, typ string, b model.Booking) {
	ev := queue.BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		UserID:     b.UserID,
		ProductID:  b.ProductID,
		StartDate:  b.StartDate.Format(model.DateLayout),
		EndDate:    b.EndDate.Format(model.DateLayout),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		RequestID:  logger.RequestID(ctx),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := m.events.Publish(pctx, ev); err != nil {
		m.log.Warn("publish booking event failed",
			zap.String("type", typ), zap.Uint64("booking_id", b.ID), zap.Error(err))
	}
}

// record logs and counts the outcome of one operation.
func (m *BookingManager) record(ctx context.Context, op string, err error) {
	rid := zap.String("request_id", logger.RequestID(ctx))
	switch {
	case err == nil:
		m.metrics.ObserveOp(op, metrics.OutcomeOK)
	case IsRejection(err):
		m.metrics.ObserveOp(op, metrics.OutcomeRejected)
		m.log.Info("booking rejected", zap.String("op", op), zap.String("reason", err.Error()), rid)
	default:
		m.metrics.ObserveOp(op, metrics.OutcomeError)
		m.log.Error("booking failed", zap.String("op", op), zap.String("error", fmt.Sprintf("%+v", err)), rid)
	}
}

// IsRejection reports whether err is an expected business outcome rather
// than an unexpected failure.
func IsRejection(err error) bool {
	for _, s := range []error{ErrValidation, ErrNotFound, ErrProductNotFound, ErrForbidden, ErrUnauthenticated, ErrOutOfStock, ErrDateConflict} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
