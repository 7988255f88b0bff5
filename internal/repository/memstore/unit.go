package memstore

import (
	"context"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// unit buffers writes until Commit.  Reads inside the unit see its own
// pending writes on top of the committed state.  Like a database
// transaction it is bound to the context passed to Begin: once that is
// cancelled, writes and Commit fail and nothing is applied.
type unit struct {
	s    *Store
	ctx  context.Context
	held map[uint64]chan struct{}
	done bool

	delta   map[uint64]int // pending stock change per product
	inserts map[uint64]model.Booking
	updates map[uint64]model.Booking
	deletes map[uint64]struct{}
}

// usable reports why the unit can no longer be used, if it cannot.
func (u *unit) usable() error {
	if u.done {
		return ErrUnitDone
	}
	return u.ctx.Err()
}

func (u *unit) LockProduct(ctx context.Context, productID uint64) (model.Product, error) {
	if err := u.usable(); err != nil {
		return model.Product{}, err
	}
	if _, ok := u.held[productID]; !ok {
		if _, err := u.s.GetProduct(ctx, productID); err != nil {
			return model.Product{}, err
		}
		ch := u.s.lockFor(productID)
		select {
		case ch <- struct{}{}:
			u.held[productID] = ch
		case <-ctx.Done():
			return model.Product{}, ctx.Err()
		case <-u.ctx.Done():
			return model.Product{}, u.ctx.Err()
		}
	}
	// the product may have been removed while we waited
	p, err := u.s.GetProduct(ctx, productID)
	if err != nil {
		return model.Product{}, err
	}
	p.Stock += u.delta[productID]
	return p, nil
}

func (u *unit) DecrementStock(ctx context.Context, productID uint64) error {
	p, err := u.LockProduct(ctx, productID)
	if err != nil {
		return err
	}
	if p.Stock <= 0 {
		return service.ErrOutOfStock
	}
	u.delta[productID]--
	return nil
}

func (u *unit) IncrementStock(ctx context.Context, productID uint64) error {
	if _, err := u.LockProduct(ctx, productID); err != nil {
		return err
	}
	u.delta[productID]++
	return nil
}

func (u *unit) HasOverlap(_ context.Context, productID uint64, r service.DateRange, excludeID uint64) (bool, error) {
	if err := u.usable(); err != nil {
		return false, err
	}
	for _, b := range u.view(productID) {
		if b.ID == excludeID {
			continue
		}
		if r.Overlaps(service.Of(b)) {
			return true, nil
		}
	}
	return false, nil
}

// view returns the bookings of a product as this unit sees them.
func (u *unit) view(productID uint64) []model.Booking {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	var out []model.Booking
	for id, b := range u.s.bookings {
		if _, gone := u.deletes[id]; gone {
			continue
		}
		if nb, ok := u.updates[id]; ok {
			b = nb
		}
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	for _, b := range u.inserts {
		if b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out
}

func (u *unit) InsertBooking(ctx context.Context, b *model.Booking) error {
	if err := u.usable(); err != nil {
		return err
	}
	if _, err := u.s.GetProduct(ctx, b.ProductID); err != nil {
		return err
	}
	u.s.mu.Lock()
	u.s.nextBooking++
	b.ID = u.s.nextBooking
	u.s.mu.Unlock()

	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now
	b.Product = nil
	u.inserts[b.ID] = *b
	return nil
}

func (u *unit) exists(id uint64) bool {
	if _, ok := u.inserts[id]; ok {
		return true
	}
	if _, gone := u.deletes[id]; gone {
		return false
	}
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	_, ok := u.s.bookings[id]
	return ok
}

func (u *unit) UpdateBooking(_ context.Context, b *model.Booking) error {
	if err := u.usable(); err != nil {
		return err
	}
	if !u.exists(b.ID) {
		return service.ErrNotFound
	}
	b.UpdatedAt = time.Now().UTC()
	nb := *b
	nb.Product = nil
	if _, ok := u.inserts[b.ID]; ok {
		u.inserts[b.ID] = nb
	} else {
		u.updates[b.ID] = nb
	}
	return nil
}

func (u *unit) DeleteBooking(_ context.Context, id uint64) error {
	if err := u.usable(); err != nil {
		return err
	}
	if !u.exists(id) {
		return service.ErrNotFound
	}
	if _, ok := u.inserts[id]; ok {
		delete(u.inserts, id)
		return nil
	}
	delete(u.updates, id)
	u.deletes[id] = struct{}{}
	return nil
}

// Commit applies the buffered writes atomically and releases the locks.
// An update or delete of a booking removed by a concurrent unit fails with
// service.ErrNotFound and nothing is applied.  A unit whose context has
// ended is rolled back and the context error returned.
func (u *unit) Commit() error {
	if u.done {
		return ErrUnitDone
	}
	defer u.finish()
	if err := u.ctx.Err(); err != nil {
		return err
	}

	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range u.updates {
		if _, ok := s.bookings[id]; !ok {
			return service.ErrNotFound
		}
	}
	for id := range u.deletes {
		if _, ok := s.bookings[id]; !ok {
			return service.ErrNotFound
		}
	}
	for id, d := range u.delta {
		p, ok := s.products[id]
		if !ok {
			return service.ErrProductNotFound
		}
		if p.Stock+d < 0 {
			return service.ErrOutOfStock
		}
	}

	now := time.Now().UTC()
	for id, d := range u.delta {
		p := s.products[id]
		p.Stock += d
		p.UpdatedAt = now
		s.products[id] = p
	}
	for id := range u.deletes {
		delete(s.bookings, id)
	}
	for id, b := range u.updates {
		s.bookings[id] = b
	}
	for id, b := range u.inserts {
		s.bookings[id] = b
	}
	return nil
}

// Rollback discards the buffered writes.  It is a no-op once the unit is
// finished.
func (u *unit) Rollback() error {
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

func (u *unit) finish() {
	u.done = true
	for id, ch := range u.held {
		<-ch
		delete(u.held, id)
	}
}
