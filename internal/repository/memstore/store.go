// Package memstore is an in-process implementation of the booking store.
// Each product has its own lock, held by a unit of work until it commits
// or rolls back, so the locking behaviour matches the MySQL store and the
// booking invariants can be exercised without a database.
package memstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

var (
	// ErrUnitDone is returned when a finished unit is used again.
	ErrUnitDone = errors.New("memstore: unit already committed or rolled back")
	// ErrAccountNotFound is returned by GetAccount for unknown ids.
	ErrAccountNotFound = fmt.Errorf("memstore: %w", service.ErrAccountNotFound)
)

// Store keeps products, bookings and accounts in memory.  The zero value is
// not usable; call New.
type Store struct {
	mu       sync.RWMutex
	products map[uint64]model.Product
	bookings map[uint64]model.Booking
	users    map[uint64]model.User
	emails   map[string]uint64
	locks    map[uint64]chan struct{}

	nextProduct uint64
	nextBooking uint64
	nextUser    uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products: make(map[uint64]model.Product),
		bookings: make(map[uint64]model.Booking),
		users:    make(map[uint64]model.User),
		emails:   make(map[string]uint64),
		locks:    make(map[uint64]chan struct{}),
	}
}

// AddProduct stores p, assigning an id when p.ID is zero, and returns the
// stored copy.
func (s *Store) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		s.nextProduct++
		p.ID = s.nextProduct
	} else if p.ID > s.nextProduct {
		s.nextProduct = p.ID
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.products[p.ID] = p
	return p
}

type seedProduct struct {
	ID           uint64  `json:"id"`
	RoomName     string  `json:"room_name"`
	RoomCapacity uint32  `json:"room_capacity"`
	Stock        int     `json:"stock"`
	Price        uint32  `json:"price"`
	Description  *string `json:"description"`
}

// LoadProducts reads a JSON array of products and adds each of them.
func (s *Store) LoadProducts(r io.Reader) (int, error) {
	var seed []seedProduct
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return 0, err
	}
	for _, sp := range seed {
		if sp.Stock < 0 {
			sp.Stock = 0
		}
		s.AddProduct(model.Product{
			ID:           sp.ID,
			RoomName:     sp.RoomName,
			RoomCapacity: sp.RoomCapacity,
			Stock:        sp.Stock,
			Price:        sp.Price,
			Description:  sp.Description,
		})
	}
	return len(seed), nil
}

// AddUser stores u and returns it with its assigned id.
func (s *Store) AddUser(u model.User) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(u)
}

func (s *Store) addUserLocked(u model.User) model.User {
	s.nextUser++
	u.ID = s.nextUser
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleCustomer
	}
	u.IsActive = true
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users[u.ID] = u
	s.emails[u.Email] = u.ID
	return u
}

// FindOrCreate implements service.AccountProvisioner.
func (s *Store) FindOrCreate(_ context.Context, name, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.emails[email]; ok {
		return s.users[id], nil
	}
	return s.addUserLocked(model.User{Name: name, Email: email}), nil
}

// GetAccount implements service.AccountProvisioner.
func (s *Store) GetAccount(_ context.Context, id uint64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ErrAccountNotFound
	}
	return u, nil
}

// GetProduct implements service.Store.
func (s *Store) GetProduct(_ context.Context, id uint64) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return model.Product{}, service.ErrProductNotFound
	}
	return p, nil
}

// GetBooking implements service.Store.
func (s *Store) GetBooking(_ context.Context, id uint64) (model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, service.ErrNotFound
	}
	return b, nil
}

// ListBookingsByUser implements service.Store.
func (s *Store) ListBookingsByUser(_ context.Context, userID uint64) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Booking, 0)
	for _, b := range s.bookings {
		if b.UserID != userID {
			continue
		}
		if p, ok := s.products[b.ProductID]; ok {
			sum := p.Summary()
			b.Product = &sum
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Stock returns the committed stock of a product.  It reads outside any
// unit and is meant for tests asserting on store state.
func (s *Store) Stock(id uint64) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p.Stock, ok
}

// BookingCount returns the number of committed bookings for a product.
// Like Stock it is a test helper.
func (s *Store) BookingCount(productID uint64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bookings {
		if b.ProductID == productID {
			n++
		}
	}
	return n
}

// lockFor returns the lock channel of a product, creating it on first use.
func (s *Store) lockFor(id uint64) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

// Begin implements service.Store.
func (s *Store) Begin(ctx context.Context) (service.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &unit{
		s:       s,
		ctx:     ctx,
		held:    make(map[uint64]chan struct{}),
		delta:   make(map[uint64]int),
		inserts: make(map[uint64]model.Booking),
		updates: make(map[uint64]model.Booking),
		deletes: make(map[uint64]struct{}),
	}, nil
}
