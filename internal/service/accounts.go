package service

import (
	"context"

	"github.com/iliyamo/room-booking/internal/model"
)

// AccountProvisioner resolves the account that owns a booking.
type AccountProvisioner interface {
	// FindOrCreate returns the account registered under email, creating a
	// guest account with a random password when none exists.
	FindOrCreate(ctx context.Context, name, email string) (model.User, error)
	// GetAccount loads an existing account by id.  Unknown ids yield an
	// error matching ErrAccountNotFound.
	GetAccount(ctx context.Context, id uint64) (model.User, error)
}
