package model

import "time"

// User mirrors a row of the `users` table.  Guest accounts created while
// booking carry a random password hash and the CUSTOMER role.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email (unique, lower-cased)
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RoleCustomer is assigned to every account that can own bookings.
const RoleCustomer = "CUSTOMER"
