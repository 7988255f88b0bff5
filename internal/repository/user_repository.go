package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/utils"
)

// UserRepo resolves booking owners.  It provisions guest accounts for
// unknown emails; registration proper lives in the account service.
type UserRepo struct {
	DB   *sql.DB
	cost int // bcrypt cost for guest passwords
}

// NewUserRepo returns a UserRepo hashing guest passwords with cost.
func NewUserRepo(db *sql.DB, cost int) *UserRepo { return &UserRepo{DB: db, cost: cost} }

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, r.cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password_hash, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetAccount fetches a user by id.
func (r *UserRepo) GetAccount(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// FindOrCreate returns the account registered under email, creating a
// guest CUSTOMER account with a random password when there is none.  A
// concurrent creation of the same email is resolved by re-reading.
func (r *UserRepo) FindOrCreate(ctx context.Context, name, email string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return model.User{}, err
	}

	pw, err := utils.RandomPassword(16)
	if err != nil {
		return model.User{}, err
	}
	if _, err := r.Create(ctx, name, email, pw, model.RoleCustomer); err != nil && !errors.Is(err, ErrEmailExists) {
		return model.User{}, err
	}
	return r.GetByEmail(ctx, email)
}
