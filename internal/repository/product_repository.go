package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/room-booking/internal/model"
	"github.com/iliyamo/room-booking/internal/service"
)

// ProductRepo reads products and adjusts their stock.  Product CRUD is
// owned by the catalogue service; this repo only touches stock.
type ProductRepo struct{ db *sql.DB }

// NewProductRepo returns a ProductRepo bound to db.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

const productColumns = `id, room_name, room_capacity, stock, price, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (model.Product, error) {
	var p model.Product
	var desc sql.NullString
	err := row.Scan(&p.ID, &p.RoomName, &p.RoomCapacity, &p.Stock, &p.Price, &desc, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Product{}, service.ErrProductNotFound
		}
		return model.Product{}, err
	}
	if desc.Valid {
		d := desc.String
		p.Description = &d
	}
	return p, nil
}

// GetByID returns the product or service.ErrProductNotFound.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	return scanProduct(r.db.QueryRowContext(ctx, q, id))
}

// LockForUpdateTx reads the product with an exclusive row lock that holds
// until tx ends.  Concurrent lockers of the same row block in MySQL.
func (r *ProductRepo) LockForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = ? FOR UPDATE`
	return scanProduct(tx.QueryRowContext(ctx, q, id))
}

// DecrementStockTx takes one unit of stock.  The stock > 0 guard makes the
// statement a no-op on an empty product, reported as service.ErrOutOfStock.
func (r *ProductRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND stock > 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.ErrOutOfStock
	}
	return nil
}

// IncrementStockTx gives one unit of stock back.
func (r *ProductRepo) IncrementStockTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return service.ErrProductNotFound
	}
	return nil
}
