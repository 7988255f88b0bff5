// Package repository implements the MySQL side of the booking store.
// Repositories expose plain queries and `...Tx` variants that run inside a
// caller-owned transaction; SQLStore composes them into service.Store.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/room-booking/internal/service"
)

// ErrEmailExists is returned when inserting a user whose email is taken.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when an account lookup finds no row.
var ErrUserNotFound = fmt.Errorf("user: %w", service.ErrAccountNotFound)

// mysqlDuplicateEntry is MySQL error 1062 (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
