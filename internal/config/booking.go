package config

import (
	"strings"
	"time"
)

// Storage drivers understood by the server bootstrap.
const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

// BookingConfig carries the knobs of the booking transaction manager.
//
// LockTimeout bounds how long a request waits for the product row lock.
// Zero keeps the historical behaviour of blocking until the lock is
// available; under heavy contention on one product this can queue
// requests for as long as the slowest transaction ahead of them.
//
// DecrementOnUpdate and RestoreOnDelete select the stock accounting policy.
// Their defaults reproduce the legacy API: an update consumes another unit
// and a delete never gives one back.
type BookingConfig struct {
	LockTimeout       time.Duration
	DecrementOnUpdate bool
	RestoreOnDelete   bool
	StorageDriver     string
}

func LoadBookingConfig() BookingConfig {
	driver := strings.ToLower(envStr("STORAGE_DRIVER", StorageMySQL))
	if driver != StorageMemory {
		driver = StorageMySQL
	}
	timeout := envDur("BOOKING_LOCK_TIMEOUT", 0)
	if timeout < 0 {
		timeout = 0
	}
	return BookingConfig{
		LockTimeout:       timeout,
		DecrementOnUpdate: envBool("BOOKING_DECREMENT_ON_UPDATE", true),
		RestoreOnDelete:   envBool("BOOKING_RESTORE_ON_DELETE", false),
		StorageDriver:     driver,
	}
}
