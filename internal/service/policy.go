package service

// StockPolicy isolates the stock side effects of update and delete.
// LegacyStockPolicy reproduces the behaviour existing clients rely on:
// every update consumes another unit and deletes never give one back.
type StockPolicy struct {
	DecrementOnUpdate bool
	RestoreOnDelete   bool
}

// LegacyStockPolicy is the default policy.
var LegacyStockPolicy = StockPolicy{DecrementOnUpdate: true, RestoreOnDelete: false}
