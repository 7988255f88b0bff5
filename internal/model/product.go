package model

import "time"

// Product is a rentable room.  Stock counts how many more bookings the
// product accepts and never drops below zero.
type Product struct {
	ID           uint64    // products.id
	RoomName     string    // products.room_name
	RoomCapacity uint32    // products.room_capacity
	Stock        int       // products.stock
	Price        uint32    // products.price (minor units)
	Description  *string   // products.description (nullable)
	CreatedAt    time.Time // products.created_at
	UpdatedAt    time.Time // products.updated_at
}

// ProductSummary is the slice of a product attached to booking listings.
type ProductSummary struct {
	ID           uint64 `json:"id"`
	RoomName     string `json:"room_name"`
	RoomCapacity uint32 `json:"room_capacity"`
	Price        uint32 `json:"price"`
}

// Summary returns the listing view of p.
func (p Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, RoomName: p.RoomName, RoomCapacity: p.RoomCapacity, Price: p.Price}
}
