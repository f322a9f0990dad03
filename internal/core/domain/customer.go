package domain

import "time"

// Customer is a buyer on the ledger. Customers are created on first
// purchase or explicit registration and never deleted. The monetary
// accumulators are mutated only by completing an order.
type Customer struct {
	// ID is the unique identifier.
	ID string

	// Email is unique across customers, compared case-insensitively.
	Email string

	// Name is the customer's display name.
	Name string

	// Phone is optional.
	Phone string

	// CreatedAt is when the customer was registered.
	CreatedAt time.Time

	// TotalSpent accumulates the amounts of completed orders.
	TotalSpent float64

	// PurchaseCount counts completed orders.
	PurchaseCount int

	// IsPremium flips to true when a premium-tier product completes.
	// It never flips back.
	IsPremium bool
}
