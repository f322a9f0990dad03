package domain

import "time"

// OrderStatus is the order lifecycle state.
// Transitions: pending -> completed -> failed | refunded. Failed and
// refunded are terminal.
type OrderStatus string

const (
	// OrderPending is the initial state at creation.
	OrderPending OrderStatus = "pending"

	// OrderCompleted means payment settled. Fulfillment flags only
	// become meaningful in this state.
	OrderCompleted OrderStatus = "completed"

	// OrderFailed means the settlement was reversed or the order was
	// abandoned after completion. Terminal.
	OrderFailed OrderStatus = "failed"

	// OrderRefunded means the payment was returned. Terminal.
	OrderRefunded OrderStatus = "refunded"
)

// Valid reports whether the status is a known lifecycle state.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderFailed, OrderRefunded:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool {
	return s == OrderFailed || s == OrderRefunded
}

// Order is a purchase on the ledger. Status transitions are owned by
// the ledger; the fulfillment flags are owned by the fulfillment
// coordinator but persisted through the ledger. Both flags are
// monotonic: once true they never unset.
type Order struct {
	// ID is the order identifier, e.g. "ORD-1A2B3C4D".
	ID string

	// CustomerID references the owning customer.
	CustomerID string

	// ProductID references the catalog entry.
	ProductID string

	// Amount is copied from the catalog price at creation and is
	// immutable afterwards.
	Amount float64

	// Status is the lifecycle state.
	Status OrderStatus

	// PaymentMethod records how the order was paid.
	PaymentMethod string

	// CreatedAt is when the order was placed.
	CreatedAt time.Time

	// CompletedAt is when the order completed, zero until then.
	CompletedAt time.Time

	// DeliverableGenerated is true once the personalized document has
	// been rendered.
	DeliverableGenerated bool

	// DeliverablePath is the rendered document location.
	DeliverablePath string

	// Delivered is true once the document has been dispatched to the
	// customer.
	Delivered bool
}

// CandidatePair is a (customer, order) pair eligible for a follow-up
// campaign.
type CandidatePair struct {
	Customer Customer
	Order    Order
}
