package driven

import (
	"context"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// LedgerStore persists customers and orders. State transitions that
// touch both an order and its customer (completing an order) happen in
// a single transaction inside the store so they can never be observed
// half-applied.
type LedgerStore interface {
	// SaveCustomer inserts or updates a customer.
	SaveCustomer(ctx context.Context, customer domain.Customer) error

	// Customer retrieves a customer by ID.
	// Returns domain.ErrNotFound if absent.
	Customer(ctx context.Context, id string) (*domain.Customer, error)

	// CustomerByEmail retrieves a customer by email, compared
	// case-insensitively. Returns domain.ErrNotFound if absent.
	CustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)

	// SaveOrder inserts or updates an order.
	SaveOrder(ctx context.Context, order domain.Order) error

	// Order retrieves an order by ID.
	// Returns domain.ErrNotFound if absent.
	Order(ctx context.Context, id string) (*domain.Order, error)

	// CompleteOrder transitions a pending order to completed and, in
	// the same transaction, adds the order amount to the customer's
	// TotalSpent, increments PurchaseCount, and sets IsPremium when
	// markPremium is true. Returns domain.ErrNotFound for an unknown
	// order and domain.ErrConflict when the order is not pending.
	CompleteOrder(ctx context.Context, orderID string, completedAt time.Time, markPremium bool) (*domain.Order, error)

	// TransitionOrder moves a completed order to a terminal status
	// (failed or refunded). Returns domain.ErrConflict when the current
	// status does not admit the transition.
	TransitionOrder(ctx context.Context, orderID string, to domain.OrderStatus) error

	// SetDeliverable records the rendered document path and marks the
	// order's deliverable as generated. Monotonic: it never clears a
	// generated flag or path.
	SetDeliverable(ctx context.Context, orderID, path string) error

	// SetDelivered marks the order's deliverable as dispatched.
	// Monotonic.
	SetDelivered(ctx context.Context, orderID string) error

	// PendingDeliverables returns all completed orders not yet
	// delivered.
	PendingDeliverables(ctx context.Context) ([]domain.Order, error)

	// UpsellCandidates returns (customer, order) pairs for completed
	// orders of non-premium customers created at or after cutoff.
	UpsellCandidates(ctx context.Context, cutoff time.Time) ([]domain.CandidatePair, error)

	// Stats computes the aggregate ledger metrics.
	Stats(ctx context.Context) (*domain.Metrics, error)
}
