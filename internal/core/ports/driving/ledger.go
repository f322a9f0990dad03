package driving

import (
	"context"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// LedgerService owns the customer and order lifecycle.
type LedgerService interface {
	// CreateCustomer registers a new customer. Fails with
	// domain.ErrValidation when the email is already registered
	// (case-insensitive).
	CreateCustomer(ctx context.Context, email, name, phone string) (*domain.Customer, error)

	// FindCustomerByEmail looks up a customer case-insensitively.
	// Returns domain.ErrNotFound if absent.
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)

	// Customer retrieves a customer by ID.
	// Returns domain.ErrNotFound if absent.
	Customer(ctx context.Context, customerID string) (*domain.Customer, error)

	// CreateOrder places a pending order, copying the amount from the
	// catalog price. Fails with domain.ErrNotFound for an unknown
	// product.
	CreateOrder(ctx context.Context, customerID, productID, paymentMethod string) (*domain.Order, error)

	// CompleteOrder settles a pending order and updates the owning
	// customer's accumulators atomically. A second call returns
	// domain.ErrConflict and changes nothing.
	CompleteOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// FailOrder marks a completed order as failed.
	FailOrder(ctx context.Context, orderID string) error

	// RefundOrder marks a completed order as refunded.
	RefundOrder(ctx context.Context, orderID string) error

	// Order retrieves an order by ID.
	Order(ctx context.Context, orderID string) (*domain.Order, error)

	// Product looks up a catalog entry.
	// Returns domain.ErrNotFound for an unknown ID.
	Product(productID string) (*domain.Product, error)

	// Products returns the catalog sorted by product ID.
	Products() []domain.Product

	// UpdateDeliverable records the rendered document path for an
	// order. Monotonic.
	UpdateDeliverable(ctx context.Context, orderID, path string) error

	// MarkDelivered records that the deliverable was dispatched.
	// Monotonic.
	MarkDelivered(ctx context.Context, orderID string) error

	// PendingDeliverables returns completed orders awaiting delivery.
	PendingDeliverables(ctx context.Context) ([]domain.Order, error)

	// UpsellCandidates returns (customer, order) pairs for completed
	// orders of non-premium customers placed within the last windowDays
	// days.
	UpsellCandidates(ctx context.Context, windowDays int) ([]domain.CandidatePair, error)

	// Stats computes the aggregate ledger metrics.
	Stats(ctx context.Context) (*domain.Metrics, error)
}
