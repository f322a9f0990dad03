package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/core/ports/driving"
	"github.com/mecaclair/dispatch/internal/logger"
)

// Ensure Ledger implements the interface.
var _ driving.LedgerService = (*Ledger)(nil)

// Ledger owns the customer and order lifecycle over a LedgerStore.
// The catalog is static and lives in the domain package; the ledger
// only reads it.
type Ledger struct {
	store   driven.LedgerStore
	catalog map[string]domain.Product
	now     func() time.Time
}

// NewLedger creates a ledger service. The clock parameter is optional;
// when nil, time.Now is used.
func NewLedger(store driven.LedgerStore, clock func() time.Time) *Ledger {
	if clock == nil {
		clock = time.Now
	}
	return &Ledger{
		store:   store,
		catalog: domain.Catalog(),
		now:     clock,
	}
}

// CreateCustomer registers a new customer.
func (l *Ledger) CreateCustomer(ctx context.Context, email, name, phone string) (*domain.Customer, error) {
	email = strings.TrimSpace(email)
	if email == "" || name == "" {
		return nil, fmt.Errorf("email and name are required: %w", domain.ErrValidation)
	}

	existing, err := l.store.CustomerByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking existing email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("email %s already registered: %w", email, domain.ErrValidation)
	}

	customer := domain.Customer{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		Phone:     phone,
		CreatedAt: l.now().UTC(),
	}

	if err := l.store.SaveCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("saving customer: %w", err)
	}

	logger.Debug("Customer created: %s (%s)", customer.ID, customer.Email)
	return &customer, nil
}

// FindCustomerByEmail looks up a customer case-insensitively.
func (l *Ledger) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return l.store.CustomerByEmail(ctx, strings.TrimSpace(email))
}

// Customer retrieves a customer by ID.
func (l *Ledger) Customer(ctx context.Context, customerID string) (*domain.Customer, error) {
	return l.store.Customer(ctx, customerID)
}

// CreateOrder places a pending order for a catalog product.
func (l *Ledger) CreateOrder(ctx context.Context, customerID, productID, paymentMethod string) (*domain.Order, error) {
	product, ok := l.catalog[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	if _, err := l.store.Customer(ctx, customerID); err != nil {
		return nil, fmt.Errorf("customer %s: %w", customerID, err)
	}

	if paymentMethod == "" {
		paymentMethod = "stripe"
	}

	order := domain.Order{
		ID:            newOrderID(),
		CustomerID:    customerID,
		ProductID:     productID,
		Amount:        product.Price,
		Status:        domain.OrderPending,
		PaymentMethod: paymentMethod,
		CreatedAt:     l.now().UTC(),
	}

	if err := l.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("saving order: %w", err)
	}

	logger.Debug("Order created: %s (%s, %.2f)", order.ID, productID, order.Amount)
	return &order, nil
}

// CompleteOrder settles a pending order. The store applies the order
// transition and the customer accumulator updates in one transaction,
// so a second call returns domain.ErrConflict without double-counting.
func (l *Ledger) CompleteOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := l.store.Order(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}

	product, ok := l.catalog[order.ProductID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", order.ProductID, domain.ErrNotFound)
	}

	completed, err := l.store.CompleteOrder(ctx, orderID, l.now().UTC(), product.Tier.Premium())
	if err != nil {
		return nil, err
	}

	logger.Info("Order completed: %s (%.2f)", completed.ID, completed.Amount)
	return completed, nil
}

// FailOrder marks a completed order as failed.
func (l *Ledger) FailOrder(ctx context.Context, orderID string) error {
	return l.store.TransitionOrder(ctx, orderID, domain.OrderFailed)
}

// RefundOrder marks a completed order as refunded.
func (l *Ledger) RefundOrder(ctx context.Context, orderID string) error {
	return l.store.TransitionOrder(ctx, orderID, domain.OrderRefunded)
}

// Order retrieves an order by ID.
func (l *Ledger) Order(ctx context.Context, orderID string) (*domain.Order, error) {
	return l.store.Order(ctx, orderID)
}

// Product looks up a catalog entry.
func (l *Ledger) Product(productID string) (*domain.Product, error) {
	product, ok := l.catalog[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return &product, nil
}

// Products returns the catalog sorted by product ID.
func (l *Ledger) Products() []domain.Product {
	products := make([]domain.Product, 0, len(l.catalog))
	for _, p := range l.catalog {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].ID < products[j].ID
	})
	return products
}

// UpdateDeliverable records the rendered document path for an order.
func (l *Ledger) UpdateDeliverable(ctx context.Context, orderID, path string) error {
	if path == "" {
		return fmt.Errorf("deliverable path is required: %w", domain.ErrValidation)
	}
	return l.store.SetDeliverable(ctx, orderID, path)
}

// MarkDelivered records that the deliverable was dispatched.
func (l *Ledger) MarkDelivered(ctx context.Context, orderID string) error {
	return l.store.SetDelivered(ctx, orderID)
}

// PendingDeliverables returns completed orders awaiting delivery.
func (l *Ledger) PendingDeliverables(ctx context.Context) ([]domain.Order, error) {
	return l.store.PendingDeliverables(ctx)
}

// UpsellCandidates returns (customer, order) pairs eligible for a
// follow-up within the window.
func (l *Ledger) UpsellCandidates(ctx context.Context, windowDays int) ([]domain.CandidatePair, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("window must be positive: %w", domain.ErrValidation)
	}
	cutoff := l.now().UTC().AddDate(0, 0, -windowDays)
	return l.store.UpsellCandidates(ctx, cutoff)
}

// Stats computes the aggregate ledger metrics.
func (l *Ledger) Stats(ctx context.Context) (*domain.Metrics, error) {
	return l.store.Stats(ctx)
}

// newOrderID builds an order identifier like "ORD-1A2B3C4D".
func newOrderID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}
