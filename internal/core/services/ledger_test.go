package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

func TestCreateCustomer(t *testing.T) {
	store := newFakeLedgerStore()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	ledger := NewLedger(store, fixedClock(now))
	ctx := context.Background()

	customer, err := ledger.CreateCustomer(ctx, "jean@example.com", "Jean Dupont", "+33600000000")
	require.NoError(t, err)
	assert.NotEmpty(t, customer.ID)
	assert.Equal(t, "jean@example.com", customer.Email)
	assert.Equal(t, now, customer.CreatedAt)
	assert.False(t, customer.IsPremium)
}

func TestCreateCustomer_Validation(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(), nil)
	ctx := context.Background()

	_, err := ledger.CreateCustomer(ctx, "", "Jean", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ledger.CreateCustomer(ctx, "jean@example.com", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateCustomer_DuplicateEmail(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(), nil)
	ctx := context.Background()

	_, err := ledger.CreateCustomer(ctx, "jean@example.com", "Jean", "")
	require.NoError(t, err)

	// Same address with different casing is still a duplicate.
	_, err = ledger.CreateCustomer(ctx, "Jean@Example.COM", "Jean Bis", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateOrder(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	customer, err := ledger.CreateCustomer(ctx, "jean@example.com", "Jean", "")
	require.NoError(t, err)

	order, err := ledger.CreateOrder(ctx, customer.ID, "formation_basic", "")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^ORD-[0-9A-F]{8}$`), order.ID)
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, 97.0, order.Amount, "amount copied from the catalog price")
	assert.Equal(t, "stripe", order.PaymentMethod, "empty payment method defaults to stripe")
}

func TestCreateOrder_UnknownReferences(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(), nil)
	ctx := context.Background()

	_, err := ledger.CreateOrder(ctx, "cust-1", "no_such_product", "stripe")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = ledger.CreateOrder(ctx, "no-such-customer", "formation_basic", "stripe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCompleteOrder_MarksPremiumForPremiumTiers(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	customer, err := ledger.CreateCustomer(ctx, "jean@example.com", "Jean", "")
	require.NoError(t, err)

	basic, err := ledger.CreateOrder(ctx, customer.ID, "formation_basic", "stripe")
	require.NoError(t, err)
	completed, err := ledger.CompleteOrder(ctx, basic.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCompleted, completed.Status)

	got, err := ledger.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPremium, "basic tier does not upgrade")
	assert.Equal(t, 97.0, got.TotalSpent)
	assert.Equal(t, 1, got.PurchaseCount)

	bundle, err := ledger.CreateOrder(ctx, customer.ID, "full_bundle", "stripe")
	require.NoError(t, err)
	_, err = ledger.CompleteOrder(ctx, bundle.ID)
	require.NoError(t, err)

	got, err = ledger.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPremium, "bundle tier upgrades to premium")
	assert.Equal(t, 97.0+397.0, got.TotalSpent)
	assert.Equal(t, 2, got.PurchaseCount)
}

func TestCompleteOrder_Conflicts(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	_, err := ledger.CompleteOrder(ctx, "ORD-MISSING1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	customer, err := ledger.CreateCustomer(ctx, "jean@example.com", "Jean", "")
	require.NoError(t, err)
	order, err := ledger.CreateOrder(ctx, customer.ID, "formation_basic", "stripe")
	require.NoError(t, err)

	_, err = ledger.CompleteOrder(ctx, order.ID)
	require.NoError(t, err)

	_, err = ledger.CompleteOrder(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := ledger.Customer(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PurchaseCount, "double completion never double-counts")
}

func TestRefundAndFailOrder(t *testing.T) {
	store := newFakeLedgerStore()
	ledger := NewLedger(store, nil)
	ctx := context.Background()

	customer, err := ledger.CreateCustomer(ctx, "jean@example.com", "Jean", "")
	require.NoError(t, err)
	order, err := ledger.CreateOrder(ctx, customer.ID, "formation_basic", "stripe")
	require.NoError(t, err)

	// A pending order admits neither terminal transition.
	assert.ErrorIs(t, ledger.RefundOrder(ctx, order.ID), domain.ErrConflict)

	_, err = ledger.CompleteOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, ledger.RefundOrder(ctx, order.ID))

	got, err := ledger.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderRefunded, got.Status)

	// Terminal states admit nothing further.
	assert.ErrorIs(t, ledger.FailOrder(ctx, order.ID), domain.ErrConflict)
}

func TestUpdateDeliverable_Validation(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(), nil)
	err := ledger.UpdateDeliverable(context.Background(), "ORD-AAAA1111", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpsellCandidates_CutoffFromWindow(t *testing.T) {
	store := newFakeLedgerStore()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	ledger := NewLedger(store, fixedClock(now))
	ctx := context.Background()

	_, err := ledger.UpsellCandidates(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = ledger.UpsellCandidates(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -3), store.lastCutoff)
}

func TestProducts_SortedCatalog(t *testing.T) {
	ledger := NewLedger(newFakeLedgerStore(), nil)

	products := ledger.Products()
	require.Len(t, products, 4)
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"diagnostic_access", "formation_basic", "formation_premium", "full_bundle"}, ids)

	premium, err := ledger.Product("formation_premium")
	require.NoError(t, err)
	assert.True(t, premium.Tier.Premium())

	_, err = ledger.Product("no_such_product")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
