package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// fulfillmentFixture wires a fulfillment coordinator over in-memory
// collaborators with one completed order ready for processing.
type fulfillmentFixture struct {
	store     *fakeLedgerStore
	ledger    *Ledger
	symptoms  *fakeSymptomStore
	renderer  *fakeRenderer
	transport *fakeTransport
	service   *Fulfillment
}

func setupFulfillment(t *testing.T) *fulfillmentFixture {
	t.Helper()

	store := newFakeLedgerStore()
	ledger := NewLedger(store, nil)
	symptoms := newFakeSymptomStore()
	knowledge := NewKnowledge(symptoms, nil, nil, nil, nil)
	renderer := &fakeRenderer{}
	transport := newFakeTransport()
	service := NewFulfillment(ledger, knowledge, renderer, transport, FulfillmentConfig{})

	return &fulfillmentFixture{
		store:     store,
		ledger:    ledger,
		symptoms:  symptoms,
		renderer:  renderer,
		transport: transport,
		service:   service,
	}
}

// completedOrder creates a customer and a completed order for them.
func (f *fulfillmentFixture) completedOrder(t *testing.T, email string) *domain.Order {
	t.Helper()
	ctx := context.Background()

	customer, err := f.ledger.CreateCustomer(ctx, email, "Jean", "")
	require.NoError(t, err)
	order, err := f.ledger.CreateOrder(ctx, customer.ID, "formation_basic", "stripe")
	require.NoError(t, err)
	completed, err := f.ledger.CompleteOrder(ctx, order.ID)
	require.NoError(t, err)
	return completed
}

func TestProcessPendingOrders_RendersAndDelivers(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	order := f.completedOrder(t, "jean@example.com")

	symptom := domain.Symptom{
		ID: "001", Text: "Check engine light on", Frequency: 10,
		Causes: []domain.Cause{{Cause: "Faulty oxygen sensor", Probability: 1, Remedy: "Replace oxygen sensor"}},
	}
	require.NoError(t, f.symptoms.Save(ctx, &symptom, nil))

	delivered, err := f.service.ProcessPendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)

	got, err := f.ledger.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, got.DeliverableGenerated)
	assert.True(t, got.Delivered)
	assert.Equal(t, "deliverables/"+order.ID+".html", got.DeliverablePath)

	require.Len(t, f.renderer.renders, 1)
	payload := f.renderer.renders[0]
	assert.Equal(t, "Rapid Diagnostic Training", payload.Title)
	assert.Equal(t, "Jean", payload.CustomerName)
	require.Len(t, payload.Rows, 1, "knowledge export personalizes the document")

	msgs := f.transport.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jean@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, order.ID)
	assert.Equal(t, []string{got.DeliverablePath}, msgs[0].Attachments)
}

func TestProcessPendingOrders_Empty(t *testing.T) {
	f := setupFulfillment(t)
	delivered, err := f.service.ProcessPendingOrders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Empty(t, f.transport.messages())
}

func TestProcessPendingOrders_SkipsRenderWhenGenerated(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	order := f.completedOrder(t, "jean@example.com")
	require.NoError(t, f.ledger.UpdateDeliverable(ctx, order.ID, "deliverables/existing.html"))

	delivered, err := f.service.ProcessPendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Empty(t, f.renderer.renders, "an existing deliverable is never re-rendered")

	msgs := f.transport.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"deliverables/existing.html"}, msgs[0].Attachments)
}

func TestProcessPendingOrders_TransportFailureIsRetriable(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	broken := f.completedOrder(t, "broken@example.com")
	_ = f.completedOrder(t, "fine@example.com")
	f.transport.failFor["broken@example.com"] = true

	delivered, err := f.service.ProcessPendingOrders(ctx)
	require.NoError(t, err, "a transport failure on one order does not fail the pass")
	assert.Equal(t, 1, delivered)

	got, err := f.ledger.Order(ctx, broken.ID)
	require.NoError(t, err)
	assert.True(t, got.DeliverableGenerated, "the rendered document is kept")
	assert.False(t, got.Delivered, "the order stays pending delivery")

	// Once the transport recovers the next pass only sends, without
	// re-rendering.
	f.transport.failFor = map[string]bool{}
	renders := len(f.renderer.renders)
	delivered, err = f.service.ProcessPendingOrders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Len(t, f.renderer.renders, renders)
}

func TestProcessPendingOrders_RenderFailureIsRetriable(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	order := f.completedOrder(t, "jean@example.com")
	f.renderer.err = fmt.Errorf("template exploded: %w", domain.ErrRender)

	delivered, err := f.service.ProcessPendingOrders(ctx)
	require.NoError(t, err)
	assert.Zero(t, delivered)

	got, err := f.ledger.Order(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, got.DeliverableGenerated)
	assert.Empty(t, f.transport.messages(), "nothing is sent without a deliverable")
}

func TestProcessPendingOrders_StorageErrorAbortsPass(t *testing.T) {
	f := setupFulfillment(t)
	ctx := context.Background()
	_ = f.completedOrder(t, "a@example.com")
	_ = f.completedOrder(t, "b@example.com")
	f.store.setDeliverableErr = fmt.Errorf("disk full: %w", domain.ErrStorage)

	delivered, err := f.service.ProcessPendingOrders(ctx)
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.Zero(t, delivered)
	assert.Len(t, f.renderer.renders, 1, "the pass stops at the first storage failure")
}
