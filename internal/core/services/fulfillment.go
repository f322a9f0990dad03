package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/core/ports/driving"
	"github.com/mecaclair/dispatch/internal/logger"
)

// Ensure Fulfillment implements the interface.
var _ driving.FulfillmentService = (*Fulfillment)(nil)

// Default fulfillment settings.
const (
	// DefaultCallTimeout bounds each render and transport call so a
	// stuck collaborator cannot stall the whole pass.
	DefaultCallTimeout = 30 * time.Second

	// DefaultExportLimit is how many symptoms personalize a
	// deliverable.
	DefaultExportLimit = 50
)

// FulfillmentConfig holds fulfillment coordinator settings.
type FulfillmentConfig struct {
	// CallTimeout bounds each external call. Defaults to
	// DefaultCallTimeout when zero.
	CallTimeout time.Duration

	// ExportLimit is the knowledge-store row budget per deliverable.
	// Defaults to DefaultExportLimit when zero.
	ExportLimit int
}

// Fulfillment turns completed orders into delivered documents. Each
// run is idempotent: a generated deliverable is never re-rendered and a
// delivered order is never re-sent.
type Fulfillment struct {
	ledger    driving.LedgerService
	knowledge driving.KnowledgeService
	renderer  driven.Renderer
	transport driven.Transport
	cfg       FulfillmentConfig
}

// NewFulfillment creates the fulfillment coordinator.
func NewFulfillment(
	ledger driving.LedgerService,
	knowledge driving.KnowledgeService,
	renderer driven.Renderer,
	transport driven.Transport,
	cfg FulfillmentConfig,
) *Fulfillment {
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = DefaultCallTimeout
	}
	if cfg.ExportLimit == 0 {
		cfg.ExportLimit = DefaultExportLimit
	}
	return &Fulfillment{
		ledger:    ledger,
		knowledge: knowledge,
		renderer:  renderer,
		transport: transport,
		cfg:       cfg,
	}
}

// ProcessPendingOrders renders and dispatches deliverables for all
// completed, undelivered orders. A render or transport failure on one
// order is logged and the pass moves on; a storage failure ends the
// pass early and the next tick retries the same pending work.
func (f *Fulfillment) ProcessPendingOrders(ctx context.Context) (int, error) {
	logger.Section("Order Fulfillment")

	pending, err := f.ledger.PendingDeliverables(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing pending deliverables: %w", err)
	}

	if len(pending) == 0 {
		logger.Debug("No orders awaiting fulfillment")
		return 0, nil
	}
	logger.Info("%d order(s) awaiting fulfillment", len(pending))

	delivered := 0
	for i := range pending {
		err := f.processOrder(ctx, &pending[i])
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, domain.ErrStorage):
			logger.Error("Fulfillment pass aborted on order %s: %v", pending[i].ID, err)
			return delivered, err
		default:
			logger.Warn("Order %s not fulfilled this pass: %v", pending[i].ID, err)
		}
	}

	return delivered, nil
}

// processOrder drives a single order through render and delivery.
// Missing customer or product references are non-fatal: the order stays
// pending and is retried on the next pass.
func (f *Fulfillment) processOrder(ctx context.Context, order *domain.Order) error {
	customer, err := f.ledger.Customer(ctx, order.CustomerID)
	if err != nil {
		return fmt.Errorf("resolving customer %s: %w", order.CustomerID, err)
	}

	product, err := f.ledger.Product(order.ProductID)
	if err != nil {
		return fmt.Errorf("resolving product %s: %w", order.ProductID, err)
	}

	if !order.DeliverableGenerated || order.DeliverablePath == "" {
		path, err := f.render(ctx, order, customer, product)
		if err != nil {
			return err
		}
		if err := f.ledger.UpdateDeliverable(ctx, order.ID, path); err != nil {
			return fmt.Errorf("recording deliverable: %w", err)
		}
		order.DeliverableGenerated = true
		order.DeliverablePath = path
		logger.Info("Deliverable generated for order %s: %s", order.ID, path)
	}

	if !order.Delivered && order.DeliverablePath != "" {
		if err := f.deliver(ctx, order, customer, product); err != nil {
			return err
		}
		if err := f.ledger.MarkDelivered(ctx, order.ID); err != nil {
			return fmt.Errorf("marking delivered: %w", err)
		}
		logger.Info("Deliverable sent for order %s to %s", order.ID, customer.Email)
	}

	return nil
}

// render builds the personalization payload and invokes the renderer
// under a timeout.
func (f *Fulfillment) render(ctx context.Context, order *domain.Order, customer *domain.Customer, product *domain.Product) (string, error) {
	rows, err := f.knowledge.Export(ctx, f.cfg.ExportLimit)
	if err != nil {
		return "", fmt.Errorf("exporting knowledge rows: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
	defer cancel()

	path, err := f.renderer.Render(callCtx, domain.Deliverable{
		Title:        product.Name,
		CustomerName: customer.Name,
		Rows:         rows,
		Price:        product.Price,
		OrderID:      order.ID,
	})
	if err != nil {
		if callCtx.Err() != nil {
			return "", fmt.Errorf("render timed out: %w", domain.ErrRender)
		}
		return "", err
	}
	return path, nil
}

// deliver sends the deliverable as an attachment under a timeout.
func (f *Fulfillment) deliver(ctx context.Context, order *domain.Order, customer *domain.Customer, product *domain.Product) error {
	callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
	defer cancel()

	msg := domain.Message{
		To:      customer.Email,
		ToName:  customer.Name,
		Subject: fmt.Sprintf("%s, your training is ready! [Order %s]", customer.Name, order.ID),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your order %s (%s, %.2f) is confirmed. Your personalized training document is attached.</p>",
			customer.Name, order.ID, product.Name, order.Amount),
		Attachments: []string{order.DeliverablePath},
	}

	if err := f.transport.Send(callCtx, msg); err != nil {
		if callCtx.Err() != nil {
			return fmt.Errorf("send timed out: %w", domain.ErrTransport)
		}
		return err
	}
	return nil
}
