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

// Ensure Campaigns implements the interface.
var _ driving.CampaignService = (*Campaigns)(nil)

// Campaigns runs the post-purchase follow-up sequence. Every campaign
// is sent at most once per order: a sent marker is recorded only after
// a successful dispatch, so failures retry on the next pass until the
// order ages out of the campaign window.
type Campaigns struct {
	ledger    driving.LedgerService
	sent      driven.CampaignStore
	transport driven.Transport
	now       func() time.Time
	timeout   time.Duration
}

// NewCampaigns creates the campaign scheduler. The clock parameter is
// optional; when nil, time.Now is used. A zero timeout falls back to
// DefaultCallTimeout.
func NewCampaigns(
	ledger driving.LedgerService,
	sent driven.CampaignStore,
	transport driven.Transport,
	clock func() time.Time,
	timeout time.Duration,
) *Campaigns {
	if clock == nil {
		clock = time.Now
	}
	if timeout == 0 {
		timeout = DefaultCallTimeout
	}
	return &Campaigns{
		ledger:    ledger,
		sent:      sent,
		transport: transport,
		now:       clock,
		timeout:   timeout,
	}
}

// SendCampaigns dispatches every due campaign. Transport failures are
// per-candidate and non-fatal; storage failures end the pass early.
func (c *Campaigns) SendCampaigns(ctx context.Context) (int, error) {
	logger.Section("Upsell Campaigns")

	sends := 0
	for _, campaign := range domain.AllCampaigns() {
		n, err := c.runCampaign(ctx, campaign)
		sends += n
		if err != nil {
			return sends, err
		}
	}
	return sends, nil
}

// runCampaign sends one campaign type to all unsent candidates in its
// window.
func (c *Campaigns) runCampaign(ctx context.Context, campaign domain.CampaignType) (int, error) {
	candidates, err := c.ledger.UpsellCandidates(ctx, campaign.WindowDays())
	if err != nil {
		return 0, fmt.Errorf("listing %s candidates: %w", campaign, err)
	}
	logger.Debug("Campaign %s: %d candidate(s)", campaign, len(candidates))

	sends := 0
	for i := range candidates {
		pair := &candidates[i]

		already, err := c.sent.Has(ctx, pair.Order.ID, campaign)
		if err != nil {
			return sends, fmt.Errorf("checking sent marker: %w", err)
		}
		if already {
			continue
		}

		if err := c.dispatch(ctx, campaign, pair); err != nil {
			logger.Warn("Campaign %s for order %s failed: %v (will retry while in window)",
				campaign, pair.Order.ID, err)
			continue
		}

		record := domain.SentCampaign{
			OrderID:  pair.Order.ID,
			Campaign: campaign,
			SentAt:   c.now().UTC(),
		}
		if err := c.sent.Record(ctx, record); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// Lost a race with a concurrent pass; the send stands.
				continue
			}
			return sends, fmt.Errorf("recording sent marker: %w", err)
		}

		sends++
		logger.Info("Campaign %s sent to %s (order %s)", campaign, pair.Customer.Email, pair.Order.ID)
	}

	return sends, nil
}

// dispatch builds the campaign message and sends it under a timeout.
func (c *Campaigns) dispatch(ctx context.Context, campaign domain.CampaignType, pair *domain.CandidatePair) error {
	msg, err := c.compose(campaign, pair)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.transport.Send(callCtx, msg); err != nil {
		if callCtx.Err() != nil {
			return fmt.Errorf("send timed out: %w", domain.ErrTransport)
		}
		return err
	}
	return nil
}

// compose renders the per-campaign subject and body. The copy is
// deliberately minimal; campaign tone lives here, full marketing copy
// does not.
func (c *Campaigns) compose(campaign domain.CampaignType, pair *domain.CandidatePair) (domain.Message, error) {
	productName := "your training"
	if product, err := c.ledger.Product(pair.Order.ProductID); err == nil {
		productName = product.Name
	}

	switch campaign {
	case domain.CampaignDay1Soft:
		return domain.Message{
			To:      pair.Customer.Email,
			ToName:  pair.Customer.Name,
			Subject: fmt.Sprintf("%s, how is your training going?", pair.Customer.Name),
			HTMLBody: fmt.Sprintf(
				"<p>Hello %s,</p><p>Have you had a chance to use %q yet? "+
					"When you are ready to go further, the premium upgrade is waiting for you.</p>",
				pair.Customer.Name, productName),
		}, nil
	case domain.CampaignDay3Urgent:
		return domain.Message{
			To:      pair.Customer.Email,
			ToName:  pair.Customer.Name,
			Subject: fmt.Sprintf("%s, your upgrade offer expires tonight", pair.Customer.Name),
			HTMLBody: fmt.Sprintf(
				"<p>Hello %s,</p><p>The discounted premium upgrade tied to order %s "+
					"expires at midnight. After that the regular price applies.</p>",
				pair.Customer.Name, pair.Order.ID),
		}, nil
	}
	return domain.Message{}, fmt.Errorf("unknown campaign %q: %w", campaign, domain.ErrValidation)
}
