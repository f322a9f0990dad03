package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// campaignStore implements driven.CampaignStore.
type campaignStore struct {
	store *Store
}

var _ driven.CampaignStore = (*campaignStore)(nil)

// Has reports whether a campaign has been recorded for the order.
func (s *campaignStore) Has(ctx context.Context, orderID string, campaign domain.CampaignType) (bool, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sent_campaigns WHERE order_id = ? AND campaign = ?",
		orderID, string(campaign)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking sent campaign: %w: %v", domain.ErrStorage, err)
	}
	return count > 0, nil
}

// Record marks a campaign as sent. The (order, campaign) primary key
// makes duplicates a conflict rather than a silent overwrite.
func (s *campaignStore) Record(ctx context.Context, sent domain.SentCampaign) error {
	if sent.OrderID == "" || !sent.Campaign.Valid() {
		return domain.ErrValidation
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sent_campaigns (order_id, campaign, sent_at)
		VALUES (?, ?, ?)
	`, sent.OrderID, string(sent.Campaign), sent.SentAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("recording sent campaign: %w: %v", domain.ErrStorage, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert: %w: %v", domain.ErrStorage, err)
	}
	if n == 0 {
		return fmt.Errorf("campaign %s already sent for order %s: %w",
			sent.Campaign, sent.OrderID, domain.ErrConflict)
	}
	return nil
}

// CountSince returns how many campaigns were recorded at or after the
// cutoff.
func (s *campaignStore) CountSince(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sent_campaigns WHERE sent_at >= ?",
		cutoff.UTC().Format(time.RFC3339)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sent campaigns: %w: %v", domain.ErrStorage, err)
	}
	return count, nil
}
