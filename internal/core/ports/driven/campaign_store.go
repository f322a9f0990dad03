package driven

import (
	"context"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// CampaignStore persists sent-campaign markers. The (order, campaign)
// pair is the primary key; recording the same pair twice is an error
// the caller treats as already-sent.
type CampaignStore interface {
	// Has reports whether a campaign has been recorded for the order.
	Has(ctx context.Context, orderID string, campaign domain.CampaignType) (bool, error)

	// Record marks a campaign as sent. Returns domain.ErrConflict if
	// the pair is already recorded.
	Record(ctx context.Context, sent domain.SentCampaign) error

	// CountSince returns how many campaigns were recorded at or after
	// the cutoff, for reporting.
	CountSince(ctx context.Context, cutoff time.Time) (int, error)
}
