package domain

import "time"

// CampaignType identifies one scheduled follow-up communication in the
// post-purchase sequence. Closed set.
type CampaignType string

const (
	// CampaignDay1Soft is the soft-tone upsell sent within one day of
	// purchase.
	CampaignDay1Soft CampaignType = "day1_soft"

	// CampaignDay3Urgent is the urgency-framed upsell sent within three
	// days of purchase.
	CampaignDay3Urgent CampaignType = "day3_urgent"
)

// Valid reports whether the campaign type is known.
func (c CampaignType) Valid() bool {
	switch c {
	case CampaignDay1Soft, CampaignDay3Urgent:
		return true
	}
	return false
}

// WindowDays is the campaign's eligibility window in days since the
// order was placed. Outside the window a never-sent campaign expires
// silently.
func (c CampaignType) WindowDays() int {
	switch c {
	case CampaignDay1Soft:
		return 1
	case CampaignDay3Urgent:
		return 3
	}
	return 0
}

// AllCampaigns returns the fixed campaign sequence in dispatch order.
func AllCampaigns() []CampaignType {
	return []CampaignType{CampaignDay1Soft, CampaignDay3Urgent}
}

// SentCampaign marks that a specific campaign has been dispatched for a
// specific order. The (OrderID, Campaign) pair enforces at-most-once
// delivery across scheduler runs.
type SentCampaign struct {
	// OrderID is the order the campaign was tied to.
	OrderID string

	// Campaign is the campaign type that was sent.
	Campaign CampaignType

	// SentAt is when the send succeeded.
	SentAt time.Time
}
