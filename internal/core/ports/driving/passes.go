package driving

import "context"

// FulfillmentService turns completed orders into delivered documents.
type FulfillmentService interface {
	// ProcessPendingOrders renders and dispatches deliverables for all
	// completed, undelivered orders. Failures on one order do not block
	// the others. Returns the number of orders fully delivered during
	// this pass.
	ProcessPendingOrders(ctx context.Context) (int, error)
}

// CampaignService runs the time-windowed follow-up sequence.
type CampaignService interface {
	// SendCampaigns dispatches every due campaign at most once per
	// (order, campaign type). Returns the number of sends recorded
	// during this pass.
	SendCampaigns(ctx context.Context) (int, error)
}

// ReportService produces the daily operations report.
type ReportService interface {
	// GenerateDailyReport builds the report, writes it to the reports
	// directory and returns its file path.
	GenerateDailyReport(ctx context.Context) (string, error)
}
