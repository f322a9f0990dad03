package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/core/ports/driving"
	"github.com/mecaclair/dispatch/internal/logger"
)

var _ driving.ReportService = (*Report)(nil)

// Report assembles the daily operations summary from the ledger, the
// knowledge base and the campaign log, and writes it as a plain-text
// file under the reports directory.
type Report struct {
	ledger    driving.LedgerService
	knowledge driving.KnowledgeService
	sent      driven.CampaignStore
	dir       string
	now       func() time.Time
}

// NewReport creates the report generator writing into dir. The clock
// parameter is optional; when nil, time.Now is used.
func NewReport(
	ledger driving.LedgerService,
	knowledge driving.KnowledgeService,
	sent driven.CampaignStore,
	dir string,
	clock func() time.Time,
) *Report {
	if clock == nil {
		clock = time.Now
	}
	return &Report{ledger: ledger, knowledge: knowledge, sent: sent, dir: dir, now: clock}
}

// GenerateDailyReport writes reports/report_YYYYMMDD.txt and returns
// its path. Writing goes through a temp file and a rename so a crash
// never leaves a partial report behind.
func (r *Report) GenerateDailyReport(ctx context.Context) (string, error) {
	logger.Section("Daily Report")

	now := r.now().UTC()

	stats, err := r.ledger.Stats(ctx)
	if err != nil {
		return "", fmt.Errorf("computing ledger stats: %w", err)
	}

	symptoms, err := r.knowledge.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("counting symptoms: %w", err)
	}

	campaigns, err := r.sent.CountSince(ctx, now.AddDate(0, 0, -1))
	if err != nil {
		return "", fmt.Errorf("counting recent campaigns: %w", err)
	}

	body := renderReport(now, stats, symptoms, campaigns)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("report_%s.txt", now.Format("20060102")))
	tmp, err := os.CreateTemp(r.dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp report: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("closing report: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("publishing report: %w", err)
	}

	logger.Info("Report written to %s", path)
	return path, nil
}

// renderReport formats the report body. Kept separate so tests can
// assert on content without touching the filesystem.
func renderReport(now time.Time, stats *domain.Metrics, symptoms, campaigns int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DAILY REPORT %s\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", 40))
	fmt.Fprintf(&b, "Customers:          %d\n", stats.TotalCustomers)
	fmt.Fprintf(&b, "Premium customers:  %d\n", stats.PremiumCustomers)
	fmt.Fprintf(&b, "Orders:             %d\n", stats.TotalOrders)
	fmt.Fprintf(&b, "Completed orders:   %d\n", stats.CompletedOrders)
	fmt.Fprintf(&b, "Total revenue:      %.2f EUR\n", stats.TotalRevenue)
	fmt.Fprintf(&b, "Conversion rate:    %.1f%%\n", stats.ConversionRate)
	fmt.Fprintf(&b, "Avg order value:    %.2f EUR\n", stats.AverageOrderValue)
	fmt.Fprintf(&b, "\n")
	fmt.Fprintf(&b, "Known symptoms:     %d\n", symptoms)
	fmt.Fprintf(&b, "Campaigns (24h):    %d\n", campaigns)
	return b.String()
}
