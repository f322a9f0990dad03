package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"github.com/mecaclair/dispatch/internal/adapters/driven/config/file"
	"github.com/mecaclair/dispatch/internal/adapters/driven/embedding/ollama"
	"github.com/mecaclair/dispatch/internal/adapters/driven/observations"
	"github.com/mecaclair/dispatch/internal/adapters/driven/render/html"
	"github.com/mecaclair/dispatch/internal/adapters/driven/seed"
	"github.com/mecaclair/dispatch/internal/adapters/driven/storage/sqlite"
	"github.com/mecaclair/dispatch/internal/adapters/driven/transport/gmail"
	"github.com/mecaclair/dispatch/internal/adapters/driven/transport/smtp"
	"github.com/mecaclair/dispatch/internal/adapters/driven/vector/memory"
	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/core/services"
	"github.com/mecaclair/dispatch/internal/logger"
)

// app bundles the wired services behind the command handlers. Each
// command builds one, uses it, and closes it on exit.
type app struct {
	settings file.Settings
	store    *sqlite.Store
	embedder driven.EmbeddingService

	ledger      *services.Ledger
	knowledge   *services.Knowledge
	fulfillment *services.Fulfillment
	campaigns   *services.Campaigns
	report      *services.Report
	scheduler   *services.Scheduler
}

// newApp loads configuration, opens the store and wires the services.
// A store that cannot be opened is fatal; the caller exits non-zero.
func newApp(ctx context.Context) (*app, error) {
	settings, configPath, err := file.Load(configDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration: %s", configPath)

	store, err := sqlite.NewStore(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	logger.Debug("Store: %s", store.Path())

	var embedder driven.EmbeddingService
	var index driven.VectorIndex
	if settings.Embedding.Enabled {
		embedder = ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    settings.Embedding.BaseURL,
			Model:      settings.Embedding.Model,
			Timeout:    time.Duration(settings.Embedding.TimeoutSeconds) * time.Second,
			Dimensions: settings.Embedding.Dimensions,
		})
		index = memory.NewIndex()
	}

	var source driven.ObservationSource
	if settings.Observations.Dir != "" {
		source = observations.NewDirSource(settings.Observations.Dir)
	}

	knowledge := services.NewKnowledge(store.SymptomStore(), embedder, index, source, nil)
	seeds, err := seed.Symptoms()
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := knowledge.Bootstrap(ctx, seeds); err != nil {
		store.Close()
		return nil, fmt.Errorf("bootstrapping knowledge base: %w", err)
	}

	renderer, err := html.NewRenderer(settings.Deliverables.Dir, nil)
	if err != nil {
		store.Close()
		return nil, err
	}

	transport, err := buildTransport(ctx, settings.Mail, filepath.Dir(configPath))
	if err != nil {
		store.Close()
		return nil, err
	}

	ledger := services.NewLedger(store.LedgerStore(), nil)
	fulfillment := services.NewFulfillment(ledger, knowledge, renderer, transport, services.FulfillmentConfig{
		ExportLimit: settings.Deliverables.ExportLimit,
	})
	campaigns := services.NewCampaigns(ledger, store.CampaignStore(), transport, nil, 0)
	report := services.NewReport(ledger, knowledge, store.CampaignStore(), settings.Reports.Dir, nil)
	scheduler := services.NewScheduler(
		settings.SchedulerConfig(), store.SchedulerStore(),
		fulfillment, campaigns, knowledge, report, nil,
	)

	return &app{
		settings:    settings,
		store:       store,
		embedder:    embedder,
		ledger:      ledger,
		knowledge:   knowledge,
		fulfillment: fulfillment,
		campaigns:   campaigns,
		report:      report,
		scheduler:   scheduler,
	}, nil
}

// Close releases the store and embedding client.
func (a *app) Close() {
	if a.embedder != nil {
		a.embedder.Close()
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Closing store: %v", err)
	}
}

// buildTransport selects the outbound mail adapter from the settings.
func buildTransport(ctx context.Context, cfg file.MailSettings, configDir string) (driven.Transport, error) {
	switch cfg.Provider {
	case file.MailProviderNone, "":
		return nopTransport{}, nil

	case file.MailProviderSMTP:
		return smtp.NewTransport(smtp.Config{
			Host:              cfg.SMTP.Host,
			Port:              cfg.SMTP.Port,
			Username:          cfg.SMTP.Username,
			Password:          cfg.SMTP.Password,
			FromAddr:          cfg.FromAddr,
			FromName:          cfg.FromName,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		})

	case file.MailProviderGmail:
		tokenFile := cfg.Gmail.TokenFile
		if tokenFile == "" {
			tokenFile = filepath.Join(configDir, "gmail_token.json")
		}
		ts, err := tokenSourceFromFile(tokenFile)
		if err != nil {
			return nil, err
		}
		return gmail.NewTransport(ctx, ts, gmail.Config{
			FromAddr:          cfg.FromAddr,
			FromName:          cfg.FromName,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		})
	}
	return nil, fmt.Errorf("unknown mail provider %q: %w", cfg.Provider, domain.ErrValidation)
}

// tokenSourceFromFile reads a JSON-encoded oauth2 token.
func tokenSourceFromFile(path string) (oauth2.TokenSource, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading gmail token %s: %w", path, err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(content, &token); err != nil {
		return nil, fmt.Errorf("parsing gmail token %s: %w", path, err)
	}
	return oauth2.StaticTokenSource(&token), nil
}

// nopTransport accepts every message without sending it. Used when no
// mail provider is configured so fulfillment still progresses in
// development setups.
type nopTransport struct{}

func (nopTransport) Send(_ context.Context, msg domain.Message) error {
	logger.Warn("Mail transport disabled; message to %s (%q) not sent", msg.To, msg.Subject)
	return nil
}
