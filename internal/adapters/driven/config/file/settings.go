// Package file loads and persists the dispatch configuration as a TOML
// file.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// Settings is the full on-disk configuration. Zero values fall back to
// defaults at load time, so a partial config file is valid.
type Settings struct {
	// DataDir holds the SQLite database. Empty means ~/.dispatch/data.
	DataDir string `toml:"data_dir"`

	Deliverables DeliverableSettings `toml:"deliverables"`
	Reports      ReportSettings      `toml:"reports"`
	Observations ObservationSettings `toml:"observations"`
	Embedding    EmbeddingSettings   `toml:"embedding"`
	Mail         MailSettings        `toml:"mail"`
	Scheduler    SchedulerSettings   `toml:"scheduler"`
}

// DeliverableSettings controls document rendering.
type DeliverableSettings struct {
	// Dir is where rendered documents are written.
	Dir string `toml:"dir"`

	// ExportLimit caps how many symptoms go into a document.
	ExportLimit int `toml:"export_limit"`
}

// ReportSettings controls daily report output.
type ReportSettings struct {
	Dir string `toml:"dir"`
}

// ObservationSettings controls the observation drop directory.
type ObservationSettings struct {
	// Dir is watched for observation JSON files. Empty disables the
	// observation source.
	Dir string `toml:"dir"`
}

// EmbeddingSettings controls the Ollama embedding service.
type EmbeddingSettings struct {
	// Enabled turns semantic search on. When false the knowledge base
	// still works, without vector search.
	Enabled bool `toml:"enabled"`

	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Dimensions     int    `toml:"dimensions"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MailSettings selects and configures the outbound mail transport.
type MailSettings struct {
	// Provider is "smtp", "gmail" or "none".
	Provider string `toml:"provider"`

	FromAddr string `toml:"from_addr"`
	FromName string `toml:"from_name"`

	// RequestsPerSecond caps the sustained send rate.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`

	SMTP  SMTPSettings  `toml:"smtp"`
	Gmail GmailSettings `toml:"gmail"`
}

// GmailSettings holds the Gmail API transport parameters.
type GmailSettings struct {
	// TokenFile is a JSON-encoded oauth2 token. Empty means
	// gmail_token.json next to the config file.
	TokenFile string `toml:"token_file"`
}

// SMTPSettings holds the relay connection parameters.
type SMTPSettings struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// SchedulerSettings configures the background passes.
type SchedulerSettings struct {
	Enabled bool `toml:"enabled"`

	// Tasks overrides per-task interval and enablement, keyed by task
	// ID. Absent tasks keep their defaults.
	Tasks map[string]TaskSettings `toml:"tasks"`
}

// TaskSettings overrides one scheduled task.
type TaskSettings struct {
	Enabled         bool `toml:"enabled"`
	IntervalMinutes int  `toml:"interval_minutes"`
}

// Mail provider values.
const (
	MailProviderSMTP  = "smtp"
	MailProviderGmail = "gmail"
	MailProviderNone  = "none"
)

// DefaultSettings returns the configuration used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Deliverables: DeliverableSettings{
			Dir:         "deliverables",
			ExportLimit: 50,
		},
		Reports: ReportSettings{
			Dir: "reports",
		},
		Embedding: EmbeddingSettings{
			Enabled:        true,
			BaseURL:        "http://localhost:11434",
			Model:          "nomic-embed-text",
			Dimensions:     768,
			TimeoutSeconds: 30,
		},
		Mail: MailSettings{
			Provider:          MailProviderNone,
			FromName:          "MecaClair Diag",
			RequestsPerSecond: 2,
			Burst:             5,
		},
		Scheduler: SchedulerSettings{
			Enabled: true,
		},
	}
}

// Load reads the settings file at configDir/config.toml, filling gaps
// with defaults. A missing file yields pure defaults. If configDir is
// empty, ~/.dispatch is used.
func Load(configDir string) (Settings, string, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Settings{}, "", fmt.Errorf("getting home directory: %w", err)
		}
		configDir = filepath.Join(home, ".dispatch")
	}

	path := filepath.Join(configDir, "config.toml")
	settings := DefaultSettings()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, path, nil
	}
	if err != nil {
		return Settings{}, path, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(content, &settings); err != nil {
		return Settings{}, path, fmt.Errorf("parsing config: %w", err)
	}
	settings.applyDefaults()
	return settings, path, nil
}

// Save writes the settings to path, creating the directory if needed.
func (s Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	content, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyDefaults backfills zero values left by a partial config file.
func (s *Settings) applyDefaults() {
	def := DefaultSettings()
	if s.Deliverables.Dir == "" {
		s.Deliverables.Dir = def.Deliverables.Dir
	}
	if s.Deliverables.ExportLimit == 0 {
		s.Deliverables.ExportLimit = def.Deliverables.ExportLimit
	}
	if s.Reports.Dir == "" {
		s.Reports.Dir = def.Reports.Dir
	}
	if s.Embedding.BaseURL == "" {
		s.Embedding.BaseURL = def.Embedding.BaseURL
	}
	if s.Embedding.Model == "" {
		s.Embedding.Model = def.Embedding.Model
	}
	if s.Embedding.Dimensions == 0 {
		s.Embedding.Dimensions = def.Embedding.Dimensions
	}
	if s.Embedding.TimeoutSeconds == 0 {
		s.Embedding.TimeoutSeconds = def.Embedding.TimeoutSeconds
	}
	if s.Mail.Provider == "" {
		s.Mail.Provider = def.Mail.Provider
	}
	if s.Mail.FromName == "" {
		s.Mail.FromName = def.Mail.FromName
	}
	if s.Mail.RequestsPerSecond == 0 {
		s.Mail.RequestsPerSecond = def.Mail.RequestsPerSecond
	}
	if s.Mail.Burst == 0 {
		s.Mail.Burst = def.Mail.Burst
	}
}

// SchedulerConfig translates the settings into the domain scheduler
// configuration, starting from the built-in defaults.
func (s Settings) SchedulerConfig() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = s.Scheduler.Enabled
	for id, task := range s.Scheduler.Tasks {
		override := domain.TaskConfig{
			Enabled:  task.Enabled,
			Interval: time.Duration(task.IntervalMinutes) * time.Minute,
		}
		if override.Interval == 0 {
			override.Interval = cfg.TaskConfigs[id].Interval
		}
		cfg.TaskConfigs[id] = override
	}
	return cfg
}
