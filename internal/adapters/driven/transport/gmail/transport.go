// Package gmail delivers messages through the Gmail API.
//
// The adapter sends on behalf of the authenticated account using the
// users.messages.send endpoint with a raw RFC 822 payload, so the same
// MIME form works for both this transport and the SMTP one.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	mimemsg "github.com/mecaclair/dispatch/internal/adapters/driven/transport/mime"
	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// Ensure Transport implements the interface.
var _ driven.Transport = (*Transport)(nil)

// Conservative defaults, well below Gmail's quota units.
const (
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 5
)

// Config holds Gmail transport settings.
type Config struct {
	// FromAddr is the sender address shown in the From header. The
	// authenticated account does the actual sending.
	FromAddr string

	// FromName is the sender display name.
	FromName string

	// RequestsPerSecond caps the sustained send rate (default 2).
	RequestsPerSecond float64

	// Burst is the token bucket size (default 5).
	Burst int
}

// Transport sends mail through the Gmail API.
type Transport struct {
	svc     *gmail.Service
	cfg     Config
	limiter *rate.Limiter
}

// NewTransport creates a Gmail transport from an OAuth token source.
func NewTransport(ctx context.Context, ts oauth2.TokenSource, cfg Config) (*Transport, error) {
	if cfg.FromAddr == "" {
		return nil, fmt.Errorf("gmail sender address is required: %w", domain.ErrValidation)
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("creating gmail service: %w", err)
	}

	return &Transport{
		svc:     svc,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}, nil
}

// Send delivers the message, including any attachments.
func (t *Transport) Send(ctx context.Context, msg domain.Message) error {
	if msg.To == "" {
		return fmt.Errorf("message without recipient: %w", domain.ErrTransport)
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w: %v", domain.ErrTransport, err)
	}

	raw, err := mimemsg.Build(t.cfg.FromName, t.cfg.FromAddr, msg)
	if err != nil {
		return fmt.Errorf("building message: %w: %v", domain.ErrTransport, err)
	}

	payload := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}
	if _, err := t.svc.Users.Messages.Send("me", payload).Context(ctx).Do(); err != nil {
		return fmt.Errorf("sending to %s: %w: %v", msg.To, domain.ErrTransport, err)
	}
	return nil
}
