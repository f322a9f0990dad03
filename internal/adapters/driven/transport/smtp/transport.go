// Package smtp delivers messages through a plain SMTP relay.
package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"golang.org/x/time/rate"

	mimemsg "github.com/mecaclair/dispatch/internal/adapters/driven/transport/mime"
	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// Ensure Transport implements the interface.
var _ driven.Transport = (*Transport)(nil)

// Default rate limits. Most relays throttle well before these values;
// the limiter keeps a large campaign pass from tripping them.
const (
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 5
)

// Config holds SMTP relay settings.
type Config struct {
	// Host is the relay hostname.
	Host string

	// Port is the relay port, typically 587.
	Port int

	// Username authenticates against the relay. Empty disables auth.
	Username string

	// Password is the relay password.
	Password string

	// FromAddr is the sender address.
	FromAddr string

	// FromName is the sender display name.
	FromName string

	// RequestsPerSecond caps the sustained send rate (default 2).
	RequestsPerSecond float64

	// Burst is the token bucket size (default 5).
	Burst int
}

// Transport sends mail through an SMTP relay with a token-bucket rate
// limit.
type Transport struct {
	cfg     Config
	limiter *rate.Limiter
}

// NewTransport creates an SMTP transport.
func NewTransport(cfg Config) (*Transport, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required: %w", domain.ErrValidation)
	}
	if cfg.FromAddr == "" {
		return nil, fmt.Errorf("smtp sender address is required: %w", domain.ErrValidation)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = DefaultBurst
	}

	return &Transport{
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

	addr := fmt.Sprintf("%s:%d", t.cfg.Host, t.cfg.Port)
	var auth smtp.Auth
	if t.cfg.Username != "" {
		auth = smtp.PlainAuth("", t.cfg.Username, t.cfg.Password, t.cfg.Host)
	}

	// net/smtp has no context support; run the send in a goroutine so a
	// cancelled context unblocks the caller. The relay connection is
	// abandoned, not torn down, on cancellation.
	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, t.cfg.FromAddr, []string{msg.To}, raw)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send cancelled: %w: %v", domain.ErrTransport, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending to %s: %w: %v", msg.To, domain.ErrTransport, err)
		}
	}
	return nil
}
