package driven

import (
	"context"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// Transport dispatches outbound email. Fire-and-report: either the
// whole message was accepted for delivery or the call fails with an
// error wrapping domain.ErrTransport. There is no partial success.
type Transport interface {
	// Send delivers the message, including any attachments.
	Send(ctx context.Context, msg domain.Message) error
}
