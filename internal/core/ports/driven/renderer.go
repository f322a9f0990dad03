package driven

import (
	"context"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// Renderer produces the personalized deliverable document for a
// completed order. An implementation writes exactly one file and
// returns its path, or fails with an error wrapping domain.ErrRender
// without leaving a partial file behind.
type Renderer interface {
	// Render writes the document and returns its file path.
	Render(ctx context.Context, deliverable domain.Deliverable) (string, error)
}
