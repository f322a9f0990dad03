package driven

import (
	"context"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// ObservationSource feeds new fault observations into the knowledge
// refresh pass. This is an optional service - when nil, the refresh
// pass is a no-op.
type ObservationSource interface {
	// Pull returns the observations that arrived since the previous
	// call and removes them from the source. Consumed observations are
	// not returned again.
	Pull(ctx context.Context) ([]domain.Observation, error)
}
