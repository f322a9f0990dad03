package driving

import (
	"context"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// KnowledgeService owns the symptom knowledge base.
type KnowledgeService interface {
	// IngestObservation folds one observation into the knowledge base,
	// creating the symptom on first sight or updating frequencies,
	// causes and probabilities on a match.
	IngestObservation(ctx context.Context, obs domain.Observation) error

	// Search returns up to topK symptoms semantically closest to the
	// query, closest first. Fails with domain.ErrEmbeddingUnavailable
	// when no embedding service is configured.
	Search(ctx context.Context, query string, topK int) ([]domain.Symptom, error)

	// Export flattens the most frequent symptoms into rows for
	// deliverable personalization: limit symptoms, up to three causes
	// each, ordered by frequency descending.
	Export(ctx context.Context, limit int) ([]domain.ExportRow, error)

	// SuggestDiagnostics projects the closest symptoms into diagnostic
	// suggestions, optionally filtered by vehicle type.
	SuggestDiagnostics(ctx context.Context, description, vehicleType string) ([]domain.Suggestion, error)

	// Refresh pulls pending observations from the observation source
	// and ingests them, returning the number ingested.
	Refresh(ctx context.Context) (int, error)

	// Count returns the number of symptoms in the knowledge base.
	Count(ctx context.Context) (int, error)
}
