package driven

import (
	"context"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

// SymptomStore persists knowledge-base entries together with their
// embedding vectors.
type SymptomStore interface {
	// Save inserts or updates a symptom and its embedding. A nil
	// embedding leaves the symptom without a vector; semantic search
	// skips it.
	Save(ctx context.Context, symptom *domain.Symptom, embedding []float32) error

	// Get retrieves a symptom by ID.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*domain.Symptom, error)

	// FindByText retrieves a symptom by its text, compared
	// case-insensitively. Returns domain.ErrNotFound if absent.
	FindByText(ctx context.Context, text string) (*domain.Symptom, error)

	// List returns all symptoms ordered by ID ascending.
	List(ctx context.Context) ([]domain.Symptom, error)

	// Embeddings returns the stored embedding per symptom ID, omitting
	// symptoms without a vector.
	Embeddings(ctx context.Context) (map[string][]float32, error)

	// Count returns the number of stored symptoms.
	Count(ctx context.Context) (int, error)
}
