package driven

import "context"

// VectorIndex provides semantic similarity search over symptom
// embeddings.
type VectorIndex interface {
	// Add inserts or replaces the vector for the given symptom ID.
	Add(ctx context.Context, symptomID string, embedding []float32) error

	// Delete removes a vector from the index.
	Delete(ctx context.Context, symptomID string) error

	// Search finds the k nearest neighbours to the query vector,
	// closest first, ties broken by lower symptom ID.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// SymptomID is the matched symptom.
	SymptomID string

	// Similarity is the cosine similarity score (0-1).
	Similarity float64
}
