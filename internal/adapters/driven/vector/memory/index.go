// Package memory provides an in-memory brute-force vector index.
//
// The knowledge base holds at most a few thousand symptoms, so a linear
// scan with exact cosine similarity beats the operational cost of an
// approximate index. Vectors are rebuilt from the symptom store at
// startup.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is a thread-safe in-memory vector index.
type Index struct {
	mu      sync.RWMutex
	vectors map[string][]float32
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		vectors: make(map[string][]float32),
	}
}

// Add inserts or replaces the vector for the given symptom ID.
func (idx *Index) Add(_ context.Context, symptomID string, embedding []float32) error {
	if symptomID == "" {
		return domain.ErrValidation
	}
	if len(embedding) == 0 {
		return fmt.Errorf("empty embedding for %s: %w", symptomID, domain.ErrValidation)
	}

	vector := make([]float32, len(embedding))
	copy(vector, embedding)

	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors[symptomID] = vector
	return nil
}

// Delete removes a vector from the index. Removing an absent ID is a
// no-op.
func (idx *Index) Delete(_ context.Context, symptomID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.vectors, symptomID)
	return nil
}

// Search finds the k nearest neighbours to the query vector, closest
// first. Ties are broken by lower symptom ID so results are stable.
func (idx *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector: %w", domain.ErrValidation)
	}
	if k <= 0 {
		return nil, nil
	}

	idx.mu.RLock()
	hits := make([]driven.VectorHit, 0, len(idx.vectors))
	for id, vector := range idx.vectors {
		if len(vector) != len(query) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			SymptomID:  id,
			Similarity: cosineSimilarity(query, vector),
		})
	}
	idx.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].SymptomID < hits[j].SymptomID
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close releases resources.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.vectors = make(map[string][]float32)
	return nil
}

// cosineSimilarity computes the cosine of the angle between two equal
// length vectors. A zero vector yields 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
