package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
	"github.com/mecaclair/dispatch/internal/core/ports/driving"
	"github.com/mecaclair/dispatch/internal/logger"
)

// Ensure Knowledge implements the interface.
var _ driving.KnowledgeService = (*Knowledge)(nil)

// Knowledge owns the symptom knowledge base: observation ingestion,
// probability maintenance and semantic retrieval. The embedder, index
// and source parameters are optional (can be nil); without an embedder
// the service ingests entries vector-less and semantic search is
// disabled.
type Knowledge struct {
	store    driven.SymptomStore
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	source   driven.ObservationSource
	now      func() time.Time

	// mu serializes mutations; reads go straight to the store.
	mu sync.Mutex
}

// NewKnowledge creates a knowledge service. The clock parameter is
// optional; when nil, time.Now is used.
func NewKnowledge(
	store driven.SymptomStore,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	source driven.ObservationSource,
	clock func() time.Time,
) *Knowledge {
	if clock == nil {
		clock = time.Now
	}
	return &Knowledge{
		store:    store,
		embedder: embedder,
		index:    index,
		source:   source,
		now:      clock,
	}
}

// Bootstrap seeds an empty store and rebuilds the vector index from
// persisted embeddings. Called once at startup; a non-empty store keeps
// its contents and only the index is rebuilt.
func (k *Knowledge) Bootstrap(ctx context.Context, seeds []domain.Symptom) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	count, err := k.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting symptoms: %w", err)
	}

	if count == 0 {
		logger.Info("Seeding knowledge base with %d symptoms", len(seeds))
		for i := range seeds {
			s := seeds[i]
			if s.LastUpdated.IsZero() {
				s.LastUpdated = k.now().UTC()
			}
			if err := k.persist(ctx, &s); err != nil {
				return err
			}
		}
		return nil
	}

	if k.index == nil {
		return nil
	}

	embeddings, err := k.store.Embeddings(ctx)
	if err != nil {
		return fmt.Errorf("loading embeddings: %w", err)
	}
	for id, vec := range embeddings {
		if err := k.index.Add(ctx, id, vec); err != nil {
			return fmt.Errorf("rebuilding index: %w", err)
		}
	}
	logger.Debug("Vector index rebuilt: %d entries", len(embeddings))
	return nil
}

// IngestObservation folds one observation into the knowledge base.
func (k *Knowledge) IngestObservation(ctx context.Context, obs domain.Observation) error {
	if strings.TrimSpace(obs.SymptomText) == "" || strings.TrimSpace(obs.Cause) == "" {
		return fmt.Errorf("symptom text and cause are required: %w", domain.ErrValidation)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	existing, err := k.store.FindByText(ctx, obs.SymptomText)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("looking up symptom: %w", err)
	}

	if existing != nil {
		return k.updateExisting(ctx, existing, obs)
	}
	return k.createNew(ctx, obs)
}

// updateExisting applies an observation to a known symptom: bump the
// frequency, add the cause if new, union the source, redistribute the
// probabilities.
func (k *Knowledge) updateExisting(ctx context.Context, symptom *domain.Symptom, obs domain.Observation) error {
	symptom.Frequency++

	known := false
	for i := range symptom.Causes {
		if strings.EqualFold(symptom.Causes[i].Cause, obs.Cause) {
			known = true
			break
		}
	}
	if !known {
		symptom.Causes = append(symptom.Causes, domain.Cause{
			Cause:        obs.Cause,
			Probability:  0, // Assigned by redistribution below
			Remedy:       obs.Remedy,
			CostEstimate: "to be assessed",
		})
	}

	if obs.Source != "" && !containsFold(symptom.Sources, obs.Source) {
		symptom.Sources = append(symptom.Sources, obs.Source)
	}

	domain.RedistributeCauses(symptom.Causes)
	symptom.LastUpdated = k.now().UTC()

	if err := k.persist(ctx, symptom); err != nil {
		return err
	}
	logger.Debug("Symptom updated: %s (frequency %d, %d causes)",
		symptom.ID, symptom.Frequency, len(symptom.Causes))
	return nil
}

// createNew records a first-sighting symptom with a single certain
// cause and low starting confidence.
func (k *Knowledge) createNew(ctx context.Context, obs domain.Observation) error {
	count, err := k.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting symptoms: %w", err)
	}

	symptom := domain.Symptom{
		ID:   fmt.Sprintf("%03d", count+1),
		Text: obs.SymptomText,
		Causes: []domain.Cause{{
			Cause:        obs.Cause,
			Probability:  1.0,
			Remedy:       obs.Remedy,
			CostEstimate: "to be assessed",
		}},
		Severity:        domain.SeverityMedium,
		Frequency:       1,
		ConfidenceScore: 0.5,
		LastUpdated:     k.now().UTC(),
	}
	if obs.VehicleType != "" {
		symptom.VehicleTypes = []string{obs.VehicleType}
	}
	if obs.Source != "" {
		symptom.Sources = []string{obs.Source}
	}

	if err := k.persist(ctx, &symptom); err != nil {
		return err
	}
	logger.Info("New symptom recorded: %s %q", symptom.ID, symptom.Text)
	return nil
}

// persist embeds, saves and indexes a symptom. Embedding failures
// degrade to a vector-less entry rather than losing the observation.
func (k *Knowledge) persist(ctx context.Context, symptom *domain.Symptom) error {
	var embedding []float32
	if k.embedder != nil {
		vec, err := k.embedder.Embed(ctx, symptom.EmbeddingText())
		if err != nil {
			logger.Warn("Embedding failed for symptom %s: %v (stored without vector)", symptom.ID, err)
		} else {
			embedding = vec
		}
	}

	if err := k.store.Save(ctx, symptom, embedding); err != nil {
		return fmt.Errorf("saving symptom %s: %w", symptom.ID, err)
	}

	if k.index != nil && embedding != nil {
		if err := k.index.Add(ctx, symptom.ID, embedding); err != nil {
			return fmt.Errorf("indexing symptom %s: %w", symptom.ID, err)
		}
	}
	return nil
}

// Search returns up to topK symptoms semantically closest to the query.
func (k *Knowledge) Search(ctx context.Context, query string, topK int) ([]domain.Symptom, error) {
	if k.embedder == nil || k.index == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Symptom{}, nil
	}
	if topK <= 0 {
		topK = 5
	}

	embedding, err := k.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := k.index.Search(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	results := make([]domain.Symptom, 0, len(hits))
	for _, hit := range hits {
		symptom, err := k.store.Get(ctx, hit.SymptomID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("loading symptom %s: %w", hit.SymptomID, err)
		}
		results = append(results, *symptom)
	}

	return results, nil
}

// Export flattens the most frequent symptoms for personalization:
// limit symptoms by frequency descending (ID ascending on ties), up to
// three causes each by probability descending.
func (k *Knowledge) Export(ctx context.Context, limit int) ([]domain.ExportRow, error) {
	symptoms, err := k.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing symptoms: %w", err)
	}

	sort.SliceStable(symptoms, func(i, j int) bool {
		if symptoms[i].Frequency != symptoms[j].Frequency {
			return symptoms[i].Frequency > symptoms[j].Frequency
		}
		return symptoms[i].ID < symptoms[j].ID
	})

	if limit > 0 && len(symptoms) > limit {
		symptoms = symptoms[:limit]
	}

	var rows []domain.ExportRow
	for i := range symptoms {
		causes := make([]domain.Cause, len(symptoms[i].Causes))
		copy(causes, symptoms[i].Causes)
		sort.SliceStable(causes, func(a, b int) bool {
			return causes[a].Probability > causes[b].Probability
		})
		if len(causes) > 3 {
			causes = causes[:3]
		}
		for _, c := range causes {
			rows = append(rows, domain.ExportRow{
				Symptom:     symptoms[i].Text,
				Cause:       c.Cause,
				Probability: c.Probability,
				Remedy:      c.Remedy,
			})
		}
	}

	return rows, nil
}

// SuggestDiagnostics projects the closest symptoms into diagnostic
// suggestions, filtered by vehicle type when one is given.
func (k *Knowledge) SuggestDiagnostics(ctx context.Context, description, vehicleType string) ([]domain.Suggestion, error) {
	matches, err := k.Search(ctx, description, 3)
	if err != nil {
		return nil, err
	}

	var suggestions []domain.Suggestion
	for i := range matches {
		if !matches[i].HasVehicleType(vehicleType) {
			continue
		}
		suggestions = append(suggestions, domain.Suggestion{
			Symptom:    matches[i].Text,
			Causes:     matches[i].Causes,
			Severity:   matches[i].Severity,
			Confidence: matches[i].ConfidenceScore,
			Frequency:  matches[i].Frequency,
		})
	}

	return suggestions, nil
}

// Refresh pulls pending observations from the source and ingests them.
func (k *Knowledge) Refresh(ctx context.Context) (int, error) {
	if k.source == nil {
		return 0, nil
	}

	observations, err := k.source.Pull(ctx)
	if err != nil {
		return 0, fmt.Errorf("pulling observations: %w", err)
	}

	ingested := 0
	for _, obs := range observations {
		if err := k.IngestObservation(ctx, obs); err != nil {
			if errors.Is(err, domain.ErrStorage) {
				return ingested, err
			}
			logger.Warn("Skipping observation %q: %v", obs.SymptomText, err)
			continue
		}
		ingested++
	}

	logger.Info("Knowledge refresh: %d observations ingested", ingested)
	return ingested, nil
}

// Count returns the number of symptoms in the knowledge base.
func (k *Knowledge) Count(ctx context.Context) (int, error) {
	return k.store.Count(ctx)
}

// containsFold reports whether list contains s, case-insensitively.
func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
