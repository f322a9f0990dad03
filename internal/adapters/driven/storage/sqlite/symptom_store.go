package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mecaclair/dispatch/internal/core/domain"
	"github.com/mecaclair/dispatch/internal/core/ports/driven"
)

// symptomStore implements driven.SymptomStore.
type symptomStore struct {
	store *Store
}

var _ driven.SymptomStore = (*symptomStore)(nil)

// Save stores or updates a symptom and its embedding.
func (s *symptomStore) Save(ctx context.Context, symptom *domain.Symptom, embedding []float32) error {
	if symptom == nil || symptom.ID == "" {
		return domain.ErrValidation
	}

	causesJSON, err := json.Marshal(symptom.Causes)
	if err != nil {
		return fmt.Errorf("marshalling causes: %w", err)
	}
	vehicleTypesJSON, err := json.Marshal(symptom.VehicleTypes)
	if err != nil {
		return fmt.Errorf("marshalling vehicle types: %w", err)
	}
	sourcesJSON, err := json.Marshal(symptom.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO symptoms
			(id, text, causes, vehicle_types, severity, frequency,
			 confidence_score, sources, last_updated, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			causes = excluded.causes,
			vehicle_types = excluded.vehicle_types,
			severity = excluded.severity,
			frequency = excluded.frequency,
			confidence_score = excluded.confidence_score,
			sources = excluded.sources,
			last_updated = excluded.last_updated,
			embedding = excluded.embedding
	`, symptom.ID, symptom.Text, string(causesJSON), string(vehicleTypesJSON),
		string(symptom.Severity), symptom.Frequency, symptom.ConfidenceScore,
		string(sourcesJSON), formatNullableTime(symptom.LastUpdated),
		float32SliceToBytes(embedding))

	if err != nil {
		return fmt.Errorf("saving symptom: %w: %v", domain.ErrStorage, err)
	}
	return nil
}

// Get retrieves a symptom by ID.
func (s *symptomStore) Get(ctx context.Context, id string) (*domain.Symptom, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, text, causes, vehicle_types, severity, frequency,
		       confidence_score, sources, last_updated
		FROM symptoms WHERE id = ?
	`, id)

	return scanSymptom(row)
}

// FindByText retrieves a symptom by its text, case-insensitively.
func (s *symptomStore) FindByText(ctx context.Context, text string) (*domain.Symptom, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, text, causes, vehicle_types, severity, frequency,
		       confidence_score, sources, last_updated
		FROM symptoms WHERE text = ? COLLATE NOCASE
	`, text)

	return scanSymptom(row)
}

// List returns all symptoms ordered by ID.
func (s *symptomStore) List(ctx context.Context) ([]domain.Symptom, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, text, causes, vehicle_types, severity, frequency,
		       confidence_score, sources, last_updated
		FROM symptoms ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying symptoms: %w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	var symptoms []domain.Symptom //nolint:prealloc // size unknown from query
	for rows.Next() {
		symptom, err := scanSymptomRows(rows)
		if err != nil {
			return nil, err
		}
		symptoms = append(symptoms, *symptom)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating symptoms: %w: %v", domain.ErrStorage, err)
	}

	return symptoms, nil
}

// Embeddings returns the stored embedding per symptom ID.
func (s *symptomStore) Embeddings(ctx context.Context) (map[string][]float32, error) {
	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, embedding FROM symptoms WHERE embedding IS NOT NULL")
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	embeddings := make(map[string][]float32)
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w: %v", domain.ErrStorage, err)
		}
		if vector := bytesToFloat32Slice(blob); vector != nil {
			embeddings[id] = vector
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w: %v", domain.ErrStorage, err)
	}

	return embeddings, nil
}

// Count returns the number of stored symptoms.
func (s *symptomStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symptoms").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting symptoms: %w: %v", domain.ErrStorage, err)
	}
	return count, nil
}

// ==================== Helper Functions ====================

// scanSymptom scans a single symptom row.
func scanSymptom(row *sql.Row) (*domain.Symptom, error) {
	var symptom domain.Symptom
	var severity, causesJSON string
	var vehicleTypesJSON, sourcesJSON, lastUpdated sql.NullString

	if err := row.Scan(&symptom.ID, &symptom.Text, &causesJSON, &vehicleTypesJSON,
		&severity, &symptom.Frequency, &symptom.ConfidenceScore,
		&sourcesJSON, &lastUpdated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning symptom: %w: %v", domain.ErrStorage, err)
	}

	if err := hydrateSymptom(&symptom, severity, causesJSON, vehicleTypesJSON, sourcesJSON, lastUpdated); err != nil {
		return nil, err
	}
	return &symptom, nil
}

// scanSymptomRows scans a symptom from *sql.Rows.
func scanSymptomRows(rows *sql.Rows) (*domain.Symptom, error) {
	var symptom domain.Symptom
	var severity, causesJSON string
	var vehicleTypesJSON, sourcesJSON, lastUpdated sql.NullString

	if err := rows.Scan(&symptom.ID, &symptom.Text, &causesJSON, &vehicleTypesJSON,
		&severity, &symptom.Frequency, &symptom.ConfidenceScore,
		&sourcesJSON, &lastUpdated); err != nil {
		return nil, fmt.Errorf("scanning symptom: %w: %v", domain.ErrStorage, err)
	}

	if err := hydrateSymptom(&symptom, severity, causesJSON, vehicleTypesJSON, sourcesJSON, lastUpdated); err != nil {
		return nil, err
	}
	return &symptom, nil
}

// hydrateSymptom decodes the JSON-encoded columns into the symptom.
func hydrateSymptom(
	symptom *domain.Symptom,
	severity, causesJSON string,
	vehicleTypesJSON, sourcesJSON, lastUpdated sql.NullString,
) error {
	symptom.Severity = domain.Severity(severity)
	symptom.LastUpdated = parseNullableTime(lastUpdated)

	if err := json.Unmarshal([]byte(causesJSON), &symptom.Causes); err != nil {
		return fmt.Errorf("unmarshalling causes: %w", err)
	}
	if vehicleTypesJSON.Valid && vehicleTypesJSON.String != "" {
		if err := json.Unmarshal([]byte(vehicleTypesJSON.String), &symptom.VehicleTypes); err != nil {
			return fmt.Errorf("unmarshalling vehicle types: %w", err)
		}
	}
	if sourcesJSON.Valid && sourcesJSON.String != "" {
		if err := json.Unmarshal([]byte(sourcesJSON.String), &symptom.Sources); err != nil {
			return fmt.Errorf("unmarshalling sources: %w", err)
		}
	}
	return nil
}
