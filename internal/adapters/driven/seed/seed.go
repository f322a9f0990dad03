// Package seed carries the initial symptom catalog embedded in the
// binary. The knowledge service loads it once, the first time it runs
// against an empty store.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/mecaclair/dispatch/internal/core/domain"
)

//go:embed symptoms.json
var symptomsJSON []byte

type causeFile struct {
	Cause        string  `json:"cause"`
	Probability  float64 `json:"probability"`
	Remedy       string  `json:"remedy"`
	CostEstimate string  `json:"cost_estimate"`
}

type symptomFile struct {
	ID              string      `json:"id"`
	SymptomText     string      `json:"symptom_text"`
	Causes          []causeFile `json:"causes"`
	VehicleTypes    []string    `json:"vehicle_types"`
	Severity        string      `json:"severity"`
	Frequency       int         `json:"frequency"`
	ConfidenceScore float64     `json:"confidence_score"`
	Sources         []string    `json:"sources"`
}

// Symptoms decodes the embedded catalog into domain records. LastUpdated
// is left zero so the caller can stamp ingestion time.
func Symptoms() ([]domain.Symptom, error) {
	var entries []symptomFile
	if err := json.Unmarshal(symptomsJSON, &entries); err != nil {
		return nil, fmt.Errorf("decoding embedded symptom catalog: %w", err)
	}

	symptoms := make([]domain.Symptom, 0, len(entries))
	for _, e := range entries {
		severity := domain.Severity(e.Severity)
		if !severity.Valid() {
			return nil, fmt.Errorf("symptom %s: unknown severity %q: %w", e.ID, e.Severity, domain.ErrValidation)
		}

		causes := make([]domain.Cause, 0, len(e.Causes))
		for _, c := range e.Causes {
			causes = append(causes, domain.Cause{
				Cause:        c.Cause,
				Probability:  c.Probability,
				Remedy:       c.Remedy,
				CostEstimate: c.CostEstimate,
			})
		}

		symptoms = append(symptoms, domain.Symptom{
			ID:              e.ID,
			Text:            e.SymptomText,
			Causes:          causes,
			VehicleTypes:    e.VehicleTypes,
			Severity:        severity,
			Frequency:       e.Frequency,
			ConfidenceScore: e.ConfidenceScore,
			Sources:         e.Sources,
		})
	}
	return symptoms, nil
}
