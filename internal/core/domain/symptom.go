package domain

import (
	"strings"
	"time"
)

// Severity classifies how urgent a symptom is. Closed set; decision
// points branching on severity must handle all values.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is a known level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// UrgencyLabel maps severity to the wording used in customer-facing
// output.
func (s Severity) UrgencyLabel() string {
	switch s {
	case SeverityLow:
		return "monitor"
	case SeverityMedium:
		return "schedule a check"
	case SeverityHigh:
		return "repair soon"
	case SeverityCritical:
		return "stop driving"
	}
	return "unknown"
}

// Cause is one probable explanation for a symptom.
type Cause struct {
	// Cause names the fault.
	Cause string

	// Probability is the normalized likelihood in [0,1]. Across a
	// symptom's causes the probabilities sum to 1.
	Probability float64

	// Remedy is the recommended fix.
	Remedy string

	// CostEstimate is a free-form repair cost range.
	CostEstimate string
}

// Symptom is one fault entry in the knowledge store: an observed
// symptom text with its probability-ranked causes. Symptoms are created
// at bootstrap or by first observation and never deleted.
type Symptom struct {
	// ID is a zero-padded sequence number, e.g. "007".
	ID string

	// Text is the symptom description, matched case-insensitively at
	// ingestion.
	Text string

	// Causes is the probable-cause list, ordered by insertion.
	Causes []Cause

	// VehicleTypes tags the vehicle kinds the symptom applies to.
	VehicleTypes []string

	// Severity is the urgency classification.
	Severity Severity

	// Frequency counts how often the symptom has been observed.
	Frequency int

	// ConfidenceScore is the trust in this entry, in [0,1].
	ConfidenceScore float64

	// Sources lists provenance references, deduplicated.
	Sources []string

	// LastUpdated is stamped on every mutation.
	LastUpdated time.Time
}

// EmbeddingText is the text encoded for semantic retrieval: the symptom
// text followed by each cause and its remedy. Ingestion and query use
// the same encoder over this form.
func (s *Symptom) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(s.Text)
	b.WriteString(". ")
	for _, c := range s.Causes {
		b.WriteString(c.Cause)
		b.WriteString(": ")
		b.WriteString(c.Remedy)
		b.WriteString(". ")
	}
	return b.String()
}

// HasVehicleType reports whether the symptom applies to the given
// vehicle type. An empty type matches everything.
func (s *Symptom) HasVehicleType(vehicleType string) bool {
	if vehicleType == "" {
		return true
	}
	for _, vt := range s.VehicleTypes {
		if strings.EqualFold(vt, vehicleType) {
			return true
		}
	}
	return false
}

// RedistributeCauses reassigns cause probabilities over the insertion
// order: each cause gets weight base*(1.2 - 0.1*i) with base = 1/n,
// then weights are normalized so they sum to exactly 1. Earlier-observed
// causes end up slightly more likely. This is a placeholder heuristic,
// deliberately isolated here so a frequency-weighted estimator can
// replace it without touching callers.
func RedistributeCauses(causes []Cause) {
	n := len(causes)
	if n == 0 {
		return
	}

	base := 1.0 / float64(n)
	total := 0.0
	for i := range causes {
		causes[i].Probability = base * (1.2 - 0.1*float64(i))
		total += causes[i].Probability
	}

	for i := range causes {
		causes[i].Probability /= total
	}
}

// Observation is a single reported (symptom, cause, remedy, source)
// tuple used to update the knowledge store.
type Observation struct {
	// SymptomText is the reported symptom description.
	SymptomText string

	// Cause is the fault the reporter attributes it to.
	Cause string

	// Remedy is the fix the reporter applied or recommends.
	Remedy string

	// Source is a provenance reference for the report.
	Source string

	// VehicleType tags the vehicle the report concerns.
	VehicleType string
}

// ExportRow is one flattened (symptom, cause) pair for deliverable
// personalization.
type ExportRow struct {
	Symptom     string
	Cause       string
	Probability float64
	Remedy      string
}

// Suggestion is a diagnostic hint projected from a matched symptom.
type Suggestion struct {
	Symptom    string
	Causes     []Cause
	Severity   Severity
	Confidence float64
	Frequency  int
}
