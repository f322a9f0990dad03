// Package domain defines the core business entities for dispatch.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Customer, Product, Order: The sales ledger entities
//   - Symptom, Cause, Observation: The knowledge-store entities
//   - CampaignType, SentCampaign: The follow-up sequence entities
//   - Message, Deliverable: Payloads handed to external collaborators
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
