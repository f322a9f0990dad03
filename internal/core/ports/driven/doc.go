// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - LedgerStore: Customer and order persistence
//   - SymptomStore: Knowledge-base persistence
//   - CampaignStore: Sent-campaign marker persistence
//   - SchedulerStore: Scheduled-task state persistence
//   - Renderer: Produces the personalized deliverable document
//   - Transport: Dispatches outbound email
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Generates vector embeddings. Without it,
//     semantic symptom search is disabled; ingestion still works.
//   - VectorIndex: Vector storage/search. Only enabled together with
//     EmbeddingService.
//   - ObservationSource: Feeds new fault observations. Without it, the
//     knowledge refresh pass is a no-op.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
