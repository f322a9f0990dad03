package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a referenced customer, order, product or
	// symptom does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates a required field is missing or malformed,
	// such as a duplicate email at customer creation.
	ErrValidation = errors.New("validation failed")

	// ErrConflict indicates an invalid state transition, such as
	// completing an order that is no longer pending.
	ErrConflict = errors.New("conflicting state transition")

	// ErrRender indicates deliverable generation failed. The order keeps
	// DeliverableGenerated=false and is retried on the next pass.
	ErrRender = errors.New("deliverable rendering failed")

	// ErrTransport indicates an outbound message could not be dispatched.
	// The affected order or campaign stays unmarked and is retried.
	ErrTransport = errors.New("transport dispatch failed")

	// ErrStorage indicates a persistence write failed. The current pass
	// stops early; the durable state is untouched.
	ErrStorage = errors.New("storage write failed")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured or unreachable. Semantic search is disabled without it;
	// ingestion still proceeds, minus vectors.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)
