package connector

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Checkpoint Entity
// ---------------------------------------------------------------------------

// Checkpoint is an operator-visible marker of a partial, non-fatal import
// issue: a line whose product could not be imported, a secondary batch that
// failed. Checkpoints are created by post-import hooks and batch importers
// and are never resolved automatically.
type Checkpoint struct {
	// ID is the unique identifier of the checkpoint
	ID uuid.UUID
	// BackendID is the backend the issue occurred on
	BackendID uuid.UUID
	// Model is the internal model the checkpoint refers to, empty for
	// backend-level issues
	Model Model
	// RecordID references the created internal record, nil for backend-level
	// issues
	RecordID *uuid.UUID
	// Message is the operator-facing description
	Message string
	// Resolved is set by an operator once the issue is handled
	Resolved bool
	// CreatedAt is when the checkpoint was recorded
	CreatedAt time.Time
}

// NewRecordCheckpoint creates a checkpoint attached to an internal record.
func NewRecordCheckpoint(backendID uuid.UUID, model Model, recordID uuid.UUID, message string) *Checkpoint {
	id := recordID
	return &Checkpoint{
		ID:        uuid.New(),
		BackendID: backendID,
		Model:     model,
		RecordID:  &id,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// NewBackendCheckpoint creates a backend-level checkpoint with no record
// reference.
func NewBackendCheckpoint(backendID uuid.UUID, message string) *Checkpoint {
	return &Checkpoint{
		ID:        uuid.New(),
		BackendID: backendID,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// ---------------------------------------------------------------------------
// CheckpointRepository
// ---------------------------------------------------------------------------

// CheckpointRepository persists checkpoints.
type CheckpointRepository interface {
	// Add records a checkpoint
	Add(ctx context.Context, checkpoint *Checkpoint) error

	// ListOpen lists unresolved checkpoints for a backend, newest first
	ListOpen(ctx context.Context, backendID uuid.UUID) ([]Checkpoint, error)

	// Resolve marks a checkpoint handled
	Resolve(ctx context.Context, id uuid.UUID) error
}
