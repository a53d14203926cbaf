package connector

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// RecordAdapter Port
// ---------------------------------------------------------------------------

// RecordAdapter is the per-model facade over the remote API. Implementations
// live in the infrastructure layer; the import pipeline only depends on this
// contract.
type RecordAdapter interface {
	// Model returns the internal model this adapter serves
	Model() Model

	// Search returns the external IDs matching the filter, in remote order
	Search(ctx context.Context, filters map[string]string) ([]string, error)

	// Read fetches the full external record; ErrRecordNotFound when absent
	Read(ctx context.Context, externalID string) (Value, error)

	// Head probes connectivity without transferring a record
	Head(ctx context.Context) error
}

// AdapterRegistry resolves the adapter for a model. Asking for a model with
// no adapter is a wiring error (ErrModelNotSupported).
type AdapterRegistry interface {
	AdapterFor(model Model) (RecordAdapter, error)
}

// ---------------------------------------------------------------------------
// JobScheduler Port
// ---------------------------------------------------------------------------

// JobOptions carries scheduling hints for one enqueued job.
type JobOptions struct {
	// Priority orders competing jobs, lower runs first
	Priority int
	// MaxRetries caps transport-failure attempts for one job; zero leaves
	// the budget to the queue's own attempt limit. Retryable deferrals are
	// rescheduled outside this budget
	MaxRetries int
}

// JobScheduler is the single typed scheduling port the core calls. The core
// never embeds queue-specific wiring; the infrastructure implementation maps
// priorities and retry budgets onto its own queue model.
type JobScheduler interface {
	// EnqueueRecordImport schedules one record import as an independent unit
	// of work
	EnqueueRecordImport(ctx context.Context, backendID uuid.UUID, model Model, externalID string, opts JobOptions) error

	// EnqueueBatchImport schedules a batch import job
	EnqueueBatchImport(ctx context.Context, backendID uuid.UUID, model Model, filters map[string]string, opts JobOptions) error
}
