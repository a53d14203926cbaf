package jobqueue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// priorityStep converts a priority point into a scheduling delay. The queue
// has no priority lanes, so lower-priority work is deferred instead: a job
// at priority 20 becomes runnable 15 seconds after one at priority 5.
const priorityStep = time.Second

// Scheduler maps the scheduling port onto the backlite task queue.
type Scheduler struct {
	client *Client
}

// NewScheduler creates a scheduler over a task queue client.
func NewScheduler(client *Client) *Scheduler {
	return &Scheduler{client: client}
}

// EnqueueRecordImport schedules one record import task.
func (s *Scheduler) EnqueueRecordImport(ctx context.Context, backendID uuid.UUID, model connector.Model, externalID string, opts connector.JobOptions) error {
	task := ImportRecordTask{
		BackendID:  backendID,
		Model:      model,
		ExternalID: externalID,
		MaxRetries: opts.MaxRetries,
	}
	op := s.client.Add(task).Ctx(ctx)
	if opts.Priority > 0 {
		op = op.Wait(time.Duration(opts.Priority) * priorityStep)
	}
	_, err := op.Save()
	return err
}

// EnqueueBatchImport schedules one batch import task.
func (s *Scheduler) EnqueueBatchImport(ctx context.Context, backendID uuid.UUID, model connector.Model, filters map[string]string, opts connector.JobOptions) error {
	task := ImportBatchTask{
		BackendID:  backendID,
		Model:      model,
		Filters:    filters,
		Priority:   opts.Priority,
		MaxRetries: opts.MaxRetries,
	}
	_, err := s.client.Add(task).Ctx(ctx).Save()
	return err
}

var _ connector.JobScheduler = (*Scheduler)(nil)
