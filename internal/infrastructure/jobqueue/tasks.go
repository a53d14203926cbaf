package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/application/importer"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/logger"
)

// ---------------------------------------------------------------------------
// Record import task
// ---------------------------------------------------------------------------

// ImportRecordTask imports one external record. Each record is its own task
// so one broken record never poisons the rest of a batch.
type ImportRecordTask struct {
	BackendID  uuid.UUID       `json:"backend_id"`
	Model      connector.Model `json:"model"`
	ExternalID string          `json:"external_id"`

	// MaxRetries caps transport-failure attempts for this record; zero
	// leaves the budget to the queue's MaxAttempts. Attempt counts the
	// failures already consumed by re-enqueued copies of the task.
	MaxRetries int `json:"max_retries,omitempty"`
	Attempt    int `json:"attempt,omitempty"`
}

// Config returns the queue configuration for record imports.
func (t ImportRecordTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_record",
		MaxAttempts: 5,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportRecordProcessor creates the processor for record import tasks.
// Retryable deferrals are re-enqueued as fresh tasks with the deferral's own
// delay, so waiting on a business precondition (an unpaid order) never burns
// the attempt budget reserved for transport failures. That budget is the
// task's own MaxRetries when set, the queue's MaxAttempts otherwise.
// Configuration problems become checkpoints instead of retries.
func ImportRecordProcessor(queue *Client, factory *importer.EnvironmentFactory, registry *importer.Registry, log *zap.Logger) backlite.QueueProcessor[ImportRecordTask] {
	return func(ctx context.Context, task ImportRecordTask) error {
		ctx, taskLog := logger.WithBackend(ctx, log, task.BackendID.String())
		ctx, taskLog = logger.WithRecord(ctx, taskLog, task.Model.String(), task.ExternalID)

		env, err := factory.ForBackend(ctx, task.BackendID)
		if err != nil {
			return err
		}

		result, err := importer.NewRecordImporter(env, registry).Import(ctx, task.Model, task.ExternalID)
		switch {
		case err == nil:
			taskLog.Info("record import finished",
				zap.String("outcome", string(result.Outcome)),
				zap.String("reason", result.Reason))
			return nil

		case connector.IsConfiguration(err):
			// retrying cannot fix a configuration gap; surface it to the
			// operator and consume the task
			checkpoint := connector.NewBackendCheckpoint(task.BackendID,
				fmt.Sprintf("import %s %s: %v", task.Model, task.ExternalID, err))
			if cpErr := env.Checkpoints.Add(ctx, checkpoint); cpErr != nil {
				return fmt.Errorf("record checkpoint: %w", cpErr)
			}
			taskLog.Warn("record import needs configuration", zap.Error(err))
			return nil

		case connector.IsRetry(err):
			var retry *connector.RetryError
			errors.As(err, &retry)
			wait := retry.After
			if wait <= 0 {
				wait = task.Config().Backoff
			}
			if _, addErr := queue.Add(task).Ctx(ctx).Wait(wait).Save(); addErr != nil {
				return fmt.Errorf("reschedule deferred import: %w", addErr)
			}
			taskLog.Info("record import deferred",
				zap.Duration("retry_in", wait),
				zap.String("reason", retry.Reason))
			return nil

		case task.MaxRetries > 0:
			if next := task.Attempt + 1; next < task.MaxRetries {
				retry := task
				retry.Attempt = next
				if _, addErr := queue.Add(retry).Ctx(ctx).Wait(task.Config().Backoff).Save(); addErr != nil {
					return fmt.Errorf("reschedule failed import: %w", addErr)
				}
				taskLog.Warn("record import failed, retrying",
					zap.Int("attempt", next),
					zap.Int("max_retries", task.MaxRetries),
					zap.Error(err))
				return nil
			}
			// budget spent; surface the failure to the operator and
			// consume the task so the queue's own attempt limit cannot
			// stretch the budget
			checkpoint := connector.NewBackendCheckpoint(task.BackendID,
				fmt.Sprintf("import %s %s failed after %d attempts: %v",
					task.Model, task.ExternalID, task.MaxRetries, err))
			if cpErr := env.Checkpoints.Add(ctx, checkpoint); cpErr != nil {
				return fmt.Errorf("record checkpoint: %w", cpErr)
			}
			taskLog.Error("record import failed permanently",
				zap.Int("attempts", task.MaxRetries),
				zap.Error(err))
			return nil

		default:
			return fmt.Errorf("import %s %s: %w", task.Model, task.ExternalID, err)
		}
	}
}

// NewImportRecordQueue creates the queue for record import tasks.
func NewImportRecordQueue(queue *Client, factory *importer.EnvironmentFactory, registry *importer.Registry, log *zap.Logger) backlite.Queue {
	return backlite.NewQueue(ImportRecordProcessor(queue, factory, registry, log))
}

// ---------------------------------------------------------------------------
// Batch import task
// ---------------------------------------------------------------------------

// ImportBatchTask searches the remote resource and fans records out into
// ImportRecordTask units.
type ImportBatchTask struct {
	BackendID  uuid.UUID         `json:"backend_id"`
	Model      connector.Model   `json:"model"`
	Filters    map[string]string `json:"filters"`
	Priority   int               `json:"priority"`
	MaxRetries int               `json:"max_retries,omitempty"`
}

// Config returns the queue configuration for batch imports.
func (t ImportBatchTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_batch",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration: 24 * time.Hour,
			Data:     &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBatchProcessor creates the processor for batch import tasks.
func ImportBatchProcessor(factory *importer.EnvironmentFactory, scheduler connector.JobScheduler) backlite.QueueProcessor[ImportBatchTask] {
	return func(ctx context.Context, task ImportBatchTask) error {
		env, err := factory.ForBackend(ctx, task.BackendID)
		if err != nil {
			return err
		}
		batch := importer.NewBatchImporter(env, scheduler)
		opts := connector.JobOptions{Priority: task.Priority, MaxRetries: task.MaxRetries}
		if _, err := batch.Run(ctx, task.Model, task.Filters, opts); err != nil {
			return fmt.Errorf("batch import %s: %w", task.Model, err)
		}
		return nil
	}
}

// NewImportBatchQueue creates the queue for batch import tasks.
func NewImportBatchQueue(factory *importer.EnvironmentFactory, scheduler connector.JobScheduler) backlite.Queue {
	return backlite.NewQueue(ImportBatchProcessor(factory, scheduler))
}
