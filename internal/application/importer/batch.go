package importer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// ---------------------------------------------------------------------------
// Batch importer
// ---------------------------------------------------------------------------

// maxRecordRetries is the transport-failure budget handed to every record
// job a batch fans out.
const maxRecordRetries = 5

// BatchImporter turns one remote search into independent per-record import
// jobs. It never imports records itself; isolation between records comes from
// each one running as its own job.
type BatchImporter struct {
	env       *Environment
	scheduler connector.JobScheduler
	now       func() time.Time
}

// NewBatchImporter creates a batch importer for one backend environment.
func NewBatchImporter(env *Environment, scheduler connector.JobScheduler) *BatchImporter {
	return &BatchImporter{env: env, scheduler: scheduler, now: time.Now}
}

// Run searches the remote resource and enqueues one record import per match.
func (b *BatchImporter) Run(ctx context.Context, model connector.Model, filters map[string]string, opts connector.JobOptions) (int, error) {
	adapter, err := b.env.Adapters.AdapterFor(model)
	if err != nil {
		return 0, err
	}
	ids, err := adapter.Search(ctx, filters)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := b.scheduler.EnqueueRecordImport(ctx, b.env.Backend.ID, model, id, opts); err != nil {
			return 0, err
		}
	}
	b.env.logger().Info("batch import enqueued",
		zap.String("model", model.String()),
		zap.String("backend", b.env.Backend.Name),
		zap.Int("records", len(ids)))
	return len(ids), nil
}

// sinceFilters builds the incremental search filters for a watermark. A nil
// watermark means a full import.
func sinceFilters(since *time.Time) map[string]string {
	if since == nil {
		return map[string]string{}
	}
	return map[string]string{
		"date":             "1",
		"filter[date_upd]": ">[" + since.Format(externalTimeLayout) + "]",
	}
}

// runIncremental runs one watermarked batch. The watermark advances to the
// batch's start time, not its completion time; records modified while the
// batch ran fall into the next window.
func (b *BatchImporter) runIncremental(ctx context.Context, model connector.Model, kind connector.WatermarkKind, opts connector.JobOptions) (int, error) {
	start := b.now()
	count, err := b.Run(ctx, model, sinceFilters(b.env.Backend.Watermark(kind)), opts)
	if err != nil {
		return 0, err
	}
	if err := b.env.Backends.AdvanceWatermark(ctx, b.env.Backend.ID, kind, start); err != nil {
		return 0, err
	}
	b.env.Backend.AdvanceWatermark(kind, start)
	return count, nil
}

// ImportCustomersSince imports customers modified since the partner
// watermark.
func (b *BatchImporter) ImportCustomersSince(ctx context.Context) (int, error) {
	return b.runIncremental(ctx, connector.ModelCustomer, connector.WatermarkPartners,
		connector.JobOptions{Priority: 10, MaxRetries: maxRecordRetries})
}

// ImportProductsSince imports products modified since the product watermark.
func (b *BatchImporter) ImportProductsSince(ctx context.Context) (int, error) {
	return b.runIncremental(ctx, connector.ModelProductTemplate, connector.WatermarkProducts,
		connector.JobOptions{Priority: 10, MaxRetries: maxRecordRetries})
}

// ImportCarriers imports all carriers. Carriers are few and carry no
// modification date worth tracking.
func (b *BatchImporter) ImportCarriers(ctx context.Context) (int, error) {
	return b.Run(ctx, connector.ModelCarrier, map[string]string{},
		connector.JobOptions{Priority: 10, MaxRetries: maxRecordRetries})
}

// ImportOrdersSince imports orders modified since the order watermark, then
// the customer-service threads and messages attached to them. A failing
// secondary batch does not fail the order batch; it raises a backend
// checkpoint instead.
func (b *BatchImporter) ImportOrdersSince(ctx context.Context) (int, error) {
	start := b.now()
	since := b.env.Backend.Watermark(connector.WatermarkOrders)

	count, err := b.Run(ctx, connector.ModelSaleOrder, sinceFilters(since),
		connector.JobOptions{Priority: 5, MaxRetries: maxRecordRetries})
	if err != nil {
		return 0, err
	}

	for _, model := range []connector.Model{connector.ModelMessageThread, connector.ModelMessage} {
		opts := connector.JobOptions{Priority: 20, MaxRetries: maxRecordRetries}
		if _, err := b.Run(ctx, model, sinceFilters(since), opts); err != nil {
			checkpoint := connector.NewBackendCheckpoint(b.env.Backend.ID,
				fmt.Sprintf("batch import of %s failed: %v", model, err))
			if cpErr := b.env.Checkpoints.Add(ctx, checkpoint); cpErr != nil {
				return 0, cpErr
			}
			b.env.logger().Error("secondary batch import failed",
				zap.String("model", model.String()), zap.Error(err))
		}
	}

	if err := b.env.Backends.AdvanceWatermark(ctx, b.env.Backend.ID, connector.WatermarkOrders, start); err != nil {
		return 0, err
	}
	b.env.Backend.AdvanceWatermark(connector.WatermarkOrders, start)
	return count, nil
}
