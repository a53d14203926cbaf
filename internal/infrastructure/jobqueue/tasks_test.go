package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/application/importer"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// ---------------------------------------------------------------------------
// In-memory stores
// ---------------------------------------------------------------------------

type stubBackends struct {
	backend *connector.Backend
}

func (s *stubBackends) FindByID(_ context.Context, id uuid.UUID) (*connector.Backend, error) {
	if s.backend == nil || s.backend.ID != id {
		return nil, connector.ErrBackendNotFound
	}
	return s.backend, nil
}

func (s *stubBackends) FindAll(context.Context) ([]connector.Backend, error) {
	return []connector.Backend{*s.backend}, nil
}

func (s *stubBackends) Save(_ context.Context, backend *connector.Backend) error {
	s.backend = backend
	return nil
}

func (s *stubBackends) AdvanceWatermark(context.Context, uuid.UUID, connector.WatermarkKind, time.Time) error {
	return nil
}

type stubBindings struct {
	byExternal map[string]*connector.Binding
}

func newStubBindings() *stubBindings {
	return &stubBindings{byExternal: make(map[string]*connector.Binding)}
}

func bindingKey(backendID uuid.UUID, model connector.Model, externalID string) string {
	return fmt.Sprintf("%s/%s/%s", backendID, model, externalID)
}

func (s *stubBindings) FindByID(_ context.Context, id uuid.UUID) (*connector.Binding, error) {
	for _, b := range s.byExternal {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, connector.ErrBindingNotFound
}

func (s *stubBindings) FindByExternal(_ context.Context, backendID uuid.UUID, model connector.Model, externalID string) (*connector.Binding, error) {
	return s.byExternal[bindingKey(backendID, model, externalID)], nil
}

func (s *stubBindings) FindByInternal(_ context.Context, backendID uuid.UUID, model connector.Model, internalID uuid.UUID) ([]connector.Binding, error) {
	var out []connector.Binding
	for _, b := range s.byExternal {
		if b.BackendID == backendID && b.Model == model && b.InternalID == internalID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBindings) Upsert(_ context.Context, binding *connector.Binding) error {
	s.byExternal[bindingKey(binding.BackendID, binding.Model, binding.ExternalID)] = binding
	return nil
}

func (s *stubBindings) Delete(_ context.Context, id uuid.UUID) error {
	for k, b := range s.byExternal {
		if b.ID == id {
			delete(s.byExternal, k)
		}
	}
	return nil
}

type stubCheckpoints struct {
	added []connector.Checkpoint
}

func (s *stubCheckpoints) Add(_ context.Context, checkpoint *connector.Checkpoint) error {
	s.added = append(s.added, *checkpoint)
	return nil
}

func (s *stubCheckpoints) ListOpen(context.Context, uuid.UUID) ([]connector.Checkpoint, error) {
	return s.added, nil
}

func (s *stubCheckpoints) Resolve(context.Context, uuid.UUID) error { return nil }

type stubPartners struct {
	saved []erp.Partner
}

func (s *stubPartners) FindByID(_ context.Context, id uuid.UUID) (*erp.Partner, error) {
	for i := range s.saved {
		if s.saved[i].ID == id {
			return &s.saved[i], nil
		}
	}
	return nil, erp.ErrNotFound
}

func (s *stubPartners) Save(_ context.Context, partner *erp.Partner) error {
	s.saved = append(s.saved, *partner)
	return nil
}

// ---------------------------------------------------------------------------
// Stub remote adapter
// ---------------------------------------------------------------------------

type stubAdapter struct {
	model   connector.Model
	record  connector.Value
	readErr error
}

func (a *stubAdapter) Model() connector.Model { return a.model }

func (a *stubAdapter) Search(context.Context, map[string]string) ([]string, error) {
	return nil, nil
}

func (a *stubAdapter) Read(context.Context, string) (connector.Value, error) {
	if a.readErr != nil {
		return connector.Nil(), a.readErr
	}
	return a.record, nil
}

func (a *stubAdapter) Head(context.Context) error { return nil }

type stubAdapters struct {
	adapter *stubAdapter
}

func (s *stubAdapters) AdapterFor(model connector.Model) (connector.RecordAdapter, error) {
	if s.adapter == nil || s.adapter.model != model {
		return nil, connector.ErrModelNotSupported
	}
	return s.adapter, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

type processorFixture struct {
	backend     *connector.Backend
	bindings    *stubBindings
	checkpoints *stubCheckpoints
	partners    *stubPartners
	adapter     *stubAdapter
	factory     *importer.EnvironmentFactory
	queue       *Client
}

func newProcessorFixture(t *testing.T) *processorFixture {
	t.Helper()

	backend, err := connector.NewBackend("test-shop", "http://shop.example", "WSKEY", connector.APIVersion1612)
	require.NoError(t, err)
	backend.CompanyID = uuid.New()

	queue, err := NewClient(Config{
		DatabasePath:    filepath.Join(t.TempDir(), "tasks.db"),
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { queue.Close() })

	f := &processorFixture{
		backend:     backend,
		bindings:    newStubBindings(),
		checkpoints: &stubCheckpoints{},
		partners:    &stubPartners{},
		adapter:     &stubAdapter{model: connector.ModelCustomer},
		queue:       queue,
	}

	stores := importer.Stores{
		Bindings:    f.bindings,
		Backends:    &stubBackends{backend: backend},
		Checkpoints: f.checkpoints,
		Partners:    f.partners,
	}
	f.factory = importer.NewEnvironmentFactory(stores, func(*connector.Backend) connector.AdapterRegistry {
		return &stubAdapters{adapter: f.adapter}
	}, zap.NewNop())
	return f
}

func customerRecord() connector.Value {
	return connector.FromAny(map[string]any{
		"id":         "5",
		"email":      "jane@example.com",
		"firstname":  "Jane",
		"lastname":   "Doe",
		"newsletter": "1",
		"active":     "1",
	})
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestImportRecordProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("imports and binds the record", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.record = customerRecord()

		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
		})
		require.NoError(t, err)

		require.Len(t, f.partners.saved, 1)
		assert.Equal(t, "Jane Doe", f.partners.saved[0].Name)
		assert.Equal(t, f.backend.CompanyID, f.partners.saved[0].CompanyID)

		binding, err := f.bindings.FindByExternal(ctx, f.backend.ID, connector.ModelCustomer, "5")
		require.NoError(t, err)
		require.NotNil(t, binding)
		assert.Equal(t, f.partners.saved[0].ID, binding.InternalID)
	})

	t.Run("configuration gaps become checkpoints, not retries", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.readErr = connector.NewConfigurationError("shop misconfigured")

		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
		})
		require.NoError(t, err)

		require.Len(t, f.checkpoints.added, 1)
		assert.Contains(t, f.checkpoints.added[0].Message, "shop misconfigured")
		assert.Empty(t, f.partners.saved)
	})

	t.Run("retryable deferrals re-enqueue with their own delay", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.readErr = &connector.RetryError{Reason: "order not paid yet", After: 10 * time.Minute}

		before := time.Now().Truncate(time.Millisecond)
		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
		})
		// consumed without burning an attempt; a deferred copy waits instead
		require.NoError(t, err)
		assert.Empty(t, f.checkpoints.added)

		var wait int64
		err = f.queue.db.QueryRow(`SELECT wait_until FROM backlite_tasks`).Scan(&wait)
		require.NoError(t, err)
		runnable := time.UnixMilli(wait)
		assert.False(t, runnable.Before(before.Add(10*time.Minute)))
		assert.True(t, runnable.Before(before.Add(10*time.Minute+30*time.Second)))
	})

	t.Run("deferral without a delay hint uses the queue backoff", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.readErr = &connector.RetryError{Reason: "order not paid yet"}

		before := time.Now().Truncate(time.Millisecond)
		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
		})
		require.NoError(t, err)

		backoff := ImportRecordTask{}.Config().Backoff
		var wait int64
		err = f.queue.db.QueryRow(`SELECT wait_until FROM backlite_tasks`).Scan(&wait)
		require.NoError(t, err)
		runnable := time.UnixMilli(wait)
		assert.False(t, runnable.Before(before.Add(backoff)))
	})

	t.Run("transport failures with a budget re-enqueue counting the attempt", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.readErr = errors.New("gateway timeout")

		before := time.Now().Truncate(time.Millisecond)
		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
			MaxRetries: 3,
		})
		require.NoError(t, err)
		assert.Empty(t, f.checkpoints.added)

		var payload []byte
		var wait int64
		err = f.queue.db.QueryRow(`SELECT task, wait_until FROM backlite_tasks`).Scan(&payload, &wait)
		require.NoError(t, err)

		var queued ImportRecordTask
		require.NoError(t, json.Unmarshal(payload, &queued))
		assert.Equal(t, 1, queued.Attempt)
		assert.Equal(t, 3, queued.MaxRetries)
		assert.Equal(t, "5", queued.ExternalID)

		backoff := ImportRecordTask{}.Config().Backoff
		assert.False(t, time.UnixMilli(wait).Before(before.Add(backoff)))
	})

	t.Run("exhausted budget becomes a checkpoint, not another retry", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.readErr = errors.New("gateway timeout")

		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
			MaxRetries: 3,
			Attempt:    2,
		})
		require.NoError(t, err)

		require.Len(t, f.checkpoints.added, 1)
		assert.Contains(t, f.checkpoints.added[0].Message, "failed after 3 attempts")

		var n int
		require.NoError(t, f.queue.db.QueryRow(`SELECT COUNT(*) FROM backlite_tasks`).Scan(&n))
		assert.Zero(t, n)
	})

	t.Run("transport failures without a budget fail the attempt", func(t *testing.T) {
		f := newProcessorFixture(t)
		f.adapter.readErr = errors.New("gateway timeout")

		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  f.backend.ID,
			Model:      connector.ModelCustomer,
			ExternalID: "5",
		})
		// the queue's own attempt limit handles the retry
		assert.Error(t, err)
		assert.Empty(t, f.checkpoints.added)
	})

	t.Run("unknown backend fails the task", func(t *testing.T) {
		f := newProcessorFixture(t)

		process := ImportRecordProcessor(f.queue, f.factory, importer.NewDefaultRegistry(), zap.NewNop())
		err := process(ctx, ImportRecordTask{
			BackendID:  uuid.New(),
			Model:      connector.ModelCustomer,
			ExternalID: "5",
		})
		assert.ErrorIs(t, err, connector.ErrBackendNotFound)
	})
}

func TestTaskConfigs(t *testing.T) {
	record := ImportRecordTask{}.Config()
	assert.Equal(t, "import_record", record.Name)
	assert.Equal(t, 5, record.MaxAttempts)
	assert.NotNil(t, record.Retention)

	batch := ImportBatchTask{}.Config()
	assert.Equal(t, "import_batch", batch.Name)
	assert.Equal(t, 3, batch.MaxAttempts)
}

func TestScheduler(t *testing.T) {
	cfg := Config{
		DatabasePath:    filepath.Join(t.TempDir(), "tasks.db"),
		Workers:         1,
		ReleaseAfter:    15 * time.Minute,
		CleanupInterval: time.Hour,
	}
	client, err := NewClient(cfg, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	scheduler := NewScheduler(client)
	ctx := context.Background()
	backendID := uuid.New()

	countTasks := func(t *testing.T, where string) int {
		t.Helper()
		var n int
		err := client.db.QueryRow(`SELECT COUNT(*) FROM backlite_tasks WHERE ` + where).Scan(&n)
		require.NoError(t, err)
		return n
	}

	t.Run("enqueues record imports with priority as delay", func(t *testing.T) {
		before := time.Now().Truncate(time.Millisecond)
		err := scheduler.EnqueueRecordImport(ctx, backendID, connector.ModelCustomer, "5",
			connector.JobOptions{Priority: 10, MaxRetries: 4})
		assert.NoError(t, err)

		var payload []byte
		var wait int64
		err = client.db.QueryRow(`SELECT task, wait_until FROM backlite_tasks WHERE wait_until IS NOT NULL`).Scan(&payload, &wait)
		require.NoError(t, err)

		var queued ImportRecordTask
		require.NoError(t, json.Unmarshal(payload, &queued))
		assert.Equal(t, 4, queued.MaxRetries)

		runnable := time.UnixMilli(wait)
		assert.False(t, runnable.Before(before.Add(10*priorityStep)))
		assert.True(t, runnable.Before(before.Add(10*priorityStep+30*time.Second)))
	})

	t.Run("priority zero runs immediately", func(t *testing.T) {
		err := scheduler.EnqueueRecordImport(ctx, backendID, connector.ModelCustomer, "6", connector.JobOptions{})
		assert.NoError(t, err)

		assert.Equal(t, 1, countTasks(t, "wait_until IS NULL"))
	})

	t.Run("enqueues batch imports", func(t *testing.T) {
		err := scheduler.EnqueueBatchImport(ctx, backendID, connector.ModelSaleOrder, map[string]string{"date": "1"}, connector.JobOptions{Priority: 5})
		assert.NoError(t, err)
	})
}
