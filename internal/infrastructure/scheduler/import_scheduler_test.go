package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/application/importer"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

type fakeBackends struct {
	backends []connector.Backend
	advanced []connector.WatermarkKind
}

func (f *fakeBackends) FindByID(_ context.Context, id uuid.UUID) (*connector.Backend, error) {
	for i := range f.backends {
		if f.backends[i].ID == id {
			return &f.backends[i], nil
		}
	}
	return nil, connector.ErrBackendNotFound
}

func (f *fakeBackends) FindAll(context.Context) ([]connector.Backend, error) {
	return f.backends, nil
}

func (f *fakeBackends) Save(context.Context, *connector.Backend) error { return nil }

func (f *fakeBackends) AdvanceWatermark(_ context.Context, _ uuid.UUID, kind connector.WatermarkKind, _ time.Time) error {
	f.advanced = append(f.advanced, kind)
	return nil
}

type fakeBindings struct{}

func (fakeBindings) FindByID(context.Context, uuid.UUID) (*connector.Binding, error) {
	return nil, connector.ErrBindingNotFound
}

func (fakeBindings) FindByExternal(context.Context, uuid.UUID, connector.Model, string) (*connector.Binding, error) {
	return nil, nil
}

func (fakeBindings) FindByInternal(context.Context, uuid.UUID, connector.Model, uuid.UUID) ([]connector.Binding, error) {
	return nil, nil
}

func (fakeBindings) Upsert(context.Context, *connector.Binding) error { return nil }

func (fakeBindings) Delete(context.Context, uuid.UUID) error { return nil }

type fakeCheckpoints struct {
	added []connector.Checkpoint
}

func (f *fakeCheckpoints) Add(_ context.Context, cp *connector.Checkpoint) error {
	f.added = append(f.added, *cp)
	return nil
}

func (f *fakeCheckpoints) ListOpen(context.Context, uuid.UUID) ([]connector.Checkpoint, error) {
	return f.added, nil
}

func (f *fakeCheckpoints) Resolve(context.Context, uuid.UUID) error { return nil }

type searchAdapter struct {
	model connector.Model
	ids   []string
}

func (a *searchAdapter) Model() connector.Model { return a.model }

func (a *searchAdapter) Search(context.Context, map[string]string) ([]string, error) {
	return a.ids, nil
}

func (a *searchAdapter) Read(context.Context, string) (connector.Value, error) {
	return connector.Nil(), connector.ErrRecordNotFound
}

func (a *searchAdapter) Head(context.Context) error { return nil }

type searchAdapters struct {
	byModel map[connector.Model][]string
}

func (s *searchAdapters) AdapterFor(model connector.Model) (connector.RecordAdapter, error) {
	ids, ok := s.byModel[model]
	if !ok {
		return nil, connector.ErrModelNotSupported
	}
	return &searchAdapter{model: model, ids: ids}, nil
}

type recordingJobs struct {
	records []string
}

func (r *recordingJobs) EnqueueRecordImport(_ context.Context, _ uuid.UUID, model connector.Model, externalID string, _ connector.JobOptions) error {
	r.records = append(r.records, string(model)+"/"+externalID)
	return nil
}

func (r *recordingJobs) EnqueueBatchImport(context.Context, uuid.UUID, connector.Model, map[string]string, connector.JobOptions) error {
	return nil
}

func newTestBackend(t *testing.T, name string) connector.Backend {
	t.Helper()
	backend, err := connector.NewBackend(name, "http://shop.example", "WSKEY", connector.APIVersion1612)
	require.NoError(t, err)
	return *backend
}

func TestImportScheduler_RunForAll(t *testing.T) {
	newScheduler := func(backends *fakeBackends, adapters *searchAdapters, jobs *recordingJobs) *ImportScheduler {
		factory := importer.NewEnvironmentFactory(importer.Stores{
			Bindings:    fakeBindings{},
			Backends:    backends,
			Checkpoints: &fakeCheckpoints{},
		}, func(*connector.Backend) connector.AdapterRegistry {
			return adapters
		}, zap.NewNop())
		return NewImportScheduler(ImportSchedules{}, factory, jobs, backends, zap.NewNop())
	}

	t.Run("enqueues customers for every backend", func(t *testing.T) {
		backends := &fakeBackends{backends: []connector.Backend{
			newTestBackend(t, "shop-a"),
			newTestBackend(t, "shop-b"),
		}}
		adapters := &searchAdapters{byModel: map[connector.Model][]string{
			connector.ModelCustomer: {"1", "2"},
		}}
		jobs := &recordingJobs{}

		s := newScheduler(backends, adapters, jobs)
		s.runForAll("partners", func(ctx context.Context, b *importer.BatchImporter) (int, error) {
			return b.ImportCustomersSince(ctx)
		})

		// two backends, two hits each
		assert.Len(t, jobs.records, 4)
		assert.Equal(t, []connector.WatermarkKind{
			connector.WatermarkPartners,
			connector.WatermarkPartners,
		}, backends.advanced)
	})

	t.Run("order ticks include threads and messages", func(t *testing.T) {
		backends := &fakeBackends{backends: []connector.Backend{newTestBackend(t, "shop-a")}}
		adapters := &searchAdapters{byModel: map[connector.Model][]string{
			connector.ModelSaleOrder:     {"10"},
			connector.ModelMessageThread: {"3"},
			connector.ModelMessage:       {"8"},
		}}
		jobs := &recordingJobs{}

		s := newScheduler(backends, adapters, jobs)
		s.runForAll("orders", func(ctx context.Context, b *importer.BatchImporter) (int, error) {
			return b.ImportOrdersSince(ctx)
		})

		assert.Equal(t, []string{
			"sale.order/10",
			"sale.order.thread/3",
			"sale.order.message/8",
		}, jobs.records)
	})
}

func TestImportScheduler_Start(t *testing.T) {
	backends := &fakeBackends{}
	jobs := &recordingJobs{}
	factory := importer.NewEnvironmentFactory(importer.Stores{Backends: backends}, func(*connector.Backend) connector.AdapterRegistry {
		return &searchAdapters{}
	}, zap.NewNop())

	t.Run("rejects an invalid expression", func(t *testing.T) {
		s := NewImportScheduler(ImportSchedules{Orders: "not a schedule"}, factory, jobs, backends, zap.NewNop())
		err := s.Start()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "orders")
	})

	t.Run("empty schedules start and stop cleanly", func(t *testing.T) {
		s := NewImportScheduler(ImportSchedules{}, factory, jobs, backends, zap.NewNop())
		require.NoError(t, s.Start())

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
		assert.NoError(t, s.Stop(ctx))
	})
}
