package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/application/importer"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// ImportSchedules holds the cron expressions for the periodic imports. An
// empty expression disables that import.
type ImportSchedules struct {
	// Orders drives the incremental order import, including message threads
	Orders string
	// Partners drives the incremental customer import
	Partners string
	// Products drives the incremental product import
	Products string
	// Carriers drives the full carrier refresh
	Carriers string
}

// tickTimeout bounds one scheduled run across all backends
const tickTimeout = 10 * time.Minute

// ImportScheduler runs the periodic batch imports for every configured
// backend. Each tick only searches and enqueues; the heavy lifting happens
// on the task queue.
type ImportScheduler struct {
	schedules ImportSchedules
	factory   *importer.EnvironmentFactory
	jobs      connector.JobScheduler
	backends  connector.BackendRepository
	logger    *zap.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewImportScheduler creates the import scheduler. Overlapping ticks of the
// same import are skipped, not queued.
func NewImportScheduler(
	schedules ImportSchedules,
	factory *importer.EnvironmentFactory,
	jobs connector.JobScheduler,
	backends connector.BackendRepository,
	logger *zap.Logger,
) *ImportScheduler {
	cronLog := &cronLogger{log: logger.Sugar()}
	return &ImportScheduler{
		schedules: schedules,
		factory:   factory,
		jobs:      jobs,
		backends:  backends,
		logger:    logger,
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
			cron.Recover(cronLog),
		)),
	}
}

// Start registers the configured schedules and starts the cron loop.
func (s *ImportScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}

	entries := []struct {
		name string
		spec string
		run  func(context.Context, *importer.BatchImporter) (int, error)
	}{
		{"orders", s.schedules.Orders, func(ctx context.Context, b *importer.BatchImporter) (int, error) {
			return b.ImportOrdersSince(ctx)
		}},
		{"partners", s.schedules.Partners, func(ctx context.Context, b *importer.BatchImporter) (int, error) {
			return b.ImportCustomersSince(ctx)
		}},
		{"products", s.schedules.Products, func(ctx context.Context, b *importer.BatchImporter) (int, error) {
			return b.ImportProductsSince(ctx)
		}},
		{"carriers", s.schedules.Carriers, func(ctx context.Context, b *importer.BatchImporter) (int, error) {
			return b.ImportCarriers(ctx)
		}},
	}

	for _, entry := range entries {
		if entry.spec == "" {
			continue
		}
		name, run := entry.name, entry.run
		if _, err := s.cron.AddFunc(entry.spec, func() {
			s.runForAll(name, run)
		}); err != nil {
			return fmt.Errorf("schedule %s imports %q: %w", name, entry.spec, err)
		}
		s.logger.Info("Import scheduled",
			zap.String("import", name),
			zap.String("schedule", entry.spec),
		)
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop halts the cron loop and waits for in-flight ticks to finish.
func (s *ImportScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}

	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		s.isRunning = false
		s.logger.Info("Import scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runForAll runs one import for every configured backend. A failing backend
// never blocks the others.
func (s *ImportScheduler) runForAll(name string, run func(context.Context, *importer.BatchImporter) (int, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	backends, err := s.backends.FindAll(ctx)
	if err != nil {
		s.logger.Error("Scheduled import could not list backends",
			zap.String("import", name),
			zap.Error(err),
		)
		return
	}

	for i := range backends {
		backend := &backends[i]
		env, err := s.factory.ForBackend(ctx, backend.ID)
		if err != nil {
			s.logger.Error("Scheduled import could not assemble environment",
				zap.String("import", name),
				zap.String("backend", backend.Name),
				zap.Error(err),
			)
			continue
		}
		count, err := run(ctx, importer.NewBatchImporter(env, s.jobs))
		if err != nil {
			s.logger.Error("Scheduled import failed",
				zap.String("import", name),
				zap.String("backend", backend.Name),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("Scheduled import enqueued",
			zap.String("import", name),
			zap.String("backend", backend.Name),
			zap.Int("records", count),
		)
	}
}

// cronLogger adapts cron's key-value logging onto zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Infow(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
