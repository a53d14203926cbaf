package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// ---------------------------------------------------------------------------
// Import states and outcomes
// ---------------------------------------------------------------------------

// State names one phase of a record import. States exist for logging and
// error context; the pipeline is a straight line with SKIPPED and FAILED
// terminals reachable from any phase.
type State string

const (
	StateFetching             State = "FETCHING"
	StateDependencyResolution State = "DEPENDENCY_RESOLUTION"
	StateEligibilityCheck     State = "ELIGIBILITY_CHECK"
	StateMapping              State = "MAPPING"
	StateUpsert               State = "UPSERT"
	StatePostImport           State = "POST_IMPORT"
	StateDone                 State = "DONE"
)

// Outcome is the terminal result of one record import.
type Outcome string

const (
	// OutcomeImported means the record was mapped and bound
	OutcomeImported Outcome = "IMPORTED"
	// OutcomeSkipped means the import was a deliberate no-op
	OutcomeSkipped Outcome = "SKIPPED"
)

// Result reports a finished record import. Failures and retryable deferrals
// are returned as errors, not results.
type Result struct {
	Outcome    Outcome
	Reason     string
	InternalID uuid.UUID
	BindingID  uuid.UUID
}

func skipped(reason string) *Result {
	return &Result{Outcome: OutcomeSkipped, Reason: reason}
}

// ---------------------------------------------------------------------------
// Model definitions
// ---------------------------------------------------------------------------

// Definition describes how one model is imported: which dependencies it pulls
// in first, which eligibility rules gate it, how mapped values become an
// internal record, and its post-import side effects.
type Definition struct {
	Model connector.Model

	// Dependencies recursively imports the foreign records this record
	// references, through Run.ImportDependency. Optional.
	Dependencies func(ctx context.Context, run *Run, record connector.Value) error

	// SkipCheck evaluates record-level eligibility beyond the already-bound
	// check. A non-empty reason skips the record; a RetryError defers it;
	// other errors fail it. Optional.
	SkipCheck func(ctx context.Context, run *Run, record connector.Value) (string, error)

	// Upsert creates the internal record from the mapped values and returns
	// its internal ID. Runs in the same transaction as the binding upsert.
	Upsert func(ctx context.Context, run *Run, values Values) (uuid.UUID, error)

	// AfterImport runs model-specific side effects once the binding exists.
	// Optional.
	AfterImport func(ctx context.Context, run *Run, internalID uuid.UUID, values Values) error
}

// Registry holds the definitions and mappers for every importable model.
type Registry struct {
	defs    map[connector.Model]*Definition
	mappers *MapperSet
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:    make(map[connector.Model]*Definition),
		mappers: NewMapperSet(),
	}
}

// Register adds a model definition and its mapper.
func (r *Registry) Register(def *Definition, mapper *Mapper) {
	r.defs[def.Model] = def
	r.mappers.Register(mapper)
}

// RegisterMapper adds a mapper for a model that is only imported as part of
// its parent, such as order lines.
func (r *Registry) RegisterMapper(mapper *Mapper) {
	r.mappers.Register(mapper)
}

// NewDefaultRegistry wires every importable model.
func NewDefaultRegistry() *Registry {
	rules := NewSaleImportRule()
	r := NewRegistry()
	r.Register(NewCustomerDefinition(), NewCustomerMapper())
	r.Register(NewAddressDefinition(), NewAddressMapper())
	r.Register(NewCarrierDefinition(), NewCarrierMapper())
	r.Register(NewProductDefinition(), NewProductMapper())
	r.Register(NewSaleOrderDefinition(rules), NewSaleOrderMapper())
	r.Register(NewThreadDefinition(), NewThreadMapper())
	r.Register(NewMessageDefinition(), NewMessageMapper())
	r.RegisterMapper(NewSaleOrderLineMapper())
	r.RegisterMapper(NewSaleOrderDiscountMapper())
	return r
}

// DefinitionFor returns the definition for a model.
func (r *Registry) DefinitionFor(model connector.Model) (*Definition, error) {
	def, ok := r.defs[model]
	if !ok {
		return nil, fmt.Errorf("importer for %s: %w", model, connector.ErrModelNotSupported)
	}
	return def, nil
}

// Mappers returns the registry's mapper set.
func (r *Registry) Mappers() *MapperSet {
	return r.mappers
}

// ---------------------------------------------------------------------------
// RecordImporter
// ---------------------------------------------------------------------------

// RecordImporter orchestrates the import of single external records: fetch,
// dependency resolution, eligibility, mapping, upsert with binding, post
// import. One Import call is one unit of work; retryable deferrals terminate
// it and the scheduler re-runs it later.
type RecordImporter struct {
	env      *Environment
	registry *Registry
}

// NewRecordImporter creates a record importer for one backend environment.
func NewRecordImporter(env *Environment, registry *Registry) *RecordImporter {
	return &RecordImporter{env: env, registry: registry}
}

// Import imports one external record into its internal model.
func (ri *RecordImporter) Import(ctx context.Context, model connector.Model, externalID string) (*Result, error) {
	run := &Run{
		Env:      ri.env,
		Mappers:  ri.registry.mappers,
		registry: ri.registry,
		visited:  make(map[visitKey]struct{}),
	}
	return run.importRecord(ctx, model, externalID)
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

type visitKey struct {
	model      connector.Model
	externalID string
}

// LineError records a non-critical dependency failure collected during one
// run, surfaced to operators through a checkpoint after the parent import.
type LineError struct {
	Model      connector.Model
	ExternalID string
	Err        error
}

// Run is the state of one import invocation, shared by the whole recursive
// dependency walk: the visited set guards against cycles and duplicate work,
// LineErrors collects non-fatal dependency failures.
type Run struct {
	Env     *Environment
	Mappers *MapperSet

	registry *Registry
	visited  map[visitKey]struct{}

	// LineErrors are the non-critical dependency failures of this run
	LineErrors []LineError
}

// importRecord walks one record through the import state machine.
func (r *Run) importRecord(ctx context.Context, model connector.Model, externalID string) (*Result, error) {
	r.visited[visitKey{model: model, externalID: externalID}] = struct{}{}

	log := r.Env.logger().With(
		zap.String("model", model.String()),
		zap.String("external_id", externalID),
		zap.String("backend", r.Env.Backend.Name),
	)

	def, err := r.registry.DefinitionFor(model)
	if err != nil {
		return nil, err
	}
	adapter, err := r.Env.Adapters.AdapterFor(model)
	if err != nil {
		return nil, err
	}

	// FETCHING
	record, err := adapter.Read(ctx, externalID)
	if err != nil {
		return nil, r.fail(StateFetching, model, externalID, err)
	}

	// DEPENDENCY_RESOLUTION
	if def.Dependencies != nil {
		if err := def.Dependencies(ctx, r, record); err != nil {
			return nil, r.fail(StateDependencyResolution, model, externalID, err)
		}
	}

	// ELIGIBILITY_CHECK: a bound record is never re-created; re-import is an
	// idempotent no-op.
	existing, err := r.Env.Binder.ToInternal(ctx, model, externalID)
	if err != nil {
		return nil, r.fail(StateEligibilityCheck, model, externalID, err)
	}
	if existing != nil {
		log.Debug("record already bound, skipping import")
		res := skipped("already bound")
		res.InternalID = existing.InternalID
		res.BindingID = existing.ID
		return res, nil
	}
	if def.SkipCheck != nil {
		reason, err := def.SkipCheck(ctx, r, record)
		if err != nil {
			var se *connector.SkipError
			if errors.As(err, &se) {
				log.Info("record permanently skipped", zap.String("reason", se.Reason))
				return skipped(se.Reason), nil
			}
			// retryable deferrals and configuration errors propagate to the
			// job boundary untouched
			return nil, r.fail(StateEligibilityCheck, model, externalID, err)
		}
		if reason != "" {
			log.Info("record skipped", zap.String("reason", reason))
			return skipped(reason), nil
		}
	}

	// MAPPING
	mapper, err := r.Mappers.MapperFor(model)
	if err != nil {
		return nil, err
	}
	values, err := mapper.Map(ctx, r, record)
	if err != nil {
		return nil, r.fail(StateMapping, model, externalID, err)
	}

	// UPSERT: internal record and binding commit together; a record without
	// its binding would be re-created on the next run.
	var internalID uuid.UUID
	var binding *connector.Binding
	err = r.Env.tx().Atomically(ctx, func(ctx context.Context) error {
		var err error
		internalID, err = def.Upsert(ctx, r, values)
		if err != nil {
			return err
		}
		binding, err = r.Env.Binder.Bind(ctx, model, externalID, internalID)
		return err
	})
	if err != nil {
		return nil, r.fail(StateUpsert, model, externalID, err)
	}

	// POST_IMPORT
	if def.AfterImport != nil {
		if err := def.AfterImport(ctx, r, internalID, values); err != nil {
			return nil, r.fail(StatePostImport, model, externalID, err)
		}
	}

	log.Info("record imported", zap.String("internal_id", internalID.String()))
	return &Result{
		Outcome:    OutcomeImported,
		InternalID: internalID,
		BindingID:  binding.ID,
	}, nil
}

// ImportDependency recursively imports a referenced external record before
// the referencing one, unless it is already bound or already visited in this
// run. Zero or empty IDs mean "no reference". When required is false a
// failure is collected into LineErrors and the parent import continues.
func (r *Run) ImportDependency(ctx context.Context, model connector.Model, externalID string, required bool) error {
	if externalID == "" || externalID == "0" {
		return nil
	}
	key := visitKey{model: model, externalID: externalID}
	if _, seen := r.visited[key]; seen {
		return nil
	}

	binding, err := r.Env.Binder.ToInternal(ctx, model, externalID)
	if err != nil {
		return err
	}
	if binding != nil {
		return nil
	}

	_, err = r.importRecord(ctx, model, externalID)
	if err == nil || connector.IsSkip(err) {
		return nil
	}
	if !required {
		r.Env.logger().Error("dependency import failed, continuing without it",
			zap.String("model", model.String()),
			zap.String("external_id", externalID),
			zap.Error(err))
		r.LineErrors = append(r.LineErrors, LineError{Model: model, ExternalID: externalID, Err: err})
		return nil
	}
	return fmt.Errorf("dependency %s %s: %w", model, externalID, err)
}

// fail wraps an error with its state and record context. Typed outcome errors
// pass through for errors.As at the job boundary.
func (r *Run) fail(state State, model connector.Model, externalID string, err error) error {
	return fmt.Errorf("%s %s %s: %w", state, model, externalID, err)
}
