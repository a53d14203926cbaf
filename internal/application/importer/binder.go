package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// BackendBinder implements connector.Binder on top of a BindingRepository,
// scoped to one backend and an explicit set of supported models.
type BackendBinder struct {
	backendID uuid.UUID
	repo      connector.BindingRepository
	models    map[connector.Model]struct{}
}

// NewBackendBinder creates a binder for a backend. The supported model set is
// declared up front; an invalid model is a setup error.
func NewBackendBinder(backendID uuid.UUID, repo connector.BindingRepository, models ...connector.Model) (*BackendBinder, error) {
	set := make(map[connector.Model]struct{}, len(models))
	for _, m := range models {
		if !m.IsValid() {
			return nil, fmt.Errorf("binder setup for %q: %w", m, connector.ErrModelNotSupported)
		}
		set[m] = struct{}{}
	}
	return &BackendBinder{backendID: backendID, repo: repo, models: set}, nil
}

// Supports reports whether the binder was configured for the model.
func (b *BackendBinder) Supports(model connector.Model) bool {
	_, ok := b.models[model]
	return ok
}

// ToInternal returns the binding for an external ID, nil when unbound.
// Absence is a valid result, never an error.
func (b *BackendBinder) ToInternal(ctx context.Context, model connector.Model, externalID string) (*connector.Binding, error) {
	if err := b.check(model); err != nil {
		return nil, err
	}
	return b.repo.FindByExternal(ctx, b.backendID, model, externalID)
}

// ToExternal returns the external ID for a binding ID. An unknown binding ID
// is a contract violation.
func (b *BackendBinder) ToExternal(ctx context.Context, model connector.Model, bindingID uuid.UUID) (string, error) {
	if err := b.check(model); err != nil {
		return "", err
	}
	binding, err := b.repo.FindByID(ctx, bindingID)
	if err != nil {
		return "", err
	}
	if binding.Model != model || binding.BackendID != b.backendID {
		return "", connector.ErrBindingNotFound
	}
	return binding.ExternalID, nil
}

// ToExternalOf returns the external ID bound to an internal business record,
// "" when the record has no binding under this backend. More than one binding
// violates the uniqueness invariant and is reported, not masked.
func (b *BackendBinder) ToExternalOf(ctx context.Context, model connector.Model, internalID uuid.UUID) (string, error) {
	if err := b.check(model); err != nil {
		return "", err
	}
	bindings, err := b.repo.FindByInternal(ctx, b.backendID, model, internalID)
	if err != nil {
		return "", err
	}
	switch len(bindings) {
	case 0:
		return "", nil
	case 1:
		return bindings[0].ExternalID, nil
	default:
		return "", connector.ErrMultipleBindings
	}
}

// Bind creates or refreshes the binding. The internal ID of an existing
// binding never changes; a bind attempt against a different internal record
// surfaces as an error instead of silently relinking.
func (b *BackendBinder) Bind(ctx context.Context, model connector.Model, externalID string, internalID uuid.UUID) (*connector.Binding, error) {
	if err := b.check(model); err != nil {
		return nil, err
	}
	existing, err := b.repo.FindByExternal(ctx, b.backendID, model, externalID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.InternalID != internalID {
			return nil, fmt.Errorf("bind %s %s to %s: %w", model, externalID, internalID, connector.ErrMultipleBindings)
		}
		existing.Touch()
		if err := b.repo.Upsert(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	binding, err := connector.NewBinding(b.backendID, model, externalID, internalID)
	if err != nil {
		return nil, err
	}
	if err := b.repo.Upsert(ctx, binding); err != nil {
		return nil, err
	}
	return binding, nil
}

func (b *BackendBinder) check(model connector.Model) error {
	if !b.Supports(model) {
		return fmt.Errorf("binder for %s: %w", model, connector.ErrModelNotSupported)
	}
	return nil
}

var _ connector.Binder = (*BackendBinder)(nil)
