package connector

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Model identifies the internal model an external record maps to.
type Model string

const (
	ModelCustomer          Model = "res.partner"
	ModelAddress           Model = "res.partner.address"
	ModelCarrier           Model = "delivery.carrier"
	ModelProductTemplate   Model = "product.template"
	ModelSaleOrder         Model = "sale.order"
	ModelSaleOrderLine     Model = "sale.order.line"
	ModelSaleOrderDiscount Model = "sale.order.line.discount"
	ModelMessageThread     Model = "sale.order.thread"
	ModelMessage           Model = "sale.order.message"
	ModelPaymentMode       Model = "account.payment.mode"
	ModelPayment           Model = "account.payment"
)

// IsValid returns true if the model is one the connector knows about.
func (m Model) IsValid() bool {
	switch m {
	case ModelCustomer, ModelAddress, ModelCarrier, ModelProductTemplate,
		ModelSaleOrder, ModelSaleOrderLine, ModelSaleOrderDiscount,
		ModelMessageThread, ModelMessage, ModelPaymentMode, ModelPayment:
		return true
	default:
		return false
	}
}

// String returns the string representation of Model.
func (m Model) String() string {
	return string(m)
}

// ---------------------------------------------------------------------------
// Binding Entity
// ---------------------------------------------------------------------------

// Binding is the persistent correspondence between one external record ID and
// one internal record ID, scoped to a backend. At most one binding exists per
// (model, external_id, backend_id); the storage layer enforces this with a
// uniqueness constraint, which is the sole coordination primitive relied upon
// by concurrent imports.
type Binding struct {
	// ID is the unique identifier of the binding itself
	ID uuid.UUID
	// BackendID is the backend this binding is scoped to
	BackendID uuid.UUID
	// Model is the internal model the binding refers to
	Model Model
	// ExternalID is the record's identifier on the remote system
	ExternalID string
	// InternalID is the internal business record's identifier
	InternalID uuid.UUID
	// SyncedAt is when the record was last imported
	SyncedAt time.Time
	// CreatedAt is when the binding was first created
	CreatedAt time.Time
	// UpdatedAt is when the binding was last refreshed
	UpdatedAt time.Time
}

// NewBinding creates a binding for a freshly imported record.
func NewBinding(backendID uuid.UUID, model Model, externalID string, internalID uuid.UUID) (*Binding, error) {
	if backendID == uuid.Nil {
		return nil, NewConfigurationError("binding requires a backend")
	}
	if !model.IsValid() {
		return nil, ErrModelNotSupported
	}
	if externalID == "" {
		return nil, NewConfigurationError("binding requires an external ID")
	}
	if internalID == uuid.Nil {
		return nil, NewConfigurationError("binding requires an internal record")
	}
	now := time.Now()
	return &Binding{
		ID:         uuid.New(),
		BackendID:  backendID,
		Model:      model,
		ExternalID: externalID,
		InternalID: internalID,
		SyncedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Touch refreshes the sync timestamp on re-import. The internal ID never
// changes once bound.
func (b *Binding) Touch() {
	now := time.Now()
	b.SyncedAt = now
	b.UpdatedAt = now
}

// ---------------------------------------------------------------------------
// Binder
// ---------------------------------------------------------------------------

// Binder maps between external and internal identifiers for a declared set of
// models within one backend scope.
//
// ToInternal never returns an error for a missing mapping; absence is a
// checked nil result. ToExternal by binding ID treats an unknown ID as a
// contract violation (ErrBindingNotFound); ToExternalOf, the wrapped variant
// keyed by the business record, returns "" for an unbound record and
// ErrMultipleBindings when the uniqueness invariant is broken.
type Binder interface {
	// Supports reports whether the binder was configured for the model.
	Supports(model Model) bool

	// ToInternal returns the binding for an external ID, or nil when the ID
	// is not bound yet.
	ToInternal(ctx context.Context, model Model, externalID string) (*Binding, error)

	// ToExternal returns the external ID for a binding ID.
	ToExternal(ctx context.Context, model Model, bindingID uuid.UUID) (string, error)

	// ToExternalOf returns the external ID bound to an internal business
	// record, or "" when the record has no binding under this backend.
	ToExternalOf(ctx context.Context, model Model, internalID uuid.UUID) (string, error)

	// Bind creates the binding for a newly imported record, or refreshes the
	// sync timestamp when the (model, external_id) pair is already bound to
	// the same internal record.
	Bind(ctx context.Context, model Model, externalID string, internalID uuid.UUID) (*Binding, error)
}

// ---------------------------------------------------------------------------
// BindingRepository
// ---------------------------------------------------------------------------

// BindingRepository persists bindings. FindByExternal and FindByInternal
// return nil (no error) when nothing matches; only FindByID treats absence as
// an error.
type BindingRepository interface {
	// FindByID finds a binding by its own identifier
	FindByID(ctx context.Context, id uuid.UUID) (*Binding, error)

	// FindByExternal finds the binding for (backend, model, external_id)
	FindByExternal(ctx context.Context, backendID uuid.UUID, model Model, externalID string) (*Binding, error)

	// FindByInternal finds all bindings for (backend, model, internal_id);
	// the uniqueness invariant allows at most one, but the repository reports
	// what is actually stored so violations surface
	FindByInternal(ctx context.Context, backendID uuid.UUID, model Model, internalID uuid.UUID) ([]Binding, error)

	// Upsert inserts the binding or, when (backend, model, external_id)
	// already exists, refreshes its timestamps while keeping internal_id
	Upsert(ctx context.Context, binding *Binding) error

	// Delete removes a binding; an administrative action, never called by
	// the import pipeline
	Delete(ctx context.Context, id uuid.UUID) error
}
