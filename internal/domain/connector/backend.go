package connector

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// API version
// ---------------------------------------------------------------------------

// APIVersion selects the remote webservice schema version. Association key
// names inside order payloads differ between versions.
type APIVersion string

const (
	APIVersion15    APIVersion = "1.5"
	APIVersion1609  APIVersion = "1.6.0.9"
	APIVersion16011 APIVersion = "1.6.0.11"
	APIVersion1612  APIVersion = "1.6.1.2"
)

// IsValid returns true if the version is one the connector supports.
func (v APIVersion) IsValid() bool {
	switch v {
	case APIVersion15, APIVersion1609, APIVersion16011, APIVersion1612:
		return true
	default:
		return false
	}
}

// String returns the string representation of APIVersion.
func (v APIVersion) String() string {
	return string(v)
}

// AssociationKey returns the key under which the webservice nests one child
// entry of an association for this schema version. 1.5 payloads pluralize
// the entry keys; later versions use the singular form.
func (v APIVersion) AssociationKey(kind string) string {
	if v == APIVersion15 {
		switch kind {
		case "order_row":
			return "order_rows"
		case "order_discount":
			return "order_discounts"
		case "tax":
			return "taxes"
		}
	}
	return kind
}

// ---------------------------------------------------------------------------
// Watermarks
// ---------------------------------------------------------------------------

// WatermarkKind names the per-entity "import since" timestamps kept on a
// backend.
type WatermarkKind string

const (
	WatermarkPartners  WatermarkKind = "partners"
	WatermarkOrders    WatermarkKind = "orders"
	WatermarkProducts  WatermarkKind = "products"
	WatermarkRefunds   WatermarkKind = "refunds"
	WatermarkSuppliers WatermarkKind = "suppliers"
)

// ---------------------------------------------------------------------------
// Backend Aggregate
// ---------------------------------------------------------------------------

// Backend describes one configured remote shop endpoint together with the
// organizational defaults every import uses and the per-entity watermarks
// batch imports advance.
type Backend struct {
	// ID is the unique identifier of the backend
	ID uuid.UUID
	// Name is the operator-facing label
	Name string
	// Location is the base URL of the remote webservice
	Location string
	// WebserviceKey is the API key, sent as the basic-auth user
	WebserviceKey string
	// Version selects the remote schema version
	Version APIVersion
	// CompanyID scopes imported records to one company
	CompanyID uuid.UUID
	// WarehouseID is the warehouse used for stock quantities
	WarehouseID uuid.UUID
	// PricelistID is the price list applied to imported sales orders
	PricelistID uuid.UUID
	// SaleTeamID is the sales team assigned to imported orders, optional
	SaleTeamID *uuid.UUID
	// DiscountProductID is the product used for imported discount lines
	DiscountProductID uuid.UUID
	// ShippingProductID is the product used for materialized shipping lines
	ShippingProductID uuid.UUID
	// TaxesIncluded selects tax-inclusive remote prices
	TaxesIncluded bool

	// ImportPartnersSince is the customers watermark
	ImportPartnersSince *time.Time
	// ImportOrdersSince is the sales orders watermark
	ImportOrdersSince *time.Time
	// ImportProductsSince is the products watermark
	ImportProductsSince *time.Time
	// ImportRefundsSince is the refunds watermark
	ImportRefundsSince *time.Time
	// ImportSuppliersSince is the suppliers watermark
	ImportSuppliersSince *time.Time

	// CreatedAt is when the backend was configured
	CreatedAt time.Time
	// UpdatedAt is when the backend was last modified
	UpdatedAt time.Time
}

// NewBackend creates a backend configuration.
func NewBackend(name, location, webserviceKey string, version APIVersion) (*Backend, error) {
	if name == "" || location == "" {
		return nil, NewConfigurationError("backend requires a name and a location")
	}
	if webserviceKey == "" {
		return nil, NewConfigurationError("backend %s requires a webservice key", name)
	}
	if !version.IsValid() {
		return nil, NewConfigurationError("backend %s: unknown API version %q", name, version)
	}
	now := time.Now()
	return &Backend{
		ID:            uuid.New(),
		Name:          name,
		Location:      location,
		WebserviceKey: webserviceKey,
		Version:       version,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Watermark returns the "import since" timestamp for the given kind, nil when
// never imported.
func (b *Backend) Watermark(kind WatermarkKind) *time.Time {
	switch kind {
	case WatermarkPartners:
		return b.ImportPartnersSince
	case WatermarkOrders:
		return b.ImportOrdersSince
	case WatermarkProducts:
		return b.ImportProductsSince
	case WatermarkRefunds:
		return b.ImportRefundsSince
	case WatermarkSuppliers:
		return b.ImportSuppliersSince
	default:
		return nil
	}
}

// AdvanceWatermark moves the "import since" timestamp forward. Batch imports
// pass their start time, not their completion time, so records modified while
// the batch ran are picked up by the next one.
func (b *Backend) AdvanceWatermark(kind WatermarkKind, t time.Time) {
	ts := t
	switch kind {
	case WatermarkPartners:
		b.ImportPartnersSince = &ts
	case WatermarkOrders:
		b.ImportOrdersSince = &ts
	case WatermarkProducts:
		b.ImportProductsSince = &ts
	case WatermarkRefunds:
		b.ImportRefundsSince = &ts
	case WatermarkSuppliers:
		b.ImportSuppliersSince = &ts
	}
	b.UpdatedAt = time.Now()
}

// ---------------------------------------------------------------------------
// BackendRepository
// ---------------------------------------------------------------------------

// BackendRepository persists backend configurations.
type BackendRepository interface {
	// FindByID finds a backend by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Backend, error)

	// FindAll lists every configured backend
	FindAll(ctx context.Context) ([]Backend, error)

	// Save creates or updates a backend
	Save(ctx context.Context, backend *Backend) error

	// AdvanceWatermark persists a watermark advance without racing other
	// field updates
	AdvanceWatermark(ctx context.Context, id uuid.UUID, kind WatermarkKind, t time.Time) error
}
