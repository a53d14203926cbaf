package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ProductTemplate Entity
// ---------------------------------------------------------------------------

// ProductTemplate is a sellable product imported from the remote shop.
type ProductTemplate struct {
	// ID is the unique identifier of the product
	ID uuid.UUID
	// CompanyID scopes the product to one company
	CompanyID uuid.UUID
	// Name is the product's display name
	Name string
	// Reference is the remote product reference (SKU)
	Reference string
	// ListPrice is the sale price
	ListPrice decimal.Decimal
	// Active indicates whether the product is sellable
	Active bool
	// CreatedAt is when the product was created
	CreatedAt time.Time
	// UpdatedAt is when the product was last updated
	UpdatedAt time.Time
}

// ProductRepository persists product templates.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductTemplate, error)
	Save(ctx context.Context, product *ProductTemplate) error
}
