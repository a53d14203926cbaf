package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Partner Entity
// ---------------------------------------------------------------------------

// Partner is a customer imported from the remote shop.
type Partner struct {
	// ID is the unique identifier of the partner
	ID uuid.UUID
	// CompanyID scopes the partner to one company
	CompanyID uuid.UUID
	// Name is the customer's display name
	Name string
	// Email is the customer's email address
	Email string
	// Newsletter indicates an opt-in to the shop newsletter
	Newsletter bool
	// Active indicates whether the partner is usable on new documents
	Active bool
	// CreatedAt is when the partner was created
	CreatedAt time.Time
	// UpdatedAt is when the partner was last updated
	UpdatedAt time.Time
}

// Address is a postal address of a partner.
type Address struct {
	// ID is the unique identifier of the address
	ID uuid.UUID
	// PartnerID is the partner this address belongs to
	PartnerID uuid.UUID
	// Name is the addressee
	Name string
	// Street is the first street line
	Street string
	// Street2 is the second street line
	Street2 string
	// Zip is the postal code
	Zip string
	// City is the city
	City string
	// Phone is the contact phone number
	Phone string
	// CreatedAt is when the address was created
	CreatedAt time.Time
	// UpdatedAt is when the address was last updated
	UpdatedAt time.Time
}

// Carrier is a delivery carrier referenced by imported orders.
type Carrier struct {
	// ID is the unique identifier of the carrier
	ID uuid.UUID
	// Name is the carrier's display name
	Name string
	// ProductID is the product used when invoicing this carrier's deliveries
	ProductID *uuid.UUID
	// CreatedAt is when the carrier was created
	CreatedAt time.Time
	// UpdatedAt is when the carrier was last updated
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Repositories
// ---------------------------------------------------------------------------

// PartnerRepository persists partners.
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	Save(ctx context.Context, partner *Partner) error
}

// AddressRepository persists addresses.
type AddressRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Address, error)
	Save(ctx context.Context, address *Address) error
}

// CarrierRepository persists carriers.
type CarrierRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Carrier, error)
	Save(ctx context.Context, carrier *Carrier) error
}
