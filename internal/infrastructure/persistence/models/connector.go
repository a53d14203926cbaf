package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// BindingModel is the persistence model for the Binding domain entity. The
// composite unique index is the coordination primitive concurrent imports of
// the same record rely on.
type BindingModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	BackendID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_binding_identity,priority:3"`
	Model      connector.Model `gorm:"type:varchar(64);not null;uniqueIndex:idx_binding_identity,priority:1"`
	ExternalID string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_binding_identity,priority:2"`
	InternalID uuid.UUID       `gorm:"type:uuid;not null;index:idx_binding_internal"`
	SyncedAt   time.Time       `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BindingModel) TableName() string {
	return "connector_bindings"
}

// ToDomain converts the persistence model to a domain Binding entity.
func (m *BindingModel) ToDomain() *connector.Binding {
	return &connector.Binding{
		ID:         m.ID,
		BackendID:  m.BackendID,
		Model:      m.Model,
		ExternalID: m.ExternalID,
		InternalID: m.InternalID,
		SyncedAt:   m.SyncedAt,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// BindingModelFromDomain creates a persistence model from a domain Binding.
func BindingModelFromDomain(b *connector.Binding) *BindingModel {
	return &BindingModel{
		ID:         b.ID,
		BackendID:  b.BackendID,
		Model:      b.Model,
		ExternalID: b.ExternalID,
		InternalID: b.InternalID,
		SyncedAt:   b.SyncedAt,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// BackendModel is the persistence model for the Backend aggregate.
type BackendModel struct {
	ID                uuid.UUID            `gorm:"type:uuid;primary_key"`
	Name              string               `gorm:"type:varchar(128);not null;uniqueIndex"`
	Location          string               `gorm:"type:varchar(512);not null"`
	WebserviceKey     string               `gorm:"type:varchar(128);not null"`
	Version           connector.APIVersion `gorm:"type:varchar(16);not null"`
	CompanyID         uuid.UUID            `gorm:"type:uuid"`
	WarehouseID       uuid.UUID            `gorm:"type:uuid"`
	PricelistID       uuid.UUID            `gorm:"type:uuid"`
	SaleTeamID        *uuid.UUID           `gorm:"type:uuid"`
	DiscountProductID uuid.UUID            `gorm:"type:uuid"`
	ShippingProductID uuid.UUID            `gorm:"type:uuid"`
	TaxesIncluded     bool                 `gorm:"not null;default:false"`

	ImportPartnersSince  *time.Time
	ImportOrdersSince    *time.Time
	ImportProductsSince  *time.Time
	ImportRefundsSince   *time.Time
	ImportSuppliersSince *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BackendModel) TableName() string {
	return "connector_backends"
}

// ToDomain converts the persistence model to a domain Backend aggregate.
func (m *BackendModel) ToDomain() *connector.Backend {
	return &connector.Backend{
		ID:                   m.ID,
		Name:                 m.Name,
		Location:             m.Location,
		WebserviceKey:        m.WebserviceKey,
		Version:              m.Version,
		CompanyID:            m.CompanyID,
		WarehouseID:          m.WarehouseID,
		PricelistID:          m.PricelistID,
		SaleTeamID:           m.SaleTeamID,
		DiscountProductID:    m.DiscountProductID,
		ShippingProductID:    m.ShippingProductID,
		TaxesIncluded:        m.TaxesIncluded,
		ImportPartnersSince:  m.ImportPartnersSince,
		ImportOrdersSince:    m.ImportOrdersSince,
		ImportProductsSince:  m.ImportProductsSince,
		ImportRefundsSince:   m.ImportRefundsSince,
		ImportSuppliersSince: m.ImportSuppliersSince,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

// BackendModelFromDomain creates a persistence model from a domain Backend.
func BackendModelFromDomain(b *connector.Backend) *BackendModel {
	return &BackendModel{
		ID:                   b.ID,
		Name:                 b.Name,
		Location:             b.Location,
		WebserviceKey:        b.WebserviceKey,
		Version:              b.Version,
		CompanyID:            b.CompanyID,
		WarehouseID:          b.WarehouseID,
		PricelistID:          b.PricelistID,
		SaleTeamID:           b.SaleTeamID,
		DiscountProductID:    b.DiscountProductID,
		ShippingProductID:    b.ShippingProductID,
		TaxesIncluded:        b.TaxesIncluded,
		ImportPartnersSince:  b.ImportPartnersSince,
		ImportOrdersSince:    b.ImportOrdersSince,
		ImportProductsSince:  b.ImportProductsSince,
		ImportRefundsSince:   b.ImportRefundsSince,
		ImportSuppliersSince: b.ImportSuppliersSince,
		CreatedAt:            b.CreatedAt,
		UpdatedAt:            b.UpdatedAt,
	}
}

// CheckpointModel is the persistence model for the Checkpoint entity.
type CheckpointModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	BackendID uuid.UUID       `gorm:"type:uuid;not null;index:idx_checkpoint_backend"`
	Model     connector.Model `gorm:"type:varchar(64)"`
	RecordID  *uuid.UUID      `gorm:"type:uuid"`
	Message   string          `gorm:"type:text;not null"`
	Resolved  bool            `gorm:"not null;default:false;index:idx_checkpoint_open"`
	CreatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CheckpointModel) TableName() string {
	return "connector_checkpoints"
}

// ToDomain converts the persistence model to a domain Checkpoint entity.
func (m *CheckpointModel) ToDomain() *connector.Checkpoint {
	return &connector.Checkpoint{
		ID:        m.ID,
		BackendID: m.BackendID,
		Model:     m.Model,
		RecordID:  m.RecordID,
		Message:   m.Message,
		Resolved:  m.Resolved,
		CreatedAt: m.CreatedAt,
	}
}

// CheckpointModelFromDomain creates a persistence model from a domain
// Checkpoint.
func CheckpointModelFromDomain(c *connector.Checkpoint) *CheckpointModel {
	return &CheckpointModel{
		ID:        c.ID,
		BackendID: c.BackendID,
		Model:     c.Model,
		RecordID:  c.RecordID,
		Message:   c.Message,
		Resolved:  c.Resolved,
		CreatedAt: c.CreatedAt,
	}
}

// PaymentModeModel is the persistence model for the PaymentMode entity.
type PaymentModeModel struct {
	ID               uuid.UUID            `gorm:"type:uuid;primary_key"`
	Name             string               `gorm:"type:varchar(128);not null;uniqueIndex"`
	Rule             connector.ImportRule `gorm:"type:varchar(16);not null"`
	DaysBeforeCancel int                  `gorm:"not null;default:0"`
	CreatedAt        time.Time            `gorm:"not null"`
	UpdatedAt        time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentModeModel) TableName() string {
	return "connector_payment_modes"
}

// ToDomain converts the persistence model to a domain PaymentMode entity.
func (m *PaymentModeModel) ToDomain() *connector.PaymentMode {
	return &connector.PaymentMode{
		ID:               m.ID,
		Name:             m.Name,
		Rule:             m.Rule,
		DaysBeforeCancel: m.DaysBeforeCancel,
	}
}

// PaymentModeModelFromDomain creates a persistence model from a domain
// PaymentMode.
func PaymentModeModelFromDomain(p *connector.PaymentMode) *PaymentModeModel {
	return &PaymentModeModel{
		ID:               p.ID,
		Name:             p.Name,
		Rule:             p.Rule,
		DaysBeforeCancel: p.DaysBeforeCancel,
	}
}
