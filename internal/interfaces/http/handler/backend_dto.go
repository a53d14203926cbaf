package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
)

// CreateBackendRequest represents the request to register a shop backend
type CreateBackendRequest struct {
	Name          string `json:"name" binding:"required"`
	Location      string `json:"location" binding:"required,url"`
	WebserviceKey string `json:"webservice_key" binding:"required"`
	Version       string `json:"version" binding:"required"`
}

// UpdateBackendRequest represents the request to update a backend. Only the
// fields present in the body are applied.
type UpdateBackendRequest struct {
	Name              *string    `json:"name"`
	Location          *string    `json:"location" binding:"omitempty,url"`
	WebserviceKey     *string    `json:"webservice_key"`
	Version           *string    `json:"version"`
	CompanyID         *uuid.UUID `json:"company_id"`
	WarehouseID       *uuid.UUID `json:"warehouse_id"`
	PricelistID       *uuid.UUID `json:"pricelist_id"`
	SaleTeamID        *uuid.UUID `json:"sale_team_id"`
	DiscountProductID *uuid.UUID `json:"discount_product_id"`
	ShippingProductID *uuid.UUID `json:"shipping_product_id"`
	TaxesIncluded     *bool      `json:"taxes_included"`
}

// BackendResponse represents a backend in API responses. The webservice key
// is a credential and is never echoed back.
type BackendResponse struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Location          string     `json:"location"`
	Version           string     `json:"version"`
	CompanyID         uuid.UUID  `json:"company_id"`
	WarehouseID       uuid.UUID  `json:"warehouse_id"`
	PricelistID       uuid.UUID  `json:"pricelist_id"`
	SaleTeamID        *uuid.UUID `json:"sale_team_id,omitempty"`
	DiscountProductID uuid.UUID  `json:"discount_product_id"`
	ShippingProductID uuid.UUID  `json:"shipping_product_id"`
	TaxesIncluded     bool       `json:"taxes_included"`

	ImportPartnersSince  *time.Time `json:"import_partners_since,omitempty"`
	ImportOrdersSince    *time.Time `json:"import_orders_since,omitempty"`
	ImportProductsSince  *time.Time `json:"import_products_since,omitempty"`
	ImportRefundsSince   *time.Time `json:"import_refunds_since,omitempty"`
	ImportSuppliersSince *time.Time `json:"import_suppliers_since,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toBackendResponse converts a backend to its API representation
func toBackendResponse(b *connector.Backend) BackendResponse {
	return BackendResponse{
		ID:                   b.ID,
		Name:                 b.Name,
		Location:             b.Location,
		Version:              b.Version.String(),
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

// TriggerImportRequest represents the request to enqueue an import. With an
// external ID a single record is imported; without one a batch search is
// enqueued using the optional filters.
type TriggerImportRequest struct {
	Model      string            `json:"model" binding:"required"`
	ExternalID string            `json:"external_id"`
	Filters    map[string]string `json:"filters"`
	Priority   int               `json:"priority" binding:"min=0"`
	MaxRetries int               `json:"max_retries" binding:"min=0"`
}

// ImportQueuedResponse acknowledges an enqueued import
type ImportQueuedResponse struct {
	BackendID  uuid.UUID         `json:"backend_id"`
	Model      string            `json:"model"`
	ExternalID string            `json:"external_id,omitempty"`
	Filters    map[string]string `json:"filters,omitempty"`
	QueuedAt   time.Time         `json:"queued_at"`
}

// ConnectionCheckResponse reports the result of a webservice probe
type ConnectionCheckResponse struct {
	BackendID uuid.UUID `json:"backend_id"`
	Location  string    `json:"location"`
	Reachable bool      `json:"reachable"`
	Error     string    `json:"error,omitempty"`
}

// CheckpointResponse represents an import checkpoint in API responses
type CheckpointResponse struct {
	ID        uuid.UUID  `json:"id"`
	BackendID uuid.UUID  `json:"backend_id"`
	Model     string     `json:"model,omitempty"`
	RecordID  *uuid.UUID `json:"record_id,omitempty"`
	Message   string     `json:"message"`
	Resolved  bool       `json:"resolved"`
	CreatedAt time.Time  `json:"created_at"`
}

// toCheckpointResponse converts a checkpoint to its API representation
func toCheckpointResponse(cp *connector.Checkpoint) CheckpointResponse {
	return CheckpointResponse{
		ID:        cp.ID,
		BackendID: cp.BackendID,
		Model:     string(cp.Model),
		RecordID:  cp.RecordID,
		Message:   cp.Message,
		Resolved:  cp.Resolved,
		CreatedAt: cp.CreatedAt,
	}
}

// SavePaymentModeRequest represents the request to configure a payment mode
type SavePaymentModeRequest struct {
	Rule             string `json:"rule" binding:"required"`
	DaysBeforeCancel int    `json:"days_before_cancel" binding:"min=0"`
}

// PaymentModeResponse represents a payment mode in API responses
type PaymentModeResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Rule             string    `json:"rule"`
	DaysBeforeCancel int       `json:"days_before_cancel"`
}

// toPaymentModeResponse converts a payment mode to its API representation
func toPaymentModeResponse(mode *connector.PaymentMode) PaymentModeResponse {
	return PaymentModeResponse{
		ID:               mode.ID,
		Name:             mode.Name,
		Rule:             mode.Rule.String(),
		DaysBeforeCancel: mode.DaysBeforeCancel,
	}
}
