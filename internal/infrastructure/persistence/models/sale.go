package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// PartnerModel is the persistence model for the Partner entity.
type PartnerModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	CompanyID  uuid.UUID `gorm:"type:uuid;index"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Email      string    `gorm:"type:varchar(255);index"`
	Newsletter bool      `gorm:"not null;default:false"`
	Active     bool      `gorm:"not null;default:true"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "partners"
}

// ToDomain converts the persistence model to a domain Partner entity.
func (m *PartnerModel) ToDomain() *erp.Partner {
	return &erp.Partner{
		ID:         m.ID,
		CompanyID:  m.CompanyID,
		Name:       m.Name,
		Email:      m.Email,
		Newsletter: m.Newsletter,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// PartnerModelFromDomain creates a persistence model from a domain Partner.
func PartnerModelFromDomain(p *erp.Partner) *PartnerModel {
	return &PartnerModel{
		ID:         p.ID,
		CompanyID:  p.CompanyID,
		Name:       p.Name,
		Email:      p.Email,
		Newsletter: p.Newsletter,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// AddressModel is the persistence model for the Address entity.
type AddressModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	PartnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(255)"`
	Street    string    `gorm:"type:varchar(255)"`
	Street2   string    `gorm:"type:varchar(255)"`
	Zip       string    `gorm:"type:varchar(32)"`
	City      string    `gorm:"type:varchar(128)"`
	Phone     string    `gorm:"type:varchar(64)"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AddressModel) TableName() string {
	return "partner_addresses"
}

// ToDomain converts the persistence model to a domain Address entity.
func (m *AddressModel) ToDomain() *erp.Address {
	return &erp.Address{
		ID:        m.ID,
		PartnerID: m.PartnerID,
		Name:      m.Name,
		Street:    m.Street,
		Street2:   m.Street2,
		Zip:       m.Zip,
		City:      m.City,
		Phone:     m.Phone,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// AddressModelFromDomain creates a persistence model from a domain Address.
func AddressModelFromDomain(a *erp.Address) *AddressModel {
	return &AddressModel{
		ID:        a.ID,
		PartnerID: a.PartnerID,
		Name:      a.Name,
		Street:    a.Street,
		Street2:   a.Street2,
		Zip:       a.Zip,
		City:      a.City,
		Phone:     a.Phone,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// CarrierModel is the persistence model for the Carrier entity.
type CarrierModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name      string     `gorm:"type:varchar(255);not null"`
	ProductID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CarrierModel) TableName() string {
	return "delivery_carriers"
}

// ToDomain converts the persistence model to a domain Carrier entity.
func (m *CarrierModel) ToDomain() *erp.Carrier {
	return &erp.Carrier{
		ID:        m.ID,
		Name:      m.Name,
		ProductID: m.ProductID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// CarrierModelFromDomain creates a persistence model from a domain Carrier.
func CarrierModelFromDomain(c *erp.Carrier) *CarrierModel {
	return &CarrierModel{
		ID:        c.ID,
		Name:      c.Name,
		ProductID: c.ProductID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// ProductTemplateModel is the persistence model for the ProductTemplate
// entity.
type ProductTemplateModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key"`
	CompanyID uuid.UUID       `gorm:"type:uuid;index"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Reference string          `gorm:"type:varchar(64);index"`
	ListPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductTemplateModel) TableName() string {
	return "product_templates"
}

// ToDomain converts the persistence model to a domain ProductTemplate entity.
func (m *ProductTemplateModel) ToDomain() *erp.ProductTemplate {
	return &erp.ProductTemplate{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		Name:      m.Name,
		Reference: m.Reference,
		ListPrice: m.ListPrice,
		Active:    m.Active,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductTemplateModelFromDomain creates a persistence model from a domain
// ProductTemplate.
func ProductTemplateModelFromDomain(p *erp.ProductTemplate) *ProductTemplateModel {
	return &ProductTemplateModel{
		ID:        p.ID,
		CompanyID: p.CompanyID,
		Name:      p.Name,
		Reference: p.Reference,
		ListPrice: p.ListPrice,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// SaleOrderModel is the persistence model for the SaleOrder aggregate. Lines
// are loaded and saved with the order.
type SaleOrderModel struct {
	ID                       uuid.UUID            `gorm:"type:uuid;primary_key"`
	CompanyID                uuid.UUID            `gorm:"type:uuid;not null;uniqueIndex:idx_sale_order_name,priority:1"`
	Name                     string               `gorm:"type:varchar(64);not null;uniqueIndex:idx_sale_order_name,priority:2"`
	PartnerID                uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceAddressID         uuid.UUID            `gorm:"type:uuid"`
	ShippingAddressID        uuid.UUID            `gorm:"type:uuid"`
	PricelistID              uuid.UUID            `gorm:"type:uuid"`
	TeamID                   *uuid.UUID           `gorm:"type:uuid"`
	CarrierID                *uuid.UUID           `gorm:"type:uuid"`
	PaymentModeID            uuid.UUID            `gorm:"type:uuid"`
	DateOrder                time.Time            `gorm:"not null;index"`
	TotalAmount              decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	AmountUntaxed            decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalAmountTax           decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalShippingTaxIncluded decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	TotalShippingTaxExcluded decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	InvoiceNumber            string               `gorm:"type:varchar(64)"`
	DeliveryNumber           string               `gorm:"type:varchar(64)"`
	Lines                    []SaleOrderLineModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time            `gorm:"not null"`
	UpdatedAt                time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleOrderModel) TableName() string {
	return "sale_orders"
}

// SaleOrderLineModel is the persistence model for one order line.
type SaleOrderLineModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name            string          `gorm:"type:varchar(255);not null"`
	Sequence        int             `gorm:"not null;default:0"`
	ProductID       *uuid.UUID      `gorm:"type:uuid"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PriceUnit       decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	IsDelivery      bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SaleOrderLineModel) TableName() string {
	return "sale_order_lines"
}

// ToDomain converts the persistence model to a domain SaleOrder aggregate.
func (m *SaleOrderModel) ToDomain() *erp.SaleOrder {
	order := &erp.SaleOrder{
		ID:                       m.ID,
		CompanyID:                m.CompanyID,
		Name:                     m.Name,
		PartnerID:                m.PartnerID,
		InvoiceAddressID:         m.InvoiceAddressID,
		ShippingAddressID:        m.ShippingAddressID,
		PricelistID:              m.PricelistID,
		TeamID:                   m.TeamID,
		CarrierID:                m.CarrierID,
		PaymentModeID:            m.PaymentModeID,
		DateOrder:                m.DateOrder,
		TotalAmount:              m.TotalAmount,
		AmountUntaxed:            m.AmountUntaxed,
		TotalAmountTax:           m.TotalAmountTax,
		TotalShippingTaxIncluded: m.TotalShippingTaxIncluded,
		TotalShippingTaxExcluded: m.TotalShippingTaxExcluded,
		InvoiceNumber:            m.InvoiceNumber,
		DeliveryNumber:           m.DeliveryNumber,
		Lines:                    make([]erp.SaleOrderLine, len(m.Lines)),
		CreatedAt:                m.CreatedAt,
		UpdatedAt:                m.UpdatedAt,
	}
	for i, line := range m.Lines {
		order.Lines[i] = erp.SaleOrderLine{
			ID:              line.ID,
			OrderID:         line.OrderID,
			Name:            line.Name,
			Sequence:        line.Sequence,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceUnit:       line.PriceUnit,
			DiscountPercent: line.DiscountPercent,
			IsDelivery:      line.IsDelivery,
		}
	}
	return order
}

// SaleOrderModelFromDomain creates a persistence model from a domain
// SaleOrder.
func SaleOrderModelFromDomain(o *erp.SaleOrder) *SaleOrderModel {
	m := &SaleOrderModel{
		ID:                       o.ID,
		CompanyID:                o.CompanyID,
		Name:                     o.Name,
		PartnerID:                o.PartnerID,
		InvoiceAddressID:         o.InvoiceAddressID,
		ShippingAddressID:        o.ShippingAddressID,
		PricelistID:              o.PricelistID,
		TeamID:                   o.TeamID,
		CarrierID:                o.CarrierID,
		PaymentModeID:            o.PaymentModeID,
		DateOrder:                o.DateOrder,
		TotalAmount:              o.TotalAmount,
		AmountUntaxed:            o.AmountUntaxed,
		TotalAmountTax:           o.TotalAmountTax,
		TotalShippingTaxIncluded: o.TotalShippingTaxIncluded,
		TotalShippingTaxExcluded: o.TotalShippingTaxExcluded,
		InvoiceNumber:            o.InvoiceNumber,
		DeliveryNumber:           o.DeliveryNumber,
		Lines:                    make([]SaleOrderLineModel, len(o.Lines)),
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
	for i, line := range o.Lines {
		m.Lines[i] = SaleOrderLineModel{
			ID:              line.ID,
			OrderID:         line.OrderID,
			Name:            line.Name,
			Sequence:        line.Sequence,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceUnit:       line.PriceUnit,
			DiscountPercent: line.DiscountPercent,
			IsDelivery:      line.IsDelivery,
		}
	}
	return m
}

// MessageThreadModel is the persistence model for the MessageThread entity.
type MessageThreadModel struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrderID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorID  *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MessageThreadModel) TableName() string {
	return "order_message_threads"
}

// ToDomain converts the persistence model to a domain MessageThread entity.
func (m *MessageThreadModel) ToDomain() *erp.MessageThread {
	return &erp.MessageThread{
		ID:        m.ID,
		OrderID:   m.OrderID,
		AuthorID:  m.AuthorID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MessageThreadModelFromDomain creates a persistence model from a domain
// MessageThread.
func MessageThreadModelFromDomain(t *erp.MessageThread) *MessageThreadModel {
	return &MessageThreadModel{
		ID:        t.ID,
		OrderID:   t.OrderID,
		AuthorID:  t.AuthorID,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// MessageModel is the persistence model for the Message entity.
type MessageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	ThreadID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Body      string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MessageModel) TableName() string {
	return "order_messages"
}

// ToDomain converts the persistence model to a domain Message entity.
func (m *MessageModel) ToDomain() *erp.Message {
	return &erp.Message{
		ID:        m.ID,
		ThreadID:  m.ThreadID,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// MessageModelFromDomain creates a persistence model from a domain Message.
func MessageModelFromDomain(msg *erp.Message) *MessageModel {
	return &MessageModel{
		ID:        msg.ID,
		ThreadID:  msg.ThreadID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
		UpdatedAt: msg.UpdatedAt,
	}
}
