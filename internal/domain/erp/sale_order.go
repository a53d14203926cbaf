package erp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// SaleOrder Aggregate
// ---------------------------------------------------------------------------

// SaleOrder is a sales order created from a remote shop order. Lines are part
// of the aggregate and saved with it.
type SaleOrder struct {
	// ID is the unique identifier of the order
	ID uuid.UUID
	// CompanyID scopes the order to one company
	CompanyID uuid.UUID
	// Name is the order's display name; defaults to the remote reference,
	// disambiguated with a numeric suffix on collision
	Name string
	// PartnerID is the ordering customer
	PartnerID uuid.UUID
	// InvoiceAddressID is the invoicing address
	InvoiceAddressID uuid.UUID
	// ShippingAddressID is the delivery address
	ShippingAddressID uuid.UUID
	// PricelistID is the applied price list
	PricelistID uuid.UUID
	// TeamID is the assigned sales team, optional
	TeamID *uuid.UUID
	// CarrierID is the bound delivery carrier, optional
	CarrierID *uuid.UUID
	// PaymentModeID is the resolved payment mode
	PaymentModeID uuid.UUID
	// DateOrder is the remote order date
	DateOrder time.Time
	// TotalAmount is the total paid on the remote shop
	TotalAmount decimal.Decimal
	// AmountUntaxed is the line-derived untaxed total, rederived whenever
	// lines are added after the initial mapping
	AmountUntaxed decimal.Decimal
	// TotalAmountTax is the tax part of the total
	TotalAmountTax decimal.Decimal
	// TotalShippingTaxIncluded is the remote shipping total, taxes included
	TotalShippingTaxIncluded decimal.Decimal
	// TotalShippingTaxExcluded is the remote shipping total, taxes excluded
	TotalShippingTaxExcluded decimal.Decimal
	// InvoiceNumber is the remote invoice number
	InvoiceNumber string
	// DeliveryNumber is the remote delivery slip number
	DeliveryNumber string
	// Lines are the order lines, discount and shipping lines included
	Lines []SaleOrderLine
	// CreatedAt is when the order was created
	CreatedAt time.Time
	// UpdatedAt is when the order was last updated
	UpdatedAt time.Time
}

// SaleOrderLine is one line of a sales order.
type SaleOrderLine struct {
	// ID is the unique identifier of the line
	ID uuid.UUID
	// OrderID is the owning order
	OrderID uuid.UUID
	// Name is the line description
	Name string
	// Sequence orders lines within the order
	Sequence int
	// ProductID is the sold product; nil when the product could not be
	// imported, surfaced to operators through a checkpoint
	ProductID *uuid.UUID
	// Quantity is the ordered quantity
	Quantity decimal.Decimal
	// PriceUnit is the undiscounted unit price
	PriceUnit decimal.Decimal
	// DiscountPercent is the percentage reduction applied to PriceUnit
	DiscountPercent decimal.Decimal
	// TaxIDs are the applied taxes
	TaxIDs []uuid.UUID
	// IsDelivery marks the materialized shipping line
	IsDelivery bool
}

// Subtotal returns the line total after discount.
func (l *SaleOrderLine) Subtotal() decimal.Decimal {
	gross := l.PriceUnit.Mul(l.Quantity)
	if l.DiscountPercent.IsZero() {
		return gross
	}
	factor := decimal.NewFromInt(100).Sub(l.DiscountPercent).Div(decimal.NewFromInt(100))
	return gross.Mul(factor)
}

// AddLine appends a line to the order.
func (o *SaleOrder) AddLine(line SaleOrderLine) {
	if line.ID == uuid.Nil {
		line.ID = uuid.New()
	}
	line.OrderID = o.ID
	o.Lines = append(o.Lines, line)
	o.UpdatedAt = time.Now()
}

// AddDeliveryLine materializes a shipping charge line for the bound carrier.
// Added even for a zero amount so downstream delivery processing does not
// create a duplicate later.
func (o *SaleOrder) AddDeliveryLine(shippingProductID uuid.UUID, description string, amount decimal.Decimal) {
	productID := shippingProductID
	o.AddLine(SaleOrderLine{
		Name:       description,
		Sequence:   len(o.Lines) + 1,
		ProductID:  &productID,
		Quantity:   decimal.NewFromInt(1),
		PriceUnit:  amount,
		IsDelivery: true,
	})
}

// RecomputeAmounts rederives the untaxed total from the lines. The remote
// total and tax figures stay as imported; this keeps the line-derived amount
// consistent after post-import line additions.
func (o *SaleOrder) RecomputeAmounts() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Subtotal())
	}
	o.AmountUntaxed = total
	o.UpdatedAt = time.Now()
	return total
}

// ---------------------------------------------------------------------------
// SaleOrderRepository
// ---------------------------------------------------------------------------

// SaleOrderRepository persists sales orders with their lines.
type SaleOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SaleOrder, error)
	Save(ctx context.Context, order *SaleOrder) error

	// ExistsByName reports whether an order with the given display name
	// already exists in the company scope. Used for last-resort name
	// disambiguation, not as a business key.
	ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
}
