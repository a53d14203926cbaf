package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

var hundred = decimal.NewFromInt(100)

// ---------------------------------------------------------------------------
// Sale order mapper
// ---------------------------------------------------------------------------

// NewSaleOrderMapper builds the mapper for remote orders. Identifier fields
// are resolved through the binder; the referenced records are guaranteed
// present because dependency resolution runs before mapping.
func NewSaleOrderMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelSaleOrder,
		Direct: []DirectRule{
			{From: "invoice_number", To: "invoice_number"},
			{From: "delivery_number", To: "delivery_number"},
		},
		Computed: []ComputeRule{
			{Name: "name", Fn: mapOrderName},
			{Name: "backend_defaults", Fn: mapOrderBackendDefaults},
			{Name: "partner", Fn: mapOrderPartner},
			{Name: "addresses", Fn: mapOrderAddresses},
			{Name: "carrier", Fn: mapOrderCarrier},
			{Name: "payment_mode", Fn: mapOrderPaymentMode},
			{Name: "date_order", Fn: mapOrderDate},
			{Name: "amounts", Fn: mapOrderAmounts},
		},
		Children: []ChildRule{
			{Extract: extractOrderRows, To: "lines", Model: connector.ModelSaleOrderLine},
			{Extract: extractOrderDiscounts, To: "discount_lines", Model: connector.ModelSaleOrderDiscount},
		},
		Finalize: finalizeSaleOrder,
	}
}

// finalizeSaleOrder folds the mapped discount lines into the regular line
// set so the upsert sees one ordered list.
func finalizeSaleOrder(ctx context.Context, run *Run, values Values) (Values, error) {
	discounts := values.Children("discount_lines")
	if len(discounts) > 0 {
		values["lines"] = append(values.Children("lines"), discounts...)
	}
	delete(values, "discount_lines")
	return values, nil
}

// mapOrderName maps the remote reference to the order name. When another
// order in the company already carries the name, a numeric suffix
// disambiguates; the reference is a label here, not a business key.
func mapOrderName(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	reference, err := record.GetString("reference")
	if err != nil {
		return nil, err
	}
	name := reference
	for i := 1; ; i++ {
		taken, err := run.Env.Orders.ExistsByName(ctx, run.Env.Backend.CompanyID, name)
		if err != nil {
			return nil, err
		}
		if !taken {
			break
		}
		name = fmt.Sprintf("%s_%d", reference, i)
	}
	return Values{"name": name, "reference": reference}, nil
}

func mapOrderBackendDefaults(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	backend := run.Env.Backend
	values := Values{
		"company_id":   backend.CompanyID,
		"pricelist_id": backend.PricelistID,
	}
	if backend.SaleTeamID != nil {
		values["team_id"] = *backend.SaleTeamID
	}
	return values, nil
}

func mapOrderPartner(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	customerID, err := record.GetString("id_customer")
	if err != nil {
		return nil, err
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelCustomer, customerID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, fmt.Errorf("customer %s is not bound", customerID)
	}
	return Values{"partner_id": binding.InternalID}, nil
}

func mapOrderAddresses(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	values := Values{}
	for field, to := range map[string]string{
		"id_address_invoice":  "partner_invoice_id",
		"id_address_delivery": "partner_shipping_id",
	} {
		addressID, err := record.GetString(field)
		if err != nil {
			return nil, err
		}
		binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelAddress, addressID)
		if err != nil {
			return nil, err
		}
		if binding == nil {
			return nil, fmt.Errorf("address %s is not bound", addressID)
		}
		values[to] = binding.InternalID
	}
	return values, nil
}

// mapOrderCarrier resolves the delivery carrier. "0" is the webservice's
// null foreign key and means no carrier.
func mapOrderCarrier(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	carrierID, err := record.GetString("id_carrier")
	if err != nil {
		return nil, err
	}
	if carrierID == "" || carrierID == "0" {
		return Values{}, nil
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelCarrier, carrierID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return nil, fmt.Errorf("carrier %s is not bound", carrierID)
	}
	carrier, err := run.Env.Carriers.FindByID(ctx, binding.InternalID)
	if err != nil {
		return nil, err
	}
	return Values{"carrier_id": binding.InternalID, "carrier_name": carrier.Name}, nil
}

func mapOrderPaymentMode(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	methodName, err := record.GetString("payment")
	if err != nil {
		return nil, err
	}
	mode, err := run.Env.PaymentModes.FindByName(ctx, methodName)
	if err != nil {
		return nil, err
	}
	if mode == nil {
		// eligibility already validated the mode; reaching this means the
		// configuration changed mid-import
		return nil, connector.NewConfigurationError("payment method %q has no payment mode", methodName)
	}
	return Values{"payment_mode_id": mode.ID}, nil
}

func mapOrderDate(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	dateAdd, err := record.GetString("date_add")
	if err != nil {
		return nil, err
	}
	placed, err := time.Parse(externalTimeLayout, dateAdd)
	if err != nil {
		return nil, fmt.Errorf("order date_add %q: %w", dateAdd, err)
	}
	return Values{"date_order": placed}, nil
}

func mapOrderAmounts(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	values := Values{}
	for field, to := range map[string]string{
		"total_paid":              "amount_total",
		"total_shipping_tax_incl": "total_shipping_tax_included",
		"total_shipping_tax_excl": "total_shipping_tax_excluded",
	} {
		if !record.Has(field) {
			continue
		}
		amount, err := record.GetDecimal(field)
		if err != nil {
			return nil, err
		}
		values[to] = amount
	}
	if record.Has("total_paid_tax_incl") && record.Has("total_paid_tax_excl") {
		incl, err := record.GetDecimal("total_paid_tax_incl")
		if err != nil {
			return nil, err
		}
		excl, err := record.GetDecimal("total_paid_tax_excl")
		if err != nil {
			return nil, err
		}
		values["amount_tax"] = incl.Sub(excl)
	}
	return values, nil
}

// extractOrderRows pulls the order's line stubs out of the associations
// block. The entry key depends on the remote schema version.
func extractOrderRows(ctx context.Context, run *Run, record connector.Value) ([]connector.Value, error) {
	key := run.Env.Backend.Version.AssociationKey("order_row")
	return record.At("associations", "order_rows", key).AsList(), nil
}

// extractOrderDiscounts fetches the order's cart-rule discount stubs. They
// are a separate remote resource, only queried when the order carries a
// nonzero discount total.
func extractOrderDiscounts(ctx context.Context, run *Run, record connector.Value) ([]connector.Value, error) {
	if !record.Has("total_discounts") {
		return nil, nil
	}
	total, err := record.GetDecimal("total_discounts")
	if err != nil {
		return nil, err
	}
	if total.IsZero() {
		return nil, nil
	}
	orderID, err := record.GetString("id")
	if err != nil {
		return nil, err
	}
	adapter, err := run.Env.Adapters.AdapterFor(connector.ModelSaleOrderDiscount)
	if err != nil {
		return nil, err
	}
	ids, err := adapter.Search(ctx, map[string]string{"filter[id_order]": orderID})
	if err != nil {
		return nil, err
	}
	stubs := make([]connector.Value, 0, len(ids))
	for _, id := range ids {
		stubs = append(stubs, connector.Map(map[string]connector.Value{
			"id": connector.String(id),
		}))
	}
	return stubs, nil
}

// ---------------------------------------------------------------------------
// Order line mapper
// ---------------------------------------------------------------------------

// NewSaleOrderLineMapper builds the mapper for remote order rows. The
// undiscounted unit price is not on the wire; it is rebuilt exactly from the
// discounted price and the reduction percentage.
func NewSaleOrderLineMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelSaleOrderLine,
		Direct: []DirectRule{
			{From: "product_name", To: "name"},
			{From: "id_product", To: "external_product_id"},
		},
		Computed: []ComputeRule{
			{Name: "quantity", Fn: mapLineQuantity},
			{Name: "price", Fn: mapLinePrice},
			{Name: "product", Fn: mapLineProduct},
		},
	}
}

func mapLineQuantity(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	qty, err := record.GetDecimal("product_quantity")
	if err != nil {
		return nil, err
	}
	return Values{"quantity": qty}, nil
}

// mapLinePrice rebuilds the undiscounted unit price in exact decimal
// arithmetic. The wire carries the price after reduction; storing it together
// with the reduction percentage would apply the discount twice.
func mapLinePrice(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	priceField := "unit_price_tax_excl"
	if run.Env.Backend.TaxesIncluded {
		priceField = "unit_price_tax_incl"
	}
	price, err := record.GetDecimal(priceField)
	if err != nil {
		return nil, err
	}
	values := Values{"price_unit": price}

	if record.Has("reduction_percent") {
		reduction, err := record.GetDecimal("reduction_percent")
		if err != nil {
			return nil, err
		}
		if !reduction.IsZero() {
			factor := hundred.Sub(reduction).Div(hundred)
			values["price_unit"] = price.Div(factor)
			values["discount"] = reduction
		}
	}
	return values, nil
}

// mapLineProduct resolves the line's product binding. An unbound product is
// not an error here: the parent importer collected the dependency failure and
// will checkpoint the order.
func mapLineProduct(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	productID, err := record.GetString("id_product")
	if err != nil {
		return nil, err
	}
	if productID == "" || productID == "0" {
		return Values{}, nil
	}
	binding, err := run.Env.Binder.ToInternal(ctx, connector.ModelProductTemplate, productID)
	if err != nil {
		return nil, err
	}
	if binding == nil {
		return Values{}, nil
	}
	return Values{"product_id": binding.InternalID}, nil
}

// ---------------------------------------------------------------------------
// Discount line mapper
// ---------------------------------------------------------------------------

// NewSaleOrderDiscountMapper builds the mapper for cart-rule discounts. Each
// discount becomes a negative line on the backend's discount product.
func NewSaleOrderDiscountMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelSaleOrderDiscount,
		Direct: []DirectRule{
			{From: "name", To: "name"},
		},
		Computed: []ComputeRule{
			{Name: "amount", Fn: mapDiscountAmount},
		},
	}
}

func mapDiscountAmount(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	valueField := "value_tax_excl"
	if run.Env.Backend.TaxesIncluded {
		valueField = "value"
	}
	amount, err := record.GetDecimal(valueField)
	if err != nil {
		return nil, err
	}
	// the sign is forced negative regardless of how the remote serialized it
	return Values{
		"price_unit": amount.Abs().Neg(),
		"quantity":   decimal.NewFromInt(1),
		"product_id": run.Env.Backend.DiscountProductID,
	}, nil
}

// ---------------------------------------------------------------------------
// Sale order definition
// ---------------------------------------------------------------------------

// NewSaleOrderDefinition builds the importable definition for sale orders.
func NewSaleOrderDefinition(rules *SaleImportRule) *Definition {
	return &Definition{
		Model:        connector.ModelSaleOrder,
		Dependencies: saleOrderDependencies,
		SkipCheck:    rules.Check,
		Upsert:       upsertSaleOrder,
		AfterImport:  saleOrderAfterImport,
	}
}

// saleOrderDependencies imports the records an order references before the
// order itself. The customer, both addresses and the carrier are required;
// line products are not, a missing one degrades the line and raises a
// checkpoint instead of failing the order.
func saleOrderDependencies(ctx context.Context, run *Run, record connector.Value) error {
	customerID, err := record.GetString("id_customer")
	if err != nil {
		return err
	}
	if err := run.ImportDependency(ctx, connector.ModelCustomer, customerID, true); err != nil {
		return err
	}
	for _, field := range []string{"id_address_invoice", "id_address_delivery"} {
		addressID, err := record.GetString(field)
		if err != nil {
			return err
		}
		if err := run.ImportDependency(ctx, connector.ModelAddress, addressID, true); err != nil {
			return err
		}
	}
	if record.Has("id_carrier") {
		carrierID, _ := record.GetString("id_carrier")
		if err := run.ImportDependency(ctx, connector.ModelCarrier, carrierID, true); err != nil {
			return err
		}
	}

	key := run.Env.Backend.Version.AssociationKey("order_row")
	for _, row := range record.At("associations", "order_rows", key).AsList() {
		productID, err := row.GetString("product_id")
		if err != nil {
			// some schema versions carry id_product on the stub instead
			productID, err = row.GetString("id_product")
			if err != nil {
				continue
			}
		}
		if err := run.ImportDependency(ctx, connector.ModelProductTemplate, productID, false); err != nil {
			return err
		}
	}
	return nil
}

// upsertSaleOrder materializes the mapped value set as a sales order with its
// lines.
func upsertSaleOrder(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	order := &erp.SaleOrder{
		ID:                       uuid.New(),
		CompanyID:                values.UUID("company_id"),
		Name:                     values.String("name"),
		PartnerID:                values.UUID("partner_id"),
		InvoiceAddressID:         values.UUID("partner_invoice_id"),
		ShippingAddressID:        values.UUID("partner_shipping_id"),
		PricelistID:              values.UUID("pricelist_id"),
		TeamID:                   values.OptUUID("team_id"),
		CarrierID:                values.OptUUID("carrier_id"),
		PaymentModeID:            values.UUID("payment_mode_id"),
		DateOrder:                values.Time("date_order"),
		TotalAmount:              values.Decimal("amount_total"),
		TotalAmountTax:           values.Decimal("amount_tax"),
		TotalShippingTaxIncluded: values.Decimal("total_shipping_tax_included"),
		TotalShippingTaxExcluded: values.Decimal("total_shipping_tax_excluded"),
		InvoiceNumber:            values.String("invoice_number"),
		DeliveryNumber:           values.String("delivery_number"),
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	// discount lines were folded into "lines" by the mapper's finalize step
	sequence := 0
	for _, line := range values.Children("lines") {
		sequence++
		order.AddLine(erp.SaleOrderLine{
			Name:            line.String("name"),
			Sequence:        sequence,
			ProductID:       line.OptUUID("product_id"),
			Quantity:        line.Decimal("quantity"),
			PriceUnit:       line.Decimal("price_unit"),
			DiscountPercent: line.Decimal("discount"),
		})
	}
	order.RecomputeAmounts()

	if err := run.Env.Orders.Save(ctx, order); err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

// saleOrderAfterImport materializes the shipping line for orders with a
// bound carrier and checkpoints the order when line products could not be
// imported.
func saleOrderAfterImport(ctx context.Context, run *Run, internalID uuid.UUID, values Values) error {
	if values.OptUUID("carrier_id") != nil {
		order, err := run.Env.Orders.FindByID(ctx, internalID)
		if err != nil {
			return err
		}
		shipping := values.Decimal("total_shipping_tax_excluded")
		if run.Env.Backend.TaxesIncluded {
			shipping = values.Decimal("total_shipping_tax_included")
		}
		description := values.String("carrier_name")
		if description == "" {
			description = "Shipping costs"
		}
		order.AddDeliveryLine(run.Env.Backend.ShippingProductID, description, shipping)
		order.RecomputeAmounts()
		if err := run.Env.Orders.Save(ctx, order); err != nil {
			return err
		}
	}

	name := values.String("name")
	for _, lineErr := range run.LineErrors {
		checkpoint := connector.NewRecordCheckpoint(
			run.Env.Backend.ID, connector.ModelSaleOrder, internalID,
			fmt.Sprintf("order %s: %s %s could not be imported: %v",
				name, lineErr.Model, lineErr.ExternalID, lineErr.Err))
		if err := run.Env.Checkpoints.Add(ctx, checkpoint); err != nil {
			return err
		}
		run.Env.logger().Warn("order imported with degraded lines",
			zap.String("order", name),
			zap.String("model", lineErr.Model.String()),
			zap.String("external_id", lineErr.ExternalID))
	}
	return nil
}
