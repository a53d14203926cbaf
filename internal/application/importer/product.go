package importer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// ---------------------------------------------------------------------------
// Product
// ---------------------------------------------------------------------------

// NewProductMapper builds the mapper for remote products.
func NewProductMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelProductTemplate,
		Direct: []DirectRule{
			{From: "reference", To: "reference"},
		},
		Computed: []ComputeRule{
			{Name: "name", Fn: mapProductName},
			{Name: "price", Fn: mapProductPrice},
			{Name: "active", Fn: mapProductActive},
		},
	}
}

// mapProductName reads the possibly-translated product name. Multi-language
// shops nest name values per language; the first one wins.
func mapProductName(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	name := translatedText(record.Field("name"))
	if name == "" {
		return nil, &connector.MissingFieldError{Field: "name"}
	}
	return Values{"name": name}, nil
}

// translatedText flattens a possibly language-wrapped scalar. Single-language
// shops serialize a plain string; multi-language shops wrap values in a
// language association.
func translatedText(v connector.Value) string {
	if v.Kind() == connector.KindString {
		return v.Str()
	}
	for _, entry := range v.Field("language").AsList() {
		if entry.Kind() == connector.KindString {
			return entry.Str()
		}
		if s := entry.Field("value").Str(); s != "" {
			return s
		}
	}
	return ""
}

func mapProductPrice(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	if !record.Has("price") {
		return Values{}, nil
	}
	price, err := record.GetDecimal("price")
	if err != nil {
		return nil, err
	}
	return Values{"list_price": price}, nil
}

func mapProductActive(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	return Values{"active": record.Field("active").Str() != "0"}, nil
}

// NewProductDefinition builds the importable definition for products.
func NewProductDefinition() *Definition {
	return &Definition{
		Model:  connector.ModelProductTemplate,
		Upsert: upsertProduct,
	}
}

func upsertProduct(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	active, _ := values["active"].(bool)
	product := &erp.ProductTemplate{
		ID:        uuid.New(),
		CompanyID: run.Env.Backend.CompanyID,
		Name:      values.String("name"),
		Reference: values.String("reference"),
		ListPrice: values.Decimal("list_price"),
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := run.Env.Products.Save(ctx, product); err != nil {
		return uuid.Nil, err
	}
	return product.ID, nil
}

// ---------------------------------------------------------------------------
// Carrier
// ---------------------------------------------------------------------------

// NewCarrierMapper builds the mapper for remote carriers.
func NewCarrierMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelCarrier,
		Computed: []ComputeRule{
			{Name: "name", Fn: mapCarrierName},
		},
	}
}

func mapCarrierName(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	name := translatedText(record.Field("name"))
	if name == "" {
		return nil, &connector.MissingFieldError{Field: "name"}
	}
	return Values{"name": name}, nil
}

// NewCarrierDefinition builds the importable definition for carriers.
func NewCarrierDefinition() *Definition {
	return &Definition{
		Model:  connector.ModelCarrier,
		Upsert: upsertCarrier,
	}
}

func upsertCarrier(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	productID := run.Env.Backend.ShippingProductID
	carrier := &erp.Carrier{
		ID:        uuid.New(),
		Name:      values.String("name"),
		ProductID: &productID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := run.Env.Carriers.Save(ctx, carrier); err != nil {
		return uuid.Nil, err
	}
	return carrier.ID, nil
}
