package importer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// ---------------------------------------------------------------------------
// Customer
// ---------------------------------------------------------------------------

// NewCustomerMapper builds the mapper for remote customers.
func NewCustomerMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelCustomer,
		Direct: []DirectRule{
			{From: "email", To: "email"},
		},
		Computed: []ComputeRule{
			{Name: "name", Fn: mapCustomerName},
			{Name: "flags", Fn: mapCustomerFlags},
		},
	}
}

func mapCustomerName(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	parts := make([]string, 0, 2)
	for _, field := range []string{"firstname", "lastname"} {
		if s := record.Field(field).Str(); s != "" {
			parts = append(parts, s)
		}
	}
	name := strings.Join(parts, " ")
	if name == "" {
		return nil, &connector.MissingFieldError{Field: "lastname"}
	}
	return Values{"name": name}, nil
}

func mapCustomerFlags(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	return Values{
		"newsletter": record.Field("newsletter").Str() == "1",
		"active":     record.Field("active").Str() != "0",
	}, nil
}

// NewCustomerDefinition builds the importable definition for customers.
func NewCustomerDefinition() *Definition {
	return &Definition{
		Model:  connector.ModelCustomer,
		Upsert: upsertCustomer,
	}
}

func upsertCustomer(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	newsletter, _ := values["newsletter"].(bool)
	active, _ := values["active"].(bool)
	partner := &erp.Partner{
		ID:         uuid.New(),
		CompanyID:  run.Env.Backend.CompanyID,
		Name:       values.String("name"),
		Email:      values.String("email"),
		Newsletter: newsletter,
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := run.Env.Partners.Save(ctx, partner); err != nil {
		return uuid.Nil, err
	}
	return partner.ID, nil
}

// ---------------------------------------------------------------------------
// Address
// ---------------------------------------------------------------------------

// NewAddressMapper builds the mapper for remote addresses.
func NewAddressMapper() *Mapper {
	return &Mapper{
		Model: connector.ModelAddress,
		Direct: []DirectRule{
			{From: "address1", To: "street"},
			{From: "address2", To: "street2"},
			{From: "postcode", To: "zip"},
			{From: "city", To: "city"},
		},
		Computed: []ComputeRule{
			{Name: "name", Fn: mapAddressName},
			{Name: "partner", Fn: mapAddressPartner},
			{Name: "phone", Fn: mapAddressPhone},
		},
	}
}

func mapAddressName(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	parts := make([]string, 0, 2)
	for _, field := range []string{"firstname", "lastname"} {
		if s := record.Field(field).Str(); s != "" {
			parts = append(parts, s)
		}
	}
	name := strings.Join(parts, " ")
	if alias := record.Field("alias").Str(); alias != "" {
		if name == "" {
			name = alias
		} else {
			name = name + " (" + alias + ")"
		}
	}
	return Values{"name": name}, nil
}

func mapAddressPartner(ctx context.Context, run *Run, record connector.Value) (Values, error) {
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

// mapAddressPhone prefers the landline, falls back to mobile.
func mapAddressPhone(ctx context.Context, run *Run, record connector.Value) (Values, error) {
	phone := record.Field("phone").Str()
	if phone == "" {
		phone = record.Field("phone_mobile").Str()
	}
	if phone == "" {
		return Values{}, nil
	}
	return Values{"phone": phone}, nil
}

// NewAddressDefinition builds the importable definition for addresses.
func NewAddressDefinition() *Definition {
	return &Definition{
		Model:        connector.ModelAddress,
		Dependencies: addressDependencies,
		Upsert:       upsertAddress,
	}
}

func addressDependencies(ctx context.Context, run *Run, record connector.Value) error {
	customerID, err := record.GetString("id_customer")
	if err != nil {
		return err
	}
	return run.ImportDependency(ctx, connector.ModelCustomer, customerID, true)
}

func upsertAddress(ctx context.Context, run *Run, values Values) (uuid.UUID, error) {
	now := time.Now()
	address := &erp.Address{
		ID:        uuid.New(),
		PartnerID: values.UUID("partner_id"),
		Name:      values.String("name"),
		Street:    values.String("street"),
		Street2:   values.String("street2"),
		Zip:       values.String("zip"),
		City:      values.String("city"),
		Phone:     values.String("phone"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := run.Env.Addresses.Save(ctx, address); err != nil {
		return uuid.Nil, err
	}
	return address.ID, nil
}
