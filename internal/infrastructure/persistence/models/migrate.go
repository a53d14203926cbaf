package models

// All returns every persistence model, in dependency order, for schema
// migration.
func All() []any {
	return []any{
		&BackendModel{},
		&BindingModel{},
		&CheckpointModel{},
		&PaymentModeModel{},
		&PartnerModel{},
		&AddressModel{},
		&CarrierModel{},
		&ProductTemplateModel{},
		&SaleOrderModel{},
		&SaleOrderLineModel{},
		&MessageThreadModel{},
		&MessageModel{},
	}
}
