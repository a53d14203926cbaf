package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// boundModels are the models the binder tracks for every backend.
var boundModels = []connector.Model{
	connector.ModelCustomer,
	connector.ModelAddress,
	connector.ModelCarrier,
	connector.ModelProductTemplate,
	connector.ModelSaleOrder,
	connector.ModelMessageThread,
	connector.ModelMessage,
}

// Stores bundles the persistent repositories shared by every backend's
// pipeline.
type Stores struct {
	Tx Tx

	Bindings     connector.BindingRepository
	Backends     connector.BackendRepository
	Checkpoints  connector.CheckpointRepository
	PaymentModes connector.PaymentModeRepository

	Partners  erp.PartnerRepository
	Addresses erp.AddressRepository
	Carriers  erp.CarrierRepository
	Products  erp.ProductRepository
	Orders    erp.SaleOrderRepository
	Threads   erp.ThreadRepository
	Messages  erp.MessageRepository
}

// AdapterDialer builds the remote adapter registry for one backend's
// location and credentials.
type AdapterDialer func(backend *connector.Backend) connector.AdapterRegistry

// EnvironmentFactory assembles per-backend import environments on demand.
// Jobs carry only a backend ID; the factory rehydrates everything else.
type EnvironmentFactory struct {
	stores Stores
	dial   AdapterDialer
	logger *zap.Logger
}

// NewEnvironmentFactory creates a factory over shared stores and a dialer.
func NewEnvironmentFactory(stores Stores, dial AdapterDialer, logger *zap.Logger) *EnvironmentFactory {
	return &EnvironmentFactory{stores: stores, dial: dial, logger: logger}
}

// ForBackend loads the backend and assembles its environment.
func (f *EnvironmentFactory) ForBackend(ctx context.Context, backendID uuid.UUID) (*Environment, error) {
	backend, err := f.stores.Backends.FindByID(ctx, backendID)
	if err != nil {
		return nil, fmt.Errorf("environment for backend %s: %w", backendID, err)
	}

	binder, err := NewBackendBinder(backend.ID, f.stores.Bindings, boundModels...)
	if err != nil {
		return nil, err
	}

	return &Environment{
		Backend:      backend,
		Binder:       binder,
		Adapters:     f.dial(backend),
		Tx:           f.stores.Tx,
		Backends:     f.stores.Backends,
		Checkpoints:  f.stores.Checkpoints,
		PaymentModes: f.stores.PaymentModes,
		Partners:     f.stores.Partners,
		Addresses:    f.stores.Addresses,
		Carriers:     f.stores.Carriers,
		Products:     f.stores.Products,
		Orders:       f.stores.Orders,
		Threads:      f.stores.Threads,
		Messages:     f.stores.Messages,
		Logger:       f.logger,
	}, nil
}
