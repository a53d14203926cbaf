package importer

import (
	"context"

	"go.uber.org/zap"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
)

// Tx runs a function atomically with respect to the underlying store. The
// importer uses it to keep the internal record and its binding in one
// transaction; a record without its binding would break idempotence.
type Tx interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

// Environment aggregates everything one backend's import pipeline needs:
// the backend configuration, the binder scoped to it, the remote adapters
// and the internal repositories.
type Environment struct {
	Backend *connector.Backend
	Binder  connector.Binder

	Adapters connector.AdapterRegistry
	Tx       Tx

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

	Logger *zap.Logger
}

// logger returns the environment's logger, never nil.
func (e *Environment) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// nopTx is used when no transactional store is wired, e.g. in tests with
// in-memory repositories.
type nopTx struct{}

func (nopTx) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// tx returns the environment's transaction runner, never nil.
func (e *Environment) tx() Tx {
	if e.Tx == nil {
		return nopTx{}
	}
	return e.Tx
}
