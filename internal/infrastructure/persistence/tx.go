package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/guadaltech/connector-prestashop/internal/application/importer"
)

type txKey struct{}

// GormTx implements the importer's transaction port. The open transaction
// travels in the context so repositories called inside the closure join it
// without carrying gorm types through the application layer.
type GormTx struct {
	db *gorm.DB
}

// NewGormTx creates a transaction runner on a database handle.
func NewGormTx(db *gorm.DB) *GormTx {
	return &GormTx{db: db}
}

// Atomically runs fn inside one database transaction.
func (t *GormTx) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

var _ importer.Tx = (*GormTx)(nil)

// dbFrom returns the transaction bound to the context, or the repository's
// own handle.
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
