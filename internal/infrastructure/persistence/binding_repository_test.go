package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence/models"
)

func setupConnectorTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.BindingModel{},
		&models.BackendModel{},
		&models.CheckpointModel{},
		&models.PaymentModeModel{},
		&models.PartnerModel{},
		&models.AddressModel{},
		&models.CarrierModel{},
		&models.ProductTemplateModel{},
		&models.SaleOrderModel{},
		&models.SaleOrderLineModel{},
		&models.MessageThreadModel{},
		&models.MessageModel{},
	)
	require.NoError(t, err)
	return db
}

func newBinding(t *testing.T, backendID uuid.UUID, externalID string) *connector.Binding {
	t.Helper()
	b, err := connector.NewBinding(backendID, connector.ModelCustomer, externalID, uuid.New())
	require.NoError(t, err)
	return b
}

func TestGormBindingRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a binding", func(t *testing.T) {
		repo := NewGormBindingRepository(setupConnectorTestDB(t))
		backendID := uuid.New()
		binding := newBinding(t, backendID, "42")
		require.NoError(t, repo.Upsert(ctx, binding))

		found, err := repo.FindByExternal(ctx, backendID, connector.ModelCustomer, "42")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, binding.ID, found.ID)
		assert.Equal(t, binding.InternalID, found.InternalID)
	})

	t.Run("unbound external ID is nil without error", func(t *testing.T) {
		repo := NewGormBindingRepository(setupConnectorTestDB(t))
		found, err := repo.FindByExternal(ctx, uuid.New(), connector.ModelCustomer, "404")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("unique index rejects a second binding for the same external record", func(t *testing.T) {
		repo := NewGormBindingRepository(setupConnectorTestDB(t))
		backendID := uuid.New()
		require.NoError(t, repo.Upsert(ctx, newBinding(t, backendID, "42")))

		err := repo.Upsert(ctx, newBinding(t, backendID, "42"))
		assert.Error(t, err)
	})

	t.Run("same external ID binds independently per backend and model", func(t *testing.T) {
		repo := NewGormBindingRepository(setupConnectorTestDB(t))
		require.NoError(t, repo.Upsert(ctx, newBinding(t, uuid.New(), "42")))
		require.NoError(t, repo.Upsert(ctx, newBinding(t, uuid.New(), "42")))

		other, err := connector.NewBinding(uuid.New(), connector.ModelSaleOrder, "42", uuid.New())
		require.NoError(t, err)
		assert.NoError(t, repo.Upsert(ctx, other))
	})

	t.Run("FindByInternal lists every binding of the record", func(t *testing.T) {
		repo := NewGormBindingRepository(setupConnectorTestDB(t))
		backendID := uuid.New()
		binding := newBinding(t, backendID, "42")
		require.NoError(t, repo.Upsert(ctx, binding))

		bindings, err := repo.FindByInternal(ctx, backendID, connector.ModelCustomer, binding.InternalID)
		require.NoError(t, err)
		require.Len(t, bindings, 1)
		assert.Equal(t, "42", bindings[0].ExternalID)
	})

	t.Run("delete removes the binding", func(t *testing.T) {
		repo := NewGormBindingRepository(setupConnectorTestDB(t))
		backendID := uuid.New()
		binding := newBinding(t, backendID, "42")
		require.NoError(t, repo.Upsert(ctx, binding))
		require.NoError(t, repo.Delete(ctx, binding.ID))

		found, err := repo.FindByExternal(ctx, backendID, connector.ModelCustomer, "42")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormBackendRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips a backend", func(t *testing.T) {
		repo := NewGormBackendRepository(setupConnectorTestDB(t))
		backend, err := connector.NewBackend("shop", "http://shop.example/api", "key", connector.APIVersion1612)
		require.NoError(t, err)
		backend.TaxesIncluded = true
		require.NoError(t, repo.Save(ctx, backend))

		found, err := repo.FindByID(ctx, backend.ID)
		require.NoError(t, err)
		assert.Equal(t, "shop", found.Name)
		assert.True(t, found.TaxesIncluded)
		assert.Nil(t, found.ImportOrdersSince)
	})

	t.Run("missing backend is ErrBackendNotFound", func(t *testing.T) {
		repo := NewGormBackendRepository(setupConnectorTestDB(t))
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, connector.ErrBackendNotFound)
	})

	t.Run("AdvanceWatermark writes only its column", func(t *testing.T) {
		repo := NewGormBackendRepository(setupConnectorTestDB(t))
		backend, err := connector.NewBackend("shop", "http://shop.example/api", "key", connector.APIVersion1612)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, backend))

		mark := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, repo.AdvanceWatermark(ctx, backend.ID, connector.WatermarkOrders, mark))

		found, err := repo.FindByID(ctx, backend.ID)
		require.NoError(t, err)
		require.NotNil(t, found.ImportOrdersSince)
		assert.True(t, found.ImportOrdersSince.Equal(mark))
		assert.Nil(t, found.ImportPartnersSince)
	})

	t.Run("AdvanceWatermark on a missing backend fails", func(t *testing.T) {
		repo := NewGormBackendRepository(setupConnectorTestDB(t))
		err := repo.AdvanceWatermark(ctx, uuid.New(), connector.WatermarkOrders, time.Now())
		assert.ErrorIs(t, err, connector.ErrBackendNotFound)
	})
}

func TestGormSaleOrderRepository(t *testing.T) {
	ctx := context.Background()

	makeOrder := func() *erp.SaleOrder {
		order := &erp.SaleOrder{
			ID:          uuid.New(),
			CompanyID:   uuid.New(),
			Name:        "REF001",
			PartnerID:   uuid.New(),
			DateOrder:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			TotalAmount: decimal.RequireFromString("241.00"),
		}
		order.AddLine(erp.SaleOrderLine{
			Name:      "Widget",
			Sequence:  1,
			Quantity:  decimal.NewFromInt(2),
			PriceUnit: decimal.RequireFromString("125.0000"),
		})
		return order
	}

	t.Run("round-trips an order with lines", func(t *testing.T) {
		repo := NewGormSaleOrderRepository(setupConnectorTestDB(t))
		order := makeOrder()
		require.NoError(t, repo.Save(ctx, order))

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "REF001", found.Name)
		require.Len(t, found.Lines, 1)
		assert.True(t, found.Lines[0].PriceUnit.Equal(decimal.RequireFromString("125")))
	})

	t.Run("saving again with an added line keeps both", func(t *testing.T) {
		repo := NewGormSaleOrderRepository(setupConnectorTestDB(t))
		order := makeOrder()
		require.NoError(t, repo.Save(ctx, order))

		order.AddDeliveryLine(uuid.New(), "Shipping", decimal.RequireFromString("10.00"))
		require.NoError(t, repo.Save(ctx, order))

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, found.Lines, 2)
		assert.True(t, found.Lines[1].IsDelivery)
	})

	t.Run("removed lines are deleted from storage", func(t *testing.T) {
		repo := NewGormSaleOrderRepository(setupConnectorTestDB(t))
		order := makeOrder()
		require.NoError(t, repo.Save(ctx, order))

		order.Lines = nil
		require.NoError(t, repo.Save(ctx, order))

		found, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Empty(t, found.Lines)
	})

	t.Run("ExistsByName is scoped to the company", func(t *testing.T) {
		repo := NewGormSaleOrderRepository(setupConnectorTestDB(t))
		order := makeOrder()
		require.NoError(t, repo.Save(ctx, order))

		taken, err := repo.ExistsByName(ctx, order.CompanyID, "REF001")
		require.NoError(t, err)
		assert.True(t, taken)

		taken, err = repo.ExistsByName(ctx, uuid.New(), "REF001")
		require.NoError(t, err)
		assert.False(t, taken)
	})
}

func TestGormTx(t *testing.T) {
	ctx := context.Background()

	t.Run("rolls back the record and its binding together", func(t *testing.T) {
		db := setupConnectorTestDB(t)
		partners := NewGormPartnerRepository(db)
		bindings := NewGormBindingRepository(db)
		backendID := uuid.New()

		partner := &erp.Partner{ID: uuid.New(), Name: "Jane Doe", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		err := NewGormTx(db).Atomically(ctx, func(ctx context.Context) error {
			if err := partners.Save(ctx, partner); err != nil {
				return err
			}
			binding, err := connector.NewBinding(backendID, connector.ModelCustomer, "5", partner.ID)
			if err != nil {
				return err
			}
			if err := bindings.Upsert(ctx, binding); err != nil {
				return err
			}
			return assert.AnError
		})
		require.Error(t, err)

		_, err = partners.FindByID(ctx, partner.ID)
		assert.ErrorIs(t, err, erp.ErrNotFound)
		found, err := bindings.FindByExternal(ctx, backendID, connector.ModelCustomer, "5")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("commits both on success", func(t *testing.T) {
		db := setupConnectorTestDB(t)
		partners := NewGormPartnerRepository(db)
		bindings := NewGormBindingRepository(db)
		backendID := uuid.New()

		partner := &erp.Partner{ID: uuid.New(), Name: "Jane Doe", CreatedAt: time.Now(), UpdatedAt: time.Now()}
		err := NewGormTx(db).Atomically(ctx, func(ctx context.Context) error {
			if err := partners.Save(ctx, partner); err != nil {
				return err
			}
			binding, err := connector.NewBinding(backendID, connector.ModelCustomer, "5", partner.ID)
			if err != nil {
				return err
			}
			return bindings.Upsert(ctx, binding)
		})
		require.NoError(t, err)

		found, err := bindings.FindByExternal(ctx, backendID, connector.ModelCustomer, "5")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, partner.ID, found.InternalID)
	})
}
