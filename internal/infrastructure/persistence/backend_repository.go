package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence/models"
)

// watermarkColumns maps watermark kinds to their backend columns.
var watermarkColumns = map[connector.WatermarkKind]string{
	connector.WatermarkPartners:  "import_partners_since",
	connector.WatermarkOrders:    "import_orders_since",
	connector.WatermarkProducts:  "import_products_since",
	connector.WatermarkRefunds:   "import_refunds_since",
	connector.WatermarkSuppliers: "import_suppliers_since",
}

// GormBackendRepository implements BackendRepository using GORM
type GormBackendRepository struct {
	db *gorm.DB
}

// NewGormBackendRepository creates a new GormBackendRepository
func NewGormBackendRepository(db *gorm.DB) *GormBackendRepository {
	return &GormBackendRepository{db: db}
}

// FindByID finds a backend by ID
func (r *GormBackendRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Backend, error) {
	var model models.BackendModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrBackendNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists every configured backend
func (r *GormBackendRepository) FindAll(ctx context.Context) ([]connector.Backend, error) {
	var backendModels []models.BackendModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).Find(&backendModels).Error; err != nil {
		return nil, err
	}
	backends := make([]connector.Backend, len(backendModels))
	for i, model := range backendModels {
		backends[i] = *model.ToDomain()
	}
	return backends, nil
}

// Save creates or updates a backend
func (r *GormBackendRepository) Save(ctx context.Context, backend *connector.Backend) error {
	model := models.BackendModelFromDomain(backend)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// AdvanceWatermark updates a single watermark column. Writing just the one
// column keeps a running batch from clobbering concurrent edits to the
// backend configuration.
func (r *GormBackendRepository) AdvanceWatermark(ctx context.Context, id uuid.UUID, kind connector.WatermarkKind, t time.Time) error {
	column, ok := watermarkColumns[kind]
	if !ok {
		return connector.NewConfigurationError("unknown watermark kind %q", kind)
	}
	result := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.BackendModel{}).
		Where("id = ?", id).
		Updates(map[string]any{column: t, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return connector.ErrBackendNotFound
	}
	return nil
}

var _ connector.BackendRepository = (*GormBackendRepository)(nil)
