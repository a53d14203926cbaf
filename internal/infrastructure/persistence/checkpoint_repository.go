package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence/models"
)

// GormCheckpointRepository implements CheckpointRepository using GORM
type GormCheckpointRepository struct {
	db *gorm.DB
}

// NewGormCheckpointRepository creates a new GormCheckpointRepository
func NewGormCheckpointRepository(db *gorm.DB) *GormCheckpointRepository {
	return &GormCheckpointRepository{db: db}
}

// Add records a checkpoint
func (r *GormCheckpointRepository) Add(ctx context.Context, checkpoint *connector.Checkpoint) error {
	model := models.CheckpointModelFromDomain(checkpoint)
	return dbFrom(ctx, r.db).WithContext(ctx).Create(model).Error
}

// ListOpen lists unresolved checkpoints for a backend, newest first
func (r *GormCheckpointRepository) ListOpen(ctx context.Context, backendID uuid.UUID) ([]connector.Checkpoint, error) {
	var checkpointModels []models.CheckpointModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("backend_id = ? AND resolved = ?", backendID, false).
		Order("created_at DESC").
		Find(&checkpointModels).Error
	if err != nil {
		return nil, err
	}
	checkpoints := make([]connector.Checkpoint, len(checkpointModels))
	for i, model := range checkpointModels {
		checkpoints[i] = *model.ToDomain()
	}
	return checkpoints, nil
}

// Resolve marks a checkpoint handled
func (r *GormCheckpointRepository) Resolve(ctx context.Context, id uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.CheckpointModel{}).
		Where("id = ?", id).
		Update("resolved", true).Error
}

var _ connector.CheckpointRepository = (*GormCheckpointRepository)(nil)

// GormPaymentModeRepository implements PaymentModeRepository using GORM
type GormPaymentModeRepository struct {
	db *gorm.DB
}

// NewGormPaymentModeRepository creates a new GormPaymentModeRepository
func NewGormPaymentModeRepository(db *gorm.DB) *GormPaymentModeRepository {
	return &GormPaymentModeRepository{db: db}
}

// FindByName finds a payment mode by name, nil when unmapped
func (r *GormPaymentModeRepository) FindByName(ctx context.Context, name string) (*connector.PaymentMode, error) {
	var model models.PaymentModeModel
	err := dbFrom(ctx, r.db).WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a payment mode
func (r *GormPaymentModeRepository) Save(ctx context.Context, mode *connector.PaymentMode) error {
	model := models.PaymentModeModelFromDomain(mode)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ connector.PaymentModeRepository = (*GormPaymentModeRepository)(nil)
