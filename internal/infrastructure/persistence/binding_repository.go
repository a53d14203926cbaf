package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guadaltech/connector-prestashop/internal/domain/connector"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence/models"
)

// GormBindingRepository implements BindingRepository using GORM
type GormBindingRepository struct {
	db *gorm.DB
}

// NewGormBindingRepository creates a new GormBindingRepository
func NewGormBindingRepository(db *gorm.DB) *GormBindingRepository {
	return &GormBindingRepository{db: db}
}

// FindByID finds a binding by its own ID
func (r *GormBindingRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Binding, error) {
	var model models.BindingModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, connector.ErrBindingNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternal finds the binding for an external record, nil when unbound
func (r *GormBindingRepository) FindByExternal(ctx context.Context, backendID uuid.UUID, m connector.Model, externalID string) (*connector.Binding, error) {
	var model models.BindingModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("backend_id = ? AND model = ? AND external_id = ?", backendID, m, externalID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByInternal finds every binding of an internal record within one backend
func (r *GormBindingRepository) FindByInternal(ctx context.Context, backendID uuid.UUID, m connector.Model, internalID uuid.UUID) ([]connector.Binding, error) {
	var bindingModels []models.BindingModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Where("backend_id = ? AND model = ? AND internal_id = ?", backendID, m, internalID).
		Find(&bindingModels).Error
	if err != nil {
		return nil, err
	}
	bindings := make([]connector.Binding, len(bindingModels))
	for i, model := range bindingModels {
		bindings[i] = *model.ToDomain()
	}
	return bindings, nil
}

// Upsert creates or updates a binding. The unique index on
// (model, external_id, backend_id) makes a duplicate insert fail rather than
// silently creating a second binding.
func (r *GormBindingRepository) Upsert(ctx context.Context, binding *connector.Binding) error {
	model := models.BindingModelFromDomain(binding)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

// Delete removes a binding
func (r *GormBindingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFrom(ctx, r.db).WithContext(ctx).Delete(&models.BindingModel{}, "id = ?", id).Error
}

var _ connector.BindingRepository = (*GormBindingRepository)(nil)
