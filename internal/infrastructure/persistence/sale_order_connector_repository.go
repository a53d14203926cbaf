package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence/models"
)

// GormSaleOrderRepository implements SaleOrderRepository using GORM
type GormSaleOrderRepository struct {
	db *gorm.DB
}

// NewGormSaleOrderRepository creates a new GormSaleOrderRepository
func NewGormSaleOrderRepository(db *gorm.DB) *GormSaleOrderRepository {
	return &GormSaleOrderRepository{db: db}
}

// FindByID finds an order with its lines
func (r *GormSaleOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.SaleOrder, error) {
	var model models.SaleOrderModel
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sale_order_lines.sequence ASC")
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an order together with its lines. Lines removed
// from the aggregate are removed from storage.
func (r *GormSaleOrderRepository) Save(ctx context.Context, order *erp.SaleOrder) error {
	model := models.SaleOrderModelFromDomain(order)
	db := dbFrom(ctx, r.db).WithContext(ctx)

	keep := make([]uuid.UUID, len(model.Lines))
	for i, line := range model.Lines {
		keep[i] = line.ID
	}
	stale := db.Where("order_id = ?", model.ID)
	if len(keep) > 0 {
		stale = stale.Where("id NOT IN ?", keep)
	}
	if err := stale.Delete(&models.SaleOrderLineModel{}).Error; err != nil {
		return err
	}

	// primary keys are assigned by the domain layer, so inserts and updates
	// both go through an upsert
	if err := db.Omit("Lines").Clauses(clause.OnConflict{UpdateAll: true}).Create(model).Error; err != nil {
		return err
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model.Lines).Error
}

// ExistsByName reports whether an order with the display name exists in the
// company scope
func (r *GormSaleOrderRepository) ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error) {
	var count int64
	err := dbFrom(ctx, r.db).WithContext(ctx).
		Model(&models.SaleOrderModel{}).
		Where("company_id = ? AND name = ?", companyID, name).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ erp.SaleOrderRepository = (*GormSaleOrderRepository)(nil)

// GormThreadRepository implements ThreadRepository using GORM
type GormThreadRepository struct {
	db *gorm.DB
}

// NewGormThreadRepository creates a new GormThreadRepository
func NewGormThreadRepository(db *gorm.DB) *GormThreadRepository {
	return &GormThreadRepository{db: db}
}

// FindByID finds a thread by its ID
func (r *GormThreadRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.MessageThread, error) {
	var model models.MessageThreadModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a thread
func (r *GormThreadRepository) Save(ctx context.Context, thread *erp.MessageThread) error {
	model := models.MessageThreadModelFromDomain(thread)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ erp.ThreadRepository = (*GormThreadRepository)(nil)

// GormMessageRepository implements MessageRepository using GORM
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// FindByID finds a message by its ID
func (r *GormMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.Message, error) {
	var model models.MessageModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a message
func (r *GormMessageRepository) Save(ctx context.Context, message *erp.Message) error {
	model := models.MessageModelFromDomain(message)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ erp.MessageRepository = (*GormMessageRepository)(nil)
