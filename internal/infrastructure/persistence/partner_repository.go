package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/guadaltech/connector-prestashop/internal/domain/erp"
	"github.com/guadaltech/connector-prestashop/internal/infrastructure/persistence/models"
)

// GormPartnerRepository implements PartnerRepository using GORM
type GormPartnerRepository struct {
	db *gorm.DB
}

// NewGormPartnerRepository creates a new GormPartnerRepository
func NewGormPartnerRepository(db *gorm.DB) *GormPartnerRepository {
	return &GormPartnerRepository{db: db}
}

// FindByID finds a partner by its ID
func (r *GormPartnerRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.Partner, error) {
	var model models.PartnerModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a partner
func (r *GormPartnerRepository) Save(ctx context.Context, partner *erp.Partner) error {
	model := models.PartnerModelFromDomain(partner)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ erp.PartnerRepository = (*GormPartnerRepository)(nil)

// GormAddressRepository implements AddressRepository using GORM
type GormAddressRepository struct {
	db *gorm.DB
}

// NewGormAddressRepository creates a new GormAddressRepository
func NewGormAddressRepository(db *gorm.DB) *GormAddressRepository {
	return &GormAddressRepository{db: db}
}

// FindByID finds an address by its ID
func (r *GormAddressRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.Address, error) {
	var model models.AddressModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an address
func (r *GormAddressRepository) Save(ctx context.Context, address *erp.Address) error {
	model := models.AddressModelFromDomain(address)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ erp.AddressRepository = (*GormAddressRepository)(nil)

// GormCarrierRepository implements CarrierRepository using GORM
type GormCarrierRepository struct {
	db *gorm.DB
}

// NewGormCarrierRepository creates a new GormCarrierRepository
func NewGormCarrierRepository(db *gorm.DB) *GormCarrierRepository {
	return &GormCarrierRepository{db: db}
}

// FindByID finds a carrier by its ID
func (r *GormCarrierRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.Carrier, error) {
	var model models.CarrierModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a carrier
func (r *GormCarrierRepository) Save(ctx context.Context, carrier *erp.Carrier) error {
	model := models.CarrierModelFromDomain(carrier)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ erp.CarrierRepository = (*GormCarrierRepository)(nil)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*erp.ProductTemplate, error) {
	var model models.ProductTemplateModel
	if err := dbFrom(ctx, r.db).WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, erp.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *erp.ProductTemplate) error {
	model := models.ProductTemplateModelFromDomain(product)
	return dbFrom(ctx, r.db).WithContext(ctx).Save(model).Error
}

var _ erp.ProductRepository = (*GormProductRepository)(nil)
