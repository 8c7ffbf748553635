package persistence

import (
	"context"
	"errors"

	"github.com/erp/orderhook/internal/domain/integration"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormShopRepository implements integration.ShopRepository using GORM
type GormShopRepository struct {
	db *gorm.DB
}

// NewGormShopRepository creates a new GormShopRepository
func NewGormShopRepository(db *gorm.DB) *GormShopRepository {
	return &GormShopRepository{db: db}
}

// FindByDomain finds a shop by its platform domain
func (r *GormShopRepository) FindByDomain(ctx context.Context, domain string) (*integration.Shop, error) {
	var model models.ShopModel
	err := r.db.WithContext(ctx).Where("domain = ?", shared.NormalizeShopDomain(domain)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or updates a shop
func (r *GormShopRepository) Save(ctx context.Context, shop *integration.Shop) error {
	return r.db.WithContext(ctx).Save(models.ShopModelFromDomain(shop)).Error
}

// GormProductMappingRepository implements integration.ProductMappingRepository using GORM
type GormProductMappingRepository struct {
	db *gorm.DB
}

// NewGormProductMappingRepository creates a new GormProductMappingRepository
func NewGormProductMappingRepository(db *gorm.DB) *GormProductMappingRepository {
	return &GormProductMappingRepository{db: db}
}

// Resolve returns the active mapping for a platform product. A mapping for
// the exact variant wins over the product-wide mapping (empty variant).
func (r *GormProductMappingRepository) Resolve(ctx context.Context, shopDomain, platformProductID, platformVariantID string) (*integration.ProductMapping, error) {
	if platformProductID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.ProductMappingModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND platform_product_id = ? AND is_active = ?",
			shared.NormalizeShopDomain(shopDomain), platformProductID, true).
		Where("platform_variant_id IN ?", []string{platformVariantID, ""}).
		Order("platform_variant_id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or updates a mapping
func (r *GormProductMappingRepository) Save(ctx context.Context, m *integration.ProductMapping) error {
	return r.db.WithContext(ctx).Save(models.ProductMappingModelFromDomain(m)).Error
}

// Ensure the repositories implement their domain interfaces
var (
	_ integration.ShopRepository           = (*GormShopRepository)(nil)
	_ integration.ProductMappingRepository = (*GormProductMappingRepository)(nil)
)
