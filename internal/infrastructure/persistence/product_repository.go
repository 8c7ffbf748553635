package persistence

import (
	"context"
	"errors"

	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements inventory.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a shop's product by SKU, case-insensitively
func (r *GormProductRepository) FindBySKU(ctx context.Context, shopDomain, sku string) (*inventory.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).
		Where("shop_domain = ? AND sku = ?", shared.NormalizeShopDomain(shopDomain), inventory.NormalizeSKU(sku)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List pages through a shop's products
func (r *GormProductRepository) List(ctx context.Context, shopDomain string, filter shared.Filter) ([]inventory.Product, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("shop_domain = ?", shared.NormalizeShopDomain(shopDomain))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	err := query.
		Order(productSort.Clause(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	products := make([]inventory.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// Create inserts a product
func (r *GormProductRepository) Create(ctx context.Context, p *inventory.Product) error {
	return r.db.WithContext(ctx).Create(models.ProductModelFromDomain(p)).Error
}

// ApplyDelta adds delta to the product's stock with a single UPDATE so
// concurrent writers never lose an increment, then reads back the level.
func (r *GormProductRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock + ?", delta),
			"version":    gorm.Expr("version + 1"),
			"updated_at": shared.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrNotFound
	}

	var stock int64
	err := r.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Select("stock").
		Scan(&stock).Error
	return stock, err
}

// GormMovementRepository implements inventory.MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, m *inventory.Movement) error {
	return r.db.WithContext(ctx).Create(models.InventoryMovementModelFromDomain(m)).Error
}

// SumByOrder returns the net delta per product for an order
func (r *GormMovementRepository) SumByOrder(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int64, error) {
	type productSum struct {
		ProductID uuid.UUID
		Total     int64
	}

	var results []productSum
	err := r.db.WithContext(ctx).
		Model(&models.InventoryMovementModel{}).
		Select("product_id, COALESCE(SUM(delta), 0) as total").
		Where("order_id = ?", orderID).
		Group("product_id").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]int64, len(results))
	for _, s := range results {
		if s.Total != 0 {
			sums[s.ProductID] = s.Total
		}
	}
	return sums, nil
}

// ExistsForOrder reports whether the order has a movement of the given type
func (r *GormMovementRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID, typ inventory.MovementType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.InventoryMovementModel{}).
		Where("order_id = ? AND movement_type = ?", orderID, typ).
		Count(&count).Error
	return count > 0, err
}

// ListByOrder returns an order's movements, oldest first
func (r *GormMovementRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]inventory.Movement, error) {
	return r.list(r.db.WithContext(ctx).Where("order_id = ?", orderID))
}

// ListByProduct returns a product's movements, oldest first
func (r *GormMovementRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]inventory.Movement, error) {
	return r.list(r.db.WithContext(ctx).Where("product_id = ?", productID))
}

func (r *GormMovementRepository) list(query *gorm.DB) ([]inventory.Movement, error) {
	var rows []models.InventoryMovementModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	movements := make([]inventory.Movement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, nil
}

// DeleteByOrder removes all of an order's movements
func (r *GormMovementRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.InventoryMovementModel{})
	return result.RowsAffected, result.Error
}

// Ensure the repositories implement their domain interfaces
var (
	_ inventory.ProductRepository  = (*GormProductRepository)(nil)
	_ inventory.MovementRepository = (*GormMovementRepository)(nil)
)
