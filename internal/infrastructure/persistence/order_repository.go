package persistence

import (
	"context"
	"errors"

	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, line_key ASC")
	})
}

func (r *GormOrderRepository) forUpdate(ctx context.Context) *gorm.DB {
	return r.withItems(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *GormOrderRepository) first(query *gorm.DB) (*order.Order, error) {
	var model models.OrderModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID retrieves an order with its line items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.first(r.withItems(ctx).Where("id = ?", id))
}

// List pages through a shop's orders. Soft-deleted orders are hidden unless
// the filter sets include_deleted.
func (r *GormOrderRepository) List(ctx context.Context, shopDomain string, filter shared.Filter) ([]order.Order, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("shop_domain = ?", shared.NormalizeShopDomain(shopDomain))

	if include, _ := filter.Bool("include_deleted"); !include {
		query = query.Where("deleted_at IS NULL")
	}
	if status, ok := filter.String("status"); ok {
		query = query.Where("status = ?", status)
	}
	if isTest, ok := filter.Bool("is_test"); ok {
		query = query.Where("is_test = ?", isTest)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	err := query.
		Preload("Items").
		Order(orderSort.Clause(filter.OrderBy, filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// LockByID locks and loads an order
func (r *GormOrderRepository) LockByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.first(r.forUpdate(ctx).Where("id = ?", id))
}

// LockByOrderNumber locks and loads an order by platform order number
func (r *GormOrderRepository) LockByOrderNumber(ctx context.Context, shopDomain, orderNumber string) (*order.Order, error) {
	return r.first(r.forUpdate(ctx).
		Where("shop_domain = ? AND order_number = ?", shared.NormalizeShopDomain(shopDomain), orderNumber))
}

// LockByPlatformOrderID locks and loads an order by platform order id
func (r *GormOrderRepository) LockByPlatformOrderID(ctx context.Context, shopDomain, platformOrderID string) (*order.Order, error) {
	return r.first(r.forUpdate(ctx).
		Where("shop_domain = ? AND platform_order_id = ?", shared.NormalizeShopDomain(shopDomain), platformOrderID))
}

// Create inserts a new order and its lines
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return err
	}
	if len(model.Items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&model.Items).Error
}

// Save updates the order header and applies the line item diff
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order, diff order.LineItemDiff) error {
	model := models.OrderModelFromDomain(o)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}

	if len(diff.Removed) > 0 {
		ids := make([]uuid.UUID, len(diff.Removed))
		for i := range diff.Removed {
			ids[i] = diff.Removed[i].ID
		}
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.OrderLineItemModel{}).Error; err != nil {
			return err
		}
	}
	for i := range diff.Updated {
		var item models.OrderLineItemModel
		item.FromDomain(&diff.Updated[i])
		if err := r.db.WithContext(ctx).Save(&item).Error; err != nil {
			return err
		}
	}
	if len(diff.Added) > 0 {
		added := make([]models.OrderLineItemModel, len(diff.Added))
		for i := range diff.Added {
			added[i].FromDomain(&diff.Added[i])
		}
		if err := r.db.WithContext(ctx).Create(&added).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the order row together with its lines, fulfillments and history
func (r *GormOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", id).Delete(&models.OrderLineItemModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.FulfillmentModel{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", id).Delete(&models.OrderStatusHistoryModel{}).Error; err != nil {
		return err
	}
	result := db.Where("id = ?", id).Delete(&models.OrderModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOrderRepository implements order.OrderRepository
var _ order.OrderRepository = (*GormOrderRepository)(nil)
