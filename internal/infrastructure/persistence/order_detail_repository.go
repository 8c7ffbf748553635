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

// GormOrderHistoryRepository implements order.HistoryRepository using GORM
type GormOrderHistoryRepository struct {
	db *gorm.DB
}

// NewGormOrderHistoryRepository creates a new GormOrderHistoryRepository
func NewGormOrderHistoryRepository(db *gorm.DB) *GormOrderHistoryRepository {
	return &GormOrderHistoryRepository{db: db}
}

// Append inserts history entries
func (r *GormOrderHistoryRepository) Append(ctx context.Context, entries ...*order.StatusHistory) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]*models.OrderStatusHistoryModel, len(entries))
	for i, e := range entries {
		rows[i] = models.OrderStatusHistoryModelFromDomain(e)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// ListByOrder returns an order's history, oldest first
func (r *GormOrderHistoryRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.StatusHistory, error) {
	var rows []models.OrderStatusHistoryModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	history := make([]order.StatusHistory, len(rows))
	for i := range rows {
		history[i] = *rows[i].ToDomain()
	}
	return history, nil
}

// GormFulfillmentRepository implements order.FulfillmentRepository using GORM
type GormFulfillmentRepository struct {
	db *gorm.DB
}

// NewGormFulfillmentRepository creates a new GormFulfillmentRepository
func NewGormFulfillmentRepository(db *gorm.DB) *GormFulfillmentRepository {
	return &GormFulfillmentRepository{db: db}
}

// FindByPlatformID retrieves an order's fulfillment by platform id
func (r *GormFulfillmentRepository) FindByPlatformID(ctx context.Context, orderID uuid.UUID, platformFulfillmentID string) (*order.Fulfillment, error) {
	var model models.FulfillmentModel
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND platform_fulfillment_id = ?", orderID, platformFulfillmentID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByOrder returns an order's fulfillments
func (r *GormFulfillmentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Fulfillment, error) {
	var rows []models.FulfillmentModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	fulfillments := make([]order.Fulfillment, len(rows))
	for i := range rows {
		fulfillments[i] = *rows[i].ToDomain()
	}
	return fulfillments, nil
}

// Save inserts or updates a fulfillment
func (r *GormFulfillmentRepository) Save(ctx context.Context, f *order.Fulfillment) error {
	return r.db.WithContext(ctx).Save(models.FulfillmentModelFromDomain(f)).Error
}

// GormTombstoneRepository implements order.TombstoneRepository using GORM
type GormTombstoneRepository struct {
	db *gorm.DB
}

// NewGormTombstoneRepository creates a new GormTombstoneRepository
func NewGormTombstoneRepository(db *gorm.DB) *GormTombstoneRepository {
	return &GormTombstoneRepository{db: db}
}

// Save records a tombstone, replacing an older one for the same order number
func (r *GormTombstoneRepository) Save(ctx context.Context, t *order.Tombstone) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(models.OrderTombstoneModelFromDomain(t)).Error
}

// Exists reports whether the shop has a tombstone matching the order number
// or the platform order id
func (r *GormTombstoneRepository) Exists(ctx context.Context, shopDomain, orderNumber, platformOrderID string) (bool, error) {
	if orderNumber == "" && platformOrderID == "" {
		return false, nil
	}
	query := r.db.WithContext(ctx).
		Model(&models.OrderTombstoneModel{}).
		Where("shop_domain = ?", shared.NormalizeShopDomain(shopDomain))
	switch {
	case orderNumber != "" && platformOrderID != "":
		query = query.Where("order_number = ? OR platform_order_id = ?", orderNumber, platformOrderID)
	case orderNumber != "":
		query = query.Where("order_number = ?", orderNumber)
	default:
		query = query.Where("platform_order_id = ?", platformOrderID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure the repositories implement their domain interfaces
var (
	_ order.HistoryRepository     = (*GormOrderHistoryRepository)(nil)
	_ order.FulfillmentRepository = (*GormFulfillmentRepository)(nil)
	_ order.TombstoneRepository   = (*GormTombstoneRepository)(nil)
)
