package models

import (
	"time"

	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/google/uuid"
)

// ProductModel is the persistence model for local products
type ProductModel struct {
	AggregateModel
	ShopDomain string `gorm:"type:varchar(255);not null;uniqueIndex:idx_products_sku,priority:1"`
	SKU        string `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_products_sku,priority:2"`
	Name       string `gorm:"type:varchar(255)"`
	Stock      int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *inventory.Product {
	return &inventory.Product{
		ShopAggregateRoot: m.AggregateModel.ToDomainShopAggregateRoot(m.ShopDomain),
		SKU:               m.SKU,
		Name:              m.Name,
		Stock:             m.Stock,
	}
}

// ProductModelFromDomain creates a new persistence model from a domain Product
func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	m := &ProductModel{
		SKU:   p.SKU,
		Name:  p.Name,
		Stock: p.Stock,
	}
	m.ShopDomain = m.AggregateModel.FromDomainShopAggregateRoot(p.ShopAggregateRoot)
	return m
}

// InventoryMovementModel is the persistence model for the movement ledger
type InventoryMovementModel struct {
	ID         uuid.UUID              `gorm:"type:uuid;primaryKey"`
	ShopDomain string                 `gorm:"type:varchar(255);not null"`
	ProductID  uuid.UUID              `gorm:"type:uuid;not null;index"`
	OrderID    *uuid.UUID             `gorm:"type:uuid;index"`
	Type       inventory.MovementType `gorm:"column:movement_type;type:varchar(20);not null"`
	Delta      int64                  `gorm:"not null"`
	Reference  string                 `gorm:"type:varchar(100)"`
	Reason     string                 `gorm:"type:varchar(255)"`
	CreatedAt  time.Time              `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryMovementModel) TableName() string {
	return "inventory_movements"
}

// ToDomain converts the persistence model to a domain Movement
func (m *InventoryMovementModel) ToDomain() *inventory.Movement {
	return &inventory.Movement{
		ID:         m.ID,
		ShopDomain: m.ShopDomain,
		ProductID:  m.ProductID,
		OrderID:    m.OrderID,
		Type:       m.Type,
		Delta:      m.Delta,
		Reference:  m.Reference,
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
	}
}

// InventoryMovementModelFromDomain creates a new persistence model from a domain Movement
func InventoryMovementModelFromDomain(mv *inventory.Movement) *InventoryMovementModel {
	return &InventoryMovementModel{
		ID:         mv.ID,
		ShopDomain: mv.ShopDomain,
		ProductID:  mv.ProductID,
		OrderID:    mv.OrderID,
		Type:       mv.Type,
		Delta:      mv.Delta,
		Reference:  mv.Reference,
		Reason:     mv.Reason,
		CreatedAt:  mv.CreatedAt,
	}
}
