package models

import (
	"time"

	"github.com/erp/orderhook/internal/domain/integration"
	"github.com/google/uuid"
)

// ShopModel is the persistence model for connected shops
type ShopModel struct {
	ID              uuid.UUID                   `gorm:"type:uuid;primaryKey"`
	Domain          string                      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name            string                      `gorm:"type:varchar(255)"`
	IntegrationType integration.IntegrationType `gorm:"type:varchar(20);not null"`
	WebhookSecret   string                      `gorm:"type:varchar(255)"`
	IsActive        bool                        `gorm:"not null;default:true"`
	CreatedAt       time.Time                   `gorm:"not null"`
	UpdatedAt       time.Time                   `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ShopModel) TableName() string {
	return "shops"
}

// ToDomain converts the persistence model to a domain Shop
func (m *ShopModel) ToDomain() *integration.Shop {
	return &integration.Shop{
		ID:              m.ID,
		Domain:          m.Domain,
		Name:            m.Name,
		IntegrationType: m.IntegrationType,
		WebhookSecret:   m.WebhookSecret,
		IsActive:        m.IsActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// ShopModelFromDomain creates a new persistence model from a domain Shop
func ShopModelFromDomain(s *integration.Shop) *ShopModel {
	return &ShopModel{
		ID:              s.ID,
		Domain:          s.Domain,
		Name:            s.Name,
		IntegrationType: s.IntegrationType,
		WebhookSecret:   s.WebhookSecret,
		IsActive:        s.IsActive,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// ProductMappingModel is the persistence model for platform product mappings
type ProductMappingModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ShopDomain        string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_product_mappings_platform,priority:1"`
	PlatformProductID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_product_mappings_platform,priority:2"`
	PlatformVariantID string    `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_product_mappings_platform,priority:3"`
	LocalProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	IsActive          bool      `gorm:"not null;default:true"`
	CreatedAt         time.Time `gorm:"not null"`
	UpdatedAt         time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductMappingModel) TableName() string {
	return "product_mappings"
}

// ToDomain converts the persistence model to a domain ProductMapping
func (m *ProductMappingModel) ToDomain() *integration.ProductMapping {
	return &integration.ProductMapping{
		ID:                m.ID,
		ShopDomain:        m.ShopDomain,
		PlatformProductID: m.PlatformProductID,
		PlatformVariantID: m.PlatformVariantID,
		LocalProductID:    m.LocalProductID,
		IsActive:          m.IsActive,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// ProductMappingModelFromDomain creates a new persistence model from a domain ProductMapping
func ProductMappingModelFromDomain(pm *integration.ProductMapping) *ProductMappingModel {
	return &ProductMappingModel{
		ID:                pm.ID,
		ShopDomain:        pm.ShopDomain,
		PlatformProductID: pm.PlatformProductID,
		PlatformVariantID: pm.PlatformVariantID,
		LocalProductID:    pm.LocalProductID,
		IsActive:          pm.IsActive,
		CreatedAt:         pm.CreatedAt,
		UpdatedAt:         pm.UpdatedAt,
	}
}
