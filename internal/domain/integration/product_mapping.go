package integration

import (
	"context"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductMapping links a platform product (optionally a single variant) to
// a local product. A mapping with an empty variant covers every variant of
// the product that has no variant-specific mapping.
type ProductMapping struct {
	ID                uuid.UUID
	ShopDomain        string
	PlatformProductID string
	PlatformVariantID string
	LocalProductID    uuid.UUID
	IsActive          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewProductMapping creates a new product mapping
func NewProductMapping(shopDomain, platformProductID, platformVariantID string, localProductID uuid.UUID) (*ProductMapping, error) {
	shopDomain = shared.NormalizeShopDomain(shopDomain)
	if shopDomain == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop domain is required")
	}
	if platformProductID == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Platform product id is required")
	}
	if localProductID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Local product is required")
	}
	now := shared.Now()
	return &ProductMapping{
		ID:                uuid.New(),
		ShopDomain:        shopDomain,
		PlatformProductID: platformProductID,
		PlatformVariantID: platformVariantID,
		LocalProductID:    localProductID,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Deactivate disables the mapping; lines resolve by SKU or stay unmapped
func (m *ProductMapping) Deactivate() {
	m.IsActive = false
	m.UpdatedAt = shared.Now()
}

// ProductMappingRepository persists product mappings
type ProductMappingRepository interface {
	// Resolve returns the active mapping for a platform product, preferring a
	// variant-specific mapping over a product-wide one
	Resolve(ctx context.Context, shopDomain, platformProductID, platformVariantID string) (*ProductMapping, error)
	Save(ctx context.Context, m *ProductMapping) error
}
