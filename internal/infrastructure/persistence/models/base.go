package models

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel provides common persistence fields for aggregate roots.
// The shop domain column is declared on each model so it can take part in
// that table's composite unique index.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainShopAggregateRoot populates the model from a domain aggregate
// and returns its shop domain
func (m *AggregateModel) FromDomainShopAggregateRoot(a shared.ShopAggregateRoot) string {
	m.ID = a.ID
	m.Version = a.Version
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	return a.ShopDomain
}

// ToDomainShopAggregateRoot converts the model to a domain aggregate root
func (m *AggregateModel) ToDomainShopAggregateRoot(shopDomain string) shared.ShopAggregateRoot {
	return shared.ShopAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		ShopDomain: shopDomain,
	}
}
