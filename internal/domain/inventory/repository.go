package inventory

import (
	"context"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository persists products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySKU(ctx context.Context, shopDomain, sku string) (*Product, error)
	List(ctx context.Context, shopDomain string, filter shared.Filter) ([]Product, int64, error)
	Create(ctx context.Context, p *Product) error
	// ApplyDelta adds delta to stock in a single UPDATE and returns the new level
	ApplyDelta(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
}

// MovementRepository is the append-only movement ledger
type MovementRepository interface {
	Create(ctx context.Context, m *Movement) error
	// SumByOrder returns the net delta per product for an order
	SumByOrder(ctx context.Context, orderID uuid.UUID) (map[uuid.UUID]int64, error)
	// ExistsForOrder reports whether the order has a movement of the given type
	ExistsForOrder(ctx context.Context, orderID uuid.UUID, typ MovementType) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Movement, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Movement, error)
	// DeleteByOrder removes the order's movements as part of a hard delete
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)
}
