package order

import (
	"context"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository persists orders with their line items. The Lock methods
// take a row lock for the rest of the enclosing transaction and must be
// called on a transaction-scoped repository.
type OrderRepository interface {
	// FindByID retrieves an order with its line items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// List pages through a shop's orders
	List(ctx context.Context, shopDomain string, filter shared.Filter) ([]Order, int64, error)
	// LockByID locks and loads an order
	LockByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// LockByOrderNumber locks and loads an order by platform order number
	LockByOrderNumber(ctx context.Context, shopDomain, orderNumber string) (*Order, error)
	// LockByPlatformOrderID locks and loads an order by platform order id
	LockByPlatformOrderID(ctx context.Context, shopDomain, platformOrderID string) (*Order, error)
	// Create inserts a new order and its lines
	Create(ctx context.Context, o *Order) error
	// Save updates the order header and applies a line diff
	Save(ctx context.Context, o *Order, diff LineItemDiff) error
	// Delete removes the order row with its lines, fulfillments and history
	Delete(ctx context.Context, id uuid.UUID) error
}

// HistoryRepository stores order status history
type HistoryRepository interface {
	Append(ctx context.Context, entries ...*StatusHistory) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]StatusHistory, error)
}

// FulfillmentRepository stores fulfillments
type FulfillmentRepository interface {
	FindByPlatformID(ctx context.Context, orderID uuid.UUID, platformFulfillmentID string) (*Fulfillment, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]Fulfillment, error)
	Save(ctx context.Context, f *Fulfillment) error
}

// TombstoneRepository records hard-deleted orders
type TombstoneRepository interface {
	Save(ctx context.Context, t *Tombstone) error
	// Exists matches on order number or, when given, platform order id
	Exists(ctx context.Context, shopDomain, orderNumber, platformOrderID string) (bool, error)
}
