package inventory

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementType classifies a stock delta
type MovementType string

const (
	// MovementTypeReserve takes stock for an order's lines (negative delta)
	MovementTypeReserve MovementType = "RESERVE"
	// MovementTypeAdjust corrects a reservation after an order edit, or sets
	// opening stock when not tied to an order
	MovementTypeAdjust MovementType = "ADJUST"
	// MovementTypeRelease returns stock when the platform cancels an order
	MovementTypeRelease MovementType = "RELEASE"
	// MovementTypeRestore returns stock when an order is hard-deleted
	MovementTypeRestore MovementType = "RESTORE"
)

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeReserve, MovementTypeAdjust, MovementTypeRelease, MovementTypeRestore:
		return true
	}
	return false
}

// Movement is an immutable audit record of a stock delta. OrderID is nil
// for movements not tied to an order, such as opening stock.
type Movement struct {
	ID         uuid.UUID
	ShopDomain string
	ProductID  uuid.UUID
	OrderID    *uuid.UUID
	Type       MovementType
	Delta      int64
	Reference  string
	Reason     string
	CreatedAt  time.Time
}

// NewMovement creates a movement
func NewMovement(shopDomain string, productID uuid.UUID, orderID *uuid.UUID, typ MovementType, delta int64, reference, reason string) (*Movement, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product is required")
	}
	if !typ.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid movement type")
	}
	if delta == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Movement delta cannot be zero")
	}
	return &Movement{
		ID:         uuid.New(),
		ShopDomain: shopDomain,
		ProductID:  productID,
		OrderID:    orderID,
		Type:       typ,
		Delta:      delta,
		Reference:  reference,
		Reason:     reason,
		CreatedAt:  shared.Now(),
	}, nil
}
