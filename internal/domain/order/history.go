package order

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// HistoryAction names what happened to an order
type HistoryAction string

const (
	ActionCreated     HistoryAction = "created"
	ActionUpdated     HistoryAction = "updated"
	ActionCancelled   HistoryAction = "cancelled"
	ActionSoftDeleted HistoryAction = "soft_deleted"
	ActionRestored    HistoryAction = "restored"
	ActionMarkedTest  HistoryAction = "marked_test"
)

// StatusHistory is an append-only record of order state changes
type StatusHistory struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	Action    HistoryAction
	FromState State
	ToState   State
	Actor     string
	Note      string
	CreatedAt time.Time
}

// NewStatusHistory creates a history entry for o after a change from prev
func NewStatusHistory(o *Order, prev State, action HistoryAction, actor, note string) *StatusHistory {
	return &StatusHistory{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Action:    action,
		FromState: prev,
		ToState:   o.State(),
		Actor:     actor,
		Note:      note,
		CreatedAt: shared.Now(),
	}
}

// Tombstone remembers a hard-deleted order so late platform events for it
// are skipped instead of resurrecting the order.
type Tombstone struct {
	ShopDomain      string
	OrderNumber     string
	PlatformOrderID string
	OrderID         uuid.UUID
	DeletedBy       string
	DeletedAt       time.Time
}

// NewTombstone creates a tombstone for o
func NewTombstone(o *Order, actorID string) *Tombstone {
	return &Tombstone{
		ShopDomain:      o.ShopDomain,
		OrderNumber:     o.OrderNumber,
		PlatformOrderID: o.PlatformOrderID,
		OrderID:         o.ID,
		DeletedBy:       actorID,
		DeletedAt:       shared.Now(),
	}
}
