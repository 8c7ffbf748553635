package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// Notification types written to the outbox
const (
	NotificationOrderCreated      = "order.created"
	NotificationOrderUpdated      = "order.updated"
	NotificationOrderCancelled    = "order.cancelled"
	NotificationFulfillmentUpdate = "order.fulfillment_updated"
	NotificationOrderSoftDeleted  = "order.soft_deleted"
	NotificationOrderRestored     = "order.restored"
	NotificationOrderHardDeleted  = "order.hard_deleted"
	NotificationOrderMarkedTest   = "order.marked_test"
)

// MovementSummary is a movement as carried in a notification
type MovementSummary struct {
	ProductID uuid.UUID `json:"product_id"`
	Type      string    `json:"type"`
	Delta     int64     `json:"delta"`
}

// OrderNotificationPayload is the JSON body of an order notification
type OrderNotificationPayload struct {
	OrderID     uuid.UUID         `json:"order_id"`
	ShopDomain  string            `json:"shop_domain"`
	OrderNumber string            `json:"order_number"`
	State       string            `json:"state"`
	IsTest      bool              `json:"is_test"`
	Actor       string            `json:"actor,omitempty"`
	Movements   []MovementSummary `json:"movements,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// NewOrderNotification builds the outbox entry announcing a change to o.
// actor is empty for platform-driven changes.
func NewOrderNotification(o *order.Order, eventType, actor string, movements []*inventory.Movement) (*shared.OutboxEntry, error) {
	body := OrderNotificationPayload{
		OrderID:     o.ID,
		ShopDomain:  o.ShopDomain,
		OrderNumber: o.OrderNumber,
		State:       string(o.State()),
		IsTest:      o.IsTest,
		Actor:       actor,
		OccurredAt:  shared.Now(),
	}
	if eventType == NotificationOrderHardDeleted {
		body.State = "hard_deleted"
	}
	for _, mv := range movements {
		body.Movements = append(body.Movements, MovementSummary{
			ProductID: mv.ProductID,
			Type:      string(mv.Type),
			Delta:     mv.Delta,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s notification: %w", eventType, err)
	}
	return shared.NewOutboxEntry(shared.Notification{
		Type:          eventType,
		ShopDomain:    o.ShopDomain,
		AggregateType: order.AggregateType,
		AggregateID:   o.ID,
		Payload:       payload,
	}), nil
}
