package order

import (
	"time"

	"github.com/erp/orderhook/internal/application/ledger"
	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                uuid.UUID             `json:"id"`
	ShopDomain        string                `json:"shop_domain"`
	PlatformOrderID   string                `json:"platform_order_id,omitempty"`
	OrderNumber       string                `json:"order_number"`
	Name              string                `json:"name,omitempty"`
	State             string                `json:"state"`
	FinancialStatus   string                `json:"financial_status,omitempty"`
	Currency          string                `json:"currency,omitempty"`
	CustomerEmail     string                `json:"customer_email,omitempty"`
	SubtotalPrice     decimal.Decimal       `json:"subtotal_price"`
	TotalTax          decimal.Decimal       `json:"total_tax"`
	TotalPrice        decimal.Decimal       `json:"total_price"`
	IsTest            bool                  `json:"is_test"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	CancelReason      string                `json:"cancel_reason,omitempty"`
	DeletedAt         *time.Time            `json:"deleted_at,omitempty"`
	DeletedBy         string                `json:"deleted_by,omitempty"`
	MarkedTestAt      *time.Time            `json:"marked_test_at,omitempty"`
	MarkedTestBy      string                `json:"marked_test_by,omitempty"`
	PlatformUpdatedAt *time.Time            `json:"platform_updated_at,omitempty"`
	Items             []LineItemResponse    `json:"items"`
	Fulfillments      []FulfillmentResponse `json:"fulfillments,omitempty"`
	History           []HistoryResponse     `json:"history,omitempty"`
	Movements         []MovementResponse    `json:"movements,omitempty"`
	Version           int                   `json:"version"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// LineItemResponse represents an order line in API responses
type LineItemResponse struct {
	ID                uuid.UUID       `json:"id"`
	PlatformLineID    string          `json:"platform_line_id,omitempty"`
	PlatformProductID string          `json:"platform_product_id,omitempty"`
	SKU               string          `json:"sku,omitempty"`
	Title             string          `json:"title,omitempty"`
	Quantity          int64           `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	ProductID         *uuid.UUID      `json:"product_id,omitempty"`
	Mapped            bool            `json:"mapped"`
}

// FulfillmentResponse represents a fulfillment in API responses
type FulfillmentResponse struct {
	ID                    uuid.UUID `json:"id"`
	PlatformFulfillmentID string    `json:"platform_fulfillment_id"`
	Status                string    `json:"status"`
	TrackingCompany       string    `json:"tracking_company,omitempty"`
	TrackingNumber        string    `json:"tracking_number,omitempty"`
	BlockedUnmapped       bool      `json:"blocked_unmapped"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// HistoryResponse represents a status history entry in API responses
type HistoryResponse struct {
	Action    string    `json:"action"`
	FromState string    `json:"from_state,omitempty"`
	ToState   string    `json:"to_state"`
	Actor     string    `json:"actor,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// MovementResponse represents an inventory movement in API responses
type MovementResponse struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	Type      string    `json:"type"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderListItem represents an order in list responses (lighter)
type OrderListItem struct {
	ID          uuid.UUID       `json:"id"`
	OrderNumber string          `json:"order_number"`
	Name        string          `json:"name,omitempty"`
	State       string          `json:"state"`
	IsTest      bool            `json:"is_test"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Currency    string          `json:"currency,omitempty"`
	ItemCount   int             `json:"item_count"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HardDeleteResult describes an irreversibly removed order
type HardDeleteResult struct {
	OrderID     uuid.UUID                `json:"order_id"`
	ShopDomain  string                   `json:"shop_domain"`
	OrderNumber string                   `json:"order_number"`
	Restored    []ledger.MovementSummary `json:"restored"`
	DeletedBy   string                   `json:"deleted_by"`
	DeletedAt   time.Time                `json:"deleted_at"`
}

// ---------------------------------------------------------------------------
// Conversion helpers
// ---------------------------------------------------------------------------

// ToOrderResponse converts a domain order to a response without its
// fulfillments, history or movements
func ToOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                o.ID,
		ShopDomain:        o.ShopDomain,
		PlatformOrderID:   o.PlatformOrderID,
		OrderNumber:       o.OrderNumber,
		Name:              o.Name,
		State:             string(o.State()),
		FinancialStatus:   o.FinancialStatus,
		Currency:          o.Currency,
		CustomerEmail:     o.Customer.Email,
		SubtotalPrice:     o.SubtotalPrice,
		TotalTax:          o.TotalTax,
		TotalPrice:        o.TotalPrice,
		IsTest:            o.IsTest,
		CancelledAt:       o.CancelledAt,
		CancelReason:      o.CancelReason,
		DeletedAt:         o.DeletedAt,
		DeletedBy:         o.DeletedBy,
		MarkedTestAt:      o.MarkedTestAt,
		MarkedTestBy:      o.MarkedTestBy,
		PlatformUpdatedAt: o.PlatformUpdatedAt,
		Items:             make([]LineItemResponse, 0, len(o.Items)),
		Version:           o.Version,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	for _, item := range o.Items {
		resp.Items = append(resp.Items, LineItemResponse{
			ID:                item.ID,
			PlatformLineID:    item.PlatformLineID,
			PlatformProductID: item.PlatformProductID,
			SKU:               item.SKU,
			Title:             item.Title,
			Quantity:          item.Quantity,
			UnitPrice:         item.UnitPrice,
			ProductID:         item.ProductID,
			Mapped:            item.IsMapped(),
		})
	}
	return resp
}

// ToOrderListItem converts a domain order to a list response
func ToOrderListItem(o *order.Order) OrderListItem {
	return OrderListItem{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Name:        o.Name,
		State:       string(o.State()),
		IsTest:      o.IsTest,
		TotalPrice:  o.TotalPrice,
		Currency:    o.Currency,
		ItemCount:   len(o.Items),
		UpdatedAt:   o.UpdatedAt,
	}
}

func toFulfillmentResponses(fs []order.Fulfillment) []FulfillmentResponse {
	out := make([]FulfillmentResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, FulfillmentResponse{
			ID:                    f.ID,
			PlatformFulfillmentID: f.PlatformFulfillmentID,
			Status:                f.Status,
			TrackingCompany:       f.TrackingCompany,
			TrackingNumber:        f.TrackingNumber,
			BlockedUnmapped:       f.BlockedUnmapped,
			UpdatedAt:             f.UpdatedAt,
		})
	}
	return out
}

func toHistoryResponses(entries []order.StatusHistory) []HistoryResponse {
	out := make([]HistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, HistoryResponse{
			Action:    string(h.Action),
			FromState: string(h.FromState),
			ToState:   string(h.ToState),
			Actor:     h.Actor,
			Note:      h.Note,
			CreatedAt: h.CreatedAt,
		})
	}
	return out
}

func toMovementResponses(mvs []inventory.Movement) []MovementResponse {
	out := make([]MovementResponse, 0, len(mvs))
	for _, mv := range mvs {
		out = append(out, MovementResponse{
			ID:        mv.ID,
			ProductID: mv.ProductID,
			Type:      string(mv.Type),
			Delta:     mv.Delta,
			Reason:    mv.Reason,
			CreatedAt: mv.CreatedAt,
		})
	}
	return out
}
