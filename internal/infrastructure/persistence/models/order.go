package models

import (
	"time"

	"github.com/erp/orderhook/internal/domain/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	ShopDomain         string             `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_number,priority:1;index:idx_orders_platform_id,priority:1"`
	PlatformOrderID    string             `gorm:"type:varchar(64);index:idx_orders_platform_id,priority:2"`
	OrderNumber        string             `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_number,priority:2"`
	Name               string             `gorm:"type:varchar(100)"`
	Status             order.Status       `gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	FinancialStatus    string             `gorm:"type:varchar(50)"`
	Currency           string             `gorm:"type:varchar(3)"`
	CustomerPlatformID string             `gorm:"type:varchar(64)"`
	CustomerEmail      string             `gorm:"type:varchar(255)"`
	CustomerFirstName  string             `gorm:"type:varchar(100)"`
	CustomerLastName   string             `gorm:"type:varchar(100)"`
	CustomerPhone      string             `gorm:"type:varchar(50)"`
	SubtotalPrice      decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax           decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice         decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	PlatformUpdatedAt  *time.Time         `gorm:"column:platform_updated_at"`
	CancelledAt        *time.Time         `gorm:"column:cancelled_at"`
	CancelReason       string             `gorm:"type:varchar(255)"`
	DeletedAt          *time.Time         `gorm:"column:deleted_at"`
	DeletedBy          string             `gorm:"type:varchar(100)"`
	DeletionType       order.DeletionType `gorm:"type:varchar(20)"`
	IsTest             bool               `gorm:"not null;default:false"`
	MarkedTestAt       *time.Time
	MarkedTestBy       string               `gorm:"type:varchar(100)"`
	Items              []OrderLineItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		ShopAggregateRoot: m.AggregateModel.ToDomainShopAggregateRoot(m.ShopDomain),
		PlatformOrderID:   m.PlatformOrderID,
		OrderNumber:       m.OrderNumber,
		Name:              m.Name,
		Status:            m.Status,
		FinancialStatus:   m.FinancialStatus,
		Currency:          m.Currency,
		Customer: order.CustomerSnapshot{
			PlatformCustomerID: m.CustomerPlatformID,
			Email:              m.CustomerEmail,
			FirstName:          m.CustomerFirstName,
			LastName:           m.CustomerLastName,
			Phone:              m.CustomerPhone,
		},
		SubtotalPrice:     m.SubtotalPrice,
		TotalTax:          m.TotalTax,
		TotalPrice:        m.TotalPrice,
		PlatformUpdatedAt: m.PlatformUpdatedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		DeletedAt:         m.DeletedAt,
		DeletedBy:         m.DeletedBy,
		DeletionType:      m.DeletionType,
		IsTest:            m.IsTest,
		MarkedTestAt:      m.MarkedTestAt,
		MarkedTestBy:      m.MarkedTestBy,
		Items:             make([]order.OrderLineItem, len(m.Items)),
	}
	for i := range m.Items {
		o.Items[i] = *m.Items[i].ToDomain()
	}
	return o
}

// FromDomain populates the persistence model from a domain Order, items included
func (m *OrderModel) FromDomain(o *order.Order) {
	m.ShopDomain = m.AggregateModel.FromDomainShopAggregateRoot(o.ShopAggregateRoot)
	m.PlatformOrderID = o.PlatformOrderID
	m.OrderNumber = o.OrderNumber
	m.Name = o.Name
	m.Status = o.Status
	m.FinancialStatus = o.FinancialStatus
	m.Currency = o.Currency
	m.CustomerPlatformID = o.Customer.PlatformCustomerID
	m.CustomerEmail = o.Customer.Email
	m.CustomerFirstName = o.Customer.FirstName
	m.CustomerLastName = o.Customer.LastName
	m.CustomerPhone = o.Customer.Phone
	m.SubtotalPrice = o.SubtotalPrice
	m.TotalTax = o.TotalTax
	m.TotalPrice = o.TotalPrice
	m.PlatformUpdatedAt = o.PlatformUpdatedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.DeletedAt = o.DeletedAt
	m.DeletedBy = o.DeletedBy
	m.DeletionType = o.DeletionType
	m.IsTest = o.IsTest
	m.MarkedTestAt = o.MarkedTestAt
	m.MarkedTestBy = o.MarkedTestBy
	m.Items = make([]OrderLineItemModel, len(o.Items))
	for i := range o.Items {
		m.Items[i].FromDomain(&o.Items[i])
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineItemModel is the persistence model for order lines
type OrderLineItemModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_line_items_key,priority:1"`
	LineKey           string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_order_line_items_key,priority:2"`
	PlatformLineID    string          `gorm:"type:varchar(64)"`
	PlatformProductID string          `gorm:"type:varchar(64)"`
	PlatformVariantID string          `gorm:"type:varchar(64)"`
	SKU               string          `gorm:"column:sku;type:varchar(100)"`
	Title             string          `gorm:"type:varchar(255)"`
	Quantity          int64           `gorm:"not null"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProductID         *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt         time.Time       `gorm:"not null"`
	UpdatedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain OrderLineItem
func (m *OrderLineItemModel) ToDomain() *order.OrderLineItem {
	return &order.OrderLineItem{
		ID:                m.ID,
		OrderID:           m.OrderID,
		LineKey:           m.LineKey,
		PlatformLineID:    m.PlatformLineID,
		PlatformProductID: m.PlatformProductID,
		PlatformVariantID: m.PlatformVariantID,
		SKU:               m.SKU,
		Title:             m.Title,
		Quantity:          m.Quantity,
		UnitPrice:         m.UnitPrice,
		ProductID:         m.ProductID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain OrderLineItem
func (m *OrderLineItemModel) FromDomain(li *order.OrderLineItem) {
	m.ID = li.ID
	m.OrderID = li.OrderID
	m.LineKey = li.LineKey
	m.PlatformLineID = li.PlatformLineID
	m.PlatformProductID = li.PlatformProductID
	m.PlatformVariantID = li.PlatformVariantID
	m.SKU = li.SKU
	m.Title = li.Title
	m.Quantity = li.Quantity
	m.UnitPrice = li.UnitPrice
	m.ProductID = li.ProductID
	m.CreatedAt = li.CreatedAt
	m.UpdatedAt = li.UpdatedAt
}

// OrderStatusHistoryModel is the persistence model for status history
type OrderStatusHistoryModel struct {
	ID        uuid.UUID           `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	Action    order.HistoryAction `gorm:"type:varchar(30);not null"`
	FromState order.State         `gorm:"type:varchar(20)"`
	ToState   order.State         `gorm:"type:varchar(20);not null"`
	Actor     string              `gorm:"type:varchar(100)"`
	Note      string              `gorm:"type:text"`
	CreatedAt time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderStatusHistoryModel) TableName() string {
	return "order_status_history"
}

// ToDomain converts the persistence model to a domain StatusHistory
func (m *OrderStatusHistoryModel) ToDomain() *order.StatusHistory {
	return &order.StatusHistory{
		ID:        m.ID,
		OrderID:   m.OrderID,
		Action:    m.Action,
		FromState: m.FromState,
		ToState:   m.ToState,
		Actor:     m.Actor,
		Note:      m.Note,
		CreatedAt: m.CreatedAt,
	}
}

// OrderStatusHistoryModelFromDomain creates a new persistence model from a domain StatusHistory
func OrderStatusHistoryModelFromDomain(h *order.StatusHistory) *OrderStatusHistoryModel {
	return &OrderStatusHistoryModel{
		ID:        h.ID,
		OrderID:   h.OrderID,
		Action:    h.Action,
		FromState: h.FromState,
		ToState:   h.ToState,
		Actor:     h.Actor,
		Note:      h.Note,
		CreatedAt: h.CreatedAt,
	}
}

// FulfillmentModel is the persistence model for fulfillments
type FulfillmentModel struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID               uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fulfillments_platform,priority:1"`
	ShopDomain            string    `gorm:"type:varchar(255);not null"`
	PlatformFulfillmentID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_fulfillments_platform,priority:2"`
	Status                string    `gorm:"type:varchar(50)"`
	TrackingCompany       string    `gorm:"type:varchar(100)"`
	TrackingNumber        string    `gorm:"type:varchar(100)"`
	BlockedUnmapped       bool      `gorm:"not null;default:false"`
	PlatformUpdatedAt     *time.Time
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FulfillmentModel) TableName() string {
	return "fulfillments"
}

// ToDomain converts the persistence model to a domain Fulfillment
func (m *FulfillmentModel) ToDomain() *order.Fulfillment {
	return &order.Fulfillment{
		ID:                    m.ID,
		OrderID:               m.OrderID,
		ShopDomain:            m.ShopDomain,
		PlatformFulfillmentID: m.PlatformFulfillmentID,
		Status:                m.Status,
		TrackingCompany:       m.TrackingCompany,
		TrackingNumber:        m.TrackingNumber,
		BlockedUnmapped:       m.BlockedUnmapped,
		PlatformUpdatedAt:     m.PlatformUpdatedAt,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

// FulfillmentModelFromDomain creates a new persistence model from a domain Fulfillment
func FulfillmentModelFromDomain(f *order.Fulfillment) *FulfillmentModel {
	return &FulfillmentModel{
		ID:                    f.ID,
		OrderID:               f.OrderID,
		ShopDomain:            f.ShopDomain,
		PlatformFulfillmentID: f.PlatformFulfillmentID,
		Status:                f.Status,
		TrackingCompany:       f.TrackingCompany,
		TrackingNumber:        f.TrackingNumber,
		BlockedUnmapped:       f.BlockedUnmapped,
		PlatformUpdatedAt:     f.PlatformUpdatedAt,
		CreatedAt:             f.CreatedAt,
		UpdatedAt:             f.UpdatedAt,
	}
}

// OrderTombstoneModel remembers hard-deleted orders
type OrderTombstoneModel struct {
	ShopDomain      string    `gorm:"type:varchar(255);primaryKey"`
	OrderNumber     string    `gorm:"type:varchar(64);primaryKey"`
	PlatformOrderID string    `gorm:"type:varchar(64);index"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null"`
	DeletedBy       string    `gorm:"type:varchar(100)"`
	DeletedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderTombstoneModel) TableName() string {
	return "order_tombstones"
}

// OrderTombstoneModelFromDomain creates a new persistence model from a domain Tombstone
func OrderTombstoneModelFromDomain(t *order.Tombstone) *OrderTombstoneModel {
	return &OrderTombstoneModel{
		ShopDomain:      t.ShopDomain,
		OrderNumber:     t.OrderNumber,
		PlatformOrderID: t.PlatformOrderID,
		OrderID:         t.OrderID,
		DeletedBy:       t.DeletedBy,
		DeletedAt:       t.DeletedAt,
	}
}
