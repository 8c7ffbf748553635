package order

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateType is the outbox aggregate name for orders
const AggregateType = "Order"

// Status is the platform-driven order status
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCancelled Status = "CANCELLED"
)

// State is the externally visible lifecycle state, derived from status and
// soft-delete markers. The test flag is orthogonal and not part of it.
type State string

const (
	StateActive      State = "active"
	StateSoftDeleted State = "soft_deleted"
	StateCancelled   State = "cancelled"
)

// DeletionType records how an order was removed from view
type DeletionType string

const (
	DeletionTypeSoft DeletionType = "SOFT"
)

// CustomerSnapshot is the customer as seen on the latest applied snapshot
type CustomerSnapshot struct {
	PlatformCustomerID string
	Email              string
	FirstName          string
	LastName           string
	Phone              string
}

// Order is the local projection of a platform order
type Order struct {
	shared.ShopAggregateRoot
	PlatformOrderID   string
	OrderNumber       string
	Name              string
	Status            Status
	FinancialStatus   string
	Currency          string
	Customer          CustomerSnapshot
	SubtotalPrice     decimal.Decimal
	TotalTax          decimal.Decimal
	TotalPrice        decimal.Decimal
	Items             []OrderLineItem
	PlatformUpdatedAt *time.Time
	CancelledAt       *time.Time
	CancelReason      string
	DeletedAt         *time.Time
	DeletedBy         string
	DeletionType      DeletionType
	IsTest            bool
	MarkedTestAt      *time.Time
	MarkedTestBy      string
}

// Snapshot carries the header fields of a platform order snapshot
type Snapshot struct {
	PlatformOrderID string
	OrderNumber     string
	Name            string
	FinancialStatus string
	Currency        string
	Customer        CustomerSnapshot
	SubtotalPrice   decimal.Decimal
	TotalTax        decimal.Decimal
	TotalPrice      decimal.Decimal
	Version         time.Time
	Test            bool
}

// NewOrder creates an active order for a shop
func NewOrder(shopDomain, orderNumber string) (*Order, error) {
	if shared.NormalizeShopDomain(shopDomain) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop domain is required")
	}
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order number is required")
	}
	return &Order{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopDomain),
		OrderNumber:       orderNumber,
		Status:            StatusActive,
		SubtotalPrice:     decimal.Zero,
		TotalTax:          decimal.Zero,
		TotalPrice:        decimal.Zero,
		Items:             make([]OrderLineItem, 0),
	}, nil
}

// State returns the lifecycle state of the order
func (o *Order) State() State {
	switch {
	case o.DeletedAt != nil:
		return StateSoftDeleted
	case o.Status == StatusCancelled:
		return StateCancelled
	}
	return StateActive
}

// IsCancelled returns true if the platform cancelled the order
func (o *Order) IsCancelled() bool {
	return o.Status == StatusCancelled
}

// IsSoftDeleted returns true if the order carries soft-delete markers
func (o *Order) IsSoftDeleted() bool {
	return o.DeletedAt != nil
}

// IsStale reports whether a snapshot at version is older than the last one
// applied. Equal versions are not stale so redeliveries re-apply idempotently.
func (o *Order) IsStale(version time.Time) bool {
	if version.IsZero() || o.PlatformUpdatedAt == nil {
		return false
	}
	return version.Before(*o.PlatformUpdatedAt)
}

// ApplySnapshot merges header fields from a platform snapshot. Soft-delete
// and test markers set locally are preserved.
func (o *Order) ApplySnapshot(s Snapshot) {
	if s.PlatformOrderID != "" {
		o.PlatformOrderID = s.PlatformOrderID
	}
	if s.Name != "" {
		o.Name = s.Name
	}
	o.FinancialStatus = s.FinancialStatus
	if s.Currency != "" {
		o.Currency = s.Currency
	}
	o.Customer = s.Customer
	o.SubtotalPrice = s.SubtotalPrice
	o.TotalTax = s.TotalTax
	o.TotalPrice = s.TotalPrice
	if s.Test {
		o.IsTest = true
	}
	o.advanceVersion(s.Version)
	o.IncrementVersion()
}

func (o *Order) advanceVersion(version time.Time) {
	if version.IsZero() {
		return
	}
	if o.PlatformUpdatedAt == nil || version.After(*o.PlatformUpdatedAt) {
		v := version.UTC()
		o.PlatformUpdatedAt = &v
	}
}

// Cancel marks the order cancelled. Cancelling twice is an invalid transition;
// callers treating redelivered cancels as no-ops check IsCancelled first.
func (o *Order) Cancel(reason string, at time.Time) error {
	if o.Status == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Order is already cancelled")
	}
	at = at.UTC()
	o.Status = StatusCancelled
	o.CancelledAt = &at
	o.CancelReason = reason
	o.IncrementVersion()
	return nil
}

// SoftDelete hides the order without touching inventory
func (o *Order) SoftDelete(actorID string, now time.Time) error {
	if o.DeletedAt != nil {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Order is already soft-deleted")
	}
	o.DeletedAt = &now
	o.DeletedBy = actorID
	o.DeletionType = DeletionTypeSoft
	o.IncrementVersion()
	return nil
}

// Restore clears soft-delete markers. Only valid from soft_deleted.
func (o *Order) Restore() error {
	if o.DeletedAt == nil {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Only soft-deleted orders can be restored")
	}
	o.DeletedAt = nil
	o.DeletedBy = ""
	o.DeletionType = ""
	o.IncrementVersion()
	return nil
}

// MarkTest flags the order as a test order. It reports false when the order
// was already flagged.
func (o *Order) MarkTest(actorID string, now time.Time) bool {
	if o.IsTest && o.MarkedTestAt != nil {
		return false
	}
	o.IsTest = true
	o.MarkedTestAt = &now
	o.MarkedTestBy = actorID
	o.IncrementVersion()
	return true
}

// DesiredReservation returns the quantity this order should hold per local
// product: the sum over mapped lines, or nothing once cancelled.
func (o *Order) DesiredReservation() map[uuid.UUID]int64 {
	desired := make(map[uuid.UUID]int64)
	if o.IsCancelled() {
		return desired
	}
	for _, item := range o.Items {
		if item.ProductID == nil || item.Quantity <= 0 {
			continue
		}
		desired[*item.ProductID] += item.Quantity
	}
	return desired
}

// UnmappedItems returns lines without a local product
func (o *Order) UnmappedItems() []OrderLineItem {
	var out []OrderLineItem
	for _, item := range o.Items {
		if !item.IsMapped() {
			out = append(out, item)
		}
	}
	return out
}

// Reference is the human readable reference used in movement records
func (o *Order) Reference() string {
	if o.Name != "" {
		return o.Name
	}
	return "#" + o.OrderNumber
}
