package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlatformID is an identifier assigned by the platform. The platform sends
// ids as JSON numbers in some payloads and strings in others.
type PlatformID string

// UnmarshalJSON accepts a JSON number, string or null
func (id *PlatformID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = PlatformID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("platform id must be a number or string: %w", err)
	}
	*id = PlatformID(n.String())
	return nil
}

// String returns the string representation of PlatformID
func (id PlatformID) String() string {
	return string(id)
}

// IsZero reports whether the id is absent
func (id PlatformID) IsZero() bool {
	return id == ""
}

// CustomerPayload is the customer block of an order snapshot
type CustomerPayload struct {
	ID        PlatformID `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone"`
}

// LineItemPayload is one line of an order snapshot
type LineItemPayload struct {
	ID        PlatformID      `json:"id"`
	ProductID PlatformID      `json:"product_id"`
	VariantID PlatformID      `json:"variant_id"`
	SKU       string          `json:"sku" validate:"max=255"`
	Title     string          `json:"title" validate:"max=512"`
	Quantity  int64           `json:"quantity" validate:"gte=0"`
	Price     decimal.Decimal `json:"price"`
}

// Key identifies the line across snapshots: the platform line id when sent,
// otherwise sku plus variant.
func (li LineItemPayload) Key() string {
	if !li.ID.IsZero() {
		return "id:" + li.ID.String()
	}
	return "sku:" + strings.ToLower(strings.TrimSpace(li.SKU)) + "|" + li.VariantID.String()
}

// OrderPayload is the snapshot carried by order/create, order/update and
// order/cancel events.
type OrderPayload struct {
	ID              PlatformID        `json:"id"`
	OrderNumber     PlatformID        `json:"order_number" validate:"required"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	CreatedAt       *time.Time        `json:"created_at"`
	UpdatedAt       *time.Time        `json:"updated_at"`
	CancelledAt     *time.Time        `json:"cancelled_at"`
	CancelReason    string            `json:"cancel_reason"`
	FinancialStatus string            `json:"financial_status"`
	Currency        string            `json:"currency" validate:"omitempty,len=3"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	SubtotalPrice   decimal.Decimal   `json:"subtotal_price"`
	TotalTax        decimal.Decimal   `json:"total_tax"`
	Customer        *CustomerPayload  `json:"customer" validate:"omitempty"`
	LineItems       []LineItemPayload `json:"line_items" validate:"dive"`
	Test            bool              `json:"test"`
}

// Version is the snapshot timestamp used for staleness checks. Payloads
// without updated_at fall back to created_at; the zero time means unknown.
func (p *OrderPayload) Version() time.Time {
	switch {
	case p.UpdatedAt != nil:
		return p.UpdatedAt.UTC()
	case p.CreatedAt != nil:
		return p.CreatedAt.UTC()
	}
	return time.Time{}
}

// IsCancelled reports whether the snapshot describes a cancelled order
func (p *OrderPayload) IsCancelled() bool {
	return p.CancelledAt != nil
}

// FulfillmentPayload is carried by fulfillment/update events
type FulfillmentPayload struct {
	ID              PlatformID        `json:"id" validate:"required"`
	OrderID         PlatformID        `json:"order_id" validate:"required"`
	Status          string            `json:"status" validate:"required,max=64"`
	TrackingCompany string            `json:"tracking_company"`
	TrackingNumber  string            `json:"tracking_number"`
	UpdatedAt       *time.Time        `json:"updated_at"`
	LineItems       []LineItemPayload `json:"line_items" validate:"dive"`
}

// Version is the snapshot timestamp of the fulfillment
func (p *FulfillmentPayload) Version() time.Time {
	if p.UpdatedAt != nil {
		return p.UpdatedAt.UTC()
	}
	return time.Time{}
}
