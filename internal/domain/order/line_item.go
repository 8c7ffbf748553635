package order

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLineItem is one line of an order. ProductID is nil when the platform
// product has no local counterpart (an unmapped line).
type OrderLineItem struct {
	ID                uuid.UUID
	OrderID           uuid.UUID
	LineKey           string
	PlatformLineID    string
	PlatformProductID string
	PlatformVariantID string
	SKU               string
	Title             string
	Quantity          int64
	UnitPrice         decimal.Decimal
	ProductID         *uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsMapped returns true if the line resolved to a local product
func (li *OrderLineItem) IsMapped() bool {
	return li.ProductID != nil
}

// LineTotal returns quantity * unit price
func (li *OrderLineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// LineItemInput is a platform line after product resolution
type LineItemInput struct {
	Key               string
	PlatformLineID    string
	PlatformProductID string
	PlatformVariantID string
	SKU               string
	Title             string
	Quantity          int64
	UnitPrice         decimal.Decimal
	ProductID         *uuid.UUID
}

// LineItemDiff summarizes a reconciliation
type LineItemDiff struct {
	Added   []OrderLineItem
	Updated []OrderLineItem
	Removed []OrderLineItem
}

// IsEmpty returns true if nothing changed
func (d LineItemDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// ReconcileItems replaces the order's lines with the platform's current set.
// Lines are matched by key; matches keep their local id and have quantity,
// price and product refreshed, unmatched current lines are removed and new
// ones inserted. Inputs sharing a key are merged by summing quantities.
func (o *Order) ReconcileItems(inputs []LineItemInput) LineItemDiff {
	now := shared.Now()
	merged := make([]LineItemInput, 0, len(inputs))
	index := make(map[string]int, len(inputs))
	for _, in := range inputs {
		if i, ok := index[in.Key]; ok {
			merged[i].Quantity += in.Quantity
			continue
		}
		index[in.Key] = len(merged)
		merged = append(merged, in)
	}

	existing := make(map[string]OrderLineItem, len(o.Items))
	for _, item := range o.Items {
		existing[item.LineKey] = item
	}

	var diff LineItemDiff
	next := make([]OrderLineItem, 0, len(merged))
	for _, in := range merged {
		item, ok := existing[in.Key]
		if !ok {
			item = OrderLineItem{
				ID:        uuid.New(),
				OrderID:   o.ID,
				LineKey:   in.Key,
				CreatedAt: now,
			}
		}
		changed := !ok || item.Quantity != in.Quantity || !item.UnitPrice.Equal(in.UnitPrice) ||
			!sameProduct(item.ProductID, in.ProductID) || item.SKU != in.SKU || item.Title != in.Title

		item.PlatformLineID = in.PlatformLineID
		item.PlatformProductID = in.PlatformProductID
		item.PlatformVariantID = in.PlatformVariantID
		item.SKU = in.SKU
		item.Title = in.Title
		item.Quantity = in.Quantity
		item.UnitPrice = in.UnitPrice
		item.ProductID = in.ProductID
		if changed {
			item.UpdatedAt = now
		}

		switch {
		case !ok:
			diff.Added = append(diff.Added, item)
		case changed:
			diff.Updated = append(diff.Updated, item)
		}
		delete(existing, in.Key)
		next = append(next, item)
	}

	for _, item := range o.Items {
		if _, gone := existing[item.LineKey]; gone {
			diff.Removed = append(diff.Removed, item)
		}
	}

	o.Items = next
	return diff
}

func sameProduct(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
