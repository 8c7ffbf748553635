package order

import (
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// Fulfillment is the platform's shipment record for an order
type Fulfillment struct {
	ID                    uuid.UUID
	OrderID               uuid.UUID
	ShopDomain            string
	PlatformFulfillmentID string
	Status                string
	TrackingCompany       string
	TrackingNumber        string
	// BlockedUnmapped is set while any order line lacks a local product;
	// fulfillment tooling must not ship those lines.
	BlockedUnmapped   bool
	PlatformUpdatedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewFulfillment creates a fulfillment record for an order
func NewFulfillment(o *Order, platformFulfillmentID string) *Fulfillment {
	now := shared.Now()
	return &Fulfillment{
		ID:                    uuid.New(),
		OrderID:               o.ID,
		ShopDomain:            o.ShopDomain,
		PlatformFulfillmentID: platformFulfillmentID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// IsStale reports whether a snapshot at version is older than the last applied
func (f *Fulfillment) IsStale(version time.Time) bool {
	if version.IsZero() || f.PlatformUpdatedAt == nil {
		return false
	}
	return version.Before(*f.PlatformUpdatedAt)
}

// Apply refreshes the record from a platform snapshot
func (f *Fulfillment) Apply(status, trackingCompany, trackingNumber string, version time.Time, blocked bool) {
	f.Status = status
	f.TrackingCompany = trackingCompany
	f.TrackingNumber = trackingNumber
	f.BlockedUnmapped = blocked
	if !version.IsZero() {
		v := version.UTC()
		f.PlatformUpdatedAt = &v
	}
	f.UpdatedAt = shared.Now()
}
