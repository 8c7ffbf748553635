package shared

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity returns an entity with a fresh ID stamped now
func NewBaseEntity() BaseEntity {
	now := Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch bumps UpdatedAt
func (e *BaseEntity) Touch() {
	e.UpdatedAt = Now()
}

// BaseAggregateRoot adds the row version used for optimistic locking.
// Version starts at 1 and grows with every persisted mutation.
type BaseAggregateRoot struct {
	BaseEntity
	Version int
}

// GetVersion returns the row version
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// IncrementVersion records a mutation
func (a *BaseAggregateRoot) IncrementVersion() {
	a.Version++
	a.Touch()
}

// ShopAggregateRoot is an aggregate owned by one shop. Everything that
// originates from the platform is scoped this way.
type ShopAggregateRoot struct {
	BaseAggregateRoot
	ShopDomain string
}

// NewShopAggregateRoot starts a version 1 aggregate for shopDomain
func NewShopAggregateRoot(shopDomain string) ShopAggregateRoot {
	return ShopAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1},
		ShopDomain:        NormalizeShopDomain(shopDomain),
	}
}

// NormalizeShopDomain lowercases and trims a shop domain so that
// "Store.myshopify.com " and "store.myshopify.com" address the same shop.
func NormalizeShopDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// Now returns the current time in UTC. All persisted timestamps go through
// it so that stored values compare consistently across drivers.
func Now() time.Time {
	return time.Now().UTC()
}
