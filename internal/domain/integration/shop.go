package integration

import (
	"context"
	"time"

	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/google/uuid"
)

// IntegrationType describes how a shop is connected. It decides which secret
// signs the shop's webhooks, but in practice shops migrate between types
// and the verifier discovers the secret by trying both.
type IntegrationType string

const (
	// IntegrationTypeApp shops installed the public app; webhooks are signed
	// with the app-wide secret
	IntegrationTypeApp IntegrationType = "APP"
	// IntegrationTypeCustom shops use a custom integration with its own secret
	IntegrationTypeCustom IntegrationType = "CUSTOM"
)

// IsValid returns true if the integration type is valid
func (t IntegrationType) IsValid() bool {
	return t == IntegrationTypeApp || t == IntegrationTypeCustom
}

// Shop is a connected platform store
type Shop struct {
	ID              uuid.UUID
	Domain          string
	Name            string
	IntegrationType IntegrationType
	// WebhookSecret is the custom integration secret; empty for app shops
	WebhookSecret string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewShop creates an active shop
func NewShop(domain string, integrationType IntegrationType, webhookSecret string) (*Shop, error) {
	domain = shared.NormalizeShopDomain(domain)
	if domain == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop domain is required")
	}
	if !integrationType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid integration type")
	}
	if integrationType == IntegrationTypeCustom && webhookSecret == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Custom integrations require a webhook secret")
	}
	now := shared.Now()
	return &Shop{
		ID:              uuid.New(),
		Domain:          domain,
		IntegrationType: integrationType,
		WebhookSecret:   webhookSecret,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ShopRepository persists shops
type ShopRepository interface {
	FindByDomain(ctx context.Context, domain string) (*Shop, error)
	Save(ctx context.Context, shop *Shop) error
}
