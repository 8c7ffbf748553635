package inventory

import (
	"strings"

	"github.com/erp/orderhook/internal/domain/shared"
)

// Product is a local inventory record. Stock is never assigned directly;
// it only moves through Movement records.
type Product struct {
	shared.ShopAggregateRoot
	SKU   string
	Name  string
	Stock int64
}

// NewProduct creates a product with opening stock. Opening stock is
// recorded by the caller as an ADJUST movement.
func NewProduct(shopDomain, sku, name string) (*Product, error) {
	sku = NormalizeSKU(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "SKU is required")
	}
	if shared.NormalizeShopDomain(shopDomain) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Shop domain is required")
	}
	return &Product{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopDomain),
		SKU:               sku,
		Name:              name,
	}, nil
}

// NormalizeSKU trims a SKU. SKUs are matched case-insensitively.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
