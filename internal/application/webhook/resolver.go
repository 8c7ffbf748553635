package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/orderhook/internal/application/ledger"
	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/google/uuid"
)

// Warning codes attached to apply outcomes
const (
	WarningUnmappedLineItem   = "UNMAPPED_LINE_ITEM"
	WarningFulfillmentBlocked = "FULFILLMENT_BLOCKED_UNMAPPED"
)

// Warning is a non-fatal condition found while applying an event
type Warning struct {
	Code      string `json:"code"`
	LineKey   string `json:"line_key,omitempty"`
	SKU       string `json:"sku,omitempty"`
	ProductID string `json:"platform_product_id,omitempty"`
	Message   string `json:"message"`
}

// resolveLineItems maps platform lines to local products: an active product
// mapping first, then the line's SKU. Lines matching neither are kept with
// no product and reported as warnings.
func resolveLineItems(
	ctx context.Context,
	repos ledger.TransactionalRepositories,
	shopDomain string,
	lines []webhook.LineItemPayload,
) ([]order.LineItemInput, []Warning, error) {
	inputs := make([]order.LineItemInput, 0, len(lines))
	var warnings []Warning
	for _, li := range lines {
		productID, err := resolveProduct(ctx, repos, shopDomain, li)
		if err != nil {
			return nil, nil, err
		}
		in := order.LineItemInput{
			Key:               li.Key(),
			PlatformLineID:    li.ID.String(),
			PlatformProductID: li.ProductID.String(),
			PlatformVariantID: li.VariantID.String(),
			SKU:               li.SKU,
			Title:             li.Title,
			Quantity:          li.Quantity,
			UnitPrice:         li.Price,
			ProductID:         productID,
		}
		if productID == nil {
			warnings = append(warnings, Warning{
				Code:      WarningUnmappedLineItem,
				LineKey:   in.Key,
				SKU:       li.SKU,
				ProductID: li.ProductID.String(),
				Message:   "Line item has no local product; stock is not reserved for it",
			})
		}
		inputs = append(inputs, in)
	}
	return inputs, warnings, nil
}

func resolveProduct(
	ctx context.Context,
	repos ledger.TransactionalRepositories,
	shopDomain string,
	li webhook.LineItemPayload,
) (*uuid.UUID, error) {
	if !li.ProductID.IsZero() {
		m, err := repos.Mappings().Resolve(ctx, shopDomain, li.ProductID.String(), li.VariantID.String())
		switch {
		case err == nil:
			id := m.LocalProductID
			return &id, nil
		case !errors.Is(err, shared.ErrNotFound):
			return nil, fmt.Errorf("failed to resolve product mapping: %w", err)
		}
	}

	sku := inventory.NormalizeSKU(li.SKU)
	if sku == "" {
		return nil, nil
	}
	p, err := repos.Products().FindBySKU(ctx, shopDomain, sku)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve product by sku: %w", err)
	}
	id := p.ID
	return &id, nil
}
