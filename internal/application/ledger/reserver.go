package ledger

import (
	"context"
	"fmt"

	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Reserver writes inventory movements so the stock an order holds matches
// what it should hold. Stock only changes alongside a movement row.
type Reserver struct {
	logger  *zap.Logger
	metrics *telemetry.Metrics
}

// NewReserver creates a Reserver
func NewReserver(logger *zap.Logger) *Reserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reserver{logger: logger}
}

// WithMetrics counts written movements on m
func (r *Reserver) WithMetrics(m *telemetry.Metrics) *Reserver {
	r.metrics = m
	return r
}

// Reconcile brings the order's reservation to desired. It compares desired
// with the net of the order's recorded movements, writes one movement per
// product gap and applies the same delta to the product's stock. A second
// call with the same desired state writes nothing.
func (r *Reserver) Reconcile(
	ctx context.Context,
	repos TransactionalRepositories,
	o *order.Order,
	desired map[uuid.UUID]int64,
	releaseType inventory.MovementType,
	reason string,
) ([]*inventory.Movement, error) {
	current, err := repos.Movements().SumByOrder(ctx, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum movements for order: %w", err)
	}

	changes := inventory.PlanReservation(desired, current, releaseType)
	written := make([]*inventory.Movement, 0, len(changes))
	orderID := o.ID
	for _, change := range changes {
		mv, err := inventory.NewMovement(o.ShopDomain, change.ProductID, &orderID, change.Type, change.Delta, o.Reference(), reason)
		if err != nil {
			return nil, err
		}
		if err := repos.Movements().Create(ctx, mv); err != nil {
			return nil, fmt.Errorf("failed to record %s movement: %w", change.Type, err)
		}
		stock, err := repos.Products().ApplyDelta(ctx, change.ProductID, change.Delta)
		if err != nil {
			return nil, fmt.Errorf("failed to apply stock delta: %w", err)
		}
		if stock < 0 {
			r.logger.Warn("Product stock below zero",
				zap.String("shop_domain", o.ShopDomain),
				zap.String("product_id", change.ProductID.String()),
				zap.String("order_id", o.ID.String()),
				zap.Int64("stock", stock),
			)
		}
		r.metrics.RecordMovement(string(change.Type))
		written = append(written, mv)
	}
	return written, nil
}
