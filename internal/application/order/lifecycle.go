package order

import (
	"context"
	"fmt"

	"github.com/erp/orderhook/internal/application/ledger"
	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lifecycle operation names used in logs and metrics
const (
	OperationSoftDelete = "soft_delete"
	OperationRestore    = "restore"
	OperationHardDelete = "hard_delete"
	OperationMarkTest   = "mark_test"
)

// ErrHardDeleteForbidden is returned when a non-owner attempts a hard delete
var ErrHardDeleteForbidden = shared.NewDomainError("FORBIDDEN", "Only shop owners can permanently delete orders")

// LifecycleService performs manual order operations. Every mutation runs in
// one transaction holding the order's row lock, so it serializes with
// webhook applies for the same order.
type LifecycleService struct {
	scope        ledger.TransactionScope
	orders       order.OrderRepository
	history      order.HistoryRepository
	fulfillments order.FulfillmentRepository
	movements    inventory.MovementRepository
	reserver     *ledger.Reserver
	metrics      *telemetry.Metrics
	logger       *zap.Logger
}

// LifecycleServiceConfig contains the dependencies of a LifecycleService.
// The read repositories are used outside transactions by Get and List.
type LifecycleServiceConfig struct {
	Scope        ledger.TransactionScope
	Orders       order.OrderRepository
	History      order.HistoryRepository
	Fulfillments order.FulfillmentRepository
	Movements    inventory.MovementRepository
	Reserver     *ledger.Reserver
	Metrics      *telemetry.Metrics
	Logger       *zap.Logger
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(cfg LifecycleServiceConfig) *LifecycleService {
	s := &LifecycleService{
		scope:        cfg.Scope,
		orders:       cfg.Orders,
		history:      cfg.History,
		fulfillments: cfg.Fulfillments,
		movements:    cfg.Movements,
		reserver:     cfg.Reserver,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.reserver == nil {
		s.reserver = ledger.NewReserver(s.logger).WithMetrics(cfg.Metrics)
	}
	return s
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Get returns an order with its fulfillments, history and movements
func (s *LifecycleService) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToOrderResponse(o)

	if s.fulfillments != nil {
		fs, err := s.fulfillments.ListByOrder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load fulfillments: %w", err)
		}
		resp.Fulfillments = toFulfillmentResponses(fs)
	}
	if s.history != nil {
		entries, err := s.history.ListByOrder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load history: %w", err)
		}
		resp.History = toHistoryResponses(entries)
	}
	if s.movements != nil {
		mvs, err := s.movements.ListByOrder(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load movements: %w", err)
		}
		resp.Movements = toMovementResponses(mvs)
	}
	return &resp, nil
}

// List pages through a shop's orders. Soft-deleted orders are hidden unless
// the filter sets include_deleted.
func (s *LifecycleService) List(ctx context.Context, shopDomain string, filter shared.Filter) ([]OrderListItem, int64, error) {
	orders, total, err := s.orders.List(ctx, shopDomain, filter)
	if err != nil {
		return nil, 0, err
	}
	items := make([]OrderListItem, 0, len(orders))
	for i := range orders {
		items = append(items, ToOrderListItem(&orders[i]))
	}
	return items, total, nil
}

// ---------------------------------------------------------------------------
// Lifecycle operations
// ---------------------------------------------------------------------------

// SoftDelete hides an active or cancelled order. Inventory is not touched.
func (s *LifecycleService) SoftDelete(ctx context.Context, id uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	return s.transition(ctx, OperationSoftDelete, id, actor, func(o *order.Order) (order.HistoryAction, string, error) {
		if err := o.SoftDelete(actor.ID, shared.Now()); err != nil {
			return "", "", err
		}
		return order.ActionSoftDeleted, ledger.NotificationOrderSoftDeleted, nil
	})
}

// Restore returns a soft-deleted order to view exactly as it was
func (s *LifecycleService) Restore(ctx context.Context, id uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	return s.transition(ctx, OperationRestore, id, actor, func(o *order.Order) (order.HistoryAction, string, error) {
		if err := o.Restore(); err != nil {
			return "", "", err
		}
		return order.ActionRestored, ledger.NotificationOrderRestored, nil
	})
}

// MarkTest flags an order as a test order. Marking an already flagged order
// changes nothing and writes no history.
func (s *LifecycleService) MarkTest(ctx context.Context, id uuid.UUID, actor order.Actor) (*OrderResponse, error) {
	return s.transition(ctx, OperationMarkTest, id, actor, func(o *order.Order) (order.HistoryAction, string, error) {
		if !o.MarkTest(actor.ID, shared.Now()) {
			return "", "", nil
		}
		return order.ActionMarkedTest, ledger.NotificationOrderMarkedTest, nil
	})
}

// mutation changes a locked order and names the history action and
// notification to record. An empty action means nothing changed.
type mutation func(o *order.Order) (order.HistoryAction, string, error)

func (s *LifecycleService) transition(ctx context.Context, op string, id uuid.UUID, actor order.Actor, mutate mutation) (resp *OrderResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_lifecycle", op,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id.String()),
		telemetry.WithAttribute(telemetry.SpanAttrActorID, actor.ID),
	)
	defer span.End()
	defer func() {
		s.metrics.RecordLifecycle(op, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if err := actor.Validate(); err != nil {
		return nil, err
	}

	var result OrderResponse
	err = s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		o, err := repos.Orders().LockByID(ctx, id)
		if err != nil {
			return err
		}
		prev := o.State()
		action, notification, err := mutate(o)
		if err != nil {
			return err
		}
		result = ToOrderResponse(o)
		if action == "" {
			return nil
		}

		if err := repos.Orders().Save(ctx, o, order.LineItemDiff{}); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		if err := repos.History().Append(ctx, order.NewStatusHistory(o, prev, action, actor.ID, "")); err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
		entry, err := ledger.NewOrderNotification(o, notification, actor.ID, nil)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderNumber, result.OrderNumber,
		telemetry.SpanAttrOrderState, result.State,
	)
	s.logger.Info("Order lifecycle operation",
		zap.String("operation", op),
		zap.String("order_id", id.String()),
		zap.String("state", result.State),
		zap.String("actor_id", actor.ID),
	)
	telemetry.SetOK(span)
	return &result, nil
}

// HardDelete irreversibly removes an order. Any stock the order still holds
// is returned through RESTORE movements first; the order's movements, lines,
// fulfillments and history are then removed with the order row and a
// tombstone keeps late platform events from recreating it. Everything runs
// in one transaction: a failure at any step leaves the order and stock as
// they were.
func (s *LifecycleService) HardDelete(ctx context.Context, id uuid.UUID, actor order.Actor) (result *HardDeleteResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order_lifecycle", OperationHardDelete,
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, id.String()),
		telemetry.WithAttribute(telemetry.SpanAttrActorID, actor.ID),
	)
	defer span.End()
	defer func() {
		s.metrics.RecordLifecycle(OperationHardDelete, err)
		if err != nil {
			telemetry.RecordError(span, err)
		}
	}()

	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if !actor.CanHardDelete() {
		return nil, ErrHardDeleteForbidden
	}

	err = s.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		o, err := repos.Orders().LockByID(ctx, id)
		if err != nil {
			return err
		}

		restored, err := s.reserver.Reconcile(ctx, repos, o, nil, inventory.MovementTypeRestore,
			"hard delete by "+actor.ID)
		if err != nil {
			return err
		}
		entry, err := ledger.NewOrderNotification(o, ledger.NotificationOrderHardDeleted, actor.ID, restored)
		if err != nil {
			return err
		}

		if _, err := repos.Movements().DeleteByOrder(ctx, o.ID); err != nil {
			return fmt.Errorf("failed to delete movements: %w", err)
		}
		if err := repos.Orders().Delete(ctx, o.ID); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		tombstone := order.NewTombstone(o, actor.ID)
		if err := repos.Tombstones().Save(ctx, tombstone); err != nil {
			return fmt.Errorf("failed to save tombstone: %w", err)
		}
		if err := repos.Outbox().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}

		result = &HardDeleteResult{
			OrderID:     o.ID,
			ShopDomain:  o.ShopDomain,
			OrderNumber: o.OrderNumber,
			Restored:    make([]ledger.MovementSummary, 0, len(restored)),
			DeletedBy:   actor.ID,
			DeletedAt:   tombstone.DeletedAt,
		}
		for _, mv := range restored {
			result.Restored = append(result.Restored, ledger.MovementSummary{
				ProductID: mv.ProductID,
				Type:      string(mv.Type),
				Delta:     mv.Delta,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order hard-deleted",
		zap.String("order_id", result.OrderID.String()),
		zap.String("shop_domain", result.ShopDomain),
		zap.String("order_number", result.OrderNumber),
		zap.Int("restored_movements", len(result.Restored)),
		zap.String("actor_id", actor.ID),
	)
	telemetry.SetOK(span)
	return result, nil
}
