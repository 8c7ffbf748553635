package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/orderhook/internal/application/ledger"
	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ApplyOutcome describes what applying one event did
type ApplyOutcome struct {
	Outcome   webhook.Outcome          `json:"outcome"`
	OrderID   *uuid.UUID               `json:"order_id,omitempty"`
	State     order.State              `json:"state,omitempty"`
	Movements []ledger.MovementSummary `json:"movements,omitempty"`
	Warnings  []Warning                `json:"warnings,omitempty"`
}

func skippedStale() *ApplyOutcome {
	return &ApplyOutcome{Outcome: webhook.OutcomeSkippedStale}
}

// EventApplier applies a single recorded event to the order ledger
type EventApplier interface {
	Apply(ctx context.Context, event *webhook.WebhookEvent) (*ApplyOutcome, error)
}

// Applier projects webhook events onto orders, line items, fulfillments and
// inventory. Each event is applied in one transaction holding a row lock on
// the order, so concurrent events for the same order serialize and the
// ledger never reflects half an event.
type Applier struct {
	scope    ledger.TransactionScope
	decoder  *PayloadDecoder
	reserver *ledger.Reserver
	logger   *zap.Logger
}

// ApplierConfig contains the dependencies of an Applier
type ApplierConfig struct {
	Scope    ledger.TransactionScope
	Decoder  *PayloadDecoder
	Reserver *ledger.Reserver
	Logger   *zap.Logger
}

// NewApplier creates a new Applier
func NewApplier(cfg ApplierConfig) *Applier {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	decoder := cfg.Decoder
	if decoder == nil {
		decoder = MustNewPayloadDecoder()
	}
	reserver := cfg.Reserver
	if reserver == nil {
		reserver = ledger.NewReserver(logger)
	}
	return &Applier{
		scope:    cfg.Scope,
		decoder:  decoder,
		reserver: reserver,
		logger:   logger,
	}
}

// Apply applies event. Failures are returned as webhook.ApplyError values
// when their kind is known; unclassified errors are treated as transient.
func (a *Applier) Apply(ctx context.Context, event *webhook.WebhookEvent) (*ApplyOutcome, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook_applier", "apply",
		telemetry.WithAttribute(telemetry.SpanAttrShopDomain, event.ShopDomain),
		telemetry.WithAttribute(telemetry.SpanAttrEventID, event.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrTopic, event.Topic.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAttempts, event.Attempts),
		telemetry.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	outcome, err := a.apply(ctx, event)
	if err != nil {
		telemetry.RecordError(span, err)
		telemetry.SetAttribute(span, telemetry.SpanAttrErrorKind, string(webhook.ClassifyError(err)))
		return nil, err
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrOutcome, string(outcome.Outcome))
	if outcome.OrderID != nil {
		telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, outcome.OrderID.String())
	}
	telemetry.SetOK(span)
	return outcome, nil
}

func (a *Applier) apply(ctx context.Context, event *webhook.WebhookEvent) (*ApplyOutcome, error) {
	switch {
	case !event.Topic.IsKnown():
		return nil, webhook.Permanent(fmt.Errorf("%w: %s", webhook.ErrUnknownTopic, event.Topic))
	case event.Topic.IsOrderTopic():
		payload, err := a.decoder.DecodeOrder(event.Payload)
		if err != nil {
			return nil, webhook.Permanent(err)
		}
		return a.applyOrder(ctx, event, payload)
	default:
		payload, err := a.decoder.DecodeFulfillment(event.Payload)
		if err != nil {
			return nil, webhook.Permanent(err)
		}
		return a.applyFulfillment(ctx, event, payload)
	}
}

func (a *Applier) applyOrder(ctx context.Context, event *webhook.WebhookEvent, p *webhook.OrderPayload) (*ApplyOutcome, error) {
	var outcome *ApplyOutcome
	err := a.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		orderNumber := p.OrderNumber.String()
		platformID := p.ID.String()

		// Tombstones are checked only after the lock attempt. A hard delete
		// holding the row has committed its tombstone by the time it returns.
		o, err := repos.Orders().LockByOrderNumber(ctx, event.ShopDomain, orderNumber)
		if errors.Is(err, shared.ErrNotFound) && platformID != "" {
			o, err = repos.Orders().LockByPlatformOrderID(ctx, event.ShopDomain, platformID)
		}
		isNew := false
		switch {
		case errors.Is(err, shared.ErrNotFound):
			var tombstoned bool
			tombstoned, err = repos.Tombstones().Exists(ctx, event.ShopDomain, orderNumber, platformID)
			if err != nil {
				return fmt.Errorf("failed to check tombstones: %w", err)
			}
			if tombstoned {
				a.logger.Info("Skipping event for hard-deleted order",
					zap.String("shop_domain", event.ShopDomain),
					zap.String("event_id", event.ID.String()),
					zap.String("order_number", orderNumber),
				)
				outcome = skippedStale()
				return nil
			}
			o, err = order.NewOrder(event.ShopDomain, orderNumber)
			if err != nil {
				return webhook.Permanent(err)
			}
			isNew = true
		case err != nil:
			return fmt.Errorf("failed to lock order: %w", err)
		}

		version := p.Version()
		if !isNew && o.IsStale(version) {
			a.logger.Info("Skipping stale order snapshot",
				zap.String("shop_domain", event.ShopDomain),
				zap.String("event_id", event.ID.String()),
				zap.String("order_number", orderNumber),
				zap.Time("snapshot_version", version),
			)
			outcome = skippedStale()
			return nil
		}
		advanced := o.PlatformUpdatedAt == nil || version.After(*o.PlatformUpdatedAt)

		inputs, warnings, err := resolveLineItems(ctx, repos, event.ShopDomain, p.LineItems)
		if err != nil {
			return err
		}

		prev := o.State()
		o.ApplySnapshot(snapshotFrom(p, version))
		diff := o.ReconcileItems(inputs)

		cancelled := false
		if (p.IsCancelled() || event.Topic == webhook.TopicOrderCancel) && !o.IsCancelled() {
			at := shared.Now()
			if p.CancelledAt != nil {
				at = *p.CancelledAt
			}
			if err := o.Cancel(p.CancelReason, at); err != nil {
				return err
			}
			cancelled = true
		}

		if isNew {
			if err := repos.Orders().Create(ctx, o); err != nil {
				return fmt.Errorf("failed to create order: %w", err)
			}
		} else if err := repos.Orders().Save(ctx, o, diff); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		movements, err := a.reconcileStock(ctx, repos, o, event.Topic)
		if err != nil {
			return err
		}

		var history []*order.StatusHistory
		note := "topic=" + event.Topic.String()
		if isNew {
			history = append(history, order.NewStatusHistory(o, "", order.ActionCreated, "", note))
		} else if advanced || !diff.IsEmpty() {
			history = append(history, order.NewStatusHistory(o, prev, order.ActionUpdated, "", note))
		}
		if cancelled {
			history = append(history, order.NewStatusHistory(o, prev, order.ActionCancelled, "", p.CancelReason))
		}
		if len(history) > 0 {
			if err := repos.History().Append(ctx, history...); err != nil {
				return fmt.Errorf("failed to append order history: %w", err)
			}
		}

		if len(history) > 0 || len(movements) > 0 {
			notificationType := ledger.NotificationOrderUpdated
			switch {
			case cancelled:
				notificationType = ledger.NotificationOrderCancelled
			case isNew:
				notificationType = ledger.NotificationOrderCreated
			}
			entry, err := ledger.NewOrderNotification(o, notificationType, "", movements)
			if err != nil {
				return err
			}
			if err := repos.Outbox().Save(ctx, entry); err != nil {
				return fmt.Errorf("failed to save notification: %w", err)
			}
		}

		id := o.ID
		outcome = &ApplyOutcome{
			Outcome:   webhook.OutcomeApplied,
			OrderID:   &id,
			State:     o.State(),
			Movements: summarize(movements),
			Warnings:  warnings,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(outcome.Warnings) > 0 {
		a.logger.Warn("Order applied with unmapped line items",
			zap.String("shop_domain", event.ShopDomain),
			zap.String("event_id", event.ID.String()),
			zap.Int("unmapped", len(outcome.Warnings)),
		)
	}
	return outcome, nil
}

// reconcileStock brings the order's reservation in line with its lines. A
// cancelled order holds nothing; once its RELEASE movements exist later
// snapshots write no further stock changes.
func (a *Applier) reconcileStock(
	ctx context.Context,
	repos ledger.TransactionalRepositories,
	o *order.Order,
	topic webhook.Topic,
) ([]*inventory.Movement, error) {
	if o.IsCancelled() {
		released, err := repos.Movements().ExistsForOrder(ctx, o.ID, inventory.MovementTypeRelease)
		if err != nil {
			return nil, fmt.Errorf("failed to check release movements: %w", err)
		}
		if released {
			return nil, nil
		}
		return a.reserver.Reconcile(ctx, repos, o, o.DesiredReservation(), inventory.MovementTypeRelease, "order cancelled")
	}
	return a.reserver.Reconcile(ctx, repos, o, o.DesiredReservation(), inventory.MovementTypeAdjust, "webhook "+topic.String())
}

func (a *Applier) applyFulfillment(ctx context.Context, event *webhook.WebhookEvent, p *webhook.FulfillmentPayload) (*ApplyOutcome, error) {
	var outcome *ApplyOutcome
	err := a.scope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		platformOrderID := p.OrderID.String()
		o, err := repos.Orders().LockByPlatformOrderID(ctx, event.ShopDomain, platformOrderID)
		if errors.Is(err, shared.ErrNotFound) {
			tombstoned, err := repos.Tombstones().Exists(ctx, event.ShopDomain, "", platformOrderID)
			if err != nil {
				return fmt.Errorf("failed to check tombstones: %w", err)
			}
			if tombstoned {
				outcome = skippedStale()
				return nil
			}
			return webhook.Transient(fmt.Errorf("%w: platform order %s", webhook.ErrOrderNotFound, platformOrderID))
		}
		if err != nil {
			return fmt.Errorf("failed to lock order: %w", err)
		}

		f, err := repos.Fulfillments().FindByPlatformID(ctx, o.ID, p.ID.String())
		switch {
		case errors.Is(err, shared.ErrNotFound):
			f = order.NewFulfillment(o, p.ID.String())
		case err != nil:
			return fmt.Errorf("failed to load fulfillment: %w", err)
		}

		version := p.Version()
		if f.IsStale(version) {
			outcome = skippedStale()
			return nil
		}

		blocked := fulfillmentBlocked(o, p.LineItems)
		f.Apply(p.Status, p.TrackingCompany, p.TrackingNumber, version, blocked)
		if err := repos.Fulfillments().Save(ctx, f); err != nil {
			return fmt.Errorf("failed to save fulfillment: %w", err)
		}

		entry, err := ledger.NewOrderNotification(o, ledger.NotificationFulfillmentUpdate, "", nil)
		if err != nil {
			return err
		}
		if err := repos.Outbox().Save(ctx, entry); err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}

		id := o.ID
		outcome = &ApplyOutcome{Outcome: webhook.OutcomeApplied, OrderID: &id, State: o.State()}
		if blocked {
			outcome.Warnings = append(outcome.Warnings, Warning{
				Code:    WarningFulfillmentBlocked,
				Message: "Fulfillment covers line items without a local product",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// fulfillmentBlocked reports whether the fulfillment touches unmapped lines.
// A fulfillment without line items covers the whole order.
func fulfillmentBlocked(o *order.Order, lines []webhook.LineItemPayload) bool {
	unmapped := o.UnmappedItems()
	if len(unmapped) == 0 {
		return false
	}
	if len(lines) == 0 {
		return true
	}
	keys := make(map[string]struct{}, len(unmapped))
	for _, item := range unmapped {
		keys[item.LineKey] = struct{}{}
	}
	for _, li := range lines {
		if _, ok := keys[li.Key()]; ok {
			return true
		}
	}
	return false
}

func snapshotFrom(p *webhook.OrderPayload, version time.Time) order.Snapshot {
	s := order.Snapshot{
		PlatformOrderID: p.ID.String(),
		OrderNumber:     p.OrderNumber.String(),
		Name:            p.Name,
		FinancialStatus: p.FinancialStatus,
		Currency:        p.Currency,
		SubtotalPrice:   p.SubtotalPrice,
		TotalTax:        p.TotalTax,
		TotalPrice:      p.TotalPrice,
		Version:         version,
		Test:            p.Test,
	}
	if p.Customer != nil {
		s.Customer = order.CustomerSnapshot{
			PlatformCustomerID: p.Customer.ID.String(),
			Email:              p.Customer.Email,
			FirstName:          p.Customer.FirstName,
			LastName:           p.Customer.LastName,
			Phone:              p.Customer.Phone,
		}
	} else if p.Email != "" {
		s.Customer.Email = p.Email
	}
	return s
}

func summarize(movements []*inventory.Movement) []ledger.MovementSummary {
	if len(movements) == 0 {
		return nil
	}
	out := make([]ledger.MovementSummary, 0, len(movements))
	for _, mv := range movements {
		out = append(out, ledger.MovementSummary{
			ProductID: mv.ProductID,
			Type:      string(mv.Type),
			Delta:     mv.Delta,
		})
	}
	return out
}
