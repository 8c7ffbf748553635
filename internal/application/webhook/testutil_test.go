package webhook

import (
	"context"
	"fmt"
	"testing"

	"github.com/erp/orderhook/internal/application/ledger"
	"github.com/erp/orderhook/internal/domain/integration"
	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/erp/orderhook/internal/infrastructure/persistence"
	"github.com/erp/orderhook/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testShop = "demo.myshopify.com"

// testLedger is an in-memory SQLite ledger with every repository wired.
// A single connection keeps the in-memory database shared by all queries.
type testLedger struct {
	db        *gorm.DB
	scope     ledger.TransactionScope
	events    *persistence.GormWebhookEventRepository
	orders    *persistence.GormOrderRepository
	history   *persistence.GormOrderHistoryRepository
	fulfill   *persistence.GormFulfillmentRepository
	products  *persistence.GormProductRepository
	movements *persistence.GormMovementRepository
	mappings  *persistence.GormProductMappingRepository
	outbox    *persistence.GormOutboxRepository
	applier   *Applier
}

func setupLedger(t *testing.T) *testLedger {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))

	l := &testLedger{
		db:        db,
		scope:     persistence.NewGormTransactionScope(db),
		events:    persistence.NewGormWebhookEventRepository(db),
		orders:    persistence.NewGormOrderRepository(db),
		history:   persistence.NewGormOrderHistoryRepository(db),
		fulfill:   persistence.NewGormFulfillmentRepository(db),
		products:  persistence.NewGormProductRepository(db),
		movements: persistence.NewGormMovementRepository(db),
		mappings:  persistence.NewGormProductMappingRepository(db),
		outbox:    persistence.NewGormOutboxRepository(db),
	}
	l.applier = NewApplier(ApplierConfig{Scope: l.scope, Logger: zap.NewNop()})
	return l
}

// addProduct creates a product holding stock units
func (l *testLedger) addProduct(t *testing.T, sku string, stock int64) *inventory.Product {
	t.Helper()
	p, err := inventory.NewProduct(testShop, sku, "Product "+sku)
	require.NoError(t, err)
	p.Stock = stock
	require.NoError(t, l.products.Create(context.Background(), p))
	return p
}

func (l *testLedger) addMapping(t *testing.T, platformProductID string, productID uuid.UUID) {
	t.Helper()
	m, err := integration.NewProductMapping(testShop, platformProductID, "", productID)
	require.NoError(t, err)
	require.NoError(t, l.mappings.Save(context.Background(), m))
}

func (l *testLedger) stock(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	p, err := l.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (l *testLedger) findOrder(t *testing.T, number string) *order.Order {
	t.Helper()
	var found *order.Order
	require.NoError(t, l.scope.Execute(context.Background(), func(repos ledger.TransactionalRepositories) error {
		o, err := repos.Orders().LockByOrderNumber(context.Background(), testShop, number)
		found = o
		return err
	}))
	return found
}

func (l *testLedger) movementsFor(t *testing.T, orderID uuid.UUID) []inventory.Movement {
	t.Helper()
	mvs, err := l.movements.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	return mvs
}

func (l *testLedger) outboxCount(t *testing.T) int64 {
	t.Helper()
	counts, err := l.outbox.CountByStatus(context.Background())
	require.NoError(t, err)
	var total int64
	for _, n := range counts {
		total += n
	}
	return total
}

// record stores a pending event the way the ingestion endpoint would
func (l *testLedger) record(t *testing.T, topic, payload string) *webhook.WebhookEvent {
	t.Helper()
	e, err := webhook.NewWebhookEvent(testShop, uuid.NewString(), topic, []byte(payload))
	require.NoError(t, err)
	res, err := l.events.RecordIfNew(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, webhook.RecordInserted, res)
	return e
}

// orderJSON builds an order snapshot payload. lines are (platform product
// id, sku, quantity) triples.
func orderJSON(number int, updatedAt string, cancelledAt string, lines ...lineSpec) string {
	items := ""
	for i, li := range lines {
		if i > 0 {
			items += ","
		}
		items += fmt.Sprintf(`{"id": %d, "product_id": %q, "sku": %q, "quantity": %d, "price": "10.00"}`,
			9000+i, li.productID, li.sku, li.qty)
	}
	cancelled := "null"
	if cancelledAt != "" {
		cancelled = fmt.Sprintf("%q", cancelledAt)
	}
	return fmt.Sprintf(`{
		"id": %d,
		"order_number": %d,
		"name": "#%d",
		"updated_at": %q,
		"cancelled_at": %s,
		"cancel_reason": "customer",
		"currency": "USD",
		"total_price": "20.00",
		"line_items": [%s]
	}`, 4000+number, number, number, updatedAt, cancelled, items)
}

type lineSpec struct {
	productID string
	sku       string
	qty       int
}

func newTestEvent(t *testing.T, topic, payload string) *webhook.WebhookEvent {
	t.Helper()
	e, err := webhook.NewWebhookEvent(testShop, uuid.NewString(), topic, []byte(payload))
	require.NoError(t, err)
	return e
}
