package ledger

import (
	"context"

	"github.com/erp/orderhook/internal/domain/integration"
	"github.com/erp/orderhook/internal/domain/inventory"
	"github.com/erp/orderhook/internal/domain/order"
	"github.com/erp/orderhook/internal/domain/shared"
)

// TransactionScope provides transactional access to the order ledger.
// All repository operations inside Execute share one database transaction
// and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories an order
// mutation touches. Lock methods on Orders hold their row lock until the
// transaction ends.
type TransactionalRepositories interface {
	Orders() order.OrderRepository
	History() order.HistoryRepository
	Fulfillments() order.FulfillmentRepository
	Tombstones() order.TombstoneRepository
	Products() inventory.ProductRepository
	Movements() inventory.MovementRepository
	Mappings() integration.ProductMappingRepository
	Outbox() shared.OutboxWriter
}

// Repositories is a plain bundle of repositories. Its NoOp scope runs the
// function without a real transaction, which is useful in tests.
type Repositories struct {
	OrderRepo       order.OrderRepository
	HistoryRepo     order.HistoryRepository
	FulfillmentRepo order.FulfillmentRepository
	TombstoneRepo   order.TombstoneRepository
	ProductRepo     inventory.ProductRepository
	MovementRepo    inventory.MovementRepository
	MappingRepo     integration.ProductMappingRepository
	OutboxWriter    shared.OutboxWriter
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) Orders() order.OrderRepository { return s.repos.OrderRepo }

func (s *NoOpTransactionScope) History() order.HistoryRepository { return s.repos.HistoryRepo }

func (s *NoOpTransactionScope) Fulfillments() order.FulfillmentRepository {
	return s.repos.FulfillmentRepo
}

func (s *NoOpTransactionScope) Tombstones() order.TombstoneRepository { return s.repos.TombstoneRepo }

func (s *NoOpTransactionScope) Products() inventory.ProductRepository { return s.repos.ProductRepo }

func (s *NoOpTransactionScope) Movements() inventory.MovementRepository {
	return s.repos.MovementRepo
}

func (s *NoOpTransactionScope) Mappings() integration.ProductMappingRepository {
	return s.repos.MappingRepo
}

func (s *NoOpTransactionScope) Outbox() shared.OutboxWriter { return s.repos.OutboxWriter }

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
