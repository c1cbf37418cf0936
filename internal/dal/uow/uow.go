package uow

import (
	"context"

	"github.com/comandaviva/pdv/internal/dal/interfaces/iorderitemrepo"
	"github.com/comandaviva/pdv/internal/dal/interfaces/iorderrepo"
	"github.com/comandaviva/pdv/internal/dal/interfaces/ioutboxrepo"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	orderrepo "github.com/comandaviva/pdv/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/comandaviva/pdv/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/comandaviva/pdv/internal/dal/repositories/outbox/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type unitOfWork struct {
	pool          *pgxpool.Pool
	tx            pgx.Tx
	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// NewUnitOfWork creates a unit of work whose repositories run directly on
// the pool until Begin swaps them for transaction-scoped ones.
func NewUnitOfWork(client *postgres.Client) *unitOfWork {
	return &unitOfWork{
		pool:          client.Pool(),
		orderRepo:     orderrepo.NewOrderRepository(client.Pool()),
		orderItemRepo: orderitemrepo.NewOrderItemRepository(client.Pool()),
		outboxRepo:    outboxrepo.NewOutboxRepository(client.Pool()),
	}
}

func (u *unitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.orderRepo = orderrepo.NewOrderRepository(tx)
	u.orderItemRepo = orderitemrepo.NewOrderItemRepository(tx)
	u.outboxRepo = outboxrepo.NewOutboxRepository(tx)

	return nil
}

func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

func (u *unitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Rollback(ctx)
}
