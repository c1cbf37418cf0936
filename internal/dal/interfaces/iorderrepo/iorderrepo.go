package iorderrepo

import (
	"context"

	"github.com/comandaviva/pdv/internal/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o order.Order) (*order.Order, error)
	Update(ctx context.Context, id string, model order.UpdateOrderModel) (*order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error)
	Delete(ctx context.Context, id string) error
	GetByCode(ctx context.Context, code string) (*order.Order, error)
	QueryActive(ctx context.Context) ([]order.Order, error)
	ActiveCodeExists(ctx context.Context, code string) (bool, error)
}
