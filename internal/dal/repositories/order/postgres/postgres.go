package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	"github.com/comandaviva/pdv/internal/service/models/order"
	"github.com/comandaviva/pdv/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id",
	"code",
	"table_number",
	"customer_name",
	"customer_phone",
	"status",
	"source",
	"service_type",
	"created_at",
	"updated_at",
}

// OrderDal represents the order data access layer model.
type OrderDal struct {
	ID            string
	Code          string
	TableNumber   *string
	CustomerName  *string
	CustomerPhone *string
	Status        string
	Source        string
	ServiceType   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	return &order.Order{
		ID:            o.ID,
		Code:          o.Code,
		TableNumber:   o.TableNumber,
		CustomerName:  o.CustomerName,
		CustomerPhone: o.CustomerPhone,
		Status:        order.Status(o.Status),
		Source:        o.Source,
		ServiceType:   order.ServiceType(o.ServiceType),
		Items:         []orderitem.OrderItem{},
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func scanOrder(row pgx.Row) (*order.Order, error) {
	var dal OrderDal
	err := row.Scan(
		&dal.ID,
		&dal.Code,
		&dal.TableNumber,
		&dal.CustomerName,
		&dal.CustomerPhone,
		&dal.Status,
		&dal.Source,
		&dal.ServiceType,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return dal.ToModel(), nil
}

// OrderRepository implements the order repository for PostgreSQL.
type OrderRepository struct {
	conn postgres.Querier
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(conn postgres.Querier) *OrderRepository {
	return &OrderRepository{
		conn: conn,
	}
}

// Insert inserts an order and returns the stored row.
func (r *OrderRepository) Insert(ctx context.Context, o order.Order) (*order.Order, error) {
	query, args, err := sq.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID,
			o.Code,
			o.TableNumber,
			o.CustomerName,
			o.CustomerPhone,
			string(o.Status),
			o.Source,
			string(o.ServiceType),
			o.CreatedAt,
			o.UpdatedAt,
		).
		Suffix("RETURNING " + returningColumns()).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	stored, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	return stored, nil
}

// Update applies a partial update and returns the updated row. Returns
// (nil, nil) when no order matches the id.
func (r *OrderRepository) Update(
	ctx context.Context,
	id string,
	model order.UpdateOrderModel,
) (*order.Order, error) {
	builder := sq.Update("orders").
		Set("updated_at", time.Now()).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + returningColumns()).
		PlaceholderFormat(sq.Dollar)

	if model.TableNumber != nil {
		builder = builder.Set("table_number", *model.TableNumber)
	}
	if model.CustomerName != nil {
		builder = builder.Set("customer_name", *model.CustomerName)
	}
	if model.CustomerPhone != nil {
		builder = builder.Set("customer_phone", *model.CustomerPhone)
	}
	if model.Status != nil {
		builder = builder.Set("status", string(*model.Status))
	}
	if model.Source != nil {
		builder = builder.Set("source", *model.Source)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	updated, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return updated, nil
}

// UpdateStatus writes a new status and bumps updated_at. Returns (nil, nil)
// when no order matches the id.
func (r *OrderRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status order.Status,
) (*order.Order, error) {
	s := status
	return r.Update(ctx, id, order.UpdateOrderModel{Status: &s})
}

// Delete removes an order; items cascade at the schema level.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete("orders").
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	return nil
}

// GetByCode returns the newest order with the given display code, or
// (nil, nil) when none exists. Codes are not unique, so newest wins.
func (r *OrderRepository) GetByCode(ctx context.Context, code string) (*order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"code": code}).
		OrderBy("created_at DESC").
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	o, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get order by code: %w", err)
	}

	return o, nil
}

// QueryActive returns all non-terminal orders, oldest first.
func (r *OrderRepository) QueryActive(ctx context.Context) ([]order.Order, error) {
	query, args, err := sq.Select(orderColumns...).
		From("orders").
		Where(sq.NotEq{"status": []string{
			string(order.StatusEntregue),
			string(order.StatusCancelado),
		}}).
		OrderBy("created_at ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query active orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// ActiveCodeExists reports whether a non-terminal order already uses the
// given display code.
func (r *OrderRepository) ActiveCodeExists(ctx context.Context, code string) (bool, error) {
	query, args, err := sq.Select("1").
		From("orders").
		Where(sq.Eq{"code": code}).
		Where(sq.NotEq{"status": []string{
			string(order.StatusEntregue),
			string(order.StatusCancelado),
		}}).
		Limit(1).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build select query: %w", err)
	}

	var one int
	err = r.conn.QueryRow(ctx, query, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check code: %w", err)
	}

	return true, nil
}

func returningColumns() string {
	return "id, code, table_number, customer_name, customer_phone, status, source, service_type, created_at, updated_at"
}
