package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	"github.com/comandaviva/pdv/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var itemColumns = []string{
	"id",
	"order_id",
	"product_name",
	"quantity",
	"price",
	"notes",
	"created_at",
}

// OrderItemDal represents the order item data access layer model.
type OrderItemDal struct {
	ID          int64
	OrderID     string
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	Notes       *string
	CreatedAt   time.Time
}

// ToModel converts OrderItemDal to the service layer OrderItem model.
func (i *OrderItemDal) ToModel() orderitem.OrderItem {
	return orderitem.OrderItem{
		ID:          i.ID,
		OrderID:     i.OrderID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		Price:       i.Price,
		Notes:       i.Notes,
		CreatedAt:   i.CreatedAt,
	}
}

func scanItem(row pgx.Row) (orderitem.OrderItem, error) {
	var dal OrderItemDal
	err := row.Scan(
		&dal.ID,
		&dal.OrderID,
		&dal.ProductName,
		&dal.Quantity,
		&dal.Price,
		&dal.Notes,
		&dal.CreatedAt,
	)
	if err != nil {
		return orderitem.OrderItem{}, err
	}

	return dal.ToModel(), nil
}

// OrderItemRepository implements the order item repository for PostgreSQL.
type OrderItemRepository struct {
	conn postgres.Querier
}

// NewOrderItemRepository creates a new order item repository.
func NewOrderItemRepository(conn postgres.Querier) *OrderItemRepository {
	return &OrderItemRepository{
		conn: conn,
	}
}

// BulkInsert inserts all items in one statement and returns the stored rows.
func (r *OrderItemRepository) BulkInsert(
	ctx context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if len(items) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	builder := sq.Insert("order_items").
		Columns("order_id", "product_name", "quantity", "price", "notes", "created_at").
		Suffix("RETURNING id, order_id, product_name, quantity, price, notes, created_at").
		PlaceholderFormat(sq.Dollar)

	for _, item := range items {
		builder = builder.Values(
			item.OrderID,
			item.ProductName,
			item.Quantity,
			item.Price,
			item.Notes,
			item.CreatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build insert query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// QueryByOrderIDs returns all items belonging to the given orders.
func (r *OrderItemRepository) QueryByOrderIDs(
	ctx context.Context,
	orderIDs []string,
) ([]orderitem.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []orderitem.OrderItem{}, nil
	}

	query, args, err := sq.Select(itemColumns...).
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		OrderBy("id ASC").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
