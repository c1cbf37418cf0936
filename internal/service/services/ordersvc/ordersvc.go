package ordersvc

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/comandaviva/pdv/internal/dal/interfaces/iorderitemrepo"
	"github.com/comandaviva/pdv/internal/dal/interfaces/iorderrepo"
	"github.com/comandaviva/pdv/internal/dal/interfaces/ioutboxrepo"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	"github.com/comandaviva/pdv/internal/dal/uow"
	"github.com/comandaviva/pdv/internal/service/models/order"
	"github.com/comandaviva/pdv/internal/service/models/orderitem"
	"github.com/comandaviva/pdv/internal/service/models/outbox"
	"github.com/comandaviva/pdv/pkg/apperr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	defaultSource     = "PDV"
	codeAttempts      = 3
	outboxMaxRetries  = 10
	defaultQueueName  = "kitchen_orders"
	notifyContentType = "application/json"
)

// OrderService manages the order lifecycle: intake, kitchen queue, status
// transitions, tracking.
type OrderService struct {
	pgClient *postgres.Client
	newUOW   func() unitOfWork
}

type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	OrderRepository() iorderrepo.IOrderRepository
	OrderItemRepository() iorderitemrepo.IOrderItemRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithUnitOfWorkFactory overrides how units of work are built, used by tests.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// ItemInput is a raw order line. The product name may arrive under any of
// three field names depending on the client.
type ItemInput struct {
	ProductName string          `json:"product_name"`
	Name        string          `json:"name"`
	Title       string          `json:"title"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Notes       string          `json:"notes"`
}

// CreateOrderInput is the order intake payload.
type CreateOrderInput struct {
	TableNumber   any         `json:"table_number"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Source        string      `json:"source"`
	Items         []ItemInput `json:"items"`
}

type kitchenNotification struct {
	OrderID string `json:"order_id"`
	Code    string `json:"code"`
}

// Create validates and persists an order with its items atomically and
// leaves a kitchen notification in the outbox within the same transaction.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*order.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperr.Validation("order must contain at least one item")
	}

	now := time.Now()

	items := make([]orderitem.OrderItem, 0, len(in.Items))
	for i, it := range in.Items {
		name := firstNonEmpty(it.ProductName, it.Name, it.Title)
		if name == "" {
			return nil, apperr.Validationf("item %d is missing a product name", i)
		}

		quantity := it.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		items = append(items, orderitem.OrderItem{
			ProductName: name,
			Quantity:    quantity,
			Price:       it.Price,
			Notes:       optional(it.Notes),
			CreatedAt:   now,
		})
	}

	table, serviceType := order.DeriveServiceType(in.TableNumber)

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = defaultSource
	}

	work := s.newUOW()

	code, err := s.generateCode(ctx, work.OrderRepository())
	if err != nil {
		return nil, apperr.Store(err)
	}

	o := order.Order{
		ID:            uuid.NewString(),
		Code:          code,
		TableNumber:   table,
		CustomerName:  optional(in.CustomerName),
		CustomerPhone: optional(in.CustomerPhone),
		Status:        order.StatusPendente,
		Source:        source,
		ServiceType:   serviceType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := work.Begin(ctx); err != nil {
		return nil, apperr.Store(err)
	}

	stored, err := work.OrderRepository().Insert(ctx, o)
	if err != nil {
		_ = work.Rollback(ctx)

		return nil, apperr.Store(err)
	}

	for i := range items {
		items[i].OrderID = stored.ID
	}

	insertedItems, err := work.OrderItemRepository().BulkInsert(ctx, items)
	if err != nil {
		_ = work.Rollback(ctx)

		return nil, apperr.Store(err)
	}

	payload, err := json.Marshal(kitchenNotification{OrderID: stored.ID, Code: stored.Code})
	if err != nil {
		_ = work.Rollback(ctx)

		return nil, apperr.Store(err)
	}

	queue := kitchenQueueName()
	err = work.OutboxRepository().Insert(ctx, outbox.Message{
		QueueName:   queue,
		RoutingKey:  queue,
		Payload:     payload,
		ContentType: notifyContentType,
		MaxRetries:  outboxMaxRetries,
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	})
	if err != nil {
		_ = work.Rollback(ctx)

		return nil, apperr.Store(err)
	}

	if err := work.Commit(ctx); err != nil {
		_ = work.Rollback(ctx)

		return nil, apperr.Store(err)
	}

	stored.Items = insertedItems

	return stored, nil
}

// Update applies a partial update to an order.
func (s *OrderService) Update(
	ctx context.Context,
	id string,
	model order.UpdateOrderModel,
) (*order.Order, error) {
	if model.Status != nil {
		if _, ok := order.ParseStatus(string(*model.Status)); !ok {
			return nil, apperr.Validationf("unknown order status %q", *model.Status)
		}
	}

	updated, err := s.newUOW().OrderRepository().Update(ctx, id, model)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if updated == nil {
		return nil, apperr.NotFound("order not found")
	}

	return updated, nil
}

// UpdateStatus moves an order to the given status. Any status may follow
// any other; kitchen staff use backwards moves to correct mistakes.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*order.Order, error) {
	parsed, ok := order.ParseStatus(status)
	if !ok {
		return nil, apperr.Validationf("unknown order status %q", status)
	}

	updated, err := s.newUOW().OrderRepository().UpdateStatus(ctx, id, parsed)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if updated == nil {
		return nil, apperr.NotFound("order not found")
	}

	return updated, nil
}

// Delete removes an order; its items cascade.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.newUOW().OrderRepository().Delete(ctx, id); err != nil {
		return apperr.Store(err)
	}

	return nil
}

// TrackedOrder is an order with its derived total, returned by tracking.
type TrackedOrder struct {
	Order order.Order     `json:"order"`
	Total decimal.Decimal `json:"total"`
}

// TrackByCode returns the newest order with the given display code together
// with the total derived from its items.
func (s *OrderService) TrackByCode(ctx context.Context, code string) (*TrackedOrder, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().GetByCode(ctx, code)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if o == nil {
		return nil, apperr.NotFound("order not found")
	}

	items, err := work.OrderItemRepository().QueryByOrderIDs(ctx, []string{o.ID})
	if err != nil {
		return nil, apperr.Store(err)
	}
	o.Items = items

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}

	return &TrackedOrder{Order: *o, Total: total}, nil
}

// KitchenQueue returns all non-terminal orders, oldest first, with items.
// This polled view is the correctness path for the kitchen display; the
// RabbitMQ notification only cuts latency.
func (s *OrderService) KitchenQueue(ctx context.Context) ([]order.Order, error) {
	work := s.newUOW()

	orders, err := work.OrderRepository().QueryActive(ctx)
	if err != nil {
		return nil, apperr.Store(err)
	}
	if len(orders) == 0 {
		return []order.Order{}, nil
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	items, err := work.OrderItemRepository().QueryByOrderIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Store(err)
	}

	for i := range orders {
		for _, item := range items {
			if item.OrderID == orders[i].ID {
				orders[i].Items = append(orders[i].Items, item)
			}
		}
	}

	return orders, nil
}

// generateCode picks a display code, retrying against active orders so
// two orders on the board never share one. Codes of delivered or cancelled
// orders may recur; tracking resolves the newest match.
func (s *OrderService) generateCode(
	ctx context.Context,
	repo iorderrepo.IOrderRepository,
) (string, error) {
	var code string
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code = fmt.Sprintf("P%03d", rand.Intn(1000))

		exists, err := repo.ActiveCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return code, nil
}

func kitchenQueueName() string {
	if name := viper.GetString("rabbitmq.kitchen.queue"); name != "" {
		return name
	}

	return defaultQueueName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}

	return ""
}

func optional(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}
