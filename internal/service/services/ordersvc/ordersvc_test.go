package ordersvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/comandaviva/pdv/internal/dal/interfaces/iorderitemrepo"
	"github.com/comandaviva/pdv/internal/dal/interfaces/iorderrepo"
	"github.com/comandaviva/pdv/internal/dal/interfaces/ioutboxrepo"
	"github.com/comandaviva/pdv/internal/service/models/order"
	"github.com/comandaviva/pdv/internal/service/models/orderitem"
	"github.com/comandaviva/pdv/internal/service/models/outbox"
	"github.com/comandaviva/pdv/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOrderRepo struct {
	inserted    []order.Order
	insertErr   error
	activeCodes map[string]bool
	byCode      *order.Order
	active      []order.Order
	updated     *order.Order
	deleted     []string
}

func (f *fakeOrderRepo) Insert(_ context.Context, o order.Order) (*order.Order, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, o)
	stored := o

	return &stored, nil
}

func (f *fakeOrderRepo) Update(
	_ context.Context,
	id string,
	model order.UpdateOrderModel,
) (*order.Order, error) {
	if f.updated == nil || f.updated.ID != id {
		return nil, nil
	}
	o := *f.updated
	if model.Status != nil {
		o.Status = *model.Status
	}
	if model.CustomerName != nil {
		o.CustomerName = model.CustomerName
	}

	return &o, nil
}

func (f *fakeOrderRepo) UpdateStatus(
	ctx context.Context,
	id string,
	status order.Status,
) (*order.Order, error) {
	s := status
	return f.Update(ctx, id, order.UpdateOrderModel{Status: &s})
}

func (f *fakeOrderRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)

	return nil
}

func (f *fakeOrderRepo) GetByCode(_ context.Context, code string) (*order.Order, error) {
	if f.byCode != nil && f.byCode.Code == code {
		return f.byCode, nil
	}

	return nil, nil
}

func (f *fakeOrderRepo) QueryActive(_ context.Context) ([]order.Order, error) {
	return f.active, nil
}

func (f *fakeOrderRepo) ActiveCodeExists(_ context.Context, code string) (bool, error) {
	return f.activeCodes[code], nil
}

type fakeItemRepo struct {
	inserted  []orderitem.OrderItem
	insertErr error
	byOrder   []orderitem.OrderItem
}

func (f *fakeItemRepo) BulkInsert(
	_ context.Context,
	items []orderitem.OrderItem,
) ([]orderitem.OrderItem, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, items...)

	return items, nil
}

func (f *fakeItemRepo) QueryByOrderIDs(
	_ context.Context,
	orderIDs []string,
) ([]orderitem.OrderItem, error) {
	var result []orderitem.OrderItem
	for _, item := range f.byOrder {
		for _, id := range orderIDs {
			if item.OrderID == id {
				result = append(result, item)
			}
		}
	}

	return result, nil
}

type fakeOutboxRepo struct {
	messages  []outbox.Message
	insertErr error
}

func (f *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.messages = append(f.messages, msg)

	return nil
}

func (f *fakeOutboxRepo) GetPendingMessages(_ context.Context, _ int) ([]outbox.Message, error) {
	return f.messages, nil
}

func (f *fakeOutboxRepo) Delete(_ context.Context, _ int64) error { return nil }

func (f *fakeOutboxRepo) UpdateRetry(
	_ context.Context, _ int64, _ int, _ string, _ time.Time,
) error {
	return nil
}

type fakeUOW struct {
	orders     *fakeOrderRepo
	items      *fakeItemRepo
	outbox     *fakeOutboxRepo
	begun      bool
	committed  bool
	rolledBack bool
}

func (f *fakeUOW) Begin(_ context.Context) error    { f.begun = true; return nil }
func (f *fakeUOW) Commit(_ context.Context) error   { f.committed = true; return nil }
func (f *fakeUOW) Rollback(_ context.Context) error { f.rolledBack = true; return nil }

func (f *fakeUOW) OrderRepository() iorderrepo.IOrderRepository {
	return f.orders
}

func (f *fakeUOW) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return f.items
}

func (f *fakeUOW) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return f.outbox
}

func newFixture() (*OrderService, *fakeUOW) {
	work := &fakeUOW{
		orders: &fakeOrderRepo{},
		items:  &fakeItemRepo{},
		outbox: &fakeOutboxRepo{},
	}
	svc := MustNewOrderService(WithUnitOfWorkFactory(func() unitOfWork {
		return work
	}))

	return svc, work
}

func TestCreate_PersistsOrderAndItemsAtomically(t *testing.T) {
	svc, work := newFixture()

	created, err := svc.Create(context.Background(), CreateOrderInput{
		CustomerName: "Maria",
		Items: []ItemInput{
			{Name: "X-Salada", Quantity: 2, Price: decimal.NewFromFloat(18.50)},
			{ProductName: "Guaraná", Quantity: 1},
		},
	})
	require.NoError(t, err)

	assert.True(t, work.begun)
	assert.True(t, work.committed)
	assert.False(t, work.rolledBack)

	require.Len(t, work.orders.inserted, 1)
	require.Len(t, work.items.inserted, 2)
	for _, item := range work.items.inserted {
		assert.Equal(t, created.ID, item.OrderID)
	}

	assert.Equal(t, order.StatusPendente, created.Status)
	assert.Equal(t, "PDV", created.Source)
	assert.Regexp(t, regexp.MustCompile(`^P\d{3}$`), created.Code)
	require.Len(t, created.Items, 2)
}

func TestCreate_EnqueuesKitchenNotification(t *testing.T) {
	svc, work := newFixture()

	created, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []ItemInput{{Name: "Pastel"}},
	})
	require.NoError(t, err)

	require.Len(t, work.outbox.messages, 1)
	msg := work.outbox.messages[0]
	assert.Equal(t, "kitchen_orders", msg.QueueName)
	assert.Equal(t, "application/json", msg.ContentType)

	var note kitchenNotification
	require.NoError(t, json.Unmarshal(msg.Payload, &note))
	assert.Equal(t, created.ID, note.OrderID)
	assert.Equal(t, created.Code, note.Code)
}

func TestCreate_EmptyItems(t *testing.T) {
	svc, work := newFixture()

	_, err := svc.Create(context.Background(), CreateOrderInput{})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.False(t, work.begun)
}

func TestCreate_MissingProductNameNamesIndex(t *testing.T) {
	svc, work := newFixture()

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []ItemInput{
			{Name: "Coxinha"},
			{Notes: "sem cebola"},
		},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
	assert.Contains(t, err.Error(), "item 1")
	assert.False(t, work.begun)
}

func TestCreate_ProductNameFallbackChain(t *testing.T) {
	svc, work := newFixture()

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []ItemInput{
			{Title: "  Açaí 500ml  "},
		},
	})
	require.NoError(t, err)
	require.Len(t, work.items.inserted, 1)
	assert.Equal(t, "Açaí 500ml", work.items.inserted[0].ProductName)
}

func TestCreate_QuantityFloorsToOne(t *testing.T) {
	svc, work := newFixture()

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []ItemInput{{Name: "Misto quente", Quantity: 0}},
	})
	require.NoError(t, err)
	require.Len(t, work.items.inserted, 1)
	assert.Equal(t, 1, work.items.inserted[0].Quantity)
}

func TestCreate_ServiceTypeDerivation(t *testing.T) {
	tests := []struct {
		name      string
		table     any
		wantType  order.ServiceType
		wantTable *string
	}{
		{"absent table means delivery", nil, order.ServiceTypeDelivery, nil},
		{"string zero means delivery", "0", order.ServiceTypeDelivery, nil},
		{"numeric zero means delivery", float64(0), order.ServiceTypeDelivery, nil},
		{"numeric table means dine-in", float64(7), order.ServiceTypeMesa, strPtr("7")},
		{"string table means dine-in", "12", order.ServiceTypeMesa, strPtr("12")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, work := newFixture()

			created, err := svc.Create(context.Background(), CreateOrderInput{
				TableNumber: tt.table,
				Items:       []ItemInput{{Name: "Feijoada"}},
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, created.ServiceType)
			require.Len(t, work.orders.inserted, 1)
			if tt.wantTable == nil {
				assert.Nil(t, work.orders.inserted[0].TableNumber)
			} else {
				require.NotNil(t, work.orders.inserted[0].TableNumber)
				assert.Equal(t, *tt.wantTable, *work.orders.inserted[0].TableNumber)
			}
		})
	}
}

func TestCreate_ItemInsertFailureRollsBack(t *testing.T) {
	svc, work := newFixture()
	work.items.insertErr = errors.New("connection reset")

	_, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []ItemInput{{Name: "Caldo de cana"}},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperr.StatusOf(err))
	assert.True(t, work.rolledBack)
	assert.False(t, work.committed)
	assert.Empty(t, work.outbox.messages)
}

func TestCreate_CodeRetriesOnActiveCollision(t *testing.T) {
	svc, work := newFixture()
	// Every code collides; generation settles on the last attempt.
	work.orders.activeCodes = map[string]bool{}
	for i := 0; i < 1000; i++ {
		work.orders.activeCodes[formatCode(i)] = true
	}

	created, err := svc.Create(context.Background(), CreateOrderInput{
		Items: []ItemInput{{Name: "Esfiha"}},
	})
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^P\d{3}$`), created.Code)
}

func TestUpdateStatus_UnknownToken(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.UpdateStatus(context.Background(), "some-id", "FLYING")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.UpdateStatus(context.Background(), "missing", "READY")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestUpdateStatus_AnyTransitionAllowed(t *testing.T) {
	svc, work := newFixture()
	work.orders.updated = &order.Order{ID: "o1", Status: order.StatusEntregue}

	updated, err := svc.UpdateStatus(context.Background(), "o1", "PENDENTE")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPendente, updated.Status)
}

func TestTrackByCode(t *testing.T) {
	svc, work := newFixture()
	work.orders.byCode = &order.Order{ID: "o1", Code: "P123"}
	work.items.byOrder = []orderitem.OrderItem{
		{OrderID: "o1", ProductName: "X-Bacon", Quantity: 2, Price: decimal.NewFromFloat(10.50)},
		{OrderID: "o1", ProductName: "Suco", Quantity: 1, Price: decimal.NewFromFloat(3.25)},
	}

	tracked, err := svc.TrackByCode(context.Background(), "P123")
	require.NoError(t, err)
	assert.True(t, tracked.Total.Equal(decimal.NewFromFloat(24.25)),
		"got total %s", tracked.Total)
	assert.Len(t, tracked.Order.Items, 2)
}

func TestTrackByCode_NotFound(t *testing.T) {
	svc, _ := newFixture()

	_, err := svc.TrackByCode(context.Background(), "P999")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestKitchenQueue_AttachesItems(t *testing.T) {
	svc, work := newFixture()
	work.orders.active = []order.Order{
		{ID: "o1", Status: order.StatusPendente},
		{ID: "o2", Status: order.StatusInPrep},
	}
	work.items.byOrder = []orderitem.OrderItem{
		{OrderID: "o1", ProductName: "Pão de queijo"},
		{OrderID: "o2", ProductName: "Café"},
		{OrderID: "o2", ProductName: "Pudim"},
	}

	queue, err := svc.KitchenQueue(context.Background())
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Len(t, queue[0].Items, 1)
	assert.Len(t, queue[1].Items, 2)
}

func TestKitchenQueue_Empty(t *testing.T) {
	svc, _ := newFixture()

	queue, err := svc.KitchenQueue(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, queue)
	assert.Empty(t, queue)
}

func TestDelete(t *testing.T) {
	svc, work := newFixture()

	require.NoError(t, svc.Delete(context.Background(), "o1"))
	assert.Equal(t, []string{"o1"}, work.orders.deleted)
}

func strPtr(s string) *string { return &s }

func formatCode(n int) string {
	return "P" + pad3(n)
}

func pad3(n int) string {
	s := []byte{'0', '0', '0'}
	for i := 2; i >= 0 && n > 0; i-- {
		s[i] = byte('0' + n%10)
		n /= 10
	}

	return string(s)
}
