package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/comandaviva/pdv/internal/service/models/cashsession"
	"github.com/comandaviva/pdv/internal/service/models/charge"
	"github.com/comandaviva/pdv/internal/service/models/order"
	"github.com/comandaviva/pdv/internal/service/models/profile"
	"github.com/comandaviva/pdv/internal/service/services/cashsvc"
	"github.com/comandaviva/pdv/internal/service/services/chargesvc"
	"github.com/comandaviva/pdv/internal/service/services/ordersvc"
	"github.com/comandaviva/pdv/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

type orderService interface {
	Create(ctx context.Context, in ordersvc.CreateOrderInput) (*order.Order, error)
	Update(ctx context.Context, id string, model order.UpdateOrderModel) (*order.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (*order.Order, error)
	Delete(ctx context.Context, id string) error
	TrackByCode(ctx context.Context, code string) (*ordersvc.TrackedOrder, error)
	KitchenQueue(ctx context.Context) ([]order.Order, error)
}

type cashService interface {
	Open(ctx context.Context, in cashsvc.OpenInput) (*cashsession.CashSession, error)
	Close(ctx context.Context, id string, in cashsvc.CloseInput) (*cashsession.CashSession, error)
	Current(ctx context.Context) (*cashsession.CashSession, error)
	List(ctx context.Context, status string) ([]cashsession.CashSession, error)
}

type customerService interface {
	Search(ctx context.Context, query string) ([]profile.SearchResult, error)
}

type chargeService interface {
	CreateCharge(ctx context.Context, in chargesvc.CreateChargeInput) (*charge.Charge, error)
}

type HTTPTransport struct {
	server    *http.Server
	router    *chi.Mux
	orders    orderService
	cash      cashService
	customers customerService
	charges   chargeService
}

func NewHTTPTransport(
	orders orderService,
	cash cashService,
	customers customerService,
	charges chargeService,
) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:    server,
		router:    router,
		orders:    orders,
		cash:      cash,
		customers: customers,
		charges:   charges,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// Router exposes the mux, used by handler tests.
func (h *HTTPTransport) Router() *chi.Mux {
	return h.router
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/orders", h.createOrder)
		r.Put("/orders/{id}", h.updateOrder)
		r.Delete("/orders/{id}", h.deleteOrder)
		r.Get("/orders/track/{code}", h.trackOrder)

		r.Get("/kds/queue", h.kitchenQueue)
		r.Patch("/kds/orders/{id}/status", h.updateOrderStatus)

		r.Post("/cash-sessions", h.openCashSession)
		r.Patch("/cash-sessions/{id}", h.closeCashSession)
		r.Get("/cash-sessions", h.listCashSessions)

		r.Get("/customers/search", h.searchCustomers)

		r.Post("/charges", h.createCharge)
	})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
