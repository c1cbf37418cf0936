package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comandaviva/pdv/internal/dal/asaas"
	"github.com/comandaviva/pdv/internal/dal/postgres"
	"github.com/comandaviva/pdv/internal/dal/rabbitmq"
	cashsessionrepo "github.com/comandaviva/pdv/internal/dal/repositories/cashsession/postgres"
	outboxrepo "github.com/comandaviva/pdv/internal/dal/repositories/outbox/postgres"
	profilerepo "github.com/comandaviva/pdv/internal/dal/repositories/profile/postgres"
	"github.com/comandaviva/pdv/internal/service/services/cashsvc"
	"github.com/comandaviva/pdv/internal/service/services/chargesvc"
	"github.com/comandaviva/pdv/internal/service/services/customersvc"
	"github.com/comandaviva/pdv/internal/service/services/ordersvc"
	httptransport "github.com/comandaviva/pdv/internal/transport/http"
	"github.com/comandaviva/pdv/internal/worker/outbox"
	"github.com/spf13/viper"
)

// App represents the application.
type App struct {
	transport      *httptransport.HTTPTransport
	outboxWorker   *outbox.Worker
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	workerCancel   context.CancelFunc
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()

	queueName := viper.GetString("rabbitmq.kitchen.queue")
	if queueName == "" {
		queueName = "kitchen_orders"
	}
	if _, err := rabbitClient.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    queueName,
		Durable: true,
	}); err != nil {
		panic("failed to declare kitchen queue: " + err.Error())
	}

	asaasClient := asaas.NewClient()

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)
	cashSvc := cashsvc.MustNewCashService(
		cashsvc.WithRepository(cashsessionrepo.NewCashSessionRepository(postgresClient.Pool())),
	)
	customerSvc := customersvc.MustNewCustomerService(
		customersvc.WithRepository(profilerepo.NewProfileRepository(postgresClient.Pool())),
		customersvc.WithProvider(asaasClient),
	)
	chargeSvc := chargesvc.MustNewChargeService(
		chargesvc.WithProvider(asaasClient),
	)

	transport := httptransport.NewHTTPTransport(orderSvc, cashSvc, customerSvc, chargeSvc)
	transport.RegisterRoutes()

	worker := outbox.NewWorker(
		outboxrepo.NewOutboxRepository(postgresClient.Pool()),
		rabbitClient,
	)

	return &App{
		transport:      transport,
		outboxWorker:   worker,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.workerCancel = workerCancel
	go a.outboxWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.workerCancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	slog.Info("Application shutdown complete")
}
