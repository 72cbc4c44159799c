package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	catalogmemory "github.com/webshop/shop-api/internal/domains/catalog/adapters/memory"
	orderingmemory "github.com/webshop/shop-api/internal/domains/ordering/adapters/memory"
	orderingobs "github.com/webshop/shop-api/internal/domains/ordering/adapters/observability"
	orderingpostgres "github.com/webshop/shop-api/internal/domains/ordering/adapters/persistence/postgres"
	orderingapp "github.com/webshop/shop-api/internal/domains/ordering/application"
	orderingports "github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/platform/migrations"
	platformobservability "github.com/webshop/shop-api/internal/platform/observability"
	platformpostgres "github.com/webshop/shop-api/internal/platform/postgres"
	orderingactivities "github.com/webshop/shop-api/internal/platform/temporal/activities/ordering"
	orderingwf "github.com/webshop/shop-api/internal/platform/temporal/workflows/ordering"
)

func main() {
	ctx := context.Background()
	const serviceName = "shop-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	orderRepo, gateway, cleanupRepo := buildRepositories(ctx, logger)
	defer cleanupRepo()
	orderingService := orderingobs.New(
		orderingapp.NewService(orderRepo, gateway),
		orderingobs.WithLogger(logger),
		orderingobs.WithTracer(instruments.Tracer("internal.ordering.application")),
		orderingobs.WithMeter(instruments.Meter("internal.ordering.application")),
	)
	activities := orderingactivities.NewActivities(orderingService)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  envOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		Namespace: envOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, orderingwf.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(orderingwf.CheckoutWorkflow, workflow.RegisterOptions{Name: orderingwf.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(activities.CheckoutCart, activity.RegisterOptions{Name: orderingactivities.CheckoutActivityName})

	logger.Info("worker listening", slog.String("taskQueue", orderingwf.CheckoutTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

func buildRepositories(ctx context.Context, logger *slog.Logger) (orderingports.Repository, orderingports.ProductGateway, func()) {
	dsn := os.Getenv("POSTGRES_DSN")
	if strings.TrimSpace(dsn) == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to in-memory repositories")
		return memoryRepositories()
	}
	db, err := platformpostgres.Connect(ctx, dsn)
	if err != nil {
		logger.Warn("worker failed to connect to postgres (falling back to memory)", slog.String("error", err.Error()))
		return memoryRepositories()
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("worker failed to unwrap postgres connection (falling back to memory)", slog.String("error", err.Error()))
		return memoryRepositories()
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("worker failed to run migrations (falling back to memory)", slog.String("error", err.Error()))
		_ = sqlDB.Close()
		return memoryRepositories()
	}
	logger.Info("worker repositories configured with postgres")
	return orderingpostgres.NewRepository(db), orderingpostgres.NewCatalogGateway(db), func() { _ = sqlDB.Close() }
}

func memoryRepositories() (orderingports.Repository, orderingports.ProductGateway, func()) {
	gateway := orderingmemory.NewCatalogGateway(catalogmemory.NewRepository())
	return orderingmemory.NewRepository(gateway), gateway, func() {}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
