package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	cataloghttp "github.com/webshop/shop-api/internal/domains/catalog/adapters/http"
	catalogmemory "github.com/webshop/shop-api/internal/domains/catalog/adapters/memory"
	catalogpostgres "github.com/webshop/shop-api/internal/domains/catalog/adapters/persistence/postgres"
	catalogapp "github.com/webshop/shop-api/internal/domains/catalog/application"
	catalogports "github.com/webshop/shop-api/internal/domains/catalog/ports"
	orderinghttp "github.com/webshop/shop-api/internal/domains/ordering/adapters/http"
	orderingmemory "github.com/webshop/shop-api/internal/domains/ordering/adapters/memory"
	orderingobs "github.com/webshop/shop-api/internal/domains/ordering/adapters/observability"
	orderingpostgres "github.com/webshop/shop-api/internal/domains/ordering/adapters/persistence/postgres"
	orderingworkflows "github.com/webshop/shop-api/internal/domains/ordering/adapters/workflows"
	orderingapp "github.com/webshop/shop-api/internal/domains/ordering/application"
	orderingports "github.com/webshop/shop-api/internal/domains/ordering/ports"
	"github.com/webshop/shop-api/internal/platform/migrations"
	platformobservability "github.com/webshop/shop-api/internal/platform/observability"
	platformpostgres "github.com/webshop/shop-api/internal/platform/postgres"
	"github.com/webshop/shop-api/internal/shared/auth"
)

const serviceName = "shop-api"

// Run boots the shop HTTP API with observability, repositories, and the
// checkout orchestrator wired.
func Run(ctx context.Context) error {
	cfg := LoadConfig()

	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	deps, cleanup, err := buildDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	orderingService := orderingobs.New(
		orderingapp.NewService(deps.orderRepo, deps.productGateway),
		orderingobs.WithLogger(logger),
		orderingobs.WithTracer(instruments.Tracer("internal.ordering.application")),
		orderingobs.WithMeter(instruments.Meter("internal.ordering.application")),
	)
	catalogService := catalogapp.NewService(deps.productRepo)

	var checkout orderingports.CheckoutOrchestrator = orderingworkflows.NewInlineCheckout(orderingService)
	if temporalClient, err := connectTemporalClient(cfg, instruments); err != nil {
		logger.Warn("Temporal unavailable, running checkout inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		checkout = orderingworkflows.NewTemporalCheckout(temporalClient)
		logger.Info("Temporal checkout enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(requestID())
	router.Use(principal(auth.HeaderResolver{}))
	cataloghttp.NewHandler(catalogService).Register(router)
	orderinghttp.NewHandler(orderingService, checkout).Register(router)

	addr := ":" + cfg.Port
	logger.Info("shop API listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Error("shop API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

type dependencies struct {
	productRepo    catalogports.Repository
	orderRepo      orderingports.Repository
	productGateway orderingports.ProductGateway
}

// buildDependencies wires Postgres-backed adapters when a DSN is configured
// and falls back to the in-memory pair otherwise. Both sides of the fallback
// share the catalog repository so cart stock checks see catalog writes.
func buildDependencies(ctx context.Context, cfg Config, logger *slog.Logger) (dependencies, func(), error) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, using in-memory repositories")
		return memoryDependencies(), func() {}, nil
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Warn("failed to connect to postgres, using in-memory repositories", slog.String("error", err.Error()))
		return memoryDependencies(), func() {}, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return dependencies{}, func() {}, err
	}
	if err := migrations.Run(db); err != nil {
		_ = sqlDB.Close()
		return dependencies{}, func() {}, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("repositories configured with postgres")
	return dependencies{
		productRepo:    catalogpostgres.NewRepository(db),
		orderRepo:      orderingpostgres.NewRepository(db),
		productGateway: orderingpostgres.NewCatalogGateway(db),
	}, func() { _ = sqlDB.Close() }, nil
}

func memoryDependencies() dependencies {
	products := catalogmemory.NewRepository()
	gateway := orderingmemory.NewCatalogGateway(products)
	return dependencies{
		productRepo:    products,
		orderRepo:      orderingmemory.NewRepository(gateway),
		productGateway: gateway,
	}
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
