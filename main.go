package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf/v3"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/go-faster/errors"
	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/config"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/postgres"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/repository/redis"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/seed"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return
		}
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Printf("Products API stopped with error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	telem, err := newTelemetry(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")
	logger := telem.Logger

	logger.Info("Starting Products API",
		slog.String("storage.driver", cfg.Storage.Driver),
	)

	repo, closeRepo, err := newRepository(ctx, &cfg.Storage, tracer, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	if cfg.Storage.SeedCount > 0 {
		seeded, err := seed.Populate(ctx, repo, cfg.Storage.SeedCount, gofakeit.New(0))
		if err != nil {
			return errors.Wrap(err, "seed products")
		}
		logger.Info("Seeded product catalog", slog.Int("count", seeded))
	}

	productService := service.NewProductService(repo, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(cfg, productHandler, logger, telem)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown server")
	}

	logger.Info("Server stopped")
	return nil
}

func newTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	if !cfg.OTLP.Enabled {
		return telemetry.NewNoOpTelemetry(&cfg.OTLP)
	}
	return telemetry.NewTelemetry(ctx, &cfg.OTLP)
}

// newRepository builds the product store selected by STORAGE_DRIVER. The
// returned func releases its connections.
func newRepository(
	ctx context.Context,
	cfg *config.StorageConfig,
	tracer trace.Tracer,
	logger *slog.Logger,
) (domain.ProductRepository, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("Connected to PostgreSQL, schema is up to date")
		return postgres.NewProductRepository(pool, tracer, logger), pool.Close, nil

	case config.DriverRedis:
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Connected to Redis")
		return redis.NewProductRepository(client, tracer, logger), func() { _ = client.Close() }, nil

	default:
		return memory.NewProductRepository(tracer, logger), func() {}, nil
	}
}
