package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/simplepos/simplepos/internal/app"
	"github.com/simplepos/simplepos/internal/catalog"
	"github.com/simplepos/simplepos/internal/depletion"
	"github.com/simplepos/simplepos/internal/observability"
	"github.com/simplepos/simplepos/internal/platform/store"
	"github.com/simplepos/simplepos/internal/sale"
	"github.com/simplepos/simplepos/internal/shared"
	"github.com/simplepos/simplepos/internal/stock"
	"github.com/simplepos/simplepos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var recordStore store.Store
	switch cfg.StoreDriver {
	case "redis":
		recordStore = store.NewRedis(redisClient)
	default:
		dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer dbpool.Close()
		pg := store.NewPostgres(dbpool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("ensure schema", slog.Any("error", err))
			os.Exit(1)
		}
		recordStore = pg
	}

	catalogRepo := catalog.NewRepository(recordStore)
	catalogService := catalog.NewService(catalogRepo)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	stockRepo := stock.NewRepository(recordStore)
	depletionRepo := depletion.NewRepository(recordStore)
	stockService := stock.NewService(stockRepo, depletionRepo, logger)
	stockHandler := stock.NewHandler(logger, stockService)

	engine := depletion.NewEngine(depletionRepo, stockRepo)
	depletionHandler := depletion.NewHandler(logger, depletionRepo, engine)

	// Legacy records are repaired once at boot so every request path
	// sees normalized stock items.
	repaired, err := stockService.ReconcileAll(ctx)
	if err != nil {
		logger.Error("reconcile stock", slog.Any("error", err))
		os.Exit(1)
	}
	if repaired > 0 {
		logger.Info("reconciled stock items", slog.Int("repaired", repaired))
	}

	metrics := observability.NewMetrics()

	cartStore := sale.NewCartStore(redisClient, cfg.CartTTL)
	idemStore := shared.NewIdempotencyStore(redisClient, 24*time.Hour)
	saleService := sale.NewService(cartStore, catalogService, depletionRepo, engine, stockRepo, idemStore, metrics, logger)
	saleHandler := sale.NewHandler(logger, saleService)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobsClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		CatalogHandler:   catalogHandler,
		StockHandler:     stockHandler,
		DepletionHandler: depletionHandler,
		SaleHandler:      saleHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
