package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/vitrine-pos/vitrine-pos/internal/app"
	"github.com/vitrine-pos/vitrine-pos/internal/auth"
	"github.com/vitrine-pos/vitrine-pos/internal/catalog/categories"
	"github.com/vitrine-pos/vitrine-pos/internal/catalog/products"
	"github.com/vitrine-pos/vitrine-pos/internal/observability"
	"github.com/vitrine-pos/vitrine-pos/internal/reports"
	"github.com/vitrine-pos/vitrine-pos/internal/sales"
	"github.com/vitrine-pos/vitrine-pos/internal/shared"
	"github.com/vitrine-pos/vitrine-pos/internal/users"
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "vitrine_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, cfg.MaxUsers)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	categoriesRepo := categories.NewRepository(dbpool)
	categoriesService := categories.NewService(categoriesRepo)
	categoriesHandler := categories.NewHandler(logger, categoriesService)

	productsRepo := products.NewRepository(dbpool)
	productsService := products.NewService(productsRepo, cfg.MaxProducts)
	productsHandler := products.NewHandler(logger, productsService, auditLogger)

	salesRepo := sales.NewRepository(dbpool)
	salesService := sales.NewService(salesRepo, usersService, metrics)
	salesHandler := sales.NewHandler(logger, salesService, auditLogger)

	gotenberg := reports.NewGotenbergClient(cfg.GotenbergURL)
	if err := gotenberg.Ping(ctx); err != nil {
		logger.Warn("gotenberg ping", slog.Any("error", err))
	}
	numbersRepo := reports.NewNumbersRepository(dbpool)
	reportsHandler := reports.NewHandler(logger, salesService, productsService, numbersRepo, gotenberg)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		CSRFManager:       csrfManager,
		AuthHandler:       authHandler,
		UsersHandler:      usersHandler,
		CategoriesHandler: categoriesHandler,
		ProductsHandler:   productsHandler,
		SalesHandler:      salesHandler,
		ReportsHandler:    reportsHandler,
		Pool:              dbpool,
		Metrics:           metrics,
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
