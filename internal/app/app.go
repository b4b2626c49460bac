package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adpanel/walletcore/internal/config"
	"github.com/adpanel/walletcore/internal/database"
	"github.com/adpanel/walletcore/internal/handlers"
	"github.com/adpanel/walletcore/internal/logger"
	"github.com/adpanel/walletcore/internal/reconcile"
	"github.com/adpanel/walletcore/internal/repository"
	"github.com/adpanel/walletcore/internal/service"
)

type App struct {
	server *http.Server
	db     *sql.DB
	cache  *redis.Client
}

func NewApp() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.ParseFlags()

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Error("Database connection failed", zap.Error(err))
		return nil, err
	}

	cache := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
	if err := cache.Ping(context.Background()).Err(); err != nil {
		logger.Log.Error("Redis connection failed", zap.Error(err))
		return nil, err
	}

	walletRepo := repository.NewWalletRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	clientRepo := repository.NewClientRepository(db)
	topUpRepo := repository.NewTopUpRepository(db)
	actionRepo := repository.NewActionRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	topUpService := service.NewTopUpService(topUpRepo, accountRepo, clientRepo, reconcile.NewGenerator(), cfg.ReconcileWindow)
	actionService := service.NewActionService(actionRepo, clientRepo, accountRepo, withdrawalRepo)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, accountRepo)
	walletService := service.NewWalletService(walletRepo)
	historyService := service.NewHistoryService(historyRepo)

	handler := handlers.NewHandler(topUpService, actionService, withdrawalService, walletService, historyService)
	r := handlers.NewRouter(handler, cfg.SecretKey, cache, cfg.IdempotencyTTL)

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	return &App{
		server: server,
		db:     db,
		cache:  cache,
	}, nil
}

func (a *App) Run() error {
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed to start", zap.Error(err))
		}
	}()
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	logger.Log.Info("shutting down server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown failed", zap.Error(err))
		return err
	}

	logger.Log.Info("closing redis connection...")
	if err := a.cache.Close(); err != nil {
		logger.Log.Error("failed to close redis client", zap.Error(err))
		return err
	}

	logger.Log.Info("closing database connection...")
	if err := a.db.Close(); err != nil {
		logger.Log.Error("failed to close database", zap.Error(err))
		return err
	}

	return nil
}
