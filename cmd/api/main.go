package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"chowvest/internal/config"
	"chowvest/internal/database"
	"chowvest/internal/events"
	"chowvest/internal/handlers"
	"chowvest/internal/hooks"
	"chowvest/internal/ledger"
	"chowvest/internal/logger"
	"chowvest/internal/payment"
	"chowvest/internal/ratelimit"
	"chowvest/internal/server"
	"chowvest/internal/services"
	"chowvest/internal/tracing"
	"chowvest/internal/validator"
)

// @title           Chowvest API
// @version         1.0
// @description     Chowvest lets users save towards food baskets from a naira wallet funded through Paystack.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	cfg.BindFlags(pflag.CommandLine)
	pflag.Parse()

	logger.Init(cfg.Server.Env, cfg.Server.LogLevel)
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run(cfg *config.Config) error {
	log := logger.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.Register()

	shutdownTracing, err := tracing.Setup(context.Background(), cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		return err
	}

	dbManager, err := database.NewManager(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnw("Failed to close database", "error", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	isolation, err := database.ParseIsolation(cfg.Database.Isolation)
	if err != nil {
		return err
	}
	db := dbManager.DB()
	store := ledger.New(db, ledger.WithIsolation(isolation), ledger.WithMaxRetries(cfg.Database.MaxRetries))

	gateway := payment.NewPaystackClient(payment.PaystackOptions{
		BaseURL:         cfg.Paystack.BaseURL,
		SecretKey:       cfg.Paystack.SecretKey,
		Timeout:         cfg.Paystack.Timeout,
		BreakerFailures: cfg.Paystack.BreakerFailures,
		BreakerCooldown: cfg.Paystack.BreakerCooldown,
	})
	if cfg.Paystack.SecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY is not set; deposits and webhooks will fail")
	}

	limiter, closeLimiter := newLimiter(cfg.Redis)
	defer closeLimiter()

	publisher := newPublisher(cfg.Kafka)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warnw("Failed to close event publisher", "error", err)
		}
	}()

	runner := hooks.NewAsync(cfg.Hooks.Timeout)

	auditService := services.NewAuditService(db)
	notificationService := services.NewNotificationService(db, publisher)
	router := server.NewRouter(server.Services{
		Wallet:   services.NewWalletService(store),
		Basket:   services.NewBasketService(store, auditService, notificationService, publisher, runner),
		Transfer: services.NewTransferService(store, auditService, notificationService, publisher, runner),
		Deposit: services.NewDepositService(store, gateway, auditService, notificationService, publisher, runner, services.DepositOptions{
			CallbackURL:    cfg.Paystack.CallbackURL,
			GatewayTimeout: cfg.Paystack.Timeout,
		}),
		Notification:  notificationService,
		PaymentMethod: services.NewPaymentMethodService(db, auditService),
	}, server.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		WebhookSecret:  cfg.Paystack.SecretKey,
		Limiter:        limiter,
		DepositLimit:   handlers.DepositRateLimit{MaxAttempts: cfg.Deposit.MaxAttempts, Window: cfg.Deposit.Window},
		MetricsEnabled: cfg.Telemetry.MetricsEnabled,
		DB:             db,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      router,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting Chowvest API on %s", cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Infow("Shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Shutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	}
	if err := runner.Wait(ctx); err != nil {
		log.Warnw("Post-commit hooks still running at shutdown", "error", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Warnw("Failed to flush traces", "error", err)
	}
	return nil
}

// newLimiter prefers Redis so replicas share quotas and falls back to
// process memory when no address is configured.
func newLimiter(cfg config.RedisConfig) (ratelimit.Limiter, func()) {
	if cfg.Addr == "" {
		logger.Get().Info("REDIS_ADDR not set; using in-memory rate limiter")
		return ratelimit.NewMemoryLimiter(10 * time.Minute), func() {}
	}
	limiter := ratelimit.NewRedisLimiter(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
	return limiter, func() {
		if err := limiter.Close(); err != nil {
			logger.Get().Warnw("Failed to close redis client", "error", err)
		}
	}
}

func newPublisher(cfg config.KafkaConfig) events.Publisher {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		logger.Get().Info("KAFKA_BROKERS not set; events are not published")
		return events.Nop{}
	}
	return events.NewKafkaPublisher(brokers, cfg.Topic)
}
