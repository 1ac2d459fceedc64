package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"storefront-api/internal/client"
	"storefront-api/internal/config"
	"storefront-api/internal/events"
	"storefront-api/internal/logging"
	"storefront-api/internal/repository"
	"storefront-api/internal/server"
	"storefront-api/internal/service"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Auth.JWTSecret == "" {
		logger.Warn("AUTH_JWT_SECRET is empty, every authenticated request will be rejected")
	}

	db, err := client.InitDBClient(cfg.Database)
	if err != nil {
		logger.Error("init database", "error", err)
		os.Exit(1)
	}
	defer client.CloseDB(db)

	productRepo := repository.NewProductRepository(db)
	if cfg.Database.SeedCatalog {
		if err := productRepo.Seed(context.Background()); err != nil {
			logger.Error("seed catalog", "error", err)
			os.Exit(1)
		}
	}

	publisher := newPublisher(cfg, logger)
	defer publisher.Close()

	mercadoPagoClient := client.NewMercadoPagoClient(&cfg.MercadoPago)

	orderRepo := repository.NewOrderRepository(db)
	addressRepo := repository.NewAddressRepository(db)
	userRepo := repository.NewUserRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	userService := service.NewUserService(userRepo, cfg.Auth.AdminEmail, logger)
	orderService := service.NewOrderService(
		db,
		orderRepo,
		addressRepo,
		userRepo,
		productRepo,
		publisher,
		cfg.Pricing,
		logger,
	)
	paymentService := service.NewPaymentService(
		db,
		mercadoPagoClient,
		orderRepo,
		webhookEventRepo,
		publisher,
		cfg,
		logger,
	)
	catalogService := service.NewCatalogService(productRepo)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	// Init HTTP server
	srv := server.NewServer(cfg, server.Services{
		Order:   orderService,
		Payment: paymentService,
		User:    userService,
		Catalog: catalogService,
	}, logger)

	logger.Info("starting HTTP server", "address", serverAddr, "environment", cfg.Environment.Name)
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	logger.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
}

func newPublisher(cfg *config.Config, logger *slog.Logger) events.Publisher {
	if cfg.RabbitMQ.URL == "" {
		logger.Info("RABBITMQ_URL not set, order events disabled")
		return events.NewNoopPublisher()
	}

	publisher, err := events.NewRabbitPublisher(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable, order events disabled", "error", err)
		return events.NewNoopPublisher()
	}
	return publisher
}
