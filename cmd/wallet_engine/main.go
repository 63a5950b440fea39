package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-wallet-engine/internal/api"
	"github.com/custodia-wallet-engine/internal/config"
	"github.com/custodia-wallet-engine/internal/data/mongo"
	"github.com/custodia-wallet-engine/internal/data/postgres"
	"github.com/custodia-wallet-engine/internal/gateway/paystack"
	"github.com/custodia-wallet-engine/internal/logger"
	"github.com/custodia-wallet-engine/internal/platform/messaging/producers"
	"github.com/custodia-wallet-engine/internal/platform/persistence"
	"github.com/custodia-wallet-engine/internal/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("wallet_engine")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for wallet events. Returns nil when no
	// brokers are configured; publishing is then disabled.
	eventProducer, err := producers.NewWalletEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize wallet event producer", "error", err)
		os.Exit(1)
	}
	var events producers.MessagePublisher
	if eventProducer != nil {
		events = eventProducer
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(log, postgresDB)
	walletRepo := postgres.NewWalletRepository(log, postgresDB)
	transactionRepo := postgres.NewTransactionRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	// Initialize payment gateway client
	paystackClient := paystack.NewClient(log, &cfg.Paystack)

	// Initialize services
	walletService := service.NewWalletService(postgresDB, userRepo, walletRepo, transactionRepo, auditRepo, log)
	transferService := service.NewTransferService(postgresDB, walletRepo, transactionRepo, auditRepo, events, log)
	settlementService := service.NewSettlementService(
		postgresDB, userRepo, walletRepo, transactionRepo, auditRepo, events,
		paystackClient, &cfg.Settlement, log,
	)

	// Bound webhook settlement concurrency with a worker pool
	pooledSettlement, err := service.NewPooledSettlementService(settlementService, cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to initialize settlement worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize REST server
	server := api.NewServer(log, cfg, walletService, transferService, pooledSettlement, paystackClient)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting new requests first
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain in-flight webhook settlements
	pooledSettlement.Shutdown()

	postgresDB.Close()

	if events != nil {
		if err = events.Close(); err != nil {
			log.Error("Error closing wallet event producer", "error", err)
		}
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
