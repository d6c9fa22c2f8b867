package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"stakeledger/config"
	"stakeledger/database"
	"stakeledger/events"
	"stakeledger/metrics"
	"stakeledger/notify"
	"stakeledger/repository"
	"stakeledger/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting stakeledger...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Println("Initializing services...")
	authorizer := service.NewStaticAuthorizer(cfg.AdminAccounts)
	params := cfg.Params()
	planService := service.NewPlanService(uowFactory, authorizer, params)
	settlementService := service.NewSettlementService(uowFactory, authorizer, params)
	log.Println("Services initialized successfully")

	// Start the transfer notification server
	noticeHandler := notify.NewHandler(planService, settlementService)
	noticeServer := notify.NewServer(cfg.ListenAddr, noticeHandler)
	go func() {
		if err := noticeServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Notification server stopped: %v", err)
		}
	}()
	log.Printf("Transfer notification server listening on %s", cfg.ListenAddr)

	// Start the transfer-intent dispatcher
	intentRepo := repository.NewTransferIntentRepository(db)
	dispatcher := service.NewIntentDispatcher(intentRepo, service.LoggingTransferLedger{}, cfg.DispatchInterval)
	go dispatcher.Run(ctx)
	log.Println("Transfer intent dispatcher started")

	// Start the metrics server
	metricsServer := metrics.NewServer(cfg.MetricsAddr)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
	log.Printf("Metrics server listening on %s", cfg.MetricsAddr)

	// Wait for context cancellation
	log.Printf("Ledger is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := noticeServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down notification server: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down metrics server: %v", err)
	}

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}
