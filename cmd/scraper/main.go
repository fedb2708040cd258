package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"okx-carry-bot-go/internal/config"
	"okx-carry-bot-go/internal/database"
	"okx-carry-bot-go/internal/logger"
	"okx-carry-bot-go/internal/okx"
	"okx-carry-bot-go/internal/scraper"
	"okx-carry-bot-go/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	// Initialize OKX REST client
	restClient := okx.NewRestClient(&cfg.Okx, log)
	if _, err := restClient.GetServerTime(); err != nil {
		log.Fatal("Failed to connect to OKX API", zap.Error(err))
	}
	log.Info("Successfully connected to OKX API.")

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the collector
	engine := scraper.NewEngine(log, &cfg, restClient, store.NewStore(db))
	engine.Run(ctx)

	log.Info("Collector has been shut down.")
}
