package main

import (
	"fmt"
	"net/http"
	"os"

	"okx-carry-bot-go/internal/config"
	"okx-carry-bot-go/internal/database"
	"okx-carry-bot-go/internal/logger"
	"okx-carry-bot-go/internal/store"
	"okx-carry-bot-go/internal/strategy"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	st := store.NewStore(db)
	engine := strategy.NewEngine(st, cfg.Strategy.FundingRates, log)

	// Setup HTTP server
	mux := http.NewServeMux()

	apiHandler := NewAPIHandler(log, &cfg, db, engine)

	// API endpoints
	mux.HandleFunc("/api/prices", apiHandler.PricesHandler)
	mux.HandleFunc("/api/summary", apiHandler.SummaryHandler)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
