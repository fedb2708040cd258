package main

import (
	"fmt"
	"os"

	"okx-carry-bot-go/internal/backtest"
	"okx-carry-bot-go/internal/config"
	"okx-carry-bot-go/internal/database"
	"okx-carry-bot-go/internal/logger"
	"okx-carry-bot-go/internal/report"
	"okx-carry-bot-go/internal/store"
	"okx-carry-bot-go/internal/strategy"

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

	st := store.NewStore(db)
	engine := strategy.NewEngine(st, cfg.Strategy.FundingRates, log)

	// Generate the two-leg carry signal series
	legs, err := engine.CarryStrategy(cfg.Strategy.Base, cfg.Strategy.Quote, cfg.Strategy.Timeframe, cfg.Strategy.Threshold)
	if err != nil {
		log.Fatal("Carry strategy failed", zap.Error(err))
	}
	log.Info("Generated carry signals",
		zap.String("base", cfg.Strategy.Base),
		zap.String("quote", cfg.Strategy.Quote),
		zap.Duration("timeframe", cfg.Strategy.Timeframe),
		zap.Float64("threshold", cfg.Strategy.Threshold),
		zap.Int("rows", len(legs)))

	rows := make([]backtest.Row, len(legs))
	for i, leg := range legs {
		rows[i] = backtest.Row{
			Datetime: leg.Datetime,
			Symbol:   leg.Symbol,
			Close:    leg.Close,
			Signal:   leg.Signal,
		}
	}

	results, err := backtest.Run(rows, log)
	if err != nil {
		log.Fatal("Backtest failed", zap.Error(err))
	}
	if len(results) == 0 {
		log.Warn("Backtest produced no results, nothing to summarize")
		return
	}

	for _, s := range backtest.Summarize(results) {
		log.Info("Portfolio summary",
			zap.String("symbol", s.Symbol),
			zap.Time("start", s.Start),
			zap.Time("end", s.End),
			zap.Float64("total_return", s.TotalReturn),
			zap.Float64("volatility", s.Volatility),
			zap.Float64("annualized_return", s.AnnualizedReturn),
			zap.Float64("annualized_volatility", s.AnnualizedVolatility),
			zap.Float64("max_single_period_drawdown", s.MaxSinglePeriodDrawdown),
		)
	}

	title := fmt.Sprintf("%s/%s carry • cumulative PnL", cfg.Strategy.Base, cfg.Strategy.Quote)
	png, err := report.EquityCurve(results, title)
	if err != nil {
		log.Error("Failed to render equity curve", zap.Error(err))
		return
	}
	if err := os.WriteFile(cfg.Report.ChartPath, png, 0o644); err != nil {
		log.Error("Failed to write equity curve", zap.String("path", cfg.Report.ChartPath), zap.Error(err))
		return
	}
	log.Info("Wrote equity curve", zap.String("path", cfg.Report.ChartPath))
}
