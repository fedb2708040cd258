package main

import (
	"encoding/json"
	"net/http"

	"okx-carry-bot-go/internal/backtest"
	"okx-carry-bot-go/internal/config"
	"okx-carry-bot-go/internal/models"
	"okx-carry-bot-go/internal/strategy"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// APIHandler holds dependencies for the API endpoints.
type APIHandler struct {
	log    *zap.Logger
	cfg    *config.Config
	db     *gorm.DB
	engine *strategy.Engine
}

// NewAPIHandler creates a new APIHandler.
func NewAPIHandler(log *zap.Logger, cfg *config.Config, db *gorm.DB, engine *strategy.Engine) *APIHandler {
	return &APIHandler{log: log, cfg: cfg, db: db, engine: engine}
}

// PricesHandler returns the most recent stored price observations.
func (h *APIHandler) PricesHandler(w http.ResponseWriter, r *http.Request) {
	var prices []models.Price
	// Order by most recent first
	if err := h.db.Order("timestamp desc").Limit(500).Find(&prices).Error; err != nil {
		h.log.Error("Failed to get prices from database", zap.Error(err))
		http.Error(w, "Failed to get prices", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prices)
}

// SummaryHandler runs the carry backtest over the stored history and returns
// the per-leg portfolio summary.
func (h *APIHandler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	s := h.cfg.Strategy
	legs, err := h.engine.CarryStrategy(s.Base, s.Quote, s.Timeframe, s.Threshold)
	if err != nil {
		h.log.Error("Carry strategy failed", zap.Error(err))
		http.Error(w, "Failed to compute carry signals", http.StatusInternalServerError)
		return
	}

	rows := make([]backtest.Row, len(legs))
	for i, leg := range legs {
		rows[i] = backtest.Row{
			Datetime: leg.Datetime,
			Symbol:   leg.Symbol,
			Close:    leg.Close,
			Signal:   leg.Signal,
		}
	}

	results, err := backtest.Run(rows, h.log)
	if err != nil {
		h.log.Error("Backtest failed", zap.Error(err))
		http.Error(w, "Backtest failed", http.StatusInternalServerError)
		return
	}

	summaries := backtest.Summarize(results)
	if summaries == nil {
		summaries = []backtest.Summary{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}
