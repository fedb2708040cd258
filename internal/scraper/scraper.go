package scraper

import (
	"context"
	"strconv"
	"strings"
	"time"

	"okx-carry-bot-go/internal/config"
	"okx-carry-bot-go/internal/models"
	"okx-carry-bot-go/internal/okx"
	"okx-carry-bot-go/internal/store"

	"go.uber.org/zap"
)

// Engine is the market data collector. It polls the OKX public API for spot
// and futures/perpetual tickers of the configured pairs and appends them to
// the price store.
type Engine struct {
	logger *zap.Logger
	cfg    *config.Config
	client okx.RestClientInterface
	store  *store.Store

	// expiries caches instrument expiration dates, keyed by unified symbol.
	expiries map[string]*time.Time
}

// NewEngine creates a new collector engine.
func NewEngine(logger *zap.Logger, cfg *config.Config, client okx.RestClientInterface, st *store.Store) *Engine {
	return &Engine{
		logger:   logger,
		cfg:      cfg,
		client:   client,
		store:    st,
		expiries: make(map[string]*time.Time),
	}
}

// Run starts the collector's polling loop.
func (e *Engine) Run(ctx context.Context) {
	e.logger.Info("Initializing collector...")
	if err := e.initialize(); err != nil {
		e.logger.Fatal("Failed to initialize collector", zap.Error(err))
	}
	e.logger.Info("Collector initialized successfully.")

	interval := e.cfg.Scraper.PollInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	e.logger.Info("Starting poll loop", zap.Duration("interval", interval))

	// One immediate collection before the first tick.
	if err := e.collect(); err != nil {
		e.logger.Error("Collection failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping collector...")
			return
		case <-ticker.C:
			if err := e.collect(); err != nil {
				e.logger.Error("Collection failed", zap.Error(err))
			}
		}
	}
}

// initialize caches expiration dates for the dated futures of every
// configured pair.
func (e *Engine) initialize() error {
	for _, pair := range e.cfg.Scraper.Pairs {
		underlying := strings.Replace(pair, "/", "-", 1) // BTC/USDT -> BTC-USDT
		instruments, err := e.client.GetInstruments(okx.InstTypeFutures, underlying)
		if err != nil {
			return err
		}
		for _, inst := range instruments {
			symbol := okx.UnifiedSymbol(inst.InstID)
			e.expiries[symbol] = okx.ParseExpiry(inst.ExpTime)
		}
		e.logger.Info("Cached futures expiries",
			zap.String("pair", pair),
			zap.Int("count", len(instruments)))
	}
	return nil
}

// collect performs one polling round across spot, perpetual, and dated
// futures tickers.
func (e *Engine) collect() error {
	var prices []models.Price
	for _, instType := range []string{okx.InstTypeSpot, okx.InstTypeSwap, okx.InstTypeFutures} {
		tickers, err := e.client.GetTickers(instType)
		if err != nil {
			return err
		}
		futures := instType != okx.InstTypeSpot
		for _, t := range tickers {
			symbol := okx.UnifiedSymbol(t.InstID)
			if !e.wantSymbol(symbol) {
				continue
			}
			prices = append(prices, e.toPrice(symbol, futures, t))
		}
	}

	if err := e.store.SavePrices(prices); err != nil {
		return err
	}
	e.logger.Info("Stored price observations", zap.Int("count", len(prices)))
	return nil
}

// wantSymbol reports whether the unified symbol belongs to a configured pair.
func (e *Engine) wantSymbol(symbol string) bool {
	for _, pair := range e.cfg.Scraper.Pairs {
		if strings.HasPrefix(symbol, pair) {
			return true
		}
	}
	return false
}

func (e *Engine) toPrice(symbol string, futures bool, t okx.Ticker) models.Price {
	ts, err := strconv.ParseInt(t.Ts, 10, 64)
	if err != nil || ts == 0 {
		ts = time.Now().UnixMilli()
	}
	p := models.Price{
		Timestamp: ts,
		Datetime:  time.UnixMilli(ts).UTC(),
		Symbol:    symbol,
		Last:      parsePrice(t.Last),
		Bid:       parsePrice(t.BidPx),
		Ask:       parsePrice(t.AskPx),
		High:      parsePrice(t.High24h),
		Low:       parsePrice(t.Low24h),
		Futures:   futures,
	}
	if futures {
		p.ExpirationDate = e.expiries[symbol]
	}
	return p
}

func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
