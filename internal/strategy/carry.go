package strategy

import (
	"fmt"
	"time"

	"okx-carry-bot-go/internal/store"

	"go.uber.org/zap"
)

// fundingIntervalsPerYear assumes the usual 3 funding events per day.
const fundingIntervalsPerYear = 3 * 365

// CarryRow is one futures/perpetual bar joined against spot at the same
// bucket, with its annualized carry. CloseSpot and Carry are nil when no spot
// bar matched the bucket; downstream must treat a nil carry as undefined,
// not zero.
type CarryRow struct {
	Datetime       time.Time
	Symbol         string
	Close          *float64
	CloseSpot      *float64
	DaysToExpiry   *int
	ExpirationDate *time.Time
	Carry          *float64
	Signal         int
}

// AnnualizedCarry computes the carry of a futures contract over spot.
//
// Note that this is a simplified calculation and does not account for
// lending out the shorted asset. Dated contracts (daysToExpiry > 0) scale the
// raw basis by 365/days; perpetuals add the annualized funding rate to the
// raw basis. A contract that is neither yields 0.
func AnnualizedCarry(futPrice, spotPrice float64, fundingRate float64, daysToExpiry *int, perpetual bool) float64 {
	if daysToExpiry != nil && *daysToExpiry > 0 {
		rawCarry := (futPrice - spotPrice) / spotPrice
		return rawCarry * (365.0 / float64(*daysToExpiry))
	}
	if perpetual {
		fundingAnnualized := fundingRate * fundingIntervalsPerYear
		rawCarry := (futPrice - spotPrice) / spotPrice
		return rawCarry + fundingAnnualized
	}
	return 0
}

// Engine computes carry series from stored price history.
type Engine struct {
	store store.Reader
	// fundingRates maps unified symbols to per-interval funding rates.
	// Symbols absent from the map are treated as dated futures.
	fundingRates map[string]float64
	logger       *zap.Logger
}

// NewEngine creates a carry engine on top of a price store reader.
func NewEngine(st store.Reader, fundingRates map[string]float64, logger *zap.Logger) *Engine {
	return &Engine{
		store:        st,
		fundingRates: fundingRates,
		logger:       logger,
	}
}

// evaluateTrade computes the carry for one observation, choosing the
// perpetual formula when the symbol has a configured funding rate and the
// dated-futures formula otherwise.
func (e *Engine) evaluateTrade(symbol string, spotPrice, futPrice float64, daysToExpiry *int) float64 {
	if rate, ok := e.fundingRates[symbol]; ok {
		return AnnualizedCarry(futPrice, spotPrice, rate, nil, true)
	}
	return AnnualizedCarry(futPrice, spotPrice, 0, daysToExpiry, false)
}

// CalculateCarry runs the carry pipeline: fetch stored history, resample to
// the requested timeframe, filter to the base/quote pair, left-join each
// futures bar to the spot bar at the same bucket, and compute the annualized
// carry per row. Futures bars with no spot match keep a nil CloseSpot and a
// nil Carry.
func (e *Engine) CalculateCarry(base, quote string, timeframe time.Duration) ([]CarryRow, error) {
	records, err := e.store.GetPriceHistory()
	if err != nil {
		return nil, fmt.Errorf("could not fetch price history: %w", err)
	}
	if len(records) == 0 {
		e.logger.Warn("Price history is empty, returning empty carry series")
		return nil, nil
	}

	bars, err := ResamplePrices(records, timeframe)
	if err != nil {
		return nil, err
	}
	filtered := FilterSymbols(bars, base, quote)

	var spot, futs []Bar
	for _, b := range filtered {
		if b.Futures {
			futs = append(futs, b)
		} else {
			spot = append(spot, b)
		}
	}

	spotClose := make(map[int64]*float64, len(spot))
	for _, s := range spot {
		spotClose[s.Datetime.UnixNano()] = s.Close
	}

	rows := make([]CarryRow, 0, len(futs))
	for _, f := range futs {
		row := CarryRow{
			Datetime:       f.Datetime,
			Symbol:         f.Symbol,
			Close:          f.Close,
			ExpirationDate: f.ExpirationDate,
		}
		if cs, ok := spotClose[f.Datetime.UnixNano()]; ok && cs != nil {
			v := *cs
			row.CloseSpot = &v
		}
		if f.ExpirationDate != nil {
			days := daysBetween(f.Datetime, *f.ExpirationDate)
			row.DaysToExpiry = &days
		}
		if row.Close != nil && row.CloseSpot != nil {
			carry := e.evaluateTrade(row.Symbol, *row.CloseSpot, *row.Close, row.DaysToExpiry)
			row.Carry = &carry
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// daysBetween is the whole-calendar-day difference between two instants,
// ignoring the time of day on either side.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
