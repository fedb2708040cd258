package backtest

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Contract violations surfaced by Run. These fail the whole run immediately;
// they are never defaulted around.
var (
	ErrMissingDatetime = errors.New("backtest: row has no datetime")
	ErrMissingSymbol   = errors.New("backtest: row has no symbol")
)

// Row is one time step of one instrument's signal series. A nil Close marks
// a step with no usable price; such rows are dropped before simulation.
type Row struct {
	Datetime time.Time
	Symbol   string
	Close    *float64
	Signal   int
}

// Result is one simulated time step. Each row depends on the previous row's
// position and cumulative PnL, so a series is a sequential fold, never a
// stateless map.
type Result struct {
	Datetime      time.Time
	Symbol        string
	Close         float64
	Signal        int
	PriceChange   float64
	Position      int
	PnL           float64
	CumulativePnL float64
}

// transition applies the accumulate-if-different position rule: on signal s,
// the position changes by s only when it differs from s. Two consecutive
// identical signals leave the position alone; a signal opposing the held
// position closes it to flat rather than flipping it. This is not equivalent
// to assigning the signal.
func transition(position, signal int) int {
	if position != signal {
		return position + signal
	}
	return position
}

// simulate folds one instrument's time-ordered series into positions and PnL.
// PnL for a step uses the previous step's position (the trade was established
// by the end of the prior period).
func simulate(rows []Row) []Result {
	results := make([]Result, len(rows))
	position := 0
	cumulative := 1.0
	for i, r := range rows {
		priceChange := 0.0
		if i > 0 && results[i-1].Close != 0 {
			priceChange = (*r.Close - results[i-1].Close) / results[i-1].Close
		}

		prevPosition := position
		position = transition(position, r.Signal)

		pnl := float64(prevPosition) * priceChange
		cumulative *= 1 + pnl

		results[i] = Result{
			Datetime:      r.Datetime,
			Symbol:        r.Symbol,
			Close:         *r.Close,
			Signal:        r.Signal,
			PriceChange:   priceChange,
			Position:      position,
			PnL:           pnl,
			CumulativePnL: cumulative - 1,
		}
	}
	return results
}

// Run validates the input, drops rows without a price, and simulates each
// symbol's series independently, concatenating the per-symbol results in
// symbol order. An empty (or fully price-less) input is not an error: it
// logs a warning and returns an empty result.
func Run(rows []Row, logger *zap.Logger) ([]Result, error) {
	for _, r := range rows {
		if r.Datetime.IsZero() {
			return nil, fmt.Errorf("%w: symbol %q", ErrMissingDatetime, r.Symbol)
		}
		if r.Symbol == "" {
			return nil, fmt.Errorf("%w: at %s", ErrMissingSymbol, r.Datetime)
		}
	}

	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Close != nil {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		logger.Warn("Backtest input is empty, returning empty result")
		return nil, nil
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Datetime.Before(kept[j].Datetime)
	})

	groups := make(map[string][]Row)
	symbols := make([]string, 0)
	for _, r := range kept {
		if _, ok := groups[r.Symbol]; !ok {
			symbols = append(symbols, r.Symbol)
		}
		groups[r.Symbol] = append(groups[r.Symbol], r)
	}
	sort.Strings(symbols)

	var results []Result
	for _, sym := range symbols {
		results = append(results, simulate(groups[sym])...)
	}
	return results, nil
}
