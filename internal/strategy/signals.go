package strategy

import (
	"time"
)

// MetricFunc produces a time-ordered series carrying a continuous metric in
// CarryRow.Carry. Any function with this shape can be thresholded into
// signals, so strategies other than carry can plug into the same pipeline.
type MetricFunc func(base, quote string, timeframe time.Duration) ([]CarryRow, error)

// Threshold converts a continuous metric into a discrete signal:
// 1 above threshold, -1 below -threshold, 0 in between or when the metric
// is undefined.
func Threshold(metric *float64, threshold float64) int {
	if metric == nil {
		return 0
	}
	if *metric > threshold {
		return 1
	}
	if *metric < -threshold {
		return -1
	}
	return 0
}

// GenerateSignals runs the metric function and thresholds each row's metric
// into a long/short/flat signal.
func GenerateSignals(f MetricFunc, base, quote string, timeframe time.Duration, threshold float64) ([]CarryRow, error) {
	rows, err := f(base, quote, timeframe)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Signal = Threshold(rows[i].Carry, threshold)
	}
	return rows, nil
}

// SignalRow is one leg of the combined carry trade series. Spot and futures
// legs share the normalized column set so the backtester can treat each leg
// as an independent instrument. FutPair links the two legs of a trade.
type SignalRow struct {
	Datetime       time.Time
	Symbol         string
	Close          *float64
	Signal         int
	Carry          *float64
	DaysToExpiry   *int
	ExpirationDate *time.Time
	FutPair        string
}

// CarryStrategy generates the market-neutral two-leg carry series: for every
// futures bar the futures leg takes the negated carry signal (short the
// overpriced leg) and the spot leg takes the carry signal as-is. Spot legs
// come first, then futures legs.
func (e *Engine) CarryStrategy(base, quote string, timeframe time.Duration, threshold float64) ([]SignalRow, error) {
	rows, err := GenerateSignals(e.CalculateCarry, base, quote, timeframe, threshold)
	if err != nil {
		return nil, err
	}

	spotSymbol := base + "/" + quote
	spotLegs := make([]SignalRow, 0, len(rows))
	futLegs := make([]SignalRow, 0, len(rows))
	for _, r := range rows {
		spotLegs = append(spotLegs, SignalRow{
			Datetime: r.Datetime,
			Symbol:   spotSymbol,
			Close:    r.CloseSpot,
			Signal:   r.Signal,
			FutPair:  r.Symbol,
		})
		futLegs = append(futLegs, SignalRow{
			Datetime:       r.Datetime,
			Symbol:         r.Symbol,
			Close:          r.Close,
			Signal:         -r.Signal,
			Carry:          r.Carry,
			DaysToExpiry:   r.DaysToExpiry,
			ExpirationDate: r.ExpirationDate,
			FutPair:        r.Symbol,
		})
	}
	return append(spotLegs, futLegs...), nil
}
