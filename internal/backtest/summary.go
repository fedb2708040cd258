package backtest

import (
	"math"
	"sort"
	"time"
)

// hoursPerYear treats a year as 365 days of wall-clock time.
const hoursPerYear = 365 * 24

// Summary aggregates one symbol's simulated series into risk/return
// statistics. MaxSinglePeriodDrawdown is computed over the entire ungrouped
// input, not per symbol, so it repeats on every row.
type Summary struct {
	Symbol                  string    `json:"symbol"`
	Start                   time.Time `json:"start"`
	End                     time.Time `json:"end"`
	TotalReturn             float64   `json:"total_return"`
	Volatility              float64   `json:"volatility"`
	AnnualizedReturn        float64   `json:"annualized_return"`
	AnnualizedVolatility    float64   `json:"annualized_volatility"`
	MaxSinglePeriodDrawdown float64   `json:"max_single_period_drawdown"`
}

// Summarize reduces a completed backtest to one summary per symbol.
// Annualization treats each row as a one-day period regardless of the actual
// bar frequency; this is a deliberate simplification.
func Summarize(results []Result) []Summary {
	if len(results) == 0 {
		return nil
	}

	maxPnL := math.Inf(-1)
	for _, r := range results {
		if r.PnL > maxPnL {
			maxPnL = r.PnL
		}
	}

	groups := make(map[string][]Result)
	for _, r := range results {
		groups[r.Symbol] = append(groups[r.Symbol], r)
	}
	symbols := make([]string, 0, len(groups))
	for sym := range groups {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	summaries := make([]Summary, 0, len(symbols))
	for _, sym := range symbols {
		rows := groups[sym]
		s := Summary{
			Symbol:                  sym,
			Start:                   rows[0].Datetime,
			End:                     rows[0].Datetime,
			MaxSinglePeriodDrawdown: maxPnL,
		}
		var last Result
		pnls := make([]float64, 0, len(rows))
		for _, r := range rows {
			if r.Datetime.Before(s.Start) {
				s.Start = r.Datetime
			}
			if !r.Datetime.Before(s.End) {
				s.End = r.Datetime
				last = r
			}
			pnls = append(pnls, r.PnL)
		}
		s.TotalReturn = last.CumulativePnL
		s.Volatility = stddev(pnls)

		years := s.End.Sub(s.Start).Hours() / hoursPerYear
		if years > 0 {
			s.AnnualizedReturn = math.Pow(1+s.TotalReturn, 1/years) - 1
		} else {
			// Degenerate span: nothing to annualize.
			s.AnnualizedReturn = s.TotalReturn
		}
		s.AnnualizedVolatility = s.Volatility * math.Sqrt(365)

		summaries = append(summaries, s)
	}
	return summaries
}

// stddev is the sample standard deviation. Fewer than two values yield 0.
func stddev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(n)

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n - 1)
	return math.Sqrt(variance)
}
