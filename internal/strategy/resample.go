package strategy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"okx-carry-bot-go/internal/models"
)

// Bar is one symbol's price at one regular time bucket, produced by resampling.
type Bar struct {
	Datetime       time.Time
	Symbol         string
	Close          *float64
	Futures        bool
	ExpirationDate *time.Time
}

// ResamplePrices buckets irregular observations onto a regular time grid,
// keeping the last observation per (symbol, bucket). The close is the last
// non-nil price seen inside the bucket; buckets with no observations for a
// symbol produce no row. An empty input yields an empty output.
func ResamplePrices(prices []models.Price, freq time.Duration) ([]Bar, error) {
	if freq <= 0 {
		return nil, fmt.Errorf("resample frequency must be positive, got %s", freq)
	}
	if len(prices) == 0 {
		return nil, nil
	}

	// Stable sort by time so a timestamp tie resolves to the later input row,
	// matching last-observation semantics on insertion order.
	sorted := make([]models.Price, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Datetime.Before(sorted[j].Datetime)
	})

	type bucketKey struct {
		symbol string
		start  int64
	}
	bars := make(map[bucketKey]*Bar)
	for _, p := range sorted {
		start := p.Datetime.Truncate(freq)
		key := bucketKey{symbol: p.Symbol, start: start.UnixNano()}
		bar, ok := bars[key]
		if !ok {
			bar = &Bar{Datetime: start, Symbol: p.Symbol}
			bars[key] = bar
		}
		if p.Last != nil {
			v := *p.Last
			bar.Close = &v
		}
		bar.Futures = p.Futures
		bar.ExpirationDate = p.ExpirationDate
	}

	out := make([]Bar, 0, len(bars))
	for _, bar := range bars {
		out = append(out, *bar)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].Datetime.Before(out[j].Datetime)
	})
	return out, nil
}

// FilterSymbols keeps bars whose symbol starts with "BASE/QUOTE". Both the
// spot pair and its futures/perpetual counterparts share that prefix in the
// unified symbol format.
func FilterSymbols(bars []Bar, base, quote string) []Bar {
	prefix := base + "/" + quote
	var out []Bar
	for _, b := range bars {
		if strings.HasPrefix(b.Symbol, prefix) {
			out = append(out, b)
		}
	}
	return out
}
