package report

import (
	"errors"
	"sort"

	"okx-carry-bot-go/internal/backtest"

	charts "github.com/vicanso/go-charts/v2"
)

// EquityCurve renders the cumulative PnL of every simulated leg as a PNG
// line chart. Series share the x axis of the longest leg; shorter legs are
// padded at the front so the curves end together.
func EquityCurve(results []backtest.Result, title string) ([]byte, error) {
	if len(results) == 0 {
		return nil, errors.New("no backtest results to chart")
	}

	groups := make(map[string][]backtest.Result)
	for _, r := range results {
		groups[r.Symbol] = append(groups[r.Symbol], r)
	}
	names := make([]string, 0, len(groups))
	maxLen := 0
	for sym, rows := range groups {
		names = append(names, sym)
		if len(rows) > maxLen {
			maxLen = len(rows)
		}
	}
	sort.Strings(names)

	values := make([][]float64, 0, len(names))
	var xLabels []string
	for _, sym := range names {
		rows := groups[sym]
		series := make([]float64, maxLen)
		pad := maxLen - len(rows)
		for i := 0; i < pad; i++ {
			series[i] = 0
		}
		for i, r := range rows {
			series[pad+i] = r.CumulativePnL
		}
		values = append(values, series)
		if len(rows) == maxLen {
			xLabels = make([]string, maxLen)
			for i, r := range rows {
				xLabels[i] = r.Datetime.UTC().Format("Jan 02 15:04")
			}
		}
	}

	painter, err := charts.LineRender(values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}
