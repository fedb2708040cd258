package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fp(v float64) *float64 { return &v }

// makeRows builds a single-symbol daily series from parallel price/signal slices.
func makeRows(t *testing.T, symbol string, prices []float64, signals []int) []Row {
	t.Helper()
	require.Equal(t, len(prices), len(signals))
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]Row, len(prices))
	for i := range prices {
		rows[i] = Row{
			Datetime: start.AddDate(0, 0, i),
			Symbol:   symbol,
			Close:    fp(prices[i]),
			Signal:   signals[i],
		}
	}
	return rows
}

func positions(results []Result) []int {
	out := make([]int, len(results))
	for i, r := range results {
		out[i] = r.Position
	}
	return out
}

func TestTransition_AllPairs(t *testing.T) {
	cases := []struct {
		position, signal, want int
	}{
		{-1, -1, -1},
		{-1, 0, -1},
		{-1, 1, 0},
		{0, -1, -1},
		{0, 0, 0},
		{0, 1, 1},
		{1, -1, 0},
		{1, 0, 1},
		{1, 1, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, transition(c.position, c.signal),
			"position=%d signal=%d", c.position, c.signal)
	}
}

func TestRun_Basic(t *testing.T) {
	// Arrange
	rows := makeRows(t, "BTC/USDT:USDT", []float64{100, 102, 101, 103}, []int{0, 1, 1, -1})

	// Act
	results, err := Run(rows, zap.NewNop())

	// Assert
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []int{0, 1, 1, 0}, positions(results))

	// PnL uses the previous step's position against that step's price change.
	assert.InDelta(t, 0.0, results[0].PnL, 1e-9)
	assert.InDelta(t, 0.0, results[1].PnL, 1e-9) // position was still 0 entering step 1
	assert.InDelta(t, 1.0*(101.0-102.0)/102.0, results[2].PnL, 1e-9)
	assert.InDelta(t, 1.0*(103.0-101.0)/101.0, results[3].PnL, 1e-9)

	// Cumulative PnL compounds the per-step PnL.
	wantCum := 1.0
	for i, r := range results {
		wantCum *= 1 + r.PnL
		assert.InDelta(t, wantCum-1, results[i].CumulativePnL, 1e-9)
	}
}

func TestRun_AllFlat(t *testing.T) {
	rows := makeRows(t, "BTC/USDT", []float64{100, 101, 102}, []int{0, 0, 0})

	results, err := Run(rows, zap.NewNop())

	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, 0, r.Position)
		assert.Zero(t, r.PnL)
		assert.Zero(t, r.CumulativePnL)
	}
}

func TestRun_LongShortPath(t *testing.T) {
	rows := makeRows(t, "BTC/USDT", []float64{100, 105, 103, 108, 107}, []int{0, 1, -1, 1, 0})

	results, err := Run(rows, zap.NewNop())

	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 1, 1}, positions(results))
}

func TestRun_MissingFieldsFailFast(t *testing.T) {
	t.Run("NoDatetime", func(t *testing.T) {
		rows := []Row{{Symbol: "BTC/USDT", Close: fp(100), Signal: 1}}
		_, err := Run(rows, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingDatetime)
	})

	t.Run("NoSymbol", func(t *testing.T) {
		rows := []Row{{Datetime: time.Now(), Close: fp(100), Signal: 1}}
		_, err := Run(rows, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingSymbol)
	})
}

func TestRun_EmptyAndPricelessInput(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		results, err := Run(nil, zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("AllNilPrices", func(t *testing.T) {
		rows := []Row{
			{Datetime: time.Now(), Symbol: "BTC/USDT", Close: nil, Signal: 1},
			{Datetime: time.Now(), Symbol: "BTC/USDT", Close: nil, Signal: -1},
		}
		results, err := Run(rows, zap.NewNop())
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestRun_NilPriceRowsDropped(t *testing.T) {
	rows := makeRows(t, "BTC/USDT", []float64{100, 102, 103}, []int{1, 1, 1})
	// Splice in an unmatched row between the first two steps.
	unmatched := Row{Datetime: rows[0].Datetime.Add(12 * time.Hour), Symbol: "BTC/USDT", Signal: 1}
	rows = append(rows[:1], append([]Row{unmatched}, rows[1:]...)...)

	results, err := Run(rows, zap.NewNop())

	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestRun_GroupsAreIndependent(t *testing.T) {
	// Arrange: one rising symbol held long, one rising symbol held short.
	long := makeRows(t, "ETH/USDT", []float64{100, 110}, []int{1, 1})
	short := makeRows(t, "BTC/USDT", []float64{100, 110}, []int{-1, -1})
	results, err := Run(append(long, short...), zap.NewNop())
	require.NoError(t, err)
	require.Len(t, results, 4)

	// Groups come back concatenated in symbol order.
	assert.Equal(t, "BTC/USDT", results[0].Symbol)
	assert.Equal(t, "BTC/USDT", results[1].Symbol)
	assert.Equal(t, "ETH/USDT", results[2].Symbol)
	assert.Equal(t, "ETH/USDT", results[3].Symbol)

	// Each group folds its own state: the short loses on the rise, the long
	// gains, and neither bleeds into the other.
	assert.Equal(t, -1, results[1].Position)
	assert.Equal(t, 1, results[3].Position)
	assert.InDelta(t, -0.1, results[1].PnL, 1e-9)
	assert.InDelta(t, 0.1, results[3].PnL, 1e-9)
}
