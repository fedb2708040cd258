package report

import (
	"testing"
	"time"

	"okx-carry-bot-go/internal/backtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquityCurve(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	results := []backtest.Result{
		{Datetime: day(1), Symbol: "BTC/USDT", CumulativePnL: 0},
		{Datetime: day(2), Symbol: "BTC/USDT", CumulativePnL: 0.01},
		{Datetime: day(1), Symbol: "BTC/USDT:USDT", CumulativePnL: 0},
		{Datetime: day(2), Symbol: "BTC/USDT:USDT", CumulativePnL: -0.01},
	}

	png, err := EquityCurve(results, "BTC/USDT carry")

	require.NoError(t, err)
	assert.NotEmpty(t, png)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestEquityCurve_Empty(t *testing.T) {
	_, err := EquityCurve(nil, "empty")
	assert.Error(t, err)
}
