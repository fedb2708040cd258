package store

import (
	"testing"
	"time"

	"okx-carry-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupStore creates a Store on a fresh in-memory database.
func setupStore(t *testing.T) *Store {
	t.Helper()
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Price{}))
	return NewStore(db)
}

func fp(v float64) *float64 { return &v }

func TestSaveAndReadPrices(t *testing.T) {
	st := setupStore(t)
	dt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := st.SavePrices([]models.Price{
		{Timestamp: dt.UnixMilli(), Datetime: dt, Symbol: "BTC/USDT", Last: fp(60000)},
		{Timestamp: dt.UnixMilli(), Datetime: dt, Symbol: "BTC/USDT:USDT", Last: fp(60100), Futures: true},
	})
	require.NoError(t, err)

	prices, err := st.GetPriceHistory()
	require.NoError(t, err)
	assert.Len(t, prices, 2)
}

func TestSavePrices_DedupKeyIgnoresConflicts(t *testing.T) {
	st := setupStore(t)
	dt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	row := models.Price{Timestamp: dt.UnixMilli(), Datetime: dt, Symbol: "BTC/USDT", Last: fp(60000)}

	require.NoError(t, st.SavePrices([]models.Price{row}))
	// Same (timestamp, symbol, last): silently skipped, not an error.
	require.NoError(t, st.SavePrices([]models.Price{row}))

	prices, err := st.GetPriceHistory()
	require.NoError(t, err)
	assert.Len(t, prices, 1)
}

func TestSavePrices_Empty(t *testing.T) {
	st := setupStore(t)
	assert.NoError(t, st.SavePrices(nil))
}
