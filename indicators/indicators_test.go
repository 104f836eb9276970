package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionbot/market"
)

func testCandles(closes ...float64) []market.Candle {
	candles := make([]market.Candle, len(closes))
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	for i, px := range closes {
		candles[i] = market.Candle{
			Symbol: "EURUSD",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   px,
			High:   px,
			Low:    px,
			Close:  px,
			Volume: 1000,
		}
	}
	return candles
}

func TestRSIStrictlyRisingIs100(t *testing.T) {
	t.Parallel()

	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rsi)
}

func TestRSIStrictlyFallingNearZero(t *testing.T) {
	t.Parallel()

	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 200 - float64(i)
	}

	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, rsi, 1e-9)
}

func TestRSIBounds(t *testing.T) {
	t.Parallel()

	prices := []float64{10, 12, 11, 13, 12.5, 14, 13, 15, 14.5, 16, 15, 17, 16.5, 18, 17.5, 19}
	rsi, err := RSI(prices, 14)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rsi, 0.0)
	assert.LessOrEqual(t, rsi, 100.0)
}

func TestRSIErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prices []float64
		period int
		want   error
	}{
		{"too short", []float64{1, 2, 3}, 14, ErrInsufficientData},
		{"zero period", []float64{1, 2, 3}, 0, ErrInvalidParameter},
		{"negative period", []float64{1, 2, 3}, -2, ErrInvalidParameter},
		{"non-positive price", []float64{1, 0, 2, 3}, 3, ErrInvalidParameter},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := RSI(tt.prices, tt.period)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSMAExactMean(t *testing.T) {
	t.Parallel()

	prices := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109}
	sma, err := SMA(prices, 5)
	require.NoError(t, err)
	// Last 5: 105..109 => 107
	assert.InDelta(t, 107.0, sma, 1e-9)
}

func TestSMAUsesMostRecentWindow(t *testing.T) {
	t.Parallel()

	prices := []float64{1, 1, 1, 50, 50}
	sma, err := SMA(prices, 2)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, sma, 1e-9)
}

func TestSMAErrors(t *testing.T) {
	t.Parallel()

	_, err := SMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = SMA([]float64{1, 2, 3}, -1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = SMA([]float64{1, -2, 3}, 2)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestComputeSnapshot(t *testing.T) {
	t.Parallel()

	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 1.10 + float64(i)*0.001
	}
	candles := testCandles(closes...)

	snap, err := Compute(candles, 14, 20)
	require.NoError(t, err)

	assert.Equal(t, closes[len(closes)-1], snap.Price)
	assert.Equal(t, candles[len(candles)-1].Time, snap.Time)
	assert.Equal(t, 100.0, snap.RSI) // strictly rising

	wantSMA := 0.0
	for _, px := range closes[len(closes)-20:] {
		wantSMA += px
	}
	assert.InDelta(t, wantSMA/20, snap.SMA, 1e-9)
}

func TestComputeInsufficient(t *testing.T) {
	t.Parallel()

	_, err := Compute(nil, 14, 20)
	assert.ErrorIs(t, err, ErrInsufficientData)

	_, err = Compute(testCandles(1, 2, 3), 14, 20)
	assert.ErrorIs(t, err, ErrInsufficientData)
}
