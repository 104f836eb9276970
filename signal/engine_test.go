package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionbot/market"
)

func candlesFromCloses(closes []float64) []market.Candle {
	base := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	candles := make([]market.Candle, len(closes))
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

// oversoldRecovery dips hard, then recovers in small steps so RSI stays
// oversold while the last close sits above the 20-period SMA.
func oversoldRecovery() []market.Candle {
	closes := make([]float64, 0, 31)
	for i := 0; i < 10; i++ {
		closes = append(closes, 100.0)
	}
	closes = append(closes, 60.0)
	for i := 1; i <= 20; i++ {
		closes = append(closes, 60.0+0.2*float64(i))
	}
	return candlesFromCloses(closes)
}

// overboughtFade mirrors oversoldRecovery: a spike followed by small declines.
func overboughtFade() []market.Candle {
	closes := make([]float64, 0, 31)
	for i := 0; i < 10; i++ {
		closes = append(closes, 100.0)
	}
	closes = append(closes, 140.0)
	for i := 1; i <= 20; i++ {
		closes = append(closes, 140.0-0.2*float64(i))
	}
	return candlesFromCloses(closes)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)
	return e
}

func TestGenerateBuySignal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	sig, ok := e.Generate(oversoldRecovery())

	require.True(t, ok)
	assert.Equal(t, SideBuy, sig.Side)
	assert.Equal(t, "EURUSD", sig.Symbol)
	assert.Less(t, sig.RSI, 30.0)
	assert.Greater(t, sig.Price, sig.SMA)
	assert.InDelta(t, 62.1, sig.SMA, 1e-9)
	assert.InDelta(t, 64.0, sig.Price, 1e-9)
	// rsiComponent*0.4 + smaComponent*0.3 + 0.5*0.3 with smaComponent
	// saturated (divergence well past 1%).
	assert.InDelta(t, 0.64746, sig.Confidence, 1e-4)
}

func TestGenerateSellSignal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	sig, ok := e.Generate(overboughtFade())

	require.True(t, ok)
	assert.Equal(t, SideSell, sig.Side)
	assert.Greater(t, sig.RSI, 70.0)
	assert.Less(t, sig.Price, sig.SMA)
	assert.InDelta(t, 0.64746, sig.Confidence, 1e-4)
}

func TestGenerateNoSignalWhenNeutral(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	// Gentle alternation keeps RSI near 50: no rule fires.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100.0
		if i%2 == 0 {
			closes[i] = 100.2
		}
	}

	_, ok := e.Generate(candlesFromCloses(closes))
	assert.False(t, ok)
}

func TestGenerateNoSignalOnShortSeries(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	_, ok := e.Generate(candlesFromCloses([]float64{1.1, 1.2, 1.3}))
	assert.False(t, ok)
}

func TestGenerateIsDeterministic(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	candles := oversoldRecovery()

	first, ok := e.Generate(candles)
	require.True(t, ok)

	for i := 0; i < 5; i++ {
		again, ok := e.Generate(candles)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
}

func TestApplyValidation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)
	sig := Signal{Symbol: "EURUSD", Side: SideBuy, Confidence: 0.9}

	boosted := e.ApplyValidation(sig, true)
	assert.InDelta(t, 1.0, boosted.Confidence, 1e-9) // capped

	reduced := e.ApplyValidation(sig, false)
	assert.InDelta(t, 0.6, reduced.Confidence, 1e-9)

	// The original signal is untouched.
	assert.InDelta(t, 0.9, sig.Confidence, 1e-9)

	floor := e.ApplyValidation(Signal{Confidence: 0.1}, false)
	assert.InDelta(t, 0.0, floor.Confidence, 1e-9)
}

func TestStrengthLabels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		confidence float64
		want       string
	}{
		{0.95, "Very Strong"},
		{0.8, "Very Strong"},
		{0.7, "Strong"},
		{0.6, "Strong"},
		{0.5, "Moderate"},
		{0.4, "Moderate"},
		{0.3, "Weak"},
		{0.2, "Weak"},
		{0.1, "Very Weak"},
		{0.0, "Very Weak"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Strength(tt.confidence), "confidence %.2f", tt.confidence)
	}
}

func TestUpdateParams(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	period := 10
	oversold := 25.0
	require.NoError(t, e.UpdateParams(ParamUpdate{RSIPeriod: &period, Oversold: &oversold}))

	cfg := e.Config()
	assert.Equal(t, 10, cfg.RSIPeriod)
	assert.Equal(t, 25.0, cfg.Oversold)
	assert.Equal(t, 70.0, cfg.Overbought) // untouched
}

func TestUpdateParamsRejectsAtomically(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t)

	// Valid period combined with an inverted threshold ordering: the whole
	// update must be rejected.
	period := 10
	overbought := 20.0
	err := e.UpdateParams(ParamUpdate{RSIPeriod: &period, Overbought: &overbought})
	require.Error(t, err)

	cfg := e.Config()
	assert.Equal(t, 14, cfg.RSIPeriod)
	assert.Equal(t, 70.0, cfg.Overbought)

	bad := -3
	assert.Error(t, e.UpdateParams(ParamUpdate{SMAPeriod: &bad}))
	assert.Equal(t, 20, e.Config().SMAPeriod)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Oversold = 80 // above overbought
	_, err := NewEngine(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.RSIPeriod = 0
	_, err = NewEngine(cfg)
	assert.Error(t, err)
}
