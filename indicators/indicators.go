// Package indicators provides the technical analysis math behind signal
// generation. All functions are pure and deterministic.
package indicators

import (
	"errors"
	"fmt"
	"time"

	"optionbot/market"
)

var (
	// ErrInsufficientData means the price series is too short for the
	// requested period.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidParameter means a period or price fails a precondition.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// RSI calculates the Relative Strength Index over the given period using
// Wilder smoothing. Prices are ordered oldest first; at least period+1 prices
// are required and all must be positive.
//
// When the smoothed average loss is exactly zero the result is 100 by
// definition (no losing steps in the window).
func RSI(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: RSI period must be positive, got %d", ErrInvalidParameter, period)
	}
	if len(prices) < period+1 {
		return 0, fmt.Errorf("%w: need %d prices for RSI(%d), got %d",
			ErrInsufficientData, period+1, period, len(prices))
	}
	if err := checkPositive(prices); err != nil {
		return 0, err
	}

	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains = append(gains, delta)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -delta)
		}
	}

	// Seed the averages over the first 'period' deltas.
	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder smoothing for the remaining deltas.
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return 100.0, nil
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs)), nil
}

// SMA calculates the Simple Moving Average of the most recent 'period' prices.
// Prices are ordered oldest first and must all be positive.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("%w: SMA period must be positive, got %d", ErrInvalidParameter, period)
	}
	if len(prices) < period {
		return 0, fmt.Errorf("%w: need %d prices for SMA(%d), got %d",
			ErrInsufficientData, period, period, len(prices))
	}
	if err := checkPositive(prices); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// Snapshot bundles the indicator values derived from one candle series.
type Snapshot struct {
	RSI   float64
	SMA   float64
	Price float64 // last close
	Time  time.Time
}

// Compute derives RSI and SMA from a candle series ordered oldest first.
// The series must cover max(rsiPeriod+1, smaPeriod) candles.
func Compute(candles []market.Candle, rsiPeriod, smaPeriod int) (Snapshot, error) {
	if len(candles) == 0 {
		return Snapshot{}, fmt.Errorf("%w: no candles", ErrInsufficientData)
	}

	required := max(rsiPeriod+1, smaPeriod)
	if len(candles) < required {
		return Snapshot{}, fmt.Errorf("%w: need %d candles, got %d",
			ErrInsufficientData, required, len(candles))
	}

	prices := market.Closes(candles)

	rsi, err := RSI(prices, rsiPeriod)
	if err != nil {
		return Snapshot{}, err
	}
	sma, err := SMA(prices, smaPeriod)
	if err != nil {
		return Snapshot{}, err
	}

	last := candles[len(candles)-1]
	return Snapshot{
		RSI:   rsi,
		SMA:   sma,
		Price: last.Close,
		Time:  last.Time,
	}, nil
}

func checkPositive(prices []float64) error {
	for _, px := range prices {
		if px <= 0 {
			return fmt.Errorf("%w: all prices must be positive", ErrInvalidParameter)
		}
	}
	return nil
}
