// Package market defines the domain value types shared across the trading
// pipeline: candles, balances, trade requests and trade results.
package market

import (
	"fmt"
	"time"
)

// Candle represents OHLC (Open, High, Low, Close) candlestick data for one
// symbol. Candles are immutable once constructed.
type Candle struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// NewCandle builds a validated candle. Prices and volume must be non-negative,
// High must cover max(Open, Close) and Low must be under min(Open, Close).
func NewCandle(symbol string, ts time.Time, open, high, low, closePx, volume float64) (Candle, error) {
	c := Candle{
		Symbol: symbol,
		Time:   ts,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: volume,
	}
	if err := c.Validate(); err != nil {
		return Candle{}, err
	}
	return c, nil
}

// Validate checks the candle invariants.
func (c Candle) Validate() error {
	for _, px := range []float64{c.Open, c.High, c.Low, c.Close} {
		if px < 0 {
			return fmt.Errorf("candle %s: prices cannot be negative", c.Symbol)
		}
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle %s: volume cannot be negative", c.Symbol)
	}
	if c.High < max(c.Open, c.Close) {
		return fmt.Errorf("candle %s: high %.6f below open/close", c.Symbol, c.High)
	}
	if c.Low > min(c.Open, c.Close) {
		return fmt.Errorf("candle %s: low %.6f above open/close", c.Symbol, c.Low)
	}
	return nil
}

// Closes extracts the closing prices, oldest first.
func Closes(candles []Candle) []float64 {
	prices := make([]float64, len(candles))
	for i, c := range candles {
		prices[i] = c.Close
	}
	return prices
}
