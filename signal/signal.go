// Package signal derives directional trading signals from candle series using
// an RSI/SMA crossover rule with a confidence score.
package signal

import (
	"time"
)

// Side is the direction of a trading signal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is a directional trading recommendation. Signals are immutable;
// confidence revisions produce a copy.
type Signal struct {
	Symbol     string
	Side       Side
	Confidence float64 // [0,1]
	Time       time.Time
	RSI        float64 // [0,100]
	SMA        float64
	Price      float64 // close at signal time
}

// Strength maps a confidence score to a human-readable label.
func Strength(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "Very Strong"
	case confidence >= 0.6:
		return "Strong"
	case confidence >= 0.4:
		return "Moderate"
	case confidence >= 0.2:
		return "Weak"
	default:
		return "Very Weak"
	}
}
