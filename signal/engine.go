package signal

import (
	"fmt"
	"math"
	"sync"

	"optionbot/indicators"
	"optionbot/market"
)

// Config holds the signal engine parameters.
type Config struct {
	RSIPeriod  int
	SMAPeriod  int
	Oversold   float64 // RSI below this may trigger a buy
	Overbought float64 // RSI above this may trigger a sell

	// Confidence weights. They should sum to 1 for confidence to span [0,1].
	RSIWeight        float64
	SMAWeight        float64
	ValidationWeight float64
}

// DefaultConfig returns the standard RSI(14)/SMA(20) setup with 30/70
// thresholds and 0.4/0.3/0.3 confidence weights.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:        14,
		SMAPeriod:        20,
		Oversold:         30,
		Overbought:       70,
		RSIWeight:        0.4,
		SMAWeight:        0.3,
		ValidationWeight: 0.3,
	}
}

func (c Config) validate() error {
	if c.RSIPeriod <= 0 {
		return fmt.Errorf("%w: RSI period must be positive, got %d", indicators.ErrInvalidParameter, c.RSIPeriod)
	}
	if c.SMAPeriod <= 0 {
		return fmt.Errorf("%w: SMA period must be positive, got %d", indicators.ErrInvalidParameter, c.SMAPeriod)
	}
	if c.Oversold < 0 || c.Oversold > 100 {
		return fmt.Errorf("%w: oversold threshold must be in [0,100], got %.1f", indicators.ErrInvalidParameter, c.Oversold)
	}
	if c.Overbought < 0 || c.Overbought > 100 {
		return fmt.Errorf("%w: overbought threshold must be in [0,100], got %.1f", indicators.ErrInvalidParameter, c.Overbought)
	}
	if c.Oversold >= c.Overbought {
		return fmt.Errorf("%w: oversold threshold %.1f must stay below overbought %.1f",
			indicators.ErrInvalidParameter, c.Oversold, c.Overbought)
	}
	return nil
}

// Engine turns candle series into signals. Rule: buy when RSI is oversold and
// price sits above the SMA; sell when RSI is overbought and price sits below.
// Safe for concurrent use across symbols.
type Engine struct {
	mu  sync.RWMutex
	cfg Config
}

// NewEngine creates a signal engine, rejecting invalid configuration.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the current parameters.
func (e *Engine) Config() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// MinCandles reports how many candles Generate needs.
func (e *Engine) MinCandles() int {
	cfg := e.Config()
	return max(cfg.RSIPeriod+1, cfg.SMAPeriod)
}

// Generate evaluates the crossover rule against a candle series ordered
// oldest first. ok is false when the indicators cannot be computed or the
// rule does not fire; the same series always yields the same result.
func (e *Engine) Generate(candles []market.Candle) (Signal, bool) {
	cfg := e.Config()

	snap, err := indicators.Compute(candles, cfg.RSIPeriod, cfg.SMAPeriod)
	if err != nil {
		return Signal{}, false
	}

	var side Side
	switch {
	case snap.RSI < cfg.Oversold && snap.Price > snap.SMA:
		side = SideBuy
	case snap.RSI > cfg.Overbought && snap.Price < snap.SMA:
		side = SideSell
	default:
		return Signal{}, false
	}

	return Signal{
		Symbol:     candles[len(candles)-1].Symbol,
		Side:       side,
		Confidence: confidence(cfg, snap, side),
		Time:       snap.Time,
		RSI:        snap.RSI,
		SMA:        snap.SMA,
		Price:      snap.Price,
	}, true
}

// confidence scores how strongly the rule conditions are met. The validation
// term stays at the neutral 0.5 until ApplyValidation revises the signal.
func confidence(cfg Config, snap indicators.Snapshot, side Side) float64 {
	var rsiComponent float64
	if side == SideBuy {
		rsiComponent = (cfg.Oversold - snap.RSI) / cfg.Oversold
	} else {
		rsiComponent = (snap.RSI - cfg.Overbought) / (100 - cfg.Overbought)
	}
	rsiComponent = clamp01(rsiComponent)

	// Divergence from the SMA reaches full confidence at 1%.
	divergence := math.Abs(snap.Price-snap.SMA) / snap.SMA
	smaComponent := math.Min(1.0, divergence/0.01)

	total := rsiComponent*cfg.RSIWeight +
		smaComponent*cfg.SMAWeight +
		0.5*cfg.ValidationWeight

	return clamp01(total)
}

// ApplyValidation returns a copy of sig with confidence boosted by 0.2 when
// the external check agreed, or cut by 0.3 when it disagreed.
func (e *Engine) ApplyValidation(sig Signal, validated bool) Signal {
	revised := sig
	if validated {
		revised.Confidence = math.Min(1.0, sig.Confidence+0.2)
	} else {
		revised.Confidence = math.Max(0.0, sig.Confidence-0.3)
	}
	return revised
}

// ParamUpdate carries the parameters to change; nil fields keep their current
// values.
type ParamUpdate struct {
	RSIPeriod  *int
	SMAPeriod  *int
	Oversold   *float64
	Overbought *float64
}

// UpdateParams applies a parameter update atomically: if any resulting value
// is invalid, including an inverted threshold ordering, nothing changes.
func (e *Engine) UpdateParams(u ParamUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cfg
	if u.RSIPeriod != nil {
		next.RSIPeriod = *u.RSIPeriod
	}
	if u.SMAPeriod != nil {
		next.SMAPeriod = *u.SMAPeriod
	}
	if u.Oversold != nil {
		next.Oversold = *u.Oversold
	}
	if u.Overbought != nil {
		next.Overbought = *u.Overbought
	}

	if err := next.validate(); err != nil {
		return err
	}
	e.cfg = next
	return nil
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
