// Package risk validates trade requests against account-level loss rules,
// sizes positions, and halts trading when daily-loss or consecutive-loss
// limits are breached.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"optionbot/market"
)

// minTradeAmount is the venue's smallest stake.
const minTradeAmount = 1.0

// DefaultPauseDuration applies when Config.PauseDuration is zero. Breach
// severity does not scale it.
const DefaultPauseDuration = 60 * time.Minute

// pauseCause distinguishes which rule triggered a pause; a daily reset only
// lifts daily-loss pauses.
type pauseCause int

const (
	causeNone pauseCause = iota
	causeDailyLoss
	causeConsecutiveLosses
)

// Config holds the risk engine limits.
type Config struct {
	MaxDailyLossPercent  float64
	MaxTradePercent      float64
	ConsecutiveLossLimit int
	DemoMode             bool
	PauseDuration        time.Duration
}

// DefaultConfig returns the standard limits: 5% daily loss, 2% per trade,
// three consecutive losses, demo mode on.
func DefaultConfig() Config {
	return Config{
		MaxDailyLossPercent:  5.0,
		MaxTradePercent:      2.0,
		ConsecutiveLossLimit: 3,
		DemoMode:             true,
		PauseDuration:        DefaultPauseDuration,
	}
}

func (c Config) validate() error {
	if c.MaxDailyLossPercent <= 0 {
		return fmt.Errorf("risk: max daily loss percent must be positive, got %.2f", c.MaxDailyLossPercent)
	}
	if c.MaxTradePercent <= 0 {
		return fmt.Errorf("risk: max trade percent must be positive, got %.2f", c.MaxTradePercent)
	}
	if c.ConsecutiveLossLimit <= 0 {
		return fmt.Errorf("risk: consecutive loss limit must be positive, got %d", c.ConsecutiveLossLimit)
	}
	if c.PauseDuration < 0 {
		return fmt.Errorf("risk: pause duration cannot be negative")
	}
	return nil
}

// ValidationResult reports whether a trade request passed every risk rule.
type ValidationResult struct {
	Valid  bool
	Reason string
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{Reason: fmt.Sprintf(format, args...)}
}

// Metrics is a read-only snapshot of the current trading session.
type Metrics struct {
	DailyLoss         float64
	DailyLossPercent  float64
	ConsecutiveLosses int
	TradesToday       int
	LastLossTime      time.Time // zero when no loss today
	Paused            bool
	PauseReason       string
}

// Engine enforces the risk rules. It keeps a same-day trade history and a
// pause state that expires on its own, on manual resume, or on a daily reset.
// Safe for concurrent use: results can be recorded from a different execution
// path than the one validating requests.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	history        []market.TradeResult
	dailyStart     float64
	haveDailyStart bool

	paused      bool
	pauseReason string
	pauseCause  pauseCause
	pauseUntil  time.Time

	now func() time.Time
}

// NewEngine creates a risk engine, rejecting invalid limits.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.PauseDuration == 0 {
		cfg.PauseDuration = DefaultPauseDuration
	}
	return &Engine{cfg: cfg, now: time.Now}, nil
}

// NewEngineWithClock creates a risk engine driven by an external clock.
// Replay and backtest runs use it to advance time with the data instead of
// the wall clock; live use sticks with NewEngine.
func NewEngineWithClock(cfg Config, now func() time.Time) (*Engine, error) {
	e, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	e.now = now
	return e, nil
}

// Config returns the current limits.
func (e *Engine) Config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// ValidateRequest checks a trade request against every rule in order: pause
// state, amount against the available balance, per-trade cap, daily loss
// against the total balance, consecutive losses, and demo-mode enforcement.
// The first failing rule is reported; the only side effects are the lazy
// daily-start-balance initialization and a pause on a daily-loss breach.
func (e *Engine) ValidateRequest(req market.TradeRequest, bal market.Balance) ValidationResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pausedLocked() {
		return invalid("trading is paused: %s", e.pauseReason)
	}

	if req.Amount <= 0 {
		return invalid("trade amount must be positive")
	}
	if req.Amount > bal.Available {
		return invalid("insufficient balance: $%.2f requested, $%.2f available", req.Amount, bal.Available)
	}

	maxTrade := bal.Available * e.cfg.MaxTradePercent / 100
	if req.Amount > maxTrade {
		return invalid("trade amount $%.2f exceeds maximum allowed $%.2f (%.1f%% of balance)",
			req.Amount, maxTrade, e.cfg.MaxTradePercent)
	}

	if !e.haveDailyStart {
		e.dailyStart = bal.Total
		e.haveDailyStart = true
	} else if e.dailyStart > 0 {
		lossPct := (e.dailyStart - bal.Total) / e.dailyStart * 100
		if lossPct >= e.cfg.MaxDailyLossPercent {
			e.pauseLocked(causeDailyLoss,
				fmt.Sprintf("daily loss limit exceeded: %.2f%%", lossPct))
			return invalid("daily loss limit exceeded: %.2f%% (max %.1f%%)",
				lossPct, e.cfg.MaxDailyLossPercent)
		}
	}

	if streak := consecutiveLosses(e.history); streak >= e.cfg.ConsecutiveLossLimit {
		return invalid("consecutive loss limit reached: %d losses (max %d)",
			streak, e.cfg.ConsecutiveLossLimit)
	}

	if e.cfg.DemoMode && !req.Demo {
		return invalid("real trading is disabled: engine is in demo mode")
	}

	return ValidationResult{Valid: true}
}

// PositionSize computes the recommended stake for the given balance.
// riskPercent values at or below zero fall back to the per-trade cap, and
// anything above the cap is clamped to it. The result is bounded to
// [minTradeAmount, balance*cap] and rounded to cents.
func (e *Engine) PositionSize(balance, riskPercent float64) float64 {
	e.mu.Lock()
	maxPct := e.cfg.MaxTradePercent
	e.mu.Unlock()

	if riskPercent <= 0 || riskPercent > maxPct {
		riskPercent = maxPct
	}

	size := balance * riskPercent / 100
	if ceiling := balance * maxPct / 100; size > ceiling {
		size = ceiling
	}
	if size < minTradeAmount {
		size = minTradeAmount
	}

	return decimal.NewFromFloat(size).Round(2).InexactFloat64()
}

// RecordResult books a settled or pending trade, prunes history to the
// current calendar day, and pauses trading when the consecutive-loss streak
// reaches the limit.
func (e *Engine) RecordResult(result market.TradeResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history = append(e.history, result)

	today := e.now()
	kept := e.history[:0]
	for _, tr := range e.history {
		if sameDay(tr.Time, today) {
			kept = append(kept, tr)
		}
	}
	e.history = kept

	if streak := consecutiveLosses(e.history); streak >= e.cfg.ConsecutiveLossLimit {
		e.pauseLocked(causeConsecutiveLosses,
			fmt.Sprintf("consecutive loss limit reached: %d losses", streak))
	}
}

// Metrics derives the current session snapshot. Other than lazily setting the
// daily start balance it mutates nothing, so repeated calls agree.
func (e *Engine) Metrics(currentBalance float64) Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.haveDailyStart {
		e.dailyStart = currentBalance
		e.haveDailyStart = true
	}

	dailyLoss := e.dailyStart - currentBalance
	if dailyLoss < 0 {
		dailyLoss = 0
	}
	var lossPct float64
	if e.dailyStart > 0 {
		lossPct = dailyLoss / e.dailyStart * 100
	}

	var lastLoss time.Time
	for i := len(e.history) - 1; i >= 0; i-- {
		if e.history[i].Outcome == market.OutcomeLoss {
			lastLoss = e.history[i].Time
			break
		}
	}

	paused := e.pausedLocked()
	return Metrics{
		DailyLoss:         dailyLoss,
		DailyLossPercent:  lossPct,
		ConsecutiveLosses: consecutiveLosses(e.history),
		TradesToday:       len(e.history),
		LastLossTime:      lastLoss,
		Paused:            paused,
		PauseReason:       e.pauseReason,
	}
}

// Paused reports whether trading is halted, lifting any expired pause first.
func (e *Engine) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pausedLocked()
}

// Resume lifts a pause by operator request. It reports whether anything
// changed.
func (e *Engine) Resume() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.paused {
		return false
	}
	e.resumeLocked()
	return true
}

// ResetDaily starts a new trading day: fresh baseline balance, empty history,
// and a resume if (and only if) the active pause came from a daily-loss
// breach. Consecutive-loss pauses survive the reset.
func (e *Engine) ResetDaily(newBalance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.dailyStart = newBalance
	e.haveDailyStart = true
	e.history = nil

	if e.paused && e.pauseCause == causeDailyLoss {
		e.resumeLocked()
	}
}

// LimitUpdate carries the limits to change; nil fields keep their current
// values.
type LimitUpdate struct {
	MaxDailyLossPercent  *float64
	MaxTradePercent      *float64
	ConsecutiveLossLimit *int
	DemoMode             *bool
	PauseDuration        *time.Duration
}

// UpdateLimits applies a limit update atomically: if any resulting value is
// invalid, nothing changes.
func (e *Engine) UpdateLimits(u LimitUpdate) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := e.cfg
	if u.MaxDailyLossPercent != nil {
		next.MaxDailyLossPercent = *u.MaxDailyLossPercent
	}
	if u.MaxTradePercent != nil {
		next.MaxTradePercent = *u.MaxTradePercent
	}
	if u.ConsecutiveLossLimit != nil {
		next.ConsecutiveLossLimit = *u.ConsecutiveLossLimit
	}
	if u.DemoMode != nil {
		next.DemoMode = *u.DemoMode
	}
	if u.PauseDuration != nil {
		next.PauseDuration = *u.PauseDuration
	}

	if err := next.validate(); err != nil {
		return err
	}
	if next.PauseDuration == 0 {
		next.PauseDuration = DefaultPauseDuration
	}
	e.cfg = next
	return nil
}

// pausedLocked checks the pause state, lazily lifting an expired pause.
// Callers hold the lock.
func (e *Engine) pausedLocked() bool {
	if e.paused && !e.pauseUntil.IsZero() && e.now().After(e.pauseUntil) {
		e.resumeLocked()
	}
	return e.paused
}

func (e *Engine) pauseLocked(cause pauseCause, reason string) {
	e.paused = true
	e.pauseCause = cause
	e.pauseReason = reason
	e.pauseUntil = e.now().Add(e.cfg.PauseDuration)
}

func (e *Engine) resumeLocked() {
	e.paused = false
	e.pauseCause = causeNone
	e.pauseReason = ""
	e.pauseUntil = time.Time{}
}

// consecutiveLosses walks the history backwards counting losses until the
// first win. Pending trades neither count nor break the streak.
func consecutiveLosses(history []market.TradeResult) int {
	streak := 0
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Outcome {
		case market.OutcomeLoss:
			streak++
		case market.OutcomeWin:
			return streak
		}
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
