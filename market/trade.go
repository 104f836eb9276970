package market

import (
	"fmt"
	"time"
)

// Direction is the side of a binary-options contract.
type Direction string

const (
	Call Direction = "CALL"
	Put  Direction = "PUT"
)

// Outcome reports how a trade settled. A freshly placed trade is Pending until
// the venue reports the result; Pending is distinct from Loss.
type Outcome string

const (
	OutcomePending Outcome = "PENDING"
	OutcomeWin     Outcome = "WIN"
	OutcomeLoss    Outcome = "LOSS"
)

// TradeRequest asks the venue to open a binary-options position.
type TradeRequest struct {
	Symbol     string
	Direction  Direction
	Amount     float64
	Expiration time.Duration
	Demo       bool
}

// Validate checks the request invariants.
func (r TradeRequest) Validate() error {
	if r.Amount <= 0 {
		return fmt.Errorf("trade request %s: amount must be positive", r.Symbol)
	}
	if r.Expiration <= 0 {
		return fmt.Errorf("trade request %s: expiration must be positive", r.Symbol)
	}
	if r.Direction != Call && r.Direction != Put {
		return fmt.Errorf("trade request %s: unknown direction %q", r.Symbol, r.Direction)
	}
	return nil
}

// TradeResult is the venue's record of a placed trade. ExitPrice and
// ProfitLoss are meaningful only once Outcome is no longer Pending.
type TradeResult struct {
	TradeID    string
	Symbol     string
	Direction  Direction
	Amount     float64
	EntryPrice float64
	ExitPrice  float64
	ProfitLoss float64
	Outcome    Outcome
	Time       time.Time
}

// Validate checks the result invariants.
func (t TradeResult) Validate() error {
	if t.Amount <= 0 {
		return fmt.Errorf("trade %s: amount must be positive", t.TradeID)
	}
	if t.EntryPrice < 0 {
		return fmt.Errorf("trade %s: entry price cannot be negative", t.TradeID)
	}
	if t.Outcome != OutcomePending && t.ExitPrice < 0 {
		return fmt.Errorf("trade %s: exit price cannot be negative", t.TradeID)
	}
	return nil
}
