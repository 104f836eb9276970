// Package paper implements a deterministic simulated venue for exercising the
// trading pipeline without network access. Candles follow a seeded random
// walk, trades settle against the same walk, and signal validation replays
// the venue's own view of price. The same seed always produces the same run.
package paper

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"optionbot/market"
	"optionbot/pkg/id"
	"optionbot/signal"
)

// payoutRate is the fraction of the stake paid on a winning contract.
const payoutRate = 0.80

// Config parameterizes the simulated venue.
type Config struct {
	Seed         int64
	StartBalance float64
	StartPrice   float64 // defaults to 1.1000
	Volatility   float64 // per-candle close-to-close move, defaults to 0.0010
}

// Venue is an in-memory trading venue. It implements broker.CandleSource,
// broker.TradePlacer, broker.AccountSource and broker.SignalValidator.
type Venue struct {
	mu sync.Mutex

	rng        *rand.Rand
	prices     map[string]float64
	volatility float64
	startPrice float64

	balance market.Balance

	now func() time.Time
}

// New creates a paper venue.
func New(cfg Config) *Venue {
	if cfg.StartPrice <= 0 {
		cfg.StartPrice = 1.1000
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.0010
	}
	if cfg.StartBalance <= 0 {
		cfg.StartBalance = 1000
	}
	return &Venue{
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		prices:     make(map[string]float64),
		volatility: cfg.Volatility,
		startPrice: cfg.StartPrice,
		balance: market.Balance{
			Total:     cfg.StartBalance,
			Available: cfg.StartBalance,
			Currency:  "USD",
		},
		now: time.Now,
	}
}

// Candles generates the next count candles of the symbol's walk, oldest
// first. Each call advances the walk, so consecutive calls continue the same
// price path.
func (v *Venue) Candles(_ context.Context, symbol, timeframe string, count int) ([]market.Candle, error) {
	if count <= 0 {
		return nil, fmt.Errorf("paper: candle count must be positive, got %d", count)
	}

	step, err := timeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	px, ok := v.prices[symbol]
	if !ok {
		px = v.startPrice
	}

	end := v.now()
	candles := make([]market.Candle, count)
	for i := 0; i < count; i++ {
		open := px
		px = v.step(px)
		high := math.Max(open, px) + v.rng.Float64()*v.volatility/2
		low := math.Min(open, px) - v.rng.Float64()*v.volatility/2
		if low < 0 {
			low = 0
		}
		candles[i] = market.Candle{
			Symbol: symbol,
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  px,
			Volume: 1000 + v.rng.Float64()*9000,
		}
	}
	v.prices[symbol] = px

	return candles, nil
}

// PlaceTrade opens a contract and settles it immediately by advancing the
// symbol's walk one expiration step. Wins pay payoutRate times the stake,
// losses forfeit the stake.
func (v *Venue) PlaceTrade(_ context.Context, req market.TradeRequest) (market.TradeResult, error) {
	if err := req.Validate(); err != nil {
		return market.TradeResult{}, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if req.Amount > v.balance.Available {
		return market.TradeResult{}, fmt.Errorf("paper: stake $%.2f exceeds available $%.2f",
			req.Amount, v.balance.Available)
	}

	entry, ok := v.prices[req.Symbol]
	if !ok {
		entry = v.startPrice
	}
	exit := v.step(entry)
	v.prices[req.Symbol] = exit

	won := (req.Direction == market.Call && exit > entry) ||
		(req.Direction == market.Put && exit < entry)

	result := market.TradeResult{
		TradeID:    id.New(),
		Symbol:     req.Symbol,
		Direction:  req.Direction,
		Amount:     req.Amount,
		EntryPrice: entry,
		ExitPrice:  exit,
		Time:       v.now(),
	}
	if won {
		result.Outcome = market.OutcomeWin
		result.ProfitLoss = req.Amount * payoutRate
	} else {
		result.Outcome = market.OutcomeLoss
		result.ProfitLoss = -req.Amount
	}

	v.balance.Total += result.ProfitLoss
	v.balance.Available += result.ProfitLoss

	return result, nil
}

// Balance returns the current simulated account state.
func (v *Venue) Balance(_ context.Context) (market.Balance, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	bal := v.balance
	bal.Time = v.now()
	return bal, nil
}

// ValidateSignal agrees with a signal when the venue's current price is
// within 0.1% of the price the signal was generated at.
func (v *Venue) ValidateSignal(_ context.Context, symbol string, sig signal.Signal) (bool, error) {
	if sig.Price <= 0 {
		return false, fmt.Errorf("paper: signal has no price")
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	px, ok := v.prices[symbol]
	if !ok {
		px = v.startPrice
	}

	diffPct := math.Abs(px-sig.Price) / sig.Price * 100
	return diffPct <= 0.1, nil
}

// step advances a price one candle along the walk.
func (v *Venue) step(px float64) float64 {
	next := px + (v.rng.Float64()*2-1)*v.volatility
	if next <= 0 {
		next = px
	}
	return next
}

func timeframeDuration(timeframe string) (time.Duration, error) {
	switch timeframe {
	case "", "1m":
		return time.Minute, nil
	case "5m":
		return 5 * time.Minute, nil
	case "15m":
		return 15 * time.Minute, nil
	case "1h":
		return time.Hour, nil
	}
	d, err := time.ParseDuration(timeframe)
	if err != nil {
		return 0, fmt.Errorf("paper: unknown timeframe %q", timeframe)
	}
	return d, nil
}
