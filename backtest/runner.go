// Package backtest replays the crossover rule over historical candles with
// binary-options settlement, running every candidate trade through the same
// risk engine the live loop uses. Time advances with the data, so daily
// resets and loss pauses behave as they would have live.
package backtest

import (
	"fmt"
	"time"

	"optionbot/market"
	"optionbot/risk"
	"optionbot/signal"
)

// Config holds the replay parameters.
type Config struct {
	Signal       signal.Config
	Risk         risk.Config
	StartBalance float64
	Stake        float64 // stake per trade before position sizing caps
	PayoutRate   float64 // fraction of stake paid on a win, e.g. 0.80
	ExpirySteps  int     // candles between entry and expiry
}

// DefaultConfig mirrors the live defaults with an 80% payout and one-candle
// expiry.
func DefaultConfig() Config {
	return Config{
		Signal:       signal.DefaultConfig(),
		Risk:         risk.DefaultConfig(),
		StartBalance: 1000,
		Stake:        10,
		PayoutRate:   0.80,
		ExpirySteps:  1,
	}
}

func (c Config) validate() error {
	if c.StartBalance <= 0 {
		return fmt.Errorf("backtest: start balance must be positive, got %.2f", c.StartBalance)
	}
	if c.Stake <= 0 {
		return fmt.Errorf("backtest: stake must be positive, got %.2f", c.Stake)
	}
	if c.PayoutRate <= 0 || c.PayoutRate >= 1 {
		return fmt.Errorf("backtest: payout rate must be in (0,1), got %.2f", c.PayoutRate)
	}
	if c.ExpirySteps < 1 {
		return fmt.Errorf("backtest: expiry steps must be at least 1, got %d", c.ExpirySteps)
	}
	return nil
}

// Result summarizes a replay run.
type Result struct {
	Candles int
	Signals int
	Trades  int
	Wins    int
	Losses  int
	Skipped int // signals blocked by risk rules

	StartBalance float64
	EndBalance   float64
	NetProfit    float64
	WinRate      float64 // percent of placed trades won

	Start time.Time
	End   time.Time
}

// Run replays candles, oldest first, and reports the outcome. The series
// must be a single symbol; a trade entered on candle i settles against the
// close of candle i+ExpirySteps.
func Run(cfg Config, candles []market.Candle) (Result, error) {
	if err := cfg.validate(); err != nil {
		return Result{}, err
	}

	signals, err := signal.NewEngine(cfg.Signal)
	if err != nil {
		return Result{}, err
	}

	// The risk engine reads the candle clock so pauses expire and days
	// roll over in data time.
	clock := time.Time{}
	risks, err := risk.NewEngineWithClock(cfg.Risk, func() time.Time { return clock })
	if err != nil {
		return Result{}, err
	}

	lookback := signals.MinCandles()
	res := Result{
		Candles:      len(candles),
		StartBalance: cfg.StartBalance,
	}
	if len(candles) == 0 {
		return res, nil
	}
	res.Start = candles[0].Time
	res.End = candles[len(candles)-1].Time

	balance := cfg.StartBalance
	tradeSeq := 0

	for i := lookback - 1; i+cfg.ExpirySteps < len(candles); i++ {
		clock = candles[i].Time

		window := candles[i+1-lookback : i+1]
		sig, ok := signals.Generate(window)
		if !ok {
			continue
		}
		res.Signals++

		stake := cfg.Stake
		if sized := risks.PositionSize(balance, 0); sized < stake {
			stake = sized
		}

		direction := market.Call
		if sig.Side == signal.SideSell {
			direction = market.Put
		}

		req := market.TradeRequest{
			Symbol:     sig.Symbol,
			Direction:  direction,
			Amount:     stake,
			Expiration: candles[i+cfg.ExpirySteps].Time.Sub(candles[i].Time),
			Demo:       cfg.Risk.DemoMode,
		}

		bal := market.Balance{
			Total:     balance,
			Available: balance,
			Currency:  "USD",
			Time:      clock,
		}
		if check := risks.ValidateRequest(req, bal); !check.Valid {
			res.Skipped++
			continue
		}

		entry := candles[i].Close
		exit := candles[i+cfg.ExpirySteps].Close

		won := exit > entry
		if direction == market.Put {
			won = exit < entry
		}

		outcome := market.OutcomeLoss
		pl := -stake
		if won {
			outcome = market.OutcomeWin
			pl = stake * cfg.PayoutRate
		}

		tradeSeq++
		result := market.TradeResult{
			TradeID:    fmt.Sprintf("BT-%04d", tradeSeq),
			Symbol:     req.Symbol,
			Direction:  direction,
			Amount:     stake,
			EntryPrice: entry,
			ExitPrice:  exit,
			ProfitLoss: pl,
			Outcome:    outcome,
			Time:       candles[i+cfg.ExpirySteps].Time,
		}

		clock = result.Time
		risks.RecordResult(result)

		balance += pl
		res.Trades++
		if won {
			res.Wins++
		} else {
			res.Losses++
		}
	}

	res.EndBalance = balance
	res.NetProfit = balance - cfg.StartBalance
	if res.Trades > 0 {
		res.WinRate = 100 * float64(res.Wins) / float64(res.Trades)
	}
	return res, nil
}
