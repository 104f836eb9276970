// Package bot wires the signal, risk and resilience layers into a trading
// pipeline that polls candles, evaluates the crossover rule and places
// trades. Every external call goes through its own resilience gate.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"optionbot/broker"
	"optionbot/journal"
	"optionbot/market"
	"optionbot/resilience"
	"optionbot/risk"
	"optionbot/signal"
)

// Gates bundles the per-operation-class resilience gates. Each class has its
// own circuit breaker and rate limit so a flapping notifier cannot trip
// trading.
type Gates struct {
	MarketData   *resilience.Gate
	Validation   *resilience.Gate
	Trading      *resilience.Gate
	Notification *resilience.Gate
}

// NewGates builds four independent gates sharing the breaker settings but
// with per-class rate limits, all windows one minute.
func NewGates(threshold int, timeout time.Duration, marketData, validation, trading, notification int) Gates {
	gate := func(name string, limit int) *resilience.Gate {
		return resilience.NewGate(name,
			resilience.NewBreaker(threshold, timeout),
			resilience.NewLimiter(limit, time.Minute))
	}
	return Gates{
		MarketData:   gate("market_data", marketData),
		Validation:   gate("validation", validation),
		Trading:      gate("trading", trading),
		Notification: gate("notification", notification),
	}
}

// Config holds the pipeline's trading parameters.
type Config struct {
	Symbols       []string
	Timeframe     string
	Interval      time.Duration // polling cadence
	DefaultAmount float64       // stake before position sizing caps apply
	Expiration    time.Duration // option expiry
	CandleCount   int           // candles fetched per poll, 0 means engine minimum
}

// Pipeline runs the trade decision loop. One risk engine and one signal
// engine serve all symbols.
type Pipeline struct {
	cfg     Config
	signals *signal.Engine
	risks   *risk.Engine
	venue   Venue
	gates   Gates
	journal journal.Journal // nil disables journaling
	log     *zap.Logger
}

// Venue groups the broker-side collaborators the pipeline needs.
type Venue struct {
	Candles   broker.CandleSource
	Validator broker.SignalValidator // nil skips external validation
	Trader    broker.TradePlacer
	Account   broker.AccountSource
	Notifier  broker.Notifier // nil disables notifications
}

// New creates a pipeline. Candle source, trade placer and account source are
// required; validator, notifier and journal are optional.
func New(cfg Config, signals *signal.Engine, risks *risk.Engine, venue Venue, gates Gates, jrnl journal.Journal, log *zap.Logger) (*Pipeline, error) {
	if len(cfg.Symbols) == 0 {
		return nil, errors.New("bot: at least one symbol is required")
	}
	if cfg.Interval <= 0 {
		return nil, errors.New("bot: polling interval must be positive")
	}
	if cfg.DefaultAmount <= 0 {
		return nil, errors.New("bot: default amount must be positive")
	}
	if cfg.Expiration <= 0 {
		return nil, errors.New("bot: expiration must be positive")
	}
	if venue.Candles == nil || venue.Trader == nil || venue.Account == nil {
		return nil, errors.New("bot: candle source, trade placer and account source are required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		cfg:     cfg,
		signals: signals,
		risks:   risks,
		venue:   venue,
		gates:   gates,
		journal: jrnl,
		log:     log,
	}, nil
}

// Outcome describes what a single poll of one symbol produced. Zero-value
// fields mean the corresponding stage did not run.
type Outcome struct {
	Signal  *signal.Signal
	Trade   *market.TradeResult
	Skipped string // non-empty when the pipeline stopped before placing a trade
}

// Run polls every configured symbol until the context is cancelled. Each
// symbol gets its own goroutine; a hard failure in one stops the group.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, symbol := range p.cfg.Symbols {
		symbol := symbol
		g.Go(func() error {
			return p.pollLoop(ctx, symbol)
		})
	}

	return g.Wait()
}

func (p *Pipeline) pollLoop(ctx context.Context, symbol string) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	log := p.log.With(zap.String("symbol", symbol))
	log.Info("polling started", zap.Duration("interval", p.cfg.Interval))

	for {
		select {
		case <-ctx.Done():
			log.Info("polling stopped")
			return ctx.Err()
		case <-ticker.C:
			outcome, err := p.ProcessSymbol(ctx, symbol)
			switch {
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				continue
			case errors.Is(err, resilience.ErrOpen):
				log.Warn("circuit open, skipping poll", zap.Error(err))
			case err != nil:
				log.Error("poll failed", zap.Error(err))
			case outcome.Trade != nil:
				log.Info("trade placed",
					zap.String("trade_id", outcome.Trade.TradeID),
					zap.String("direction", string(outcome.Trade.Direction)),
					zap.Float64("amount", outcome.Trade.Amount))
			case outcome.Skipped != "" && outcome.Signal != nil:
				log.Info("signal skipped", zap.String("reason", outcome.Skipped))
			}
		}
	}
}

// ProcessSymbol runs one full decision cycle for a symbol: fetch candles,
// generate and validate a signal, apply risk checks and place the trade.
// A cycle that produces no signal or is stopped by a risk rule is not an
// error; hard failures (gate open, venue errors) are.
func (p *Pipeline) ProcessSymbol(ctx context.Context, symbol string) (Outcome, error) {
	candles, err := p.fetchCandles(ctx, symbol)
	if err != nil {
		return Outcome{}, fmt.Errorf("fetch candles for %s: %w", symbol, err)
	}

	sig, ok := p.signals.Generate(candles)
	if !ok {
		return Outcome{Skipped: "no signal"}, nil
	}

	sig = p.validate(ctx, symbol, sig)
	out := Outcome{Signal: &sig}

	p.notify(ctx, formatSignal(sig))

	bal, err := p.fetchBalance(ctx)
	if err != nil {
		return out, fmt.Errorf("fetch balance: %w", err)
	}

	req := p.buildRequest(symbol, sig, bal)

	if res := p.risks.ValidateRequest(req, bal); !res.Valid {
		out.Skipped = res.Reason
		p.log.Warn("trade rejected by risk rules",
			zap.String("symbol", symbol),
			zap.String("reason", res.Reason))
		return out, nil
	}

	result, err := p.placeTrade(ctx, req)
	if err != nil {
		return out, fmt.Errorf("place trade for %s: %w", symbol, err)
	}
	out.Trade = &result

	p.risks.RecordResult(result)

	if p.risks.Paused() {
		p.notify(ctx, formatPause(p.risks.Metrics(bal.Available)))
	}

	if p.journal != nil {
		if err := p.journal.RecordTrade(result); err != nil {
			p.log.Error("journal write failed", zap.Error(err))
		}
	}

	p.notify(ctx, formatTrade(sig, result))

	return out, nil
}

func (p *Pipeline) fetchCandles(ctx context.Context, symbol string) ([]market.Candle, error) {
	count := p.cfg.CandleCount
	if count < p.signals.MinCandles() {
		count = p.signals.MinCandles()
	}

	var candles []market.Candle
	err := p.gates.MarketData.Do(ctx, func(ctx context.Context) error {
		var err error
		candles, err = p.venue.Candles.Candles(ctx, symbol, p.cfg.Timeframe, count)
		return err
	})
	return candles, err
}

// validate runs the external cross-check when a validator is configured.
// Validation adjusts confidence either way; a failed validation call leaves
// the signal untouched rather than blocking the trade.
func (p *Pipeline) validate(ctx context.Context, symbol string, sig signal.Signal) signal.Signal {
	if p.venue.Validator == nil {
		return sig
	}

	var confirmed bool
	err := p.gates.Validation.Do(ctx, func(ctx context.Context) error {
		var err error
		confirmed, err = p.venue.Validator.ValidateSignal(ctx, symbol, sig)
		return err
	})
	if err != nil {
		p.log.Warn("signal validation unavailable",
			zap.String("symbol", symbol), zap.Error(err))
		return sig
	}

	return p.signals.ApplyValidation(sig, confirmed)
}

func (p *Pipeline) fetchBalance(ctx context.Context) (market.Balance, error) {
	var bal market.Balance
	err := p.gates.MarketData.Do(ctx, func(ctx context.Context) error {
		var err error
		bal, err = p.venue.Account.Balance(ctx)
		return err
	})
	return bal, err
}

func (p *Pipeline) buildRequest(symbol string, sig signal.Signal, bal market.Balance) market.TradeRequest {
	amount := p.cfg.DefaultAmount
	if sized := p.risks.PositionSize(bal.Available, 0); sized < amount {
		amount = sized
	}

	direction := market.Call
	if sig.Side == signal.SideSell {
		direction = market.Put
	}

	return market.TradeRequest{
		Symbol:     symbol,
		Direction:  direction,
		Amount:     amount,
		Expiration: p.cfg.Expiration,
		Demo:       p.risks.Config().DemoMode,
	}
}

func (p *Pipeline) placeTrade(ctx context.Context, req market.TradeRequest) (market.TradeResult, error) {
	var result market.TradeResult
	err := p.gates.Trading.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = p.venue.Trader.PlaceTrade(ctx, req)
		return err
	})
	return result, err
}

// notify sends through the notification gate; delivery failures are logged,
// never propagated into the trade path.
func (p *Pipeline) notify(ctx context.Context, msg broker.Message) {
	if p.venue.Notifier == nil {
		return
	}

	err := p.gates.Notification.Do(ctx, func(ctx context.Context) error {
		return p.venue.Notifier.Notify(ctx, msg)
	})
	if err != nil {
		p.log.Warn("notification failed", zap.String("title", msg.Title), zap.Error(err))
	}
}
