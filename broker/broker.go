// Package broker declares the collaborator interfaces the trading pipeline
// consumes: market data, external signal validation, trade placement, account
// state, and notifications. Implementations live elsewhere (a real venue
// client, the paper venue, test doubles); the pipeline only sees these
// interfaces, each call guarded by its own resilience gate.
package broker

import (
	"context"

	"optionbot/market"
	"optionbot/signal"
)

// CandleSource fetches recent candles for a symbol, oldest first.
type CandleSource interface {
	Candles(ctx context.Context, symbol, timeframe string, count int) ([]market.Candle, error)
}

// SignalValidator checks a signal against an independent data source.
type SignalValidator interface {
	ValidateSignal(ctx context.Context, symbol string, sig signal.Signal) (bool, error)
}

// TradePlacer opens a binary-options position at the venue.
type TradePlacer interface {
	PlaceTrade(ctx context.Context, req market.TradeRequest) (market.TradeResult, error)
}

// AccountSource reports the current account balance.
type AccountSource interface {
	Balance(ctx context.Context) (market.Balance, error)
}

// Message is an outbound notification.
type Message struct {
	Title string
	Body  string
}

// Notifier delivers messages to an external channel.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}
