// Package journal persists trade results and derives daily performance
// aggregates. The pipeline treats it as an optional collaborator: trading
// continues even when journaling is disabled.
package journal

import (
	"time"

	"optionbot/market"
)

// DailyStats aggregates one calendar day of trading.
type DailyStats struct {
	Day       time.Time
	Trades    int
	Wins      int
	Losses    int
	NetProfit float64
	WinRate   float64 // settled trades only, in percent
}

// Journal records trade results.
type Journal interface {
	RecordTrade(market.TradeResult) error
	Close() error
}

// StatsReader derives daily aggregates from recorded trades.
type StatsReader interface {
	DailyStats(day time.Time) (DailyStats, error)
}
