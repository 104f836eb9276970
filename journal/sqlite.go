package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"optionbot/market"
)

// SQLite is a Journal backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t market.TradeResult) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, direction, amount, entry_price, exit_price, profit_loss, outcome, placed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, string(t.Direction), t.Amount,
		t.EntryPrice, t.ExitPrice, t.ProfitLoss, string(t.Outcome), t.Time.UTC(),
	)
	return err
}

// GetTrade returns a single recorded trade by ID.
func (j *SQLite) GetTrade(tradeID string) (market.TradeResult, error) {
	row := j.db.QueryRow(`
		SELECT trade_id, symbol, direction, amount, entry_price, exit_price, profit_loss, outcome, placed_at
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return market.TradeResult{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return rec, err
}

// ListTrades returns trades placed within [start, end), oldest first.
func (j *SQLite) ListTrades(start, end time.Time) ([]market.TradeResult, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, direction, amount, entry_price, exit_price, profit_loss, outcome, placed_at
		FROM trades
		WHERE placed_at >= ? AND placed_at < ?
		ORDER BY placed_at ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []market.TradeResult
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		trades = append(trades, rec)
	}
	return trades, rows.Err()
}

// DailyStats aggregates the calendar day containing day (UTC).
func (j *SQLite) DailyStats(day time.Time) (DailyStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	row := j.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(profit_loss), 0)
		FROM trades
		WHERE placed_at >= ? AND placed_at < ?`,
		string(market.OutcomeWin), string(market.OutcomeLoss), start, end)

	stats := DailyStats{Day: start}
	if err := row.Scan(&stats.Trades, &stats.Wins, &stats.Losses, &stats.NetProfit); err != nil {
		return DailyStats{}, err
	}

	if settled := stats.Wins + stats.Losses; settled > 0 {
		stats.WinRate = float64(stats.Wins) / float64(settled) * 100
	}
	return stats, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (market.TradeResult, error) {
	var rec market.TradeResult
	var direction, outcome string

	err := row.Scan(
		&rec.TradeID,
		&rec.Symbol,
		&direction,
		&rec.Amount,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.ProfitLoss,
		&outcome,
		&rec.Time,
	)
	if err != nil {
		return market.TradeResult{}, err
	}

	rec.Direction = market.Direction(direction)
	rec.Outcome = market.Outcome(outcome)
	return rec, nil
}
