package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	amount REAL NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	profit_loss REAL NOT NULL,
	outcome TEXT NOT NULL,
	placed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_placed_at ON trades(placed_at);
`
