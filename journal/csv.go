package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"

	"optionbot/market"
)

// CSV is a Journal that appends trade rows to a CSV file.
type CSV struct {
	w *csv.Writer
	f *os.File
}

// NewCSV creates the trades file, truncating any existing one.
func NewCSV(path string) (*CSV, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	w := csv.NewWriter(f)
	header := []string{"trade_id", "symbol", "direction", "amount", "entry_price", "exit_price", "profit_loss", "outcome", "placed_at"}
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}

	return &CSV{w: w, f: f}, nil
}

func (j *CSV) RecordTrade(t market.TradeResult) error {
	err := j.w.Write([]string{
		t.TradeID,
		t.Symbol,
		string(t.Direction),
		f(t.Amount),
		f(t.EntryPrice),
		f(t.ExitPrice),
		f(t.ProfitLoss),
		string(t.Outcome),
		t.Time.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.w.Flush()
	return j.w.Error()
}

func (j *CSV) Close() error {
	j.w.Flush()
	if err := j.w.Error(); err != nil {
		return err
	}
	return j.f.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
