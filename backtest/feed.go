package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"optionbot/market"
)

// CSVCandleFeed reads canonical candle CSV rows:
//
//	time,symbol,open,high,low,close,volume
//
// where time is RFC3339 or RFC3339Nano.
//
// It optionally filters candles to [From, To) if provided.
// Header row ("time,...") is allowed.
// Empty/short rows are skipped.
type CSVCandleFeed struct {
	f    *os.File
	r    *csv.Reader
	from time.Time
	to   time.Time

	sawFirst bool
}

func NewCSVCandleFeed(path string, from, to time.Time) (*CSVCandleFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	return &CSVCandleFeed{f: f, r: r, from: from, to: to}, nil
}

func (f *CSVCandleFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

func (f *CSVCandleFeed) Next() (market.Candle, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return market.Candle{}, false, nil
		}
		if err != nil {
			return market.Candle{}, false, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		c, ok, err := parseCandleRow(row)
		if err != nil {
			return market.Candle{}, false, err
		}
		if !ok {
			continue
		}
		if !inRange(c.Time, f.from, f.to) {
			continue
		}
		return c, true, nil
	}
}

// ReadAll drains the feed into a slice, oldest first per file order.
func (f *CSVCandleFeed) ReadAll() ([]market.Candle, error) {
	var candles []market.Candle
	for {
		c, ok, err := f.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return candles, nil
		}
		candles = append(candles, c)
	}
}

func parseCandleRow(row []string) (market.Candle, bool, error) {
	// Need at least: time,symbol,open,high,low,close
	if len(row) < 6 {
		return market.Candle{}, false, nil
	}

	ts, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return market.Candle{}, false, fmt.Errorf("parse time %q: %w", row[0], err)
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		vals[i], err = strconv.ParseFloat(strings.TrimSpace(row[2+i]), 64)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("parse field %d %q: %w", 2+i, row[2+i], err)
		}
	}

	var volume float64
	if len(row) > 6 {
		volume, err = strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		if err != nil {
			return market.Candle{}, false, fmt.Errorf("parse volume %q: %w", row[6], err)
		}
	}

	c := market.Candle{
		Symbol: strings.TrimSpace(row[1]),
		Time:   ts,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: volume,
	}
	if err := c.Validate(); err != nil {
		return market.Candle{}, false, err
	}
	return c, true, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
