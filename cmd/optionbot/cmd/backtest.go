package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"optionbot/backtest"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest <candles.csv>",
	Short: "Replay the signal rule over historical candles",
	Long: `Replay the RSI/SMA crossover rule over a candle CSV file with
binary-options settlement. Rows are:

  time,symbol,open,high,low,close,volume

with RFC3339 timestamps, oldest first. Every candidate trade runs through
the same risk engine as the live loop.

Example:
  optionbot backtest eurusd_1m.csv --stake 10 --payout 0.8`,
	Args: cobra.ExactArgs(1),
	RunE: runBacktest,
}

var (
	btStake   float64
	btBalance float64
	btPayout  float64
	btExpiry  int
	btFrom    string
	btTo      string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().Float64Var(&btStake, "stake", 10, "stake per trade")
	backtestCmd.Flags().Float64Var(&btBalance, "balance", 1000, "starting balance")
	backtestCmd.Flags().Float64Var(&btPayout, "payout", 0.80, "payout rate on winning trades")
	backtestCmd.Flags().IntVar(&btExpiry, "expiry", 1, "candles between entry and expiry")
	backtestCmd.Flags().StringVar(&btFrom, "from", "", "start of range (RFC3339), inclusive")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "end of range (RFC3339), exclusive")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	var from, to time.Time
	var err error
	if btFrom != "" {
		if from, err = time.Parse(time.RFC3339, btFrom); err != nil {
			return fmt.Errorf("parse --from: %w", err)
		}
	}
	if btTo != "" {
		if to, err = time.Parse(time.RFC3339, btTo); err != nil {
			return fmt.Errorf("parse --to: %w", err)
		}
	}

	feed, err := backtest.NewCSVCandleFeed(args[0], from, to)
	if err != nil {
		return fmt.Errorf("open candles: %w", err)
	}
	defer feed.Close()

	candles, err := feed.ReadAll()
	if err != nil {
		return fmt.Errorf("read candles: %w", err)
	}

	cfg := backtest.DefaultConfig()
	cfg.StartBalance = btBalance
	cfg.Stake = btStake
	cfg.PayoutRate = btPayout
	cfg.ExpirySteps = btExpiry

	res, err := backtest.Run(cfg, candles)
	if err != nil {
		return err
	}

	backtest.PrintResult(os.Stdout, res)
	return nil
}
