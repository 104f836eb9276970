package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"optionbot/journal"
	"optionbot/market"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query the trade journal",
	Long: `Query and display trade records from the SQLite journal.

Subcommands:
  trade  - Get details of a specific trade by ID
  day    - List trades and daily stats for a specific day
  today  - List trades and daily stats for today

Examples:
  optionbot journal trade 01J8...
  optionbot journal today
  optionbot journal day 2026-08-29`,
}

var journalTradeCmd = &cobra.Command{
	Use:   "trade <trade-id>",
	Short: "Get details of a specific trade",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrade,
}

var journalTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "List trades placed today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDay(time.Now().Format("2006-01-02"))
	},
}

var journalDayCmd = &cobra.Command{
	Use:   "day <YYYY-MM-DD>",
	Short: "List trades placed on a specific day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printDay(args[0])
	},
}

var journalDBPath string

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalTradeCmd)
	journalCmd.AddCommand(journalTodayCmd)
	journalCmd.AddCommand(journalDayCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./trades.db", "path to SQLite journal DB")
}

func runJournalTrade(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetTrade(args[0])
	if err != nil {
		return fmt.Errorf("get trade: %w", err)
	}

	printTrade(rec)
	return nil
}

func printDay(day string) error {
	start, err := time.ParseInLocation("2006-01-02", day, time.Local)
	if err != nil {
		return fmt.Errorf("date: %w", err)
	}
	end := start.AddDate(0, 0, 1)

	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	recs, err := j.ListTrades(start, end)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	for _, rec := range recs {
		fmt.Printf("%-28s %-8s %-4s %8.2f %8s %+9.2f  %s\n",
			rec.TradeID, rec.Symbol, rec.Direction, rec.Amount,
			rec.Outcome, rec.ProfitLoss, rec.Time.Local().Format("15:04:05"))
	}

	stats, err := j.DailyStats(start)
	if err != nil {
		return fmt.Errorf("daily stats: %w", err)
	}

	fmt.Printf("\n%s: %d trades, %d wins, %d losses, win rate %.1f%%, net %+.2f\n",
		day, stats.Trades, stats.Wins, stats.Losses, stats.WinRate, stats.NetProfit)
	return nil
}

func printTrade(t market.TradeResult) {
	fmt.Printf("Trade:      %s\n", t.TradeID)
	fmt.Printf("Symbol:     %s\n", t.Symbol)
	fmt.Printf("Direction:  %s\n", t.Direction)
	fmt.Printf("Amount:     %.2f\n", t.Amount)
	fmt.Printf("Entry:      %.5f\n", t.EntryPrice)
	fmt.Printf("Exit:       %.5f\n", t.ExitPrice)
	fmt.Printf("Outcome:    %s\n", t.Outcome)
	fmt.Printf("P/L:        %+.2f\n", t.ProfitLoss)
	fmt.Printf("Placed at:  %s\n", t.Time.Local().Format(time.RFC3339))
}
