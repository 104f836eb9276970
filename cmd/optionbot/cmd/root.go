package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "optionbot",
	Short: "An automated binary-options trading assistant",
	Long: `Optionbot polls candle data, derives RSI/SMA crossover signals and
places binary-options trades behind account-level risk limits.

It provides tools for:
  - Running the trading loop against a paper venue or live credentials
  - Enforcing daily-loss and consecutive-loss limits with automatic pauses
  - Guarding every external call with circuit breakers and rate limits
  - Journaling trades to CSV or SQLite and querying daily statistics
  - Telegram notifications for signals, trades and risk pauses`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
