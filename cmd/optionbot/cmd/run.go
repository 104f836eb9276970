package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"optionbot/bot"
	"optionbot/broker"
	"optionbot/broker/paper"
	"optionbot/config"
	"optionbot/journal"
	"optionbot/notify"
	"optionbot/risk"
	sig "optionbot/signal"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading loop",
	Long: `Run the trading loop against the paper venue.

Candles are polled per symbol, signals are derived from the RSI/SMA crossover
rule, and trades pass the risk engine before placement. Telegram alerts are
sent when TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are set; otherwise alerts
go to the log.

Example:
  optionbot run --config config.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runSeed       int64
	runDebug      bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON)")
	runCmd.Flags().Int64Var(&runSeed, "seed", 1, "paper venue price walk seed")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "verbose logging")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	jrnl, err := openJournal(cfg.Journal)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	if jrnl != nil {
		defer jrnl.Close()
	}

	interval, _ := cfg.PollInterval()
	expiration, _ := cfg.TradeExpiration()
	breakerTimeout, _ := cfg.BreakerTimeout()

	signals, err := sig.NewEngine(signalConfig(cfg))
	if err != nil {
		return fmt.Errorf("signal engine: %w", err)
	}

	risks, err := risk.NewEngine(risk.Config{
		MaxDailyLossPercent:  cfg.Trading.MaxDailyLossPercent,
		MaxTradePercent:      cfg.Trading.MaxTradePercent,
		ConsecutiveLossLimit: cfg.Trading.ConsecutiveLossLimit,
		DemoMode:             cfg.Trading.DemoMode,
		PauseDuration:        time.Duration(cfg.Trading.PauseMinutes) * time.Minute,
	})
	if err != nil {
		return fmt.Errorf("risk engine: %w", err)
	}

	venue := paper.New(paper.Config{Seed: runSeed})

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	gates := bot.NewGates(
		cfg.Resilience.BreakerThreshold, breakerTimeout,
		cfg.Resilience.Limits.MarketData,
		cfg.Resilience.Limits.Validation,
		cfg.Resilience.Limits.Trading,
		cfg.Resilience.Limits.Notification,
	)

	pipeline, err := bot.New(bot.Config{
		Symbols:       cfg.Symbols,
		Timeframe:     cfg.Timeframe,
		Interval:      interval,
		DefaultAmount: cfg.Trading.DefaultAmount,
		Expiration:    expiration,
	}, signals, risks, bot.Venue{
		Candles:   venue,
		Validator: venue,
		Trader:    venue,
		Account:   venue,
		Notifier:  notifier,
	}, gates, jrnl, log)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	log.Info("starting",
		zap.Strings("symbols", cfg.Symbols),
		zap.Duration("interval", interval),
		zap.Bool("demo", cfg.Trading.DemoMode))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipeline.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}

	log.Info("shutdown complete")
	return nil
}

func loadConfig() (*config.Config, error) {
	if runConfigPath != "" {
		cfg, err := config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	return config.Load()
}

func newLogger() (*zap.Logger, error) {
	if runDebug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func signalConfig(cfg *config.Config) sig.Config {
	sc := sig.DefaultConfig()
	sc.RSIPeriod = cfg.Signal.RSIPeriod
	sc.SMAPeriod = cfg.Signal.SMAPeriod
	sc.Oversold = cfg.Signal.Oversold
	sc.Overbought = cfg.Signal.Overbought
	return sc
}

func openJournal(cfg config.JournalConfig) (journal.Journal, error) {
	switch cfg.Type {
	case "csv":
		return journal.NewCSV(cfg.TradesFile)
	case "sqlite":
		return journal.NewSQLite(cfg.DBPath)
	default:
		return nil, nil
	}
}

func newNotifier(cfg *config.Config, log *zap.Logger) (broker.Notifier, error) {
	if cfg.Telegram.Token == "" || cfg.Telegram.ChatID == 0 {
		log.Info("telegram credentials not set, alerts go to the log")
		return notify.NewLogger(log), nil
	}
	return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
}
