package bot

import (
	"fmt"
	"strings"

	"optionbot/broker"
	"optionbot/market"
	"optionbot/risk"
	"optionbot/signal"
)

// formatSignal renders a signal alert for the notification channel.
func formatSignal(sig signal.Signal) broker.Message {
	return broker.Message{
		Title: fmt.Sprintf("%s signal: %s", sig.Symbol, sig.Side),
		Body: fmt.Sprintf(
			"Confidence: %.0f%% (%s)\nRSI: %.1f\nSMA: %.4f\nPrice: %.4f",
			sig.Confidence*100, signal.Strength(sig.Confidence),
			sig.RSI, sig.SMA, sig.Price),
	}
}

// formatTrade renders a placed-trade report, including settlement when the
// venue reports it immediately.
func formatTrade(sig signal.Signal, result market.TradeResult) broker.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Direction: %s\nAmount: %.2f\nEntry: %.4f\n",
		result.Direction, result.Amount, result.EntryPrice)
	fmt.Fprintf(&b, "Signal: %s (%.0f%% %s)\n",
		sig.Side, sig.Confidence*100, signal.Strength(sig.Confidence))

	switch result.Outcome {
	case market.OutcomePending:
		b.WriteString("Outcome: pending")
	default:
		fmt.Fprintf(&b, "Outcome: %s (%+.2f)", result.Outcome, result.ProfitLoss)
	}

	return broker.Message{
		Title: fmt.Sprintf("%s trade %s", result.Symbol, result.TradeID),
		Body:  b.String(),
	}
}

// formatPause renders a risk-pause alert.
func formatPause(m risk.Metrics) broker.Message {
	return broker.Message{
		Title: "Trading paused",
		Body: fmt.Sprintf("Reason: %s\nDaily loss: %.2f (%.1f%%)\nConsecutive losses: %d",
			m.PauseReason, m.DailyLoss, m.DailyLossPercent, m.ConsecutiveLosses),
	}
}
