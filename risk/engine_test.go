package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionbot/market"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(t *testing.T) (*Engine, *fakeClock) {
	t.Helper()

	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	clock := newFakeClock()
	e.now = clock.Now
	return e, clock
}

func balance(total, available float64) market.Balance {
	return market.Balance{Total: total, Available: available, Currency: "USD"}
}

func demoRequest(amount float64) market.TradeRequest {
	return market.TradeRequest{
		Symbol:     "EURUSD",
		Direction:  market.Call,
		Amount:     amount,
		Expiration: time.Minute,
		Demo:       true,
	}
}

func loss(clock *fakeClock, n int) market.TradeResult {
	return market.TradeResult{
		TradeID:    fmt.Sprintf("L%d", n),
		Symbol:     "EURUSD",
		Direction:  market.Call,
		Amount:     10,
		EntryPrice: 1.1,
		ExitPrice:  1.09,
		ProfitLoss: -10,
		Outcome:    market.OutcomeLoss,
		Time:       clock.Now(),
	}
}

func win(clock *fakeClock, n int) market.TradeResult {
	return market.TradeResult{
		TradeID:    fmt.Sprintf("W%d", n),
		Symbol:     "EURUSD",
		Direction:  market.Call,
		Amount:     10,
		EntryPrice: 1.1,
		ExitPrice:  1.11,
		ProfitLoss: 8,
		Outcome:    market.OutcomeWin,
		Time:       clock.Now(),
	}
}

func TestValidateRequestPasses(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	res := e.ValidateRequest(demoRequest(15), balance(1000, 950))
	assert.True(t, res.Valid)
	assert.Empty(t, res.Reason)
}

func TestValidateRequestAmountRules(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	res := e.ValidateRequest(demoRequest(-5), balance(1000, 950))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "positive")

	res = e.ValidateRequest(demoRequest(2000), balance(1000, 950))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "insufficient balance")

	// 2% of 950 = 19: a 25 stake breaches the per-trade cap.
	res = e.ValidateRequest(demoRequest(25), balance(1000, 950))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "maximum allowed")
}

func TestValidateRequestDailyLossLimit(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	// First call sets the daily baseline at 1000.
	res := e.ValidateRequest(demoRequest(10), balance(1000, 950))
	require.True(t, res.Valid)

	// 6% down: blocked and paused.
	res = e.ValidateRequest(demoRequest(10), balance(940, 900))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "daily loss limit")
	assert.True(t, e.Paused())
}

func TestValidateRequestWithinDailyLoss(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	require.True(t, e.ValidateRequest(demoRequest(10), balance(1000, 950)).Valid)

	// 4% down stays valid.
	res := e.ValidateRequest(demoRequest(10), balance(960, 920))
	assert.True(t, res.Valid)
	assert.False(t, e.Paused())
}

func TestValidateRequestDemoEnforcement(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	req := demoRequest(10)
	req.Demo = false
	res := e.ValidateRequest(req, balance(1000, 950))
	assert.False(t, res.Valid)
	assert.Contains(t, res.Reason, "demo mode")

	live := false
	require.NoError(t, e.UpdateLimits(LimitUpdate{DemoMode: &live}))
	assert.True(t, e.ValidateRequest(req, balance(1000, 950)).Valid)
}

func TestPositionSize(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	tests := []struct {
		name        string
		balance     float64
		riskPercent float64
		want        float64
	}{
		{"default risk", 1000, 0, 20.00},
		{"capped at max", 1000, 5.0, 20.00},
		{"under max", 1000, 1.0, 10.00},
		{"zero balance floors", 0, 0, 1.00},
		{"negative balance floors", -50, 0, 1.00},
		{"rounded to cents", 1234.56, 0, 24.69},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, e.PositionSize(tt.balance, tt.riskPercent))
		})
	}
}

func TestConsecutiveLossesPause(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	e.RecordResult(loss(clock, 1))
	e.RecordResult(loss(clock, 2))
	assert.False(t, e.Paused())

	e.RecordResult(loss(clock, 3))
	assert.True(t, e.Paused())

	m := e.Metrics(1000)
	assert.True(t, m.Paused)
	assert.Contains(t, m.PauseReason, "3 losses")
	assert.Equal(t, 3, m.ConsecutiveLosses)
}

func TestWinBreaksStreak(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	e.RecordResult(loss(clock, 1))
	e.RecordResult(loss(clock, 2))
	e.RecordResult(win(clock, 1))
	e.RecordResult(loss(clock, 3))

	m := e.Metrics(1000)
	assert.Equal(t, 1, m.ConsecutiveLosses)
	assert.False(t, m.Paused)
}

func TestPendingTradesDoNotBreakStreak(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	e.RecordResult(loss(clock, 1))
	e.RecordResult(loss(clock, 2))

	pending := loss(clock, 3)
	pending.Outcome = market.OutcomePending
	pending.ProfitLoss = 0
	e.RecordResult(pending)

	e.RecordResult(loss(clock, 4))
	assert.True(t, e.Paused())
}

func TestPauseExpires(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	for i := 1; i <= 3; i++ {
		e.RecordResult(loss(clock, i))
	}
	require.True(t, e.Paused())

	clock.Advance(59 * time.Minute)
	assert.True(t, e.Paused())

	clock.Advance(2 * time.Minute)
	assert.False(t, e.Paused())
}

func TestResume(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	assert.False(t, e.Resume()) // nothing to do

	for i := 1; i <= 3; i++ {
		e.RecordResult(loss(clock, i))
	}
	require.True(t, e.Paused())

	assert.True(t, e.Resume())
	assert.False(t, e.Paused())
	assert.Empty(t, e.Metrics(1000).PauseReason)
}

func TestResetDailyLiftsOnlyDailyLossPause(t *testing.T) {
	t.Parallel()

	// Consecutive-loss pause survives a daily reset.
	e, clock := newTestEngine(t)
	for i := 1; i <= 3; i++ {
		e.RecordResult(loss(clock, i))
	}
	require.True(t, e.Paused())

	e.ResetDaily(1000)
	assert.True(t, e.Paused())
	assert.Equal(t, 0, e.Metrics(1000).TradesToday)

	// Daily-loss pause is lifted.
	e2, _ := newTestEngine(t)
	require.True(t, e2.ValidateRequest(demoRequest(10), balance(1000, 950)).Valid)
	require.False(t, e2.ValidateRequest(demoRequest(10), balance(940, 900)).Valid)
	require.True(t, e2.Paused())

	e2.ResetDaily(940)
	assert.False(t, e2.Paused())
}

func TestHistoryPrunedToToday(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	e.RecordResult(loss(clock, 1))
	e.RecordResult(loss(clock, 2))

	clock.Advance(24 * time.Hour)
	e.RecordResult(loss(clock, 3))

	// Yesterday's losses are gone: one trade, one-loss streak, no pause.
	m := e.Metrics(1000)
	assert.Equal(t, 1, m.TradesToday)
	assert.Equal(t, 1, m.ConsecutiveLosses)
	assert.False(t, m.Paused)
}

func TestMetricsSnapshot(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)

	require.True(t, e.ValidateRequest(demoRequest(10), balance(1000, 950)).Valid)
	e.RecordResult(loss(clock, 1))

	m := e.Metrics(970)
	assert.InDelta(t, 30.0, m.DailyLoss, 1e-9)
	assert.InDelta(t, 3.0, m.DailyLossPercent, 1e-9)
	assert.Equal(t, 1, m.TradesToday)
	assert.Equal(t, clock.Now(), m.LastLossTime)

	// Balance above the baseline floors the loss at zero.
	m = e.Metrics(1050)
	assert.Zero(t, m.DailyLoss)
	assert.Zero(t, m.DailyLossPercent)
}

func TestMetricsIdempotent(t *testing.T) {
	t.Parallel()

	e, clock := newTestEngine(t)
	e.RecordResult(loss(clock, 1))

	first := e.Metrics(980)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, e.Metrics(980))
	}
}

func TestUpdateLimitsAtomic(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)

	// One valid field plus one invalid: nothing may change.
	maxTrade := 3.0
	badLimit := 0
	err := e.UpdateLimits(LimitUpdate{MaxTradePercent: &maxTrade, ConsecutiveLossLimit: &badLimit})
	require.Error(t, err)

	cfg := e.Config()
	assert.Equal(t, 2.0, cfg.MaxTradePercent)
	assert.Equal(t, 3, cfg.ConsecutiveLossLimit)

	goodLimit := 5
	require.NoError(t, e.UpdateLimits(LimitUpdate{MaxTradePercent: &maxTrade, ConsecutiveLossLimit: &goodLimit}))
	cfg = e.Config()
	assert.Equal(t, 3.0, cfg.MaxTradePercent)
	assert.Equal(t, 5, cfg.ConsecutiveLossLimit)
}
