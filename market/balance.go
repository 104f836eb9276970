package market

import (
	"fmt"
	"time"
)

// Balance is a snapshot of the trading account.
type Balance struct {
	Total     float64
	Available float64
	Currency  string
	Time      time.Time
}

// Validate checks the balance invariants.
func (b Balance) Validate() error {
	if b.Total < 0 || b.Available < 0 {
		return fmt.Errorf("balance: amounts cannot be negative")
	}
	if b.Available > b.Total {
		return fmt.Errorf("balance: available %.2f exceeds total %.2f", b.Available, b.Total)
	}
	return nil
}
