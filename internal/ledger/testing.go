package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

// SeedBalance is a fixtures helper that overwrites a wallet balance through
// the test-only backdoor. The balance is given as a decimal string so test
// fixtures never route through binary floats.
func SeedBalance(l Ledger, walletID, balance string) {
	_ = l.SetBalance(context.Background(), walletID, decimal.RequireFromString(balance))
}
