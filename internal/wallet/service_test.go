package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
	"github.com/siamex/siamex/internal/ledger"
)

func newService(t *testing.T) (*Service, ledger.Ledger, string) {
	t.Helper()
	l := ledger.NewInMemory()
	userID := "user-1"
	if _, err := l.CreateWalletSet(context.Background(), userID); err != nil {
		t.Fatalf("create wallet set: %v", err)
	}
	return NewService(l), l, userID
}

func TestListReturnsFullWalletSet(t *testing.T) {
	svc, _, userID := newService(t)

	wallets, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(wallets) != len(currency.Supported()) {
		t.Fatalf("expected %d wallets got %d", len(currency.Supported()), len(wallets))
	}
	for _, w := range wallets {
		if !w.Balance.IsZero() {
			t.Fatalf("wallet %s expected zero balance got %s", w.Currency, w.Balance)
		}
	}
}

func TestGetRejectsForeignWallet(t *testing.T) {
	svc, l, userID := newService(t)
	if _, err := l.CreateWalletSet(context.Background(), "user-2"); err != nil {
		t.Fatalf("create wallet set: %v", err)
	}
	other, err := l.WalletByCurrency(context.Background(), "user-2", currency.BTC)
	if err != nil {
		t.Fatalf("wallet by currency: %v", err)
	}

	if _, err := svc.Get(context.Background(), userID, other.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestSetBalanceOverridesValue(t *testing.T) {
	svc, l, userID := newService(t)
	w, err := l.WalletByCurrency(context.Background(), userID, currency.THB)
	if err != nil {
		t.Fatalf("wallet by currency: %v", err)
	}

	updated, err := svc.SetBalance(context.Background(), userID, w.ID, decimal.RequireFromString("100000"))
	if err != nil {
		t.Fatalf("set balance: %v", err)
	}
	if !updated.Balance.Equal(decimal.RequireFromString("100000")) {
		t.Fatalf("expected 100000 got %s", updated.Balance)
	}
}

func TestSetBalanceRejectsNegative(t *testing.T) {
	svc, l, userID := newService(t)
	w, err := l.WalletByCurrency(context.Background(), userID, currency.USD)
	if err != nil {
		t.Fatalf("wallet by currency: %v", err)
	}

	if _, err := svc.SetBalance(context.Background(), userID, w.ID, decimal.RequireFromString("-1")); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}
