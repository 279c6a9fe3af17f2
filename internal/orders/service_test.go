package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
	"github.com/siamex/siamex/internal/ledger"
	"github.com/siamex/siamex/internal/notification"
)

type recordingNotifier struct {
	messages []notification.Message
}

func (r *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

func seedTrader(t *testing.T, l ledger.Ledger, userID string, balances map[currency.Currency]string) {
	t.Helper()
	ctx := context.Background()
	if _, err := l.CreateWalletSet(ctx, userID); err != nil {
		t.Fatalf("create wallet set: %v", err)
	}
	for cur, bal := range balances {
		w, err := l.WalletByCurrency(ctx, userID, cur)
		if err != nil {
			t.Fatalf("wallet by currency %s: %v", cur, err)
		}
		ledger.SeedBalance(l, w.ID, bal)
	}
}

func balanceOf(t *testing.T, l ledger.Ledger, userID string, cur currency.Currency) decimal.Decimal {
	t.Helper()
	w, err := l.WalletByCurrency(context.Background(), userID, cur)
	if err != nil {
		t.Fatalf("wallet by currency %s: %v", cur, err)
	}
	return w.Balance
}

func TestExecuteBuySettlesAndNotifies(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &recordingNotifier{}
	svc := NewService(l, notifier)
	ctx := context.Background()

	seedTrader(t, l, "alice", map[currency.Currency]string{currency.THB: "100000"})

	order, tx, err := svc.Execute(ctx, Input{
		UserID:         "alice",
		Type:           ledger.OrderTypeBuy,
		CryptoCurrency: "BTC",
		FiatCurrency:   "THB",
		Amount:         decimal.RequireFromString("0.1"),
		PricePerUnit:   decimal.RequireFromString("1000000"),
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if order.Status != ledger.OrderStatusCompleted {
		t.Fatalf("expected COMPLETED got %s", order.Status)
	}
	if tx.Type != ledger.TxTypeTrade {
		t.Fatalf("expected TRADE got %s", tx.Type)
	}

	if got := balanceOf(t, l, "alice", currency.THB); !got.IsZero() {
		t.Fatalf("THB balance = %s", got)
	}
	if got := balanceOf(t, l, "alice", currency.BTC); !got.Equal(decimal.RequireFromString("0.1")) {
		t.Fatalf("BTC balance = %s", got)
	}

	if len(notifier.messages) != 1 || notifier.messages[0].Kind != notification.KindOrderExecuted {
		t.Fatalf("expected one order_executed notification, got %v", notifier.messages)
	}
}

func TestExecuteRejectsUnknownCurrency(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	seedTrader(t, l, "alice", map[currency.Currency]string{currency.THB: "1000"})

	_, _, err := svc.Execute(ctx, Input{
		UserID:         "alice",
		Type:           ledger.OrderTypeBuy,
		CryptoCurrency: "SHIB",
		FiatCurrency:   "THB",
		Amount:         decimal.RequireFromString("1"),
		PricePerUnit:   decimal.RequireFromString("1"),
	})
	if !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("expected ErrValidation got %v", err)
	}
}

func TestExecuteInsufficientFundsSkipsNotification(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &recordingNotifier{}
	svc := NewService(l, notifier)
	ctx := context.Background()

	seedTrader(t, l, "alice", map[currency.Currency]string{currency.THB: "10"})

	_, _, err := svc.Execute(ctx, Input{
		UserID:         "alice",
		Type:           ledger.OrderTypeBuy,
		CryptoCurrency: "BTC",
		FiatCurrency:   "THB",
		Amount:         decimal.RequireFromString("1"),
		PricePerUnit:   decimal.RequireFromString("1000000"),
	})
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance got %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.messages)
	}
}

func TestPlaceAndCancelLifecycle(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	seedTrader(t, l, "alice", map[currency.Currency]string{currency.USD: "5000"})

	order, err := svc.Place(ctx, Input{
		UserID:         "alice",
		Type:           ledger.OrderTypeBuy,
		CryptoCurrency: "ETH",
		FiatCurrency:   "USD",
		Amount:         decimal.RequireFromString("1"),
		PricePerUnit:   decimal.RequireFromString("3000"),
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if order.Status != ledger.OrderStatusPending {
		t.Fatalf("expected PENDING got %s", order.Status)
	}
	if got := balanceOf(t, l, "alice", currency.USD); !got.Equal(decimal.RequireFromString("5000")) {
		t.Fatalf("resting order must not move funds, USD = %s", got)
	}

	open, err := svc.ListOpen(ctx)
	if err != nil {
		t.Fatalf("list open: %v", err)
	}
	if len(open) != 1 || open[0].ID != order.ID {
		t.Fatalf("expected the pending order in the open book, got %v", open)
	}

	cancelled, err := svc.Cancel(ctx, "alice", order.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != ledger.OrderStatusCancelled {
		t.Fatalf("expected CANCELLED got %s", cancelled.Status)
	}

	open, _ = svc.ListOpen(ctx)
	if len(open) != 0 {
		t.Fatalf("cancelled order must leave the open book, got %v", open)
	}

	if _, err := svc.Cancel(ctx, "alice", order.ID); !errors.Is(err, ledger.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on repeated cancel got %v", err)
	}
}

func TestListMineNewestFirst(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	seedTrader(t, l, "alice", map[currency.Currency]string{currency.USD: "10000"})

	var last ledger.Order
	for _, price := range []string{"100", "200", "300"} {
		o, err := svc.Place(ctx, Input{
			UserID:         "alice",
			Type:           ledger.OrderTypeBuy,
			CryptoCurrency: "XRP",
			FiatCurrency:   "USD",
			Amount:         decimal.RequireFromString("1"),
			PricePerUnit:   decimal.RequireFromString(price),
		})
		if err != nil {
			t.Fatalf("place at %s: %v", price, err)
		}
		last = o
	}

	mine, err := svc.ListMine(ctx, "alice")
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	if len(mine) != 3 {
		t.Fatalf("expected 3 orders got %d", len(mine))
	}
	if mine[0].ID != last.ID {
		t.Fatalf("expected newest first")
	}
}
