package transfers

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

func seedWallet(t *testing.T, l ledger.Ledger, userID string, cur currency.Currency, balance string) ledger.Wallet {
	t.Helper()
	ctx := context.Background()
	if _, err := l.CreateWalletSet(ctx, userID); err != nil {
		t.Fatalf("create wallet set: %v", err)
	}
	w, err := l.WalletByCurrency(ctx, userID, cur)
	if err != nil {
		t.Fatalf("wallet by currency: %v", err)
	}
	ledger.SeedBalance(l, w.ID, balance)
	return w
}

func TestTransferMovesFundsAndNotifies(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &recordingNotifier{}
	svc := NewService(l, notifier)
	ctx := context.Background()

	from := seedWallet(t, l, "alice", currency.THB, "500")
	to := seedWallet(t, l, "bob", currency.THB, "0")

	tx, err := svc.Transfer(ctx, TransferInput{
		UserID:       "alice",
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.RequireFromString("120.50"),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if tx.Type != ledger.TxTypeInternalTransfer {
		t.Fatalf("expected %s got %s", ledger.TxTypeInternalTransfer, tx.Type)
	}

	fromAfter, _ := l.Wallet(ctx, "alice", from.ID)
	toAfter, _ := l.Wallet(ctx, "bob", to.ID)
	if !fromAfter.Balance.Equal(decimal.RequireFromString("379.5")) {
		t.Fatalf("sender balance = %s", fromAfter.Balance)
	}
	if !toAfter.Balance.Equal(decimal.RequireFromString("120.5")) {
		t.Fatalf("recipient balance = %s", toAfter.Balance)
	}

	if len(notifier.messages) != 1 || notifier.messages[0].Kind != notification.KindTransferReceived {
		t.Fatalf("expected one transfer_received notification, got %v", notifier.messages)
	}
}

func TestTransferFailureSkipsNotification(t *testing.T) {
	l := ledger.NewInMemory()
	notifier := &recordingNotifier{}
	svc := NewService(l, notifier)
	ctx := context.Background()

	from := seedWallet(t, l, "alice", currency.THB, "10")
	to := seedWallet(t, l, "bob", currency.THB, "0")

	_, err := svc.Transfer(ctx, TransferInput{
		UserID:       "alice",
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       decimal.RequireFromString("11"),
	})
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance got %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("expected no notifications, got %v", notifier.messages)
	}
}

func TestExternalTransferDebitsOnly(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	from := seedWallet(t, l, "alice", currency.BTC, "1")
	if err := l.RegisterExternalWallet(ctx, "bc1q-external", currency.BTC); err != nil {
		t.Fatalf("register external wallet: %v", err)
	}

	tx, err := svc.External(ctx, ExternalInput{
		UserID:       "alice",
		FromWalletID: from.ID,
		Address:      "bc1q-external",
		Amount:       decimal.RequireFromString("0.25"),
	})
	if err != nil {
		t.Fatalf("external: %v", err)
	}
	if tx.Type != ledger.TxTypeExternalTransfer {
		t.Fatalf("expected %s got %s", ledger.TxTypeExternalTransfer, tx.Type)
	}
	if tx.FromWalletID != tx.ToWalletID {
		t.Fatalf("external transaction should reference only the debited wallet")
	}

	after, _ := l.Wallet(ctx, "alice", from.ID)
	if !after.Balance.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("balance after withdrawal = %s", after.Balance)
	}
}

func TestExternalTransferUnknownAddress(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	from := seedWallet(t, l, "alice", currency.BTC, "1")

	_, err := svc.External(ctx, ExternalInput{
		UserID:       "alice",
		FromWalletID: from.ID,
		Address:      "unknown-address",
		Amount:       decimal.RequireFromString("0.25"),
	})
	if !errors.Is(err, ledger.ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget got %v", err)
	}

	after, _ := l.Wallet(ctx, "alice", from.ID)
	if !after.Balance.Equal(decimal.RequireFromString("1")) {
		t.Fatalf("failed withdrawal must not move funds, balance = %s", after.Balance)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	l := ledger.NewInMemory()
	svc := NewService(l, nil)
	ctx := context.Background()

	from := seedWallet(t, l, "alice", currency.THB, "100")
	to := seedWallet(t, l, "bob", currency.THB, "0")

	for _, amt := range []string{"1", "2", "3"} {
		if _, err := svc.Transfer(ctx, TransferInput{
			UserID:       "alice",
			FromWalletID: from.ID,
			ToWalletID:   to.ID,
			Amount:       decimal.RequireFromString(amt),
		}); err != nil {
			t.Fatalf("transfer %s: %v", amt, err)
		}
	}

	txs, err := svc.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions got %d", len(txs))
	}
	if !txs[0].Amount.Equal(decimal.RequireFromString("3")) {
		t.Fatalf("expected newest first, got %s", txs[0].Amount)
	}
}
