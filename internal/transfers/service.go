package transfers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/ledger"
	"github.com/siamex/siamex/internal/notification"
)

// Service wires atomic ledger postings for internal and external transfers.
type Service struct {
	ledger   ledger.Ledger
	notifier notification.Notifier
}

// NewService constructs a transfer service.
func NewService(l ledger.Ledger, notifier notification.Notifier) *Service {
	return &Service{ledger: l, notifier: notifier}
}

// TransferInput captures the data needed to move funds between wallets.
type TransferInput struct {
	UserID       string
	FromWalletID string
	ToWalletID   string
	Amount       decimal.Decimal
}

// Transfer moves funds between the caller's wallet and another internal
// wallet of the same currency. The ledger performs ownership, currency and
// sufficiency checks inside one atomic unit.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (ledger.Transaction, error) {
	tx, err := s.ledger.Transfer(ctx, input.UserID, input.FromWalletID, input.ToWalletID, input.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: input.ToWalletID,
			Body:        fmt.Sprintf("Received %s %s from wallet %s", tx.Amount, tx.Currency, input.FromWalletID),
		})
	}

	return tx, nil
}

// ExternalInput captures a withdrawal to an address outside the platform.
type ExternalInput struct {
	UserID       string
	FromWalletID string
	Address      string
	Amount       decimal.Decimal
}

// External debits the caller's wallet toward a known external address. Only
// the debit side is recorded; no internal wallet is credited.
func (s *Service) External(ctx context.Context, input ExternalInput) (ledger.Transaction, error) {
	tx, err := s.ledger.ExternalTransfer(ctx, input.UserID, input.FromWalletID, input.Address, input.Amount)
	if err != nil {
		return ledger.Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindExternalTransfer,
			Destination: input.UserID,
			Body:        fmt.Sprintf("Sent %s %s to %s", tx.Amount, tx.Currency, input.Address),
		})
	}

	return tx, nil
}

// History lists the caller's transactions, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return s.ledger.TransactionsByUser(ctx, userID)
}
