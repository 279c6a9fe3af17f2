package wallet

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
	"github.com/siamex/siamex/internal/ledger"
)

// Service exposes wallet read operations backed by the ledger.
type Service struct {
	ledger ledger.Ledger
}

// NewService builds a wallet service instance.
func NewService(l ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// List returns every wallet owned by the user.
func (s *Service) List(ctx context.Context, userID string) ([]ledger.Wallet, error) {
	return s.ledger.WalletsByUser(ctx, userID)
}

// Get retrieves a single wallet, enforcing ownership.
func (s *Service) Get(ctx context.Context, userID, walletID string) (ledger.Wallet, error) {
	return s.ledger.Wallet(ctx, userID, walletID)
}

// ByCurrency retrieves the user's wallet holding the given currency.
func (s *Service) ByCurrency(ctx context.Context, userID string, cur currency.Currency) (ledger.Wallet, error) {
	return s.ledger.WalletByCurrency(ctx, userID, cur)
}

// SetBalance overwrites a wallet balance. Reserved for development fixtures;
// the caller must gate this behind an environment check.
func (s *Service) SetBalance(ctx context.Context, userID, walletID string, balance decimal.Decimal) (ledger.Wallet, error) {
	if _, err := s.ledger.Wallet(ctx, userID, walletID); err != nil {
		return ledger.Wallet{}, err
	}
	if balance.IsNegative() {
		return ledger.Wallet{}, fmt.Errorf("%w: balance must not be negative", ledger.ErrValidation)
	}
	if err := s.ledger.SetBalance(ctx, walletID, balance); err != nil {
		return ledger.Wallet{}, err
	}
	return s.ledger.Wallet(ctx, userID, walletID)
}
