package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// The balance guard: pure checks run by every backend strictly inside the
// atomic unit, on the same state the subsequent mutation applies to. A
// failed check aborts the unit before any write.

func checkAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	return nil
}

func checkSufficient(w Wallet, required decimal.Decimal) error {
	if w.Balance.LessThan(required) {
		return ErrInsufficientBalance
	}
	return nil
}

func checkSameCurrency(a, b Wallet) error {
	if a.Currency != b.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// checkOrderSpec validates an order before any state is touched: decimal
// fields positive, the crypto leg an actual crypto currency, the fiat leg an
// actual fiat currency, and a recognized side.
func checkOrderSpec(spec OrderSpec) error {
	if err := checkAmount(spec.Amount); err != nil {
		return err
	}
	if spec.PricePerUnit.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: price per unit must be positive", ErrValidation)
	}
	if !spec.CryptoCurrency.IsCrypto() {
		return fmt.Errorf("%w: %s is not a crypto currency", ErrValidation, spec.CryptoCurrency)
	}
	if !spec.FiatCurrency.IsFiat() {
		return fmt.Errorf("%w: %s is not a fiat currency", ErrValidation, spec.FiatCurrency)
	}
	if spec.Type != OrderTypeBuy && spec.Type != OrderTypeSell {
		return fmt.Errorf("%w: unknown order type %q", ErrValidation, spec.Type)
	}
	return nil
}

// debitLeg reports the amount an order would debit and whether the debit
// falls on the fiat wallet: the fiat total for a BUY, the crypto amount for
// a SELL. The TRADE transaction is denominated in this leg.
func debitLeg(spec OrderSpec) (amount decimal.Decimal, fiatSide bool) {
	if spec.Type == OrderTypeBuy {
		return spec.Amount.Mul(spec.PricePerUnit), true
	}
	return spec.Amount, false
}
