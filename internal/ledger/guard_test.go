package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCheckSufficient(t *testing.T) {
	w := Wallet{Currency: currency.THB, Balance: d("100000")}

	if err := checkSufficient(w, d("100000")); err != nil {
		t.Fatalf("exact balance must suffice: %v", err)
	}
	if err := checkSufficient(w, d("99999.999999")); err != nil {
		t.Fatalf("smaller amount must suffice: %v", err)
	}
	if err := checkSufficient(w, d("100000.000001")); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestCheckSufficientExactDecimal(t *testing.T) {
	// 0.1 + 0.2 style sums that drift under binary floats stay exact here.
	w := Wallet{Currency: currency.BTC, Balance: d("0.1").Add(d("0.2"))}
	if err := checkSufficient(w, d("0.3")); err != nil {
		t.Fatalf("0.1+0.2 must cover 0.3 exactly: %v", err)
	}
}

func TestCheckSameCurrency(t *testing.T) {
	btc := Wallet{Currency: currency.BTC}
	eth := Wallet{Currency: currency.ETH}
	if err := checkSameCurrency(btc, btc); err != nil {
		t.Fatalf("same currency: %v", err)
	}
	if err := checkSameCurrency(btc, eth); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestCheckAmountRejectsNonPositive(t *testing.T) {
	for _, raw := range []string{"0", "-1", "-0.00000001"} {
		if err := checkAmount(d(raw)); !errors.Is(err, ErrValidation) {
			t.Fatalf("amount %s: expected ErrValidation, got %v", raw, err)
		}
	}
	if err := checkAmount(d("0.00000001")); err != nil {
		t.Fatalf("positive amount: %v", err)
	}
}

func TestCheckOrderSpec(t *testing.T) {
	valid := OrderSpec{
		UserID:         "u",
		Type:           OrderTypeBuy,
		CryptoCurrency: currency.BTC,
		FiatCurrency:   currency.THB,
		Amount:         d("0.1"),
		PricePerUnit:   d("1000000"),
	}
	if err := checkOrderSpec(valid); err != nil {
		t.Fatalf("valid spec: %v", err)
	}

	cases := map[string]func(OrderSpec) OrderSpec{
		"zero amount":     func(s OrderSpec) OrderSpec { s.Amount = decimal.Zero; return s },
		"zero price":      func(s OrderSpec) OrderSpec { s.PricePerUnit = decimal.Zero; return s },
		"fiat as crypto":  func(s OrderSpec) OrderSpec { s.CryptoCurrency = currency.USD; return s },
		"crypto as fiat":  func(s OrderSpec) OrderSpec { s.FiatCurrency = currency.ETH; return s },
		"unknown side":    func(s OrderSpec) OrderSpec { s.Type = "HOLD"; return s },
		"negative amount": func(s OrderSpec) OrderSpec { s.Amount = d("-0.1"); return s },
	}
	for name, mutate := range cases {
		if err := checkOrderSpec(mutate(valid)); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

func TestDebitLeg(t *testing.T) {
	spec := OrderSpec{Type: OrderTypeBuy, Amount: d("0.1"), PricePerUnit: d("1000000")}
	amount, fiatSide := debitLeg(spec)
	if !fiatSide || !amount.Equal(d("100000")) {
		t.Fatalf("BUY debits 100000 fiat, got %s fiatSide=%v", amount, fiatSide)
	}

	spec.Type = OrderTypeSell
	amount, fiatSide = debitLeg(spec)
	if fiatSide || !amount.Equal(d("0.1")) {
		t.Fatalf("SELL debits 0.1 crypto, got %s fiatSide=%v", amount, fiatSide)
	}
}
