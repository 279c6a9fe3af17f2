package currency

import "testing"

func TestParseSupported(t *testing.T) {
	for _, code := range []string{"BTC", "ETH", "XRP", "DOGE", "THB", "USD"} {
		c, err := Parse(code)
		if err != nil {
			t.Fatalf("parse %s: %v", code, err)
		}
		if c.String() != code {
			t.Fatalf("expected %s, got %s", code, c)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, code := range []string{"", "btc", "EUR", "USDT", "BTC "} {
		if _, err := Parse(code); err == nil {
			t.Fatalf("expected error for %q", code)
		}
	}
}

func TestFiatCryptoSplit(t *testing.T) {
	for _, c := range Supported() {
		if c.IsFiat() == c.IsCrypto() {
			t.Fatalf("%s must be exactly one of fiat or crypto", c)
		}
	}
	if !THB.IsFiat() || !USD.IsFiat() {
		t.Fatal("THB and USD are fiat")
	}
	if !BTC.IsCrypto() || !DOGE.IsCrypto() {
		t.Fatal("BTC and DOGE are crypto")
	}
}
