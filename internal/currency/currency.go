package currency

import "fmt"

// Currency is the closed set of currencies the exchange custodies. Anything
// outside this set is rejected at the boundary before it reaches the ledger.
type Currency string

const (
	BTC  Currency = "BTC"
	ETH  Currency = "ETH"
	XRP  Currency = "XRP"
	DOGE Currency = "DOGE"
	THB  Currency = "THB"
	USD  Currency = "USD"
)

var supported = []Currency{BTC, ETH, XRP, DOGE, THB, USD}

// Parse validates a raw currency code against the supported set.
func Parse(raw string) (Currency, error) {
	for _, c := range supported {
		if string(c) == raw {
			return c, nil
		}
	}
	return "", fmt.Errorf("unsupported currency %q", raw)
}

// Supported returns the full list of custodied currencies in a stable order.
func Supported() []Currency {
	out := make([]Currency, len(supported))
	copy(out, supported)
	return out
}

// IsFiat reports whether the currency is government-issued money.
func (c Currency) IsFiat() bool {
	return c == THB || c == USD
}

// IsCrypto reports whether the currency is a crypto asset.
func (c Currency) IsCrypto() bool {
	switch c {
	case BTC, ETH, XRP, DOGE:
		return true
	default:
		return false
	}
}

func (c Currency) String() string {
	return string(c)
}
