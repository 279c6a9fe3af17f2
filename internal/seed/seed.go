package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
	"github.com/siamex/siamex/internal/identity"
	"github.com/siamex/siamex/internal/ledger"
)

type demoUser struct {
	email     string
	firstName string
	lastName  string
}

var demoUsers = []demoUser{
	{email: "user1@example.com", firstName: "John", lastName: "Doe"},
	{email: "user2@example.com", firstName: "Jane", lastName: "Smith"},
}

const demoPassword = "password123"

var demoExternalWallets = map[string]currency.Currency{
	"bc1q-demo-external-btc": currency.BTC,
	"0xdemo-external-eth":    currency.ETH,
	"r-demo-external-xrp":    currency.XRP,
	"D-demo-external-doge":   currency.DOGE,
}

// Demo provisions two demo accounts with funded wallets, two resting orders
// and a set of known external withdrawal addresses. Intended for development
// environments only; running it twice is a no-op.
func Demo(ctx context.Context, ids *identity.Service, l ledger.Ledger, logger *slog.Logger) error {
	users := make([]identity.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		user, err := ids.Register(ctx, identity.Registration{
			Email:     du.email,
			Password:  demoPassword,
			FirstName: du.firstName,
			LastName:  du.lastName,
		})
		if err != nil {
			if errors.Is(err, identity.ErrEmailTaken) {
				logger.Info("seed already applied", slog.String("email", du.email))
				return nil
			}
			return fmt.Errorf("seed user %s: %w", du.email, err)
		}
		users = append(users, user)
	}

	for _, user := range users {
		for _, cur := range currency.Supported() {
			w, err := l.WalletByCurrency(ctx, user.ID, cur)
			if err != nil {
				return fmt.Errorf("seed wallet %s/%s: %w", user.Email, cur, err)
			}
			if err := l.SetBalance(ctx, w.ID, demoBalance(cur)); err != nil {
				return fmt.Errorf("seed balance %s/%s: %w", user.Email, cur, err)
			}
		}
	}

	restingOrders := []ledger.OrderSpec{
		{
			UserID:         users[0].ID,
			Type:           ledger.OrderTypeBuy,
			CryptoCurrency: currency.BTC,
			FiatCurrency:   currency.THB,
			Amount:         decimal.RequireFromString("0.1"),
			PricePerUnit:   decimal.RequireFromString("1000000"),
		},
		{
			UserID:         users[1].ID,
			Type:           ledger.OrderTypeSell,
			CryptoCurrency: currency.ETH,
			FiatCurrency:   currency.USD,
			Amount:         decimal.RequireFromString("1"),
			PricePerUnit:   decimal.RequireFromString("3000"),
		},
	}
	for _, spec := range restingOrders {
		if _, err := l.CreateOrder(ctx, spec); err != nil {
			return fmt.Errorf("seed order: %w", err)
		}
	}

	for address, cur := range demoExternalWallets {
		if err := l.RegisterExternalWallet(ctx, address, cur); err != nil {
			return fmt.Errorf("seed external wallet %s: %w", address, err)
		}
	}

	logger.Info("demo seed applied", slog.Int("users", len(users)))
	return nil
}

func demoBalance(cur currency.Currency) decimal.Decimal {
	switch cur {
	case currency.THB:
		return decimal.NewFromInt(100000)
	case currency.USD:
		return decimal.NewFromInt(3000)
	default:
		return decimal.NewFromInt(1)
	}
}
