package orders

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
	"github.com/siamex/siamex/internal/ledger"
	"github.com/siamex/siamex/internal/notification"
)

// Service wires order placement and execution against the ledger.
type Service struct {
	ledger   ledger.Ledger
	notifier notification.Notifier
}

// NewService constructs an order service.
func NewService(l ledger.Ledger, notifier notification.Notifier) *Service {
	return &Service{ledger: l, notifier: notifier}
}

// Input carries the caller-supplied order parameters before currency parsing.
type Input struct {
	UserID         string
	Type           string
	CryptoCurrency string
	FiatCurrency   string
	Amount         decimal.Decimal
	PricePerUnit   decimal.Decimal
}

func (i Input) spec() (ledger.OrderSpec, error) {
	crypto, err := currency.Parse(i.CryptoCurrency)
	if err != nil {
		return ledger.OrderSpec{}, fmt.Errorf("%w: %v", ledger.ErrValidation, err)
	}
	fiat, err := currency.Parse(i.FiatCurrency)
	if err != nil {
		return ledger.OrderSpec{}, fmt.Errorf("%w: %v", ledger.ErrValidation, err)
	}
	return ledger.OrderSpec{
		UserID:         i.UserID,
		Type:           i.Type,
		CryptoCurrency: crypto,
		FiatCurrency:   fiat,
		Amount:         i.Amount,
		PricePerUnit:   i.PricePerUnit,
	}, nil
}

// Execute settles an order immediately: both wallet movements and the order
// record commit in one atomic unit.
func (s *Service) Execute(ctx context.Context, input Input) (ledger.Order, ledger.Transaction, error) {
	spec, err := input.spec()
	if err != nil {
		return ledger.Order{}, ledger.Transaction{}, err
	}
	order, tx, err := s.ledger.ExecuteOrder(ctx, spec)
	if err != nil {
		return ledger.Order{}, ledger.Transaction{}, err
	}

	if s.notifier != nil {
		_ = s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindOrderExecuted,
			Destination: order.UserID,
			Body:        fmt.Sprintf("%s %s %s at %s %s settled", order.Type, order.Amount, order.CryptoCurrency, order.PricePerUnit, order.FiatCurrency),
		})
	}

	return order, tx, nil
}

// Place records a resting order without moving funds.
func (s *Service) Place(ctx context.Context, input Input) (ledger.Order, error) {
	spec, err := input.spec()
	if err != nil {
		return ledger.Order{}, err
	}
	return s.ledger.CreateOrder(ctx, spec)
}

// Cancel transitions one of the caller's pending orders to cancelled.
func (s *Service) Cancel(ctx context.Context, userID, orderID string) (ledger.Order, error) {
	return s.ledger.CancelOrder(ctx, userID, orderID)
}

// ListMine returns the caller's orders, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]ledger.Order, error) {
	return s.ledger.OrdersByUser(ctx, userID)
}

// ListOpen returns all pending orders on the platform, newest first.
func (s *Service) ListOpen(ctx context.Context) ([]ledger.Order, error) {
	return s.ledger.OpenOrders(ctx)
}
