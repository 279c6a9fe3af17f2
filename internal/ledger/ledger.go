package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
)

var (
	// ErrNotFound occurs when a wallet or order does not exist or is not
	// owned by the acting user.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientBalance occurs when the source wallet lacks balance to
	// cover a requested debit.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrCurrencyMismatch occurs when an internal transfer targets a wallet
	// denominated in a different currency.
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrInvalidTarget occurs when an external transfer names an address that
	// is not present in the external wallet reference data.
	ErrInvalidTarget = errors.New("unknown external address")

	// ErrInvalidState occurs on an order transition that the order's current
	// status does not allow, such as cancelling a completed order.
	ErrInvalidState = errors.New("invalid order state")

	// ErrValidation occurs when the caller supplies a malformed amount or an
	// unsupported currency.
	ErrValidation = errors.New("validation failed")
)

// Order lifecycle states. PENDING orders rest without moving funds;
// COMPLETED and CANCELLED are terminal.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Order sides.
const (
	OrderTypeBuy  = "BUY"
	OrderTypeSell = "SELL"
)

// Transaction kinds. An EXTERNAL_TRANSFER records from == to: an outbound
// debit with no internal credit counterpart.
const (
	TxTypeInternalTransfer = "INTERNAL_TRANSFER"
	TxTypeTrade            = "TRADE"
	TxTypeExternalTransfer = "EXTERNAL_TRANSFER"
)

// TxStatusCompleted is the only transaction status the ledger writes; a
// transaction row exists exactly when its balance movement committed.
const TxStatusCompleted = "COMPLETED"

// Wallet is a per-(user, currency) balance record. Its balance is mutated
// only inside the ledger's atomic operations.
type Wallet struct {
	ID        string
	UserID    string
	Currency  currency.Currency
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// Transaction is an immutable audit record of one committed value movement,
// denominated in the currency that was debited.
type Transaction struct {
	ID           string
	FromWalletID string
	ToWalletID   string
	OrderID      string
	Amount       decimal.Decimal
	Currency     currency.Currency
	Type         string
	Status       string
	CreatedAt    time.Time
}

// Order records an intended or completed conversion between a crypto and a
// fiat wallet of the same user at a fixed price per unit.
type Order struct {
	ID             string
	UserID         string
	Type           string
	CryptoCurrency currency.Currency
	FiatCurrency   currency.Currency
	Amount         decimal.Decimal
	PricePerUnit   decimal.Decimal
	Status         string
	CreatedAt      time.Time
}

// TotalFiat is the fiat value of the order, amount times price per unit,
// computed with exact decimal arithmetic.
func (o Order) TotalFiat() decimal.Decimal {
	return o.Amount.Mul(o.PricePerUnit)
}

// OrderSpec carries the caller-supplied parameters of a BUY or SELL order.
type OrderSpec struct {
	UserID         string
	Type           string
	CryptoCurrency currency.Currency
	FiatCurrency   currency.Currency
	Amount         decimal.Decimal
	PricePerUnit   decimal.Decimal
}

// Ledger defines the contract implemented by ledger backends (e.g. Postgres).
// Every mutating operation executes as a single atomic unit: its reads,
// balance checks and writes commit or roll back together, so no partial
// movement is ever observable and concurrent operations on the same wallet
// serialize against each other.
type Ledger interface {
	// CreateWalletSet provisions one zero-balance wallet per supported
	// currency for the user. Already-existing wallets are left untouched.
	CreateWalletSet(ctx context.Context, userID string) ([]Wallet, error)

	// Wallet returns the wallet only if it is owned by userID.
	Wallet(ctx context.Context, userID, walletID string) (Wallet, error)

	// WalletByCurrency returns the user's unique wallet for the currency.
	WalletByCurrency(ctx context.Context, userID string, cur currency.Currency) (Wallet, error)

	// WalletsByUser lists all wallets owned by the user.
	WalletsByUser(ctx context.Context, userID string) ([]Wallet, error)

	// Transfer debits the source wallet and credits the destination wallet
	// by amount, recording one INTERNAL_TRANSFER transaction. The source
	// must be owned by userID and both wallets must share a currency.
	Transfer(ctx context.Context, userID, fromWalletID, toWalletID string, amount decimal.Decimal) (Transaction, error)

	// ExternalTransfer debits the source wallet by amount toward a
	// recognized external address. There is no internal credit; the
	// transaction records from == to.
	ExternalTransfer(ctx context.Context, userID, fromWalletID, address string, amount decimal.Decimal) (Transaction, error)

	// ExecuteOrder moves funds for the order and records it COMPLETED in the
	// same atomic unit: BUY debits the fiat wallet by amount*pricePerUnit
	// and credits the crypto wallet by amount; SELL is symmetric. The TRADE
	// transaction's amount is the leg actually debited.
	ExecuteOrder(ctx context.Context, spec OrderSpec) (Order, Transaction, error)

	// CreateOrder records a resting PENDING order after checking the
	// would-be debited wallet has sufficient balance. No funds move.
	CreateOrder(ctx context.Context, spec OrderSpec) (Order, error)

	// CancelOrder transitions a PENDING order owned by userID to CANCELLED.
	CancelOrder(ctx context.Context, userID, orderID string) (Order, error)

	// OrdersByUser lists the user's orders, newest first.
	OrdersByUser(ctx context.Context, userID string) ([]Order, error)

	// OpenOrders lists all PENDING orders, newest first.
	OpenOrders(ctx context.Context) ([]Order, error)

	// TransactionsByUser lists transactions touching any of the user's
	// wallets, newest first.
	TransactionsByUser(ctx context.Context, userID string) ([]Transaction, error)

	// RegisterExternalWallet adds an address to the external wallet
	// reference data consulted by ExternalTransfer.
	RegisterExternalWallet(ctx context.Context, address string, cur currency.Currency) error

	// SetBalance overwrites a wallet balance directly. Fixtures and demo
	// seeding only; the trading path never calls it.
	SetBalance(ctx context.Context, walletID string, balance decimal.Decimal) error
}
