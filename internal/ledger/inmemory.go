package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
)

type inMemoryLedger struct {
	mu        sync.RWMutex
	wallets   map[string]Wallet
	byUser    map[string]map[currency.Currency]string
	orders    map[string]Order
	orderSeq  []string
	txs       []Transaction
	externals map[string]currency.Currency
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and for running the API without a database. The mutex plays the role
// the store's transaction isolation plays in the Postgres backend: every
// operation observes and mutates a consistent snapshot.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		wallets:   make(map[string]Wallet),
		byUser:    make(map[string]map[currency.Currency]string),
		orders:    make(map[string]Order),
		externals: make(map[string]currency.Currency),
	}
}

func (l *inMemoryLedger) CreateWalletSet(_ context.Context, userID string) ([]Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, ok := l.byUser[userID]
	if !ok {
		set = make(map[currency.Currency]string)
		l.byUser[userID] = set
	}

	wallets := make([]Wallet, 0, len(currency.Supported()))
	for _, cur := range currency.Supported() {
		if id, exists := set[cur]; exists {
			wallets = append(wallets, l.wallets[id])
			continue
		}
		w := Wallet{
			ID:        uuid.NewString(),
			UserID:    userID,
			Currency:  cur,
			Balance:   decimal.Zero,
			CreatedAt: time.Now().UTC(),
		}
		l.wallets[w.ID] = w
		set[cur] = w.ID
		wallets = append(wallets, w)
	}
	return wallets, nil
}

func (l *inMemoryLedger) Wallet(_ context.Context, userID, walletID string) (Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ownedWallet(userID, walletID)
}

func (l *inMemoryLedger) WalletByCurrency(_ context.Context, userID string, cur currency.Currency) (Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.walletByCurrency(userID, cur)
}

func (l *inMemoryLedger) WalletsByUser(_ context.Context, userID string) ([]Wallet, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var wallets []Wallet
	for _, cur := range currency.Supported() {
		if id, ok := l.byUser[userID][cur]; ok {
			wallets = append(wallets, l.wallets[id])
		}
	}
	return wallets, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, userID, fromWalletID, toWalletID string, amount decimal.Decimal) (Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return Transaction{}, err
	}
	if fromWalletID == toWalletID {
		return Transaction{}, ErrInvalidTarget
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, err := l.ownedWallet(userID, fromWalletID)
	if err != nil {
		return Transaction{}, err
	}
	to, ok := l.wallets[toWalletID]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	if err := checkSameCurrency(from, to); err != nil {
		return Transaction{}, err
	}
	if err := checkSufficient(from, amount); err != nil {
		return Transaction{}, err
	}

	from.Balance = from.Balance.Sub(amount)
	to.Balance = to.Balance.Add(amount)
	l.wallets[from.ID] = from
	l.wallets[to.ID] = to

	return l.record(Transaction{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       amount,
		Currency:     from.Currency,
		Type:         TxTypeInternalTransfer,
	}), nil
}

func (l *inMemoryLedger) ExternalTransfer(_ context.Context, userID, fromWalletID, address string, amount decimal.Decimal) (Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, err := l.ownedWallet(userID, fromWalletID)
	if err != nil {
		return Transaction{}, err
	}
	if cur, ok := l.externals[address]; !ok || cur != from.Currency {
		return Transaction{}, ErrInvalidTarget
	}
	if err := checkSufficient(from, amount); err != nil {
		return Transaction{}, err
	}

	from.Balance = from.Balance.Sub(amount)
	l.wallets[from.ID] = from

	return l.record(Transaction{
		FromWalletID: from.ID,
		ToWalletID:   from.ID,
		Amount:       amount,
		Currency:     from.Currency,
		Type:         TxTypeExternalTransfer,
	}), nil
}

func (l *inMemoryLedger) ExecuteOrder(_ context.Context, spec OrderSpec) (Order, Transaction, error) {
	if err := checkOrderSpec(spec); err != nil {
		return Order{}, Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fiat, err := l.walletByCurrency(spec.UserID, spec.FiatCurrency)
	if err != nil {
		return Order{}, Transaction{}, err
	}
	crypto, err := l.walletByCurrency(spec.UserID, spec.CryptoCurrency)
	if err != nil {
		return Order{}, Transaction{}, err
	}

	debit, fiatSide := debitLeg(spec)
	debitWallet, creditWallet := fiat, crypto
	credit := spec.Amount
	if !fiatSide {
		debitWallet, creditWallet = crypto, fiat
		credit = spec.Amount.Mul(spec.PricePerUnit)
	}

	if err := checkSufficient(debitWallet, debit); err != nil {
		return Order{}, Transaction{}, err
	}

	debitWallet.Balance = debitWallet.Balance.Sub(debit)
	creditWallet.Balance = creditWallet.Balance.Add(credit)
	l.wallets[debitWallet.ID] = debitWallet
	l.wallets[creditWallet.ID] = creditWallet

	order := Order{
		ID:             uuid.NewString(),
		UserID:         spec.UserID,
		Type:           spec.Type,
		CryptoCurrency: spec.CryptoCurrency,
		FiatCurrency:   spec.FiatCurrency,
		Amount:         spec.Amount,
		PricePerUnit:   spec.PricePerUnit,
		Status:         OrderStatusCompleted,
		CreatedAt:      time.Now().UTC(),
	}
	l.orders[order.ID] = order
	l.orderSeq = append(l.orderSeq, order.ID)

	tx := l.record(Transaction{
		FromWalletID: debitWallet.ID,
		ToWalletID:   creditWallet.ID,
		OrderID:      order.ID,
		Amount:       debit,
		Currency:     debitWallet.Currency,
		Type:         TxTypeTrade,
	})
	return order, tx, nil
}

func (l *inMemoryLedger) CreateOrder(_ context.Context, spec OrderSpec) (Order, error) {
	if err := checkOrderSpec(spec); err != nil {
		return Order{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	debit, fiatSide := debitLeg(spec)
	cur := spec.CryptoCurrency
	if fiatSide {
		cur = spec.FiatCurrency
	}
	w, err := l.walletByCurrency(spec.UserID, cur)
	if err != nil {
		return Order{}, err
	}
	if err := checkSufficient(w, debit); err != nil {
		return Order{}, err
	}

	order := Order{
		ID:             uuid.NewString(),
		UserID:         spec.UserID,
		Type:           spec.Type,
		CryptoCurrency: spec.CryptoCurrency,
		FiatCurrency:   spec.FiatCurrency,
		Amount:         spec.Amount,
		PricePerUnit:   spec.PricePerUnit,
		Status:         OrderStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	l.orders[order.ID] = order
	l.orderSeq = append(l.orderSeq, order.ID)
	return order, nil
}

func (l *inMemoryLedger) CancelOrder(_ context.Context, userID, orderID string) (Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	order, ok := l.orders[orderID]
	if !ok || order.UserID != userID {
		return Order{}, ErrNotFound
	}
	if order.Status != OrderStatusPending {
		return Order{}, ErrInvalidState
	}
	order.Status = OrderStatusCancelled
	l.orders[orderID] = order
	return order, nil
}

func (l *inMemoryLedger) OrdersByUser(_ context.Context, userID string) ([]Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var orders []Order
	for i := len(l.orderSeq) - 1; i >= 0; i-- {
		if o := l.orders[l.orderSeq[i]]; o.UserID == userID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (l *inMemoryLedger) OpenOrders(_ context.Context) ([]Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var orders []Order
	for i := len(l.orderSeq) - 1; i >= 0; i-- {
		if o := l.orders[l.orderSeq[i]]; o.Status == OrderStatusPending {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (l *inMemoryLedger) TransactionsByUser(_ context.Context, userID string) ([]Transaction, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owned := make(map[string]bool)
	for _, id := range l.byUser[userID] {
		owned[id] = true
	}

	var txs []Transaction
	for i := len(l.txs) - 1; i >= 0; i-- {
		tx := l.txs[i]
		if owned[tx.FromWalletID] || owned[tx.ToWalletID] {
			txs = append(txs, tx)
		}
	}
	return txs, nil
}

func (l *inMemoryLedger) RegisterExternalWallet(_ context.Context, address string, cur currency.Currency) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.externals[address] = cur
	return nil
}

func (l *inMemoryLedger) SetBalance(_ context.Context, walletID string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrValidation
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.wallets[walletID]
	if !ok {
		return ErrNotFound
	}
	w.Balance = balance
	l.wallets[w.ID] = w
	return nil
}

// ownedWallet and walletByCurrency expect the caller to hold the mutex.

func (l *inMemoryLedger) ownedWallet(userID, walletID string) (Wallet, error) {
	w, ok := l.wallets[walletID]
	if !ok || w.UserID != userID {
		return Wallet{}, ErrNotFound
	}
	return w, nil
}

func (l *inMemoryLedger) walletByCurrency(userID string, cur currency.Currency) (Wallet, error) {
	id, ok := l.byUser[userID][cur]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return l.wallets[id], nil
}

// record appends a completed transaction; the caller holds the mutex.
func (l *inMemoryLedger) record(tx Transaction) Transaction {
	tx.ID = uuid.NewString()
	tx.Status = TxStatusCompleted
	tx.CreatedAt = time.Now().UTC()
	l.txs = append(l.txs, tx)
	return tx
}
