package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/currency"
)

// PostgresLedger persists wallets, orders and transactions in PostgreSQL.
// Every mutating method runs inside one database transaction with the wallet
// rows it touches locked via SELECT ... FOR UPDATE, so balance checks and the
// mutations they authorize commit as a unit and concurrent operations on the
// same wallet serialize.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

const walletColumns = `id, user_id, currency, balance, created_at`

func (l *PostgresLedger) CreateWalletSet(ctx context.Context, userID string) ([]Wallet, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, cur := range currency.Supported() {
		if _, err := tx.Exec(ctx, `INSERT INTO wallets (id, user_id, currency, balance, created_at)
            VALUES ($1, $2, $3, 0, $4)
            ON CONFLICT (user_id, currency) DO NOTHING`, uuid.New(), uid, cur.String(), time.Now().UTC()); err != nil {
			return nil, err
		}
	}

	rows, err := tx.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY currency`, uid)
	if err != nil {
		return nil, err
	}
	wallets, err := collectWallets(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (l *PostgresLedger) Wallet(ctx context.Context, userID, walletID string) (Wallet, error) {
	uid, err := parseID(userID)
	if err != nil {
		return Wallet{}, err
	}
	wid, err := parseID(walletID)
	if err != nil {
		return Wallet{}, err
	}
	// Ownership is part of the lookup key so a foreign wallet is
	// indistinguishable from a missing one.
	row := l.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 AND user_id = $2`, wid, uid)
	return scanWallet(row)
}

func (l *PostgresLedger) WalletByCurrency(ctx context.Context, userID string, cur currency.Currency) (Wallet, error) {
	uid, err := parseID(userID)
	if err != nil {
		return Wallet{}, err
	}
	row := l.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND currency = $2`, uid, cur.String())
	return scanWallet(row)
}

func (l *PostgresLedger) WalletsByUser(ctx context.Context, userID string) ([]Wallet, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 ORDER BY currency`, uid)
	if err != nil {
		return nil, err
	}
	return collectWallets(rows)
}

func (l *PostgresLedger) Transfer(ctx context.Context, userID, fromWalletID, toWalletID string, amount decimal.Decimal) (Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return Transaction{}, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return Transaction{}, err
	}
	fromID, err := parseID(fromWalletID)
	if err != nil {
		return Transaction{}, err
	}
	toID, err := parseID(toWalletID)
	if err != nil {
		return Transaction{}, err
	}
	if fromID == toID {
		return Transaction{}, ErrInvalidTarget
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	// ORDER BY id makes crossing transfers acquire their row locks in the
	// same order, so they cannot deadlock.
	rows, err := tx.Query(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = ANY($1) ORDER BY id FOR UPDATE`, []uuid.UUID{fromID, toID})
	if err != nil {
		return Transaction{}, err
	}
	locked, err := collectWallets(rows)
	if err != nil {
		return Transaction{}, err
	}

	var from, to Wallet
	for _, w := range locked {
		switch w.ID {
		case fromID.String():
			from = w
		case toID.String():
			to = w
		}
	}
	if from.ID == "" || to.ID == "" || from.UserID != uid.String() {
		return Transaction{}, ErrNotFound
	}
	if err := checkSameCurrency(from, to); err != nil {
		return Transaction{}, err
	}
	if err := checkSufficient(from, amount); err != nil {
		return Transaction{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance - $1 WHERE id = $2`, amount, fromID); err != nil {
		return Transaction{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $1 WHERE id = $2`, amount, toID); err != nil {
		return Transaction{}, err
	}

	record := Transaction{
		FromWalletID: from.ID,
		ToWalletID:   to.ID,
		Amount:       amount,
		Currency:     from.Currency,
		Type:         TxTypeInternalTransfer,
	}
	if record, err = insertTransaction(ctx, tx, record); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return record, nil
}

func (l *PostgresLedger) ExternalTransfer(ctx context.Context, userID, fromWalletID, address string, amount decimal.Decimal) (Transaction, error) {
	if err := checkAmount(amount); err != nil {
		return Transaction{}, err
	}
	uid, err := parseID(userID)
	if err != nil {
		return Transaction{}, err
	}
	fromID, err := parseID(fromWalletID)
	if err != nil {
		return Transaction{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE id = $1 AND user_id = $2 FOR UPDATE`, fromID, uid)
	from, err := scanWallet(row)
	if err != nil {
		return Transaction{}, err
	}

	// The address must be recognized for the debited currency; this read
	// happens inside the unit so reference data and debit stay consistent.
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM external_wallets WHERE address = $1 AND currency = $2)`,
		address, from.Currency.String()).Scan(&exists); err != nil {
		return Transaction{}, err
	}
	if !exists {
		return Transaction{}, ErrInvalidTarget
	}
	if err := checkSufficient(from, amount); err != nil {
		return Transaction{}, err
	}

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance - $1 WHERE id = $2`, amount, fromID); err != nil {
		return Transaction{}, err
	}

	record := Transaction{
		FromWalletID: from.ID,
		ToWalletID:   from.ID,
		Amount:       amount,
		Currency:     from.Currency,
		Type:         TxTypeExternalTransfer,
	}
	if record, err = insertTransaction(ctx, tx, record); err != nil {
		return Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Transaction{}, err
	}
	return record, nil
}

func (l *PostgresLedger) ExecuteOrder(ctx context.Context, spec OrderSpec) (Order, Transaction, error) {
	if err := checkOrderSpec(spec); err != nil {
		return Order{}, Transaction{}, err
	}
	uid, err := parseID(spec.UserID)
	if err != nil {
		return Order{}, Transaction{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, Transaction{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	rows, err := tx.Query(ctx, `SELECT `+walletColumns+` FROM wallets
        WHERE user_id = $1 AND currency = ANY($2) ORDER BY id FOR UPDATE`,
		uid, []string{spec.FiatCurrency.String(), spec.CryptoCurrency.String()})
	if err != nil {
		return Order{}, Transaction{}, err
	}
	locked, err := collectWallets(rows)
	if err != nil {
		return Order{}, Transaction{}, err
	}

	var fiat, crypto Wallet
	for _, w := range locked {
		switch w.Currency {
		case spec.FiatCurrency:
			fiat = w
		case spec.CryptoCurrency:
			crypto = w
		}
	}
	if fiat.ID == "" || crypto.ID == "" {
		return Order{}, Transaction{}, ErrNotFound
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

	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance - $1 WHERE id = $2`, debit, debitWallet.ID); err != nil {
		return Order{}, Transaction{}, err
	}
	if _, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $1 WHERE id = $2`, credit, creditWallet.ID); err != nil {
		return Order{}, Transaction{}, err
	}

	order, err := insertOrder(ctx, tx, spec, OrderStatusCompleted)
	if err != nil {
		return Order{}, Transaction{}, err
	}

	record := Transaction{
		FromWalletID: debitWallet.ID,
		ToWalletID:   creditWallet.ID,
		OrderID:      order.ID,
		Amount:       debit,
		Currency:     debitWallet.Currency,
		Type:         TxTypeTrade,
	}
	if record, err = insertTransaction(ctx, tx, record); err != nil {
		return Order{}, Transaction{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, Transaction{}, err
	}
	return order, record, nil
}

func (l *PostgresLedger) CreateOrder(ctx context.Context, spec OrderSpec) (Order, error) {
	if err := checkOrderSpec(spec); err != nil {
		return Order{}, err
	}
	uid, err := parseID(spec.UserID)
	if err != nil {
		return Order{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	debit, fiatSide := debitLeg(spec)
	cur := spec.CryptoCurrency
	if fiatSide {
		cur = spec.FiatCurrency
	}
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND currency = $2`, uid, cur.String())
	w, err := scanWallet(row)
	if err != nil {
		return Order{}, err
	}
	if err := checkSufficient(w, debit); err != nil {
		return Order{}, err
	}

	order, err := insertOrder(ctx, tx, spec, OrderStatusPending)
	if err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return order, nil
}

func (l *PostgresLedger) CancelOrder(ctx context.Context, userID, orderID string) (Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return Order{}, err
	}
	oid, err := parseID(orderID)
	if err != nil {
		return Order{}, err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`, oid, uid)
	order, err := scanOrder(row)
	if err != nil {
		return Order{}, err
	}
	if order.Status != OrderStatusPending {
		return Order{}, ErrInvalidState
	}

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE id = $2`, OrderStatusCancelled, oid); err != nil {
		return Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	order.Status = OrderStatusCancelled
	return order, nil
}

func (l *PostgresLedger) OrdersByUser(ctx context.Context, userID string) ([]Order, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (l *PostgresLedger) OpenOrders(ctx context.Context) ([]Order, error) {
	rows, err := l.db.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC`, OrderStatusPending)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func (l *PostgresLedger) TransactionsByUser(ctx context.Context, userID string) ([]Transaction, error) {
	uid, err := parseID(userID)
	if err != nil {
		return nil, err
	}
	rows, err := l.db.Query(ctx, `SELECT t.id, t.from_wallet_id, t.to_wallet_id, t.order_id, t.amount, t.currency, t.type, t.status, t.created_at
        FROM transactions t
        WHERE t.from_wallet_id IN (SELECT id FROM wallets WHERE user_id = $1)
           OR t.to_wallet_id IN (SELECT id FROM wallets WHERE user_id = $1)
        ORDER BY t.created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var (
			id, fromID, toID uuid.UUID
			orderID          *uuid.UUID
			cur              string
			record           Transaction
		)
		if err := rows.Scan(&id, &fromID, &toID, &orderID, &record.Amount, &cur, &record.Type, &record.Status, &record.CreatedAt); err != nil {
			return nil, err
		}
		record.ID = id.String()
		record.FromWalletID = fromID.String()
		record.ToWalletID = toID.String()
		if orderID != nil {
			record.OrderID = orderID.String()
		}
		record.Currency = currency.Currency(cur)
		txs = append(txs, record)
	}
	return txs, rows.Err()
}

func (l *PostgresLedger) RegisterExternalWallet(ctx context.Context, address string, cur currency.Currency) error {
	_, err := l.db.Exec(ctx, `INSERT INTO external_wallets (address, currency)
        VALUES ($1, $2) ON CONFLICT (address, currency) DO NOTHING`, address, cur.String())
	return err
}

func (l *PostgresLedger) SetBalance(ctx context.Context, walletID string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ErrValidation
	}
	wid, err := parseID(walletID)
	if err != nil {
		return err
	}
	cmd, err := l.db.Exec(ctx, `UPDATE wallets SET balance = $1 WHERE id = $2`, balance, wid)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const orderColumns = `id, user_id, type, crypto_currency, fiat_currency, amount, price_per_unit, status, created_at`

func insertOrder(ctx context.Context, tx pgx.Tx, spec OrderSpec, status string) (Order, error) {
	order := Order{
		ID:             uuid.NewString(),
		UserID:         spec.UserID,
		Type:           spec.Type,
		CryptoCurrency: spec.CryptoCurrency,
		FiatCurrency:   spec.FiatCurrency,
		Amount:         spec.Amount,
		PricePerUnit:   spec.PricePerUnit,
		Status:         status,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := tx.Exec(ctx, `INSERT INTO orders (id, user_id, type, crypto_currency, fiat_currency, amount, price_per_unit, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		order.ID, order.UserID, order.Type, order.CryptoCurrency.String(), order.FiatCurrency.String(),
		order.Amount, order.PricePerUnit, order.Status, order.CreatedAt)
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, record Transaction) (Transaction, error) {
	record.ID = uuid.NewString()
	record.Status = TxStatusCompleted
	record.CreatedAt = time.Now().UTC()

	var orderID any
	if record.OrderID != "" {
		orderID = record.OrderID
	}
	_, err := tx.Exec(ctx, `INSERT INTO transactions (id, from_wallet_id, to_wallet_id, order_id, amount, currency, type, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.FromWalletID, record.ToWalletID, orderID, record.Amount,
		record.Currency.String(), record.Type, record.Status, record.CreatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return record, nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		id, userID uuid.UUID
		cur        string
		w          Wallet
	)
	if err := row.Scan(&id, &userID, &cur, &w.Balance, &w.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.UserID = userID.String()
	w.Currency = currency.Currency(cur)
	return w, nil
}

func collectWallets(rows pgx.Rows) ([]Wallet, error) {
	defer rows.Close()
	var wallets []Wallet
	for rows.Next() {
		var (
			id, userID uuid.UUID
			cur        string
			w          Wallet
		)
		if err := rows.Scan(&id, &userID, &cur, &w.Balance, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.ID = id.String()
		w.UserID = userID.String()
		w.Currency = currency.Currency(cur)
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		id, userID     uuid.UUID
		cryptoC, fiatC string
		o              Order
	)
	if err := row.Scan(&id, &userID, &o.Type, &cryptoC, &fiatC, &o.Amount, &o.PricePerUnit, &o.Status, &o.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	o.ID = id.String()
	o.UserID = userID.String()
	o.CryptoCurrency = currency.Currency(cryptoC)
	o.FiatCurrency = currency.Currency(fiatC)
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		var (
			id, userID     uuid.UUID
			cryptoC, fiatC string
			o              Order
		)
		if err := rows.Scan(&id, &userID, &o.Type, &cryptoC, &fiatC, &o.Amount, &o.PricePerUnit, &o.Status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.ID = id.String()
		o.UserID = userID.String()
		o.CryptoCurrency = currency.Currency(cryptoC)
		o.FiatCurrency = currency.Currency(fiatC)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", ErrValidation, raw)
	}
	return id, nil
}
