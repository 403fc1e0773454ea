package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLLedger stores wallets in the users table.
// Debit is a single conditional UPDATE, so concurrent debits cannot overdraw.
type SQLLedger struct {
	db      *sqlx.DB
	initial int64
}

// NewSQLLedger wraps an open connection; new wallets start at initial.
func NewSQLLedger(db *sqlx.DB, initial int64) *SQLLedger {
	return &SQLLedger{db: db, initial: initial}
}

// Ensure inserts the wallet row unless it exists and returns it.
func (l *SQLLedger) Ensure(ctx context.Context, userID int64) (Wallet, error) {
	q := l.db.Rebind(`INSERT INTO users (user_id, balance) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`)
	if _, err := l.db.ExecContext(ctx, q, userID, l.initial); err != nil {
		return Wallet{}, fmt.Errorf("ensure wallet: %w", err)
	}
	var w Wallet
	if err := l.db.GetContext(ctx, &w, l.db.Rebind(`SELECT user_id, balance FROM users WHERE user_id = ?`), userID); err != nil {
		return Wallet{}, fmt.Errorf("load wallet: %w", err)
	}
	return w, nil
}

// Balance reads the users row; missing rows count as 0.
func (l *SQLLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	var balances []int64
	if err := l.db.SelectContext(ctx, &balances, l.db.Rebind(`SELECT balance FROM users WHERE user_id = ?`), userID); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	if len(balances) == 0 {
		return 0, nil
	}
	return balances[0], nil
}

// Debit is a conditional UPDATE; zero rows affected means insufficient funds.
func (l *SQLLedger) Debit(ctx context.Context, userID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	q := l.db.Rebind(`UPDATE users SET balance = balance - ? WHERE user_id = ? AND balance >= ?`)
	res, err := l.db.ExecContext(ctx, q, amount, userID, amount)
	if err != nil {
		return false, fmt.Errorf("debit wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("debit wallet: %w", err)
	}
	recordDebit(ctx, userID, amount, n == 1)
	return n == 1, nil
}

// Credit upserts the wallet and adds amount in one statement.
func (l *SQLLedger) Credit(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	q := l.db.Rebind(`INSERT INTO users (user_id, balance) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET balance = users.balance + ?`)
	if _, err := l.db.ExecContext(ctx, q, userID, l.initial+amount, amount); err != nil {
		return fmt.Errorf("credit wallet: %w", err)
	}
	recordCredit(ctx, userID, amount)
	return nil
}

// Wallets lists every users row ordered by user id.
func (l *SQLLedger) Wallets(ctx context.Context) ([]Wallet, error) {
	var out []Wallet
	if err := l.db.SelectContext(ctx, &out, `SELECT user_id, balance FROM users ORDER BY user_id`); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return out, nil
}
