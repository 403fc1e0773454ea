// Package ledger keeps the virtual wallet balances that pay for listings.
package ledger

import (
	"context"
	"errors"
)

// ErrInvalidAmount rejects zero or negative debits and credits.
var ErrInvalidAmount = errors.New("ledger: amount must be positive")

// Wallet is a user's balance.
type Wallet struct {
	UserID  int64 `db:"user_id"`
	Balance int64 `db:"balance"`
}

// Ledger owns wallet balances. Balances never go negative.
type Ledger interface {
	// Ensure creates the wallet with the default balance if it does not exist.
	Ensure(ctx context.Context, userID int64) (Wallet, error)
	// Balance returns 0 for users never seen.
	Balance(ctx context.Context, userID int64) (int64, error)
	// Debit decrements atomically; it reports false and changes nothing when funds are short.
	Debit(ctx context.Context, userID, amount int64) (bool, error)
	// Credit creates the wallet when absent, then adds amount.
	Credit(ctx context.Context, userID, amount int64) error
	// Wallets lists every wallet ordered by user id.
	Wallets(ctx context.Context) ([]Wallet, error)
}
