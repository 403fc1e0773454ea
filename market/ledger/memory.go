package ledger

import (
	"context"
	"sort"
	"sync"
)

type account struct {
	mu      sync.Mutex
	balance int64
}

// MemoryLedger is a process-local ledger with one lock per wallet.
type MemoryLedger struct {
	mu       sync.RWMutex
	accounts map[int64]*account
	initial  int64
}

// NewMemoryLedger creates an empty ledger; new wallets start at initial.
func NewMemoryLedger(initial int64) *MemoryLedger {
	return &MemoryLedger{accounts: make(map[int64]*account), initial: initial}
}

func (l *MemoryLedger) lookup(userID int64) *account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[userID]
}

func (l *MemoryLedger) ensure(userID int64) *account {
	if a := l.lookup(userID); a != nil {
		return a
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[userID]
	if !ok {
		a = &account{balance: l.initial}
		l.accounts[userID] = a
	}
	return a
}

// Ensure opens the wallet with the default balance on first contact.
func (l *MemoryLedger) Ensure(_ context.Context, userID int64) (Wallet, error) {
	a := l.ensure(userID)
	a.mu.Lock()
	defer a.mu.Unlock()
	return Wallet{UserID: userID, Balance: a.balance}, nil
}

// Balance reads the current balance; unknown users have 0.
func (l *MemoryLedger) Balance(_ context.Context, userID int64) (int64, error) {
	a := l.lookup(userID)
	if a == nil {
		return 0, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

// Debit subtracts amount under the account lock, refusing to go negative.
func (l *MemoryLedger) Debit(ctx context.Context, userID, amount int64) (bool, error) {
	if amount <= 0 {
		return false, ErrInvalidAmount
	}
	a := l.lookup(userID)
	if a == nil {
		recordDebit(ctx, userID, amount, false)
		return false, nil
	}
	a.mu.Lock()
	ok := a.balance >= amount
	if ok {
		a.balance -= amount
	}
	a.mu.Unlock()
	recordDebit(ctx, userID, amount, ok)
	return ok, nil
}

// Credit adds amount, opening the wallet first if needed.
func (l *MemoryLedger) Credit(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	a := l.ensure(userID)
	a.mu.Lock()
	a.balance += amount
	a.mu.Unlock()
	recordCredit(ctx, userID, amount)
	return nil
}

// Wallets snapshots every wallet ordered by user id.
func (l *MemoryLedger) Wallets(_ context.Context) ([]Wallet, error) {
	l.mu.RLock()
	out := make([]Wallet, 0, len(l.accounts))
	for id, a := range l.accounts {
		a.mu.Lock()
		out = append(out, Wallet{UserID: id, Balance: a.balance})
		a.mu.Unlock()
	}
	l.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
