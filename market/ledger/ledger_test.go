package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/m3rciful/postbot/core/database/dbtest"
)

func forEachLedger(t *testing.T, initial int64, fn func(t *testing.T, l Ledger)) {
	factories := map[string]func(t *testing.T) Ledger{
		"memory": func(*testing.T) Ledger { return NewMemoryLedger(initial) },
		"sqlite": func(t *testing.T) Ledger {
			return NewSQLLedger(dbtest.OpenSQLite(t, "../../migrations"), initial)
		},
	}
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) { fn(t, factory(t)) })
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	forEachLedger(t, 100, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		w, err := l.Ensure(ctx, 1)
		if err != nil || w.Balance != 100 {
			t.Fatalf("ensure = %+v, %v", w, err)
		}
		if ok, _ := l.Debit(ctx, 1, 30); !ok {
			t.Fatalf("debit failed")
		}
		w, _ = l.Ensure(ctx, 1)
		if w.Balance != 70 {
			t.Fatalf("ensure must not reset balance, got %d", w.Balance)
		}
	})
}

func TestBalanceOfUnknownUserIsZero(t *testing.T) {
	forEachLedger(t, 100, func(t *testing.T, l Ledger) {
		b, err := l.Balance(context.Background(), 404)
		if err != nil || b != 0 {
			t.Fatalf("balance = %d, %v", b, err)
		}
	})
}

func TestDebitRules(t *testing.T) {
	forEachLedger(t, 10, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		if ok, _ := l.Debit(ctx, 2, 5); ok {
			t.Fatalf("unknown user must not be debited")
		}
		l.Ensure(ctx, 2)
		if ok, _ := l.Debit(ctx, 2, 20); ok {
			t.Fatalf("debit beyond balance succeeded")
		}
		if b, _ := l.Balance(ctx, 2); b != 10 {
			t.Fatalf("failed debit changed balance to %d", b)
		}
		if ok, _ := l.Debit(ctx, 2, 10); !ok {
			t.Fatalf("debit of exact balance failed")
		}
		if b, _ := l.Balance(ctx, 2); b != 0 {
			t.Fatalf("balance = %d", b)
		}
		if _, err := l.Debit(ctx, 2, 0); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("zero debit: %v", err)
		}
	})
}

func TestCreditCreatesWallet(t *testing.T) {
	forEachLedger(t, 100, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		if err := l.Credit(ctx, 3, 50); err != nil {
			t.Fatalf("credit: %v", err)
		}
		if b, _ := l.Balance(ctx, 3); b != 150 {
			t.Fatalf("balance = %d, want default plus credit", b)
		}
		if err := l.Credit(ctx, 3, 5); err != nil {
			t.Fatalf("credit: %v", err)
		}
		if b, _ := l.Balance(ctx, 3); b != 155 {
			t.Fatalf("balance = %d", b)
		}
		if err := l.Credit(ctx, 3, -1); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("negative credit: %v", err)
		}
	})
}

func TestWalletsSorted(t *testing.T) {
	forEachLedger(t, 100, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		for _, id := range []int64{30, 10, 20} {
			l.Ensure(ctx, id)
		}
		ws, err := l.Wallets(ctx)
		if err != nil {
			t.Fatalf("wallets: %v", err)
		}
		if len(ws) != 3 || ws[0].UserID != 10 || ws[2].UserID != 30 {
			t.Fatalf("wallets = %+v", ws)
		}
	})
}

func TestConcurrentDebitNeverOverdraws(t *testing.T) {
	forEachLedger(t, 100, func(t *testing.T, l Ledger) {
		ctx := context.Background()
		l.Ensure(ctx, 9)

		const attempts = 20
		var (
			wg        sync.WaitGroup
			successes atomic.Int64
		)
		start := make(chan struct{})
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, err := l.Debit(ctx, 9, 30)
				if err != nil {
					t.Errorf("debit: %v", err)
					return
				}
				if ok {
					successes.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if got := successes.Load(); got != 3 {
			t.Fatalf("successes = %d, want floor(100/30) = 3", got)
		}
		if b, _ := l.Balance(ctx, 9); b != 10 {
			t.Fatalf("balance = %d, want 10", b)
		}
	})
}
