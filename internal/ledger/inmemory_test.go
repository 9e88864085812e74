package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func newAccount(t *testing.T, l Ledger) string {
	t.Helper()
	id := uuid.NewString()
	if err := l.CreateAccount(context.Background(), id, "NGN"); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return id
}

func TestInMemoryLedger_CreateAccountIdempotent(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	id := newAccount(t, l)
	SeedBalance(l, id, 7_500)

	// A retried creation trigger must not reset an active balance.
	if err := l.CreateAccount(ctx, id, "NGN"); err != nil {
		t.Fatalf("repeat create: %v", err)
	}

	acct, err := l.Account(ctx, id)
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	if acct.Balance != 7_500 {
		t.Fatalf("expected balance 7500 after duplicate create, got %d", acct.Balance)
	}
}

func TestInMemoryLedger_CreditTopUp(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := newAccount(t, l)

	res, err := l.CreditTopUp(ctx, id, "ref-1", 50_000)
	if err != nil {
		t.Fatalf("credit top-up: %v", err)
	}
	if res.NewBalance != 50_000 {
		t.Fatalf("expected balance 50000, got %d", res.NewBalance)
	}

	entries, err := l.EntriesByParticipant(ctx, id, 10)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != KindTopUp || entries[0].Reference != "ref-1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestInMemoryLedger_DuplicateReference(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	id := newAccount(t, l)

	first, err := l.CreditTopUp(ctx, id, "ref-dup", 1_000)
	if err != nil {
		t.Fatalf("initial credit: %v", err)
	}

	res, err := l.CreditTopUp(ctx, id, "ref-dup", 1_000)
	if !errors.Is(err, ErrDuplicateReference) {
		t.Fatalf("expected duplicate reference error, got %v", err)
	}
	if res.EntryID != first.EntryID {
		t.Fatalf("expected prior entry id %s, got %s", first.EntryID, res.EntryID)
	}
	if res.NewBalance != 1_000 {
		t.Fatalf("balance credited twice: %d", res.NewBalance)
	}

	entries, _ := l.EntriesByParticipant(ctx, id, 10)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one topup entry, got %d", len(entries))
	}
}

func TestInMemoryLedger_TransferMaintainsBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := newAccount(t, l)
	b := newAccount(t, l)
	SeedBalance(l, a, 10_000)

	res, err := l.Transfer(ctx, a, b, 1_500)
	if err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	if res.FromBalance != 8_500 {
		t.Fatalf("expected from balance 8500, got %d", res.FromBalance)
	}
	if res.ToBalance != 1_500 {
		t.Fatalf("expected to balance 1500, got %d", res.ToBalance)
	}

	ledgerImpl := l.(*inMemoryLedger)
	total := ledgerImpl.accounts[a].Balance + ledgerImpl.accounts[b].Balance
	if total != 10_000 {
		t.Fatalf("ledger not balanced, total=%d", total)
	}

	entries, _ := l.EntriesByParticipant(ctx, b, 10)
	if len(entries) != 1 || entries[0].From != a || entries[0].To != b || entries[0].Amount != 1_500 {
		t.Fatalf("unexpected transfer entry: %+v", entries)
	}
}

func TestInMemoryLedger_InsufficientFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := newAccount(t, l)
	b := newAccount(t, l)
	SeedBalance(l, a, 300)

	if _, err := l.Transfer(ctx, a, b, 500); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	acctA, _ := l.Account(ctx, a)
	acctB, _ := l.Account(ctx, b)
	if acctA.Balance != 300 || acctB.Balance != 0 {
		t.Fatalf("balances mutated on failed transfer: a=%d b=%d", acctA.Balance, acctB.Balance)
	}
}

func TestInMemoryLedger_CurrencyMismatch(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := uuid.NewString()
	b := uuid.NewString()
	l.CreateAccount(ctx, a, "NGN")
	l.CreateAccount(ctx, b, "GHS")
	SeedBalance(l, a, 1_000)

	if _, err := l.Transfer(ctx, a, b, 100); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestInMemoryLedger_ConcurrentTransfers(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := newAccount(t, l)
	b := newAccount(t, l)

	const workers = 20
	const amount = int64(500)
	SeedBalance(l, a, workers*amount)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := l.Transfer(ctx, a, b, amount); err != nil {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	acctA, _ := l.Account(ctx, a)
	acctB, _ := l.Account(ctx, b)
	if acctA.Balance != 0 {
		t.Fatalf("expected drained sender, got %d", acctA.Balance)
	}
	if acctB.Balance != workers*amount {
		t.Fatalf("expected recipient balance %d, got %d", workers*amount, acctB.Balance)
	}
}

func TestInMemoryLedger_ReplayReproducesBalance(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	a := newAccount(t, l)
	b := newAccount(t, l)

	if _, err := l.CreditTopUp(ctx, a, "ref-a-1", 10_000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := l.CreditTopUp(ctx, b, "ref-b-1", 2_000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := l.Transfer(ctx, a, b, 700); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}
	if _, err := l.Transfer(ctx, b, a, 1_200); err != nil {
		t.Fatalf("reverse transfer: %v", err)
	}

	for _, id := range []string{a, b} {
		entries, err := l.EntriesByParticipant(ctx, id, 100)
		if err != nil {
			t.Fatalf("entries for %s: %v", id, err)
		}
		var replayed int64
		for _, e := range entries {
			if e.To == id {
				replayed += e.Amount
			}
			if e.From == id {
				replayed -= e.Amount
			}
		}
		acct, _ := l.Account(ctx, id)
		if replayed != acct.Balance {
			t.Fatalf("replay mismatch for %s: replayed=%d balance=%d", id, replayed, acct.Balance)
		}
	}
}

func TestInMemoryLedger_ConservationAcrossRandomTransfers(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	accounts := make([]string, 4)
	for i := range accounts {
		accounts[i] = newAccount(t, l)
		SeedBalance(l, accounts[i], 25_000)
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from := accounts[i%len(accounts)]
			to := accounts[(i+1)%len(accounts)]
			// Failures (insufficient funds under contention) are acceptable;
			// conservation must hold either way.
			_, _ = l.Transfer(ctx, from, to, int64(100*(i%7+1)))
		}(i)
	}
	wg.Wait()

	var total int64
	for _, id := range accounts {
		acct, err := l.Account(ctx, id)
		if err != nil {
			t.Fatalf("account %s: %v", id, err)
		}
		if acct.Balance < 0 {
			t.Fatalf("negative balance on %s: %d", id, acct.Balance)
		}
		total += acct.Balance
	}
	if want := int64(len(accounts)) * 25_000; total != want {
		t.Fatalf("conservation violated: total=%d want=%d", total, want)
	}
}
