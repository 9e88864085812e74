package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]Account
	entries  []Entry
	topupRef map[string]string // reference -> entry id
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit
// tests and development without a database.
func NewInMemory() Ledger {
	return &inMemoryLedger{
		accounts: make(map[string]Account),
		topupRef: make(map[string]string),
	}
}

func (l *inMemoryLedger) CreateAccount(_ context.Context, userID, currency string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.accounts[userID]; exists {
		return nil
	}
	l.accounts[userID] = Account{UserID: userID, Balance: 0, Currency: currency, UpdatedAt: time.Now().UTC()}
	return nil
}

func (l *inMemoryLedger) Account(_ context.Context, userID string) (Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acct, exists := l.accounts[userID]
	if !exists {
		return Account{}, ErrAccountNotFound
	}
	return acct, nil
}

func (l *inMemoryLedger) CreditTopUp(_ context.Context, userID, reference string, amount int64) (TopUpResult, error) {
	if amount <= 0 {
		return TopUpResult{}, fmt.Errorf("amount must be positive")
	}
	if reference == "" {
		return TopUpResult{}, fmt.Errorf("reference is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, exists := l.accounts[userID]
	if !exists {
		return TopUpResult{}, ErrAccountNotFound
	}

	if entryID, seen := l.topupRef[reference]; seen {
		return TopUpResult{EntryID: entryID, NewBalance: acct.Balance}, ErrDuplicateReference
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Kind:      KindTopUp,
		Amount:    amount,
		Status:    StatusSuccess,
		To:        userID,
		Reference: reference,
		CreatedAt: time.Now().UTC(),
	}

	acct.Balance += amount
	acct.UpdatedAt = entry.CreatedAt
	l.accounts[userID] = acct
	l.entries = append(l.entries, entry)
	l.topupRef[reference] = entry.ID

	return TopUpResult{EntryID: entry.ID, NewBalance: acct.Balance}, nil
}

func (l *inMemoryLedger) Transfer(_ context.Context, fromID, toID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	from, ok := l.accounts[fromID]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}
	to, ok := l.accounts[toID]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}

	if from.Currency != to.Currency {
		return TransferResult{}, ErrCurrencyMismatch
	}
	if from.Balance < amount {
		return TransferResult{}, ErrInsufficientFunds
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Kind:      KindTransfer,
		Amount:    amount,
		Status:    StatusSuccess,
		From:      fromID,
		To:        toID,
		CreatedAt: time.Now().UTC(),
	}

	from.Balance -= amount
	from.UpdatedAt = entry.CreatedAt
	to.Balance += amount
	to.UpdatedAt = entry.CreatedAt
	l.accounts[fromID] = from
	l.accounts[toID] = to
	l.entries = append(l.entries, entry)

	return TransferResult{EntryID: entry.ID, FromBalance: from.Balance, ToBalance: to.Balance}, nil
}

func (l *inMemoryLedger) EntriesByParticipant(_ context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []Entry
	for _, e := range l.entries {
		if e.From == userID || e.To == userID {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}
