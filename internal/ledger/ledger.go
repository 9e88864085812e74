package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAccountNotFound occurs when no balance record exists for a user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds occurs when the sender lacks available balance
	// to cover a requested transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateReference indicates the gateway reference was already
	// consumed by a successful top-up and the credit must not be applied again.
	ErrDuplicateReference = errors.New("reference already credited")

	// ErrCurrencyMismatch occurs when a transfer would mix accounts held in
	// different currencies.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

const (
	// KindTopUp marks entries recording a verified gateway top-up.
	KindTopUp = "topup"
	// KindTransfer marks entries recording a peer-to-peer transfer.
	KindTransfer = "transfer"
	// StatusSuccess is the only status an entry can carry; entries are written
	// after the mutation they describe has committed.
	StatusSuccess = "success"
)

// Account is the per-user balance record. Balance is held in the smallest
// currency unit and never goes negative.
type Account struct {
	UserID    string
	Balance   int64
	Currency  string
	UpdatedAt time.Time
}

// Entry is one immutable transaction log record. From is empty for top-ups;
// Reference is set only for top-ups and is unique among them.
type Entry struct {
	ID        string
	Kind      string
	Amount    int64
	Status    string
	From      string
	To        string
	Reference string
	CreatedAt time.Time
}

// TopUpResult captures the outcome of crediting a verified top-up.
type TopUpResult struct {
	EntryID    string
	NewBalance int64
}

// TransferResult captures the outcome of a peer-to-peer transfer.
type TransferResult struct {
	EntryID     string
	FromBalance int64
	ToBalance   int64
}

// Ledger is the contract implemented by balance store backends. Every mutation
// updates the balance record and appends its log entry in one atomic unit.
type Ledger interface {
	// CreateAccount provisions a zero balance for the user. It is a
	// creation-only write: a second call never resets an existing balance.
	CreateAccount(ctx context.Context, userID, currency string) error

	// Account returns the committed balance record for the user.
	Account(ctx context.Context, userID string) (Account, error)

	// CreditTopUp atomically adds amount to the user's balance and appends a
	// topup entry carrying the gateway reference. A reference that was already
	// credited returns the prior result together with ErrDuplicateReference.
	CreditTopUp(ctx context.Context, userID, reference string, amount int64) (TopUpResult, error)

	// Transfer atomically debits fromID, credits toID and appends one transfer
	// entry. It fails with ErrInsufficientFunds before any mutation when the
	// sender cannot cover the amount.
	Transfer(ctx context.Context, fromID, toID string, amount int64) (TransferResult, error)

	// EntriesByParticipant lists entries where the user is sender or
	// recipient, newest first.
	EntriesByParticipant(ctx context.Context, userID string, limit int) ([]Entry, error)
}
