package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxTxAttempts bounds internal retries when the database aborts a transaction
// due to lock contention before the failure is surfaced to the caller.
const maxTxAttempts = 3

// PostgresLedger persists balances and log entries in PostgreSQL. All
// mutations run inside a single transaction holding FOR UPDATE row locks.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed ledger implementation.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// CreateAccount inserts a zero balance record unless one already exists.
func (l *PostgresLedger) CreateAccount(ctx context.Context, userID, currency string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO accounts (user_id, balance, currency, updated_at)
        VALUES ($1, 0, $2, $3) ON CONFLICT (user_id) DO NOTHING`, uid, currency, time.Now().UTC())
	return err
}

// Account fetches the committed balance record for the user.
func (l *PostgresLedger) Account(ctx context.Context, userID string) (Account, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return Account{}, err
	}
	row := l.db.QueryRow(ctx, `SELECT balance, currency, updated_at FROM accounts WHERE user_id = $1`, uid)
	acct := Account{UserID: userID}
	var updatedAt time.Time
	if err := row.Scan(&acct.Balance, &acct.Currency, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	acct.UpdatedAt = updatedAt.UTC()
	return acct, nil
}

// CreditTopUp applies a verified top-up. The balance update and the entry
// insert commit together; the partial unique index on topup references makes a
// replayed reference return the prior entry instead of crediting twice.
func (l *PostgresLedger) CreditTopUp(ctx context.Context, userID, reference string, amount int64) (TopUpResult, error) {
	if amount <= 0 {
		return TopUpResult{}, fmt.Errorf("amount must be positive")
	}
	if reference == "" {
		return TopUpResult{}, fmt.Errorf("reference is required")
	}
	uid, err := uuid.Parse(userID)
	if err != nil {
		return TopUpResult{}, err
	}

	var res TopUpResult
	err = l.withRetry(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var balance int64
		row := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, uid)
		if err := row.Scan(&balance); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrAccountNotFound
			}
			return err
		}

		var existingID uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM entries WHERE kind = $1 AND reference = $2`, KindTopUp, reference).Scan(&existingID)
		if err == nil {
			res = TopUpResult{EntryID: existingID.String(), NewBalance: balance}
			return ErrDuplicateReference
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		entryID := uuid.New()
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `INSERT INTO entries (id, kind, amount, status, to_id, reference, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`, entryID, KindTopUp, amount, StatusSuccess, uid, reference, now); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE user_id = $3`,
			amount, now, uid); err != nil {
			return err
		}

		res = TopUpResult{EntryID: entryID.String(), NewBalance: balance + amount}
		return nil
	})
	return res, err
}

// Transfer moves amount between two accounts. Both rows are locked in sorted
// id order so opposing transfers on the same pair cannot deadlock.
func (l *PostgresLedger) Transfer(ctx context.Context, fromID, toID string, amount int64) (TransferResult, error) {
	if amount <= 0 {
		return TransferResult{}, fmt.Errorf("amount must be positive")
	}
	fromUID, err := uuid.Parse(fromID)
	if err != nil {
		return TransferResult{}, err
	}
	toUID, err := uuid.Parse(toID)
	if err != nil {
		return TransferResult{}, err
	}

	var res TransferResult
	err = l.withRetry(ctx, func(ctx context.Context, tx pgx.Tx) error {
		first, second := fromUID, toUID
		if second.String() < first.String() {
			first, second = second, first
		}
		firstAcct, err := lockAccount(ctx, tx, first)
		if err != nil {
			return err
		}
		secondAcct, err := lockAccount(ctx, tx, second)
		if err != nil {
			return err
		}

		from, to := firstAcct, secondAcct
		if first != fromUID {
			from, to = secondAcct, firstAcct
		}

		if from.Currency != to.Currency {
			return ErrCurrencyMismatch
		}
		if from.Balance < amount {
			return ErrInsufficientFunds
		}

		entryID := uuid.New()
		now := time.Now().UTC()
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance - $1, updated_at = $2 WHERE user_id = $3`,
			amount, now, fromUID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `UPDATE accounts SET balance = balance + $1, updated_at = $2 WHERE user_id = $3`,
			amount, now, toUID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO entries (id, kind, amount, status, from_id, to_id, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7)`, entryID, KindTransfer, amount, StatusSuccess, fromUID, toUID, now); err != nil {
			return err
		}

		res = TransferResult{
			EntryID:     entryID.String(),
			FromBalance: from.Balance - amount,
			ToBalance:   to.Balance + amount,
		}
		return nil
	})
	return res, err
}

// EntriesByParticipant lists entries involving the user, newest first.
func (l *PostgresLedger) EntriesByParticipant(ctx context.Context, userID string, limit int) ([]Entry, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.Query(ctx, `SELECT id, kind, amount, status, from_id, to_id, reference, created_at
        FROM entries WHERE from_id = $1 OR to_id = $1 ORDER BY created_at DESC LIMIT $2`, uid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			id, to    uuid.UUID
			from      *uuid.UUID
			reference *string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &e.Kind, &e.Amount, &e.Status, &from, &to, &reference, &createdAt); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.To = to.String()
		if from != nil {
			e.From = from.String()
		}
		if reference != nil {
			e.Reference = *reference
		}
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (l *PostgresLedger) withRetry(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			return err
		}
		if err := fn(ctx, tx); err != nil {
			_ = tx.Rollback(ctx)
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			if isRetryable(err) {
				lastErr = err
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("transaction contention: %w", lastErr)
}

// isRetryable reports whether the database aborted the transaction for a
// reason that a fresh attempt can resolve (serialization failure, deadlock).
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func lockAccount(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (Account, error) {
	row := tx.QueryRow(ctx, `SELECT balance, currency FROM accounts WHERE user_id = $1 FOR UPDATE`, userID)
	acct := Account{UserID: userID.String()}
	if err := row.Scan(&acct.Balance, &acct.Currency); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return acct, nil
}
