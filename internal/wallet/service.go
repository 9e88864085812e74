package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatter-app/chatter-wallet/internal/gateway"
	"github.com/chatter-app/chatter-wallet/internal/ledger"
	"github.com/chatter-app/chatter-wallet/internal/notification"
	"github.com/chatter-app/chatter-wallet/internal/stream"
)

// Service orchestrates the wallet operations over the ledger and the payment
// gateway. Caller identity is always the verified user id from the session,
// never a client-supplied field. All collaborators are injected; the service
// holds no ambient state.
type Service struct {
	ledger   ledger.Ledger
	gateway  gateway.Client
	broker   *stream.Broker
	notifier notification.Notifier
	logger   *slog.Logger
	currency string
}

// NewService builds the wallet service.
func NewService(led ledger.Ledger, gw gateway.Client, broker *stream.Broker, notifier notification.Notifier, logger *slog.Logger, currency string) *Service {
	if currency == "" {
		currency = "NGN"
	}
	return &Service{ledger: led, gateway: gw, broker: broker, notifier: notifier, logger: logger, currency: currency}
}

// CreateForUser provisions a zero balance for a newly created user account.
// It is the reaction to user creation and safe to re-deliver: the ledger write
// is creation-only and never resets an active balance.
func (s *Service) CreateForUser(ctx context.Context, userID string) error {
	return s.ledger.CreateAccount(ctx, userID, s.currency)
}

// InitializeTopUp opens a hosted checkout session for the caller. Nothing has
// been paid yet, so no balance or log mutation happens here. Gateway failures
// propagate; a retry simply opens a fresh session with a new reference.
func (s *Service) InitializeTopUp(ctx context.Context, callerID string, amount int64, email string) (gateway.Checkout, error) {
	if amount <= 0 {
		return gateway.Checkout{}, ErrInvalidAmount
	}
	if strings.TrimSpace(email) == "" {
		return gateway.Checkout{}, ErrEmailRequired
	}

	checkout, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{Amount: amount, Email: email, UserID: callerID})
	if err != nil {
		return gateway.Checkout{}, fmt.Errorf("initialize checkout: %w", err)
	}
	return checkout, nil
}

// VerifyTopUp confirms a completed checkout with the gateway and credits the
// caller. The gateway is authoritative: anything but a captured payment at the
// claimed amount aborts before any mutation. A replayed reference returns the
// prior success instead of crediting twice.
func (s *Service) VerifyTopUp(ctx context.Context, callerID, reference string, amount int64) (TopUpReceipt, error) {
	if amount <= 0 {
		return TopUpReceipt{}, ErrInvalidAmount
	}
	if strings.TrimSpace(reference) == "" {
		return TopUpReceipt{}, fmt.Errorf("reference is required")
	}

	verification, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		return TopUpReceipt{}, fmt.Errorf("verify checkout: %w", err)
	}
	if verification.Status != gateway.StatusSuccess || verification.Amount != amount {
		return TopUpReceipt{}, ErrTopUpNotConfirmed
	}

	res, err := s.ledger.CreditTopUp(ctx, callerID, reference, amount)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateReference) {
			return TopUpReceipt{EntryID: res.EntryID, Balance: res.NewBalance, AlreadyCredited: true}, nil
		}
		return TopUpReceipt{}, err
	}

	s.announce(ctx, callerID, stream.EntryEvent{
		EntryID: res.EntryID,
		Kind:    ledger.KindTopUp,
		Amount:  amount,
		To:      callerID,
	})
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTopUpConfirmed,
			Destination: callerID,
			Body:        fmt.Sprintf("Your top-up of %d was confirmed", amount),
		}); err != nil {
			s.logger.Warn("send topup notification", "user_id", callerID, "error", err)
		}
	}

	return TopUpReceipt{EntryID: res.EntryID, Balance: res.NewBalance}, nil
}

// Transfer moves funds from the caller to another user in one atomic ledger
// posting. Self-transfers are rejected outright rather than logged as
// degenerate entries.
func (s *Service) Transfer(ctx context.Context, callerID, toUserID string, amount int64) (TransferReceipt, error) {
	if amount <= 0 {
		return TransferReceipt{}, ErrInvalidAmount
	}
	if strings.TrimSpace(toUserID) == "" {
		return TransferReceipt{}, ErrRecipientRequired
	}
	if toUserID == callerID {
		return TransferReceipt{}, ErrSelfTransfer
	}

	res, err := s.ledger.Transfer(ctx, callerID, toUserID, amount)
	if err != nil {
		return TransferReceipt{}, err
	}

	s.announce(ctx, callerID, stream.EntryEvent{
		EntryID: res.EntryID,
		Kind:    ledger.KindTransfer,
		Amount:  amount,
		From:    callerID,
		To:      toUserID,
	})
	s.announceBalance(ctx, toUserID)
	if s.notifier != nil {
		if err := s.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: toUserID,
			Body:        fmt.Sprintf("You received %d", amount),
		}); err != nil {
			s.logger.Warn("send transfer notification", "user_id", toUserID, "error", err)
		}
	}

	return TransferReceipt{TransactionID: res.EntryID, FromBalance: res.FromBalance, ToBalance: res.ToBalance}, nil
}

// Balance returns the caller's committed balance record.
func (s *Service) Balance(ctx context.Context, userID string) (ledger.Account, error) {
	return s.ledger.Account(ctx, userID)
}

// History lists the caller's transaction log entries, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	return s.ledger.EntriesByParticipant(ctx, userID, limit)
}

// announce publishes the entry plus the mutating user's fresh balance. Events
// are a UI convenience; failures are logged by the broker and never affect the
// committed mutation.
func (s *Service) announce(ctx context.Context, userID string, ev stream.EntryEvent) {
	if s.broker == nil {
		return
	}
	acct, err := s.ledger.Account(ctx, userID)
	if err == nil {
		ev.CreatedAt = acct.UpdatedAt
		s.broker.PublishBalance(ctx, stream.BalanceEvent{
			UserID:    userID,
			Balance:   acct.Balance,
			Currency:  acct.Currency,
			UpdatedAt: acct.UpdatedAt,
		})
	}
	s.broker.PublishEntry(ctx, ev)
}

func (s *Service) announceBalance(ctx context.Context, userID string) {
	if s.broker == nil {
		return
	}
	acct, err := s.ledger.Account(ctx, userID)
	if err != nil {
		return
	}
	s.broker.PublishBalance(ctx, stream.BalanceEvent{
		UserID:    userID,
		Balance:   acct.Balance,
		Currency:  acct.Currency,
		UpdatedAt: acct.UpdatedAt,
	})
}
