package wallet

import "errors"

var (
	// ErrInvalidAmount occurs when an operation is requested with a
	// non-positive amount.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrSelfTransfer occurs when a user attempts to transfer funds to
	// themselves.
	ErrSelfTransfer = errors.New("cannot transfer to self")

	// ErrEmailRequired occurs when a top-up is initialized without the
	// checkout email.
	ErrEmailRequired = errors.New("email is required")

	// ErrRecipientRequired occurs when a transfer omits the recipient.
	ErrRecipientRequired = errors.New("recipient is required")

	// ErrTopUpNotConfirmed occurs when the gateway reports the payment as not
	// captured, or captured at a different amount than claimed. No mutation
	// happens; the client may retry once the condition is corrected.
	ErrTopUpNotConfirmed = errors.New("payment not successful or amount mismatch")
)

// TopUpReceipt acknowledges a verified top-up. AlreadyCredited marks a
// replayed verification that returned the prior result without crediting again.
type TopUpReceipt struct {
	EntryID         string
	Balance         int64
	AlreadyCredited bool
}

// TransferReceipt reports the outcome of a peer-to-peer transfer.
type TransferReceipt struct {
	TransactionID string
	FromBalance   int64
	ToBalance     int64
}
