package domain

import "errors"

var (
	// ErrInvalidConfiguration is returned when a challenge cannot be built from the supplied questions or options.
	ErrInvalidConfiguration = errors.New("invalid challenge configuration")
	// ErrInvalidState is returned when an operation is not allowed in the current phase.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrOptionNotFound indicates a submitted option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrChallengeNotFound is returned when a challenge has not been started or was abandoned.
	ErrChallengeNotFound = errors.New("challenge not found")
	// ErrNotChallengeOwner is returned when a user acts on someone else's challenge.
	ErrNotChallengeOwner = errors.New("challenge belongs to another user")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrPaymentFailed wraps entry fee collaborator failures.
	ErrPaymentFailed = errors.New("entry fee payment failed")
	// ErrClaimFailed wraps reward collaborator failures.
	ErrClaimFailed = errors.New("reward claim failed")
	// ErrAlreadyClaimed is returned on a second claim for the same challenge.
	ErrAlreadyClaimed = errors.New("reward already claimed")
)

// Vault errors.
var (
	ErrInvalidAmount          = errors.New("amount must be greater than 0")
	ErrMinimumAmount          = errors.New("amount below minimum entry fee")
	ErrActiveEntryExists      = errors.New("user already has an active entry")
	ErrNoActiveEntry          = errors.New("no active entry found")
	ErrReceiptMismatch        = errors.New("receipt does not match active entry")
	ErrEntryExpired           = errors.New("entry has expired")
	ErrInsufficientVaultFunds = errors.New("insufficient funds in vault for rewards")
)
