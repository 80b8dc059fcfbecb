package shared

import "errors"

// Domain errors shared by the account and ledger services. Every operation
// surfaces one of these (or a wrapped store error) so callers can branch on
// the condition instead of parsing messages.
var (
	// ErrAccountNotFound indicates the account reference did not resolve.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	// ErrAmountTooLarge indicates the amount exceeds the configured ceiling.
	ErrAmountTooLarge = errors.New("amount exceeds the allowed limit")
	// ErrInsufficientBalance indicates the debit would overdraw the account.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSameAccountTransfer indicates source and destination are one account.
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	// ErrInvalidDateRange indicates fromDate is after toDate.
	ErrInvalidDateRange = errors.New("from date must not be after to date")
	// ErrNoData indicates a statement export matched no transactions.
	ErrNoData = errors.New("no transactions in the requested range")
	// ErrDuplicateAccountType indicates the owner already holds an account of this type.
	ErrDuplicateAccountType = errors.New("owner already has an account of this type")
	// ErrAccountInUse indicates the account still has transactions and cannot be removed.
	ErrAccountInUse = errors.New("account has transactions and cannot be deleted")
)
