package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates ledger record kinds.
type TransactionType string

const (
	TypeDeposit    TransactionType = "Deposit"
	TypeWithdrawal TransactionType = "Withdrawal"
	TypeTransfer   TransactionType = "Transfer"
)

// TransactionStatus enumerates record outcomes. Normal completion only
// ever produces Success; Failed exists for administrative corrections.
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "Success"
	StatusFailed  TransactionStatus = "Failed"
)

// MaxDescriptionLength bounds the free-text description.
const MaxDescriptionLength = 250

// Transaction is one immutable ledger record. Amount is always a positive
// magnitude; direction follows from Type and from which account owns the
// record. BalanceAfter snapshots the owning account's balance immediately
// after the record was applied, which makes each account's history
// independently replayable.
type Transaction struct {
	ID                  uuid.UUID         `json:"id"`
	AccountID           uuid.UUID         `json:"accountId"`
	Type                TransactionType   `json:"type"`
	Amount              decimal.Decimal   `json:"amount"`
	Timestamp           time.Time         `json:"timestamp"`
	Description         string            `json:"description"`
	TargetAccountNumber *string           `json:"targetAccountNumber,omitempty"`
	Status              TransactionStatus `json:"status"`
	BalanceAfter        decimal.Decimal   `json:"balanceAfterTransaction"`
}
