package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType enumerates the supported account products.
type AccountType string

const (
	AccountTypeSavings AccountType = "Savings"
	AccountTypeCurrent AccountType = "Current"
)

// DefaultCurrency is applied when account creation omits a currency.
const DefaultCurrency = "NGN"

// Account is a customer account. Balance only changes through ledger
// operations; every other field is immutable except Type and Currency.
type Account struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"ownerId"`
	Number    string          `json:"accountNumber"`
	Type      AccountType     `json:"accountType"`
	Currency  string          `json:"currency"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ValidType reports whether t is one of the supported account types.
func ValidType(t AccountType) bool {
	return t == AccountTypeSavings || t == AccountTypeCurrent
}
