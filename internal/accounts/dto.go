package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAccountRequest is the account-creation payload.
type CreateAccountRequest struct {
	OwnerID     string `json:"ownerId" validate:"required,uuid"`
	AccountType string `json:"accountType" validate:"required,oneof=Savings Current"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// UpdateAccountRequest carries an account metadata change.
type UpdateAccountRequest struct {
	AccountType string `json:"accountType" validate:"omitempty,oneof=Savings Current"`
	Currency    string `json:"currency" validate:"omitempty,len=3,alpha"`
}

// AccountResponse is the serialized account projection.
type AccountResponse struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"ownerId"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   AccountType     `json:"accountType"`
	Currency      string          `json:"currency"`
	Balance       decimal.Decimal `json:"balance"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toResponse(a Account) AccountResponse {
	return AccountResponse{
		ID:            a.ID.String(),
		OwnerID:       a.OwnerID.String(),
		AccountNumber: a.Number,
		AccountType:   a.Type,
		Currency:      a.Currency,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
	}
}
